// internal/config/config.go
//
// Environment configuration for the motmystere server.
// Responsibilities:
//   - Load a .env file when present (development).
//   - Read every setting from the environment with a sensible default.
//   - Carry the game sentinels (default target word, neutral color,
//     unknown letter, lives, clock tick) so core packages never hard-code them.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default sentinels used when the environment does not override them.
const (
	DefaultTargetWord    = "HORAIRE"
	DefaultNeutralColor  = "gris"
	DefaultUnknownLetter = "X"
	DefaultMaxLives      = 3
)

// Config is the full server configuration.
type Config struct {
	Port     string
	LogLevel string

	DBType      string // sqlite | postgres | mysql
	DBPath      string // sqlite file
	DatabaseURL string // postgres / mysql DSN

	JWTSecret    string
	TokenTTL     time.Duration
	ClientOrigin string
	CookieName   string
	AnonCookie   string
	Production   bool

	ImageStore   string // local | s3
	ImageDir     string
	ImageBaseURL string
	S3Bucket     string
	AWSRegion    string

	LexiconFile string
	RoundIdle   time.Duration
	DailySalt   string

	Game Game
}

// Game holds the sentinels and tunables consumed by the round engine.
type Game struct {
	DefaultTargetWord string
	NeutralColor      string
	UnknownLetter     string
	MaxLives          int
	Tick              time.Duration
}

// Load reads .env (if any) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "5175"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBType:      strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DBPath:      getEnv("DB_PATH", "./data/motmystere.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:    getEnv("JWT_SECRET", "dev_secret_change_me"),
		TokenTTL:     time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 15)) * time.Minute,
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		CookieName:   getEnv("COOKIE_NAME", "motmystere_token"),
		AnonCookie:   getEnv("ANON_COOKIE_NAME", "motmystere_device"),
		Production:   os.Getenv("NODE_ENV") == "production",

		ImageStore:   strings.ToLower(getEnv("IMAGE_STORE", "local")),
		ImageDir:     getEnv("IMAGE_DIR", "./data/images"),
		ImageBaseURL: getEnv("IMAGE_BASE_URL", "/images"),
		S3Bucket:     os.Getenv("S3_BUCKET"),
		AWSRegion:    getEnv("AWS_REGION", "eu-west-3"),

		LexiconFile: os.Getenv("LEXICON_FILE"),
		RoundIdle:   time.Duration(getEnvInt("ROUND_IDLE_MINUTES", 60)) * time.Minute,
		DailySalt:   getEnv("DAILY_SALT", "local_dev_salt"),

		Game: Game{
			DefaultTargetWord: strings.ToUpper(getEnv("DEFAULT_TARGET_WORD", DefaultTargetWord)),
			NeutralColor:      getEnv("NEUTRAL_COLOR", DefaultNeutralColor),
			UnknownLetter:     strings.ToUpper(getEnv("UNKNOWN_LETTER", DefaultUnknownLetter)),
			MaxLives:          getEnvInt("MAX_LIVES", DefaultMaxLives),
			Tick:              time.Duration(getEnvInt("CLOCK_TICK_MS", 1000)) * time.Millisecond,
		},
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getEnvInt parses k as an int, falling back to def on absence or garbage.
func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
