// Package cli implements the motmystere commands: serve, migrate, token
// and preview.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/motmystere/internal/config"
	"github.com/robalobadob/motmystere/internal/database"
	"github.com/robalobadob/motmystere/internal/grammar"
)

var (
	cfg      *config.Config
	logLevel string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "motmystere",
	Short:         "French grammar mystery-word game server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		}
		if err := grammar.Init(cfg.LexiconFile); err != nil {
			return fmt.Errorf("load lexicon: %w", err)
		}
		return nil
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (default: $LOG_LEVEL or info)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("motmystere")
		os.Exit(1)
	}
}

// openDB opens the configured database and applies migrations.
func openDB(cmd *cobra.Command) (*database.DB, error) {
	db, err := database.OpenWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(cmd.Context(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}
