package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory of assets/migrations for this dialect
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UpsertStatsQuery adds one completion to a user's running aggregates in a
	// single statement. Args: user_id, time_taken, score, best_candidate, updated_at.
	UpsertStatsQuery() string

	// InsertIgnoreContentQuery records (user_id, content_id) once.
	InsertIgnoreContentQuery() string

	// UpsertKVQuery writes a guest key/value pair. Args: k, v, updated_at.
	UpsertKVQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// onConflictStats is shared by SQLite and PostgreSQL, which both speak
// INSERT ... ON CONFLICT with the excluded pseudo-table.
const onConflictStats = `
	INSERT INTO progress_stats (user_id, total_rounds, total_time, total_score, best_score, updated_at)
	VALUES (?, 1, ?, ?, ?, ?)
	ON CONFLICT (user_id) DO UPDATE SET
		total_rounds = progress_stats.total_rounds + 1,
		total_time   = progress_stats.total_time + excluded.total_time,
		total_score  = progress_stats.total_score + excluded.total_score,
		best_score   = CASE WHEN excluded.best_score > progress_stats.best_score
		                    THEN excluded.best_score ELSE progress_stats.best_score END,
		updated_at   = excluded.updated_at`

const onConflictKV = `
	INSERT INTO guest_kv (k, v, updated_at) VALUES (?, ?, ?)
	ON CONFLICT (k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`
