package database

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Ensure foreign key checks are enabled
	if _, err := db.Exec("SET FOREIGN_KEY_CHECKS = 1;"); err != nil {
		return err
	}
	return nil
}

func (d *MySQLDialect) MigrationsSubdir() string {
	return "mysql"
}

func (d *MySQLDialect) CreateMigrationsTableQuery() string {
	return `CREATE TABLE IF NOT EXISTS _migrations (name VARCHAR(255) PRIMARY KEY);`
}

func (d *MySQLDialect) UpsertStatsQuery() string {
	return "INSERT INTO progress_stats (user_id, total_rounds, total_time, total_score, best_score, updated_at) " +
		"VALUES (?, 1, ?, ?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE total_rounds = total_rounds + 1, " +
		"total_time = total_time + VALUES(total_time), " +
		"total_score = total_score + VALUES(total_score), " +
		"best_score = GREATEST(best_score, VALUES(best_score)), " +
		"updated_at = VALUES(updated_at)"
}

func (d *MySQLDialect) InsertIgnoreContentQuery() string {
	return `INSERT IGNORE INTO progress_content (user_id, content_id) VALUES (?, ?)`
}

func (d *MySQLDialect) UpsertKVQuery() string {
	return "INSERT INTO guest_kv (k, v, updated_at) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)"
}
