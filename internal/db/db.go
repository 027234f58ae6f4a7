package db

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	DB *sqlx.DB
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// Init opens the Postgres pool behind DB, retrying while the database comes up.
func Init(databaseURL string) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		var conn *sqlx.DB
		if conn, err = sqlx.Connect("postgres", databaseURL); err == nil {
			conn.SetMaxOpenConns(20)
			conn.SetMaxIdleConns(5)
			conn.SetConnMaxLifetime(30 * time.Minute)
			DB = conn
			log.Info().Int("attempt", attempt).Msg("[db] connected")
			return nil
		}
		log.Warn().Err(err).Int("attempt", attempt).Dur("backoff", connectBackoff).Msg("[db] postgres not reachable")
		time.Sleep(connectBackoff)
	}
	return fmt.Errorf("postgres unreachable after %d attempts: %w", connectAttempts, err)
}

const migrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	name       TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// RunMigrations applies the "*.up.sql" files under dir that schema_migrations
// has not seen, in name order, each inside its own transaction.
func RunMigrations(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("list migrations in %s: %w", dir, err)
	}
	if len(files) == 0 {
		log.Warn().Str("path", dir).Msg("[db] no migrations found")
		return nil
	}
	sort.Strings(files)

	if _, err := DB.Exec(migrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	var done []string
	if err := DB.Select(&done, `SELECT name FROM schema_migrations;`); err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, name := range done {
		applied[name] = true
	}

	for _, file := range files {
		name := filepath.Base(file)
		if applied[name] {
			continue
		}
		if err := applyMigration(file, name); err != nil {
			return err
		}
		log.Info().Str("file", name).Msg("[db] migration applied")
	}
	return nil
}

func applyMigration(file, name string) error {
	body, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	tx, err := DB.Beginx()
	if err != nil {
		return err
	}
	if len(body) > 0 {
		if _, err := tx.Exec(string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %s: %w", name, err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name) VALUES ($1);`, name); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit()
}
