package db

import (
	"path/filepath"
	"testing"

	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/logger"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
)

const testMigration = `
-- +migrate Down
DROP TABLE IF EXISTS widgets;

-- +migrate Up
CREATE TABLE widgets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL
);
`

func TestRunMigrations(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "migrations_test.db")
	cfg := config.DatabaseConfig{Path: dbPath}
	cfg.ApplyDefaults()

	migrations := []Migration{{ID: "0001_widgets", SQL: testMigration}}
	require.NoError(t, RunMigrations(cfg, migrations))

	sqlDB, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	defer sqlDB.Close()

	_, err = sqlDB.Exec(`INSERT INTO widgets (name) VALUES (?)`, "gear")
	require.NoError(t, err)

	// Running again is a no-op
	require.NoError(t, RunMigrationsDB(logger.GetDefaultLogger(), sqlDB, migrations))

	// Migrating down drops the table
	err = RunMigrationsDBExtended(logger.GetDefaultLogger(), sqlDB, migrations, migrate.Down, NoLimitMigrations)
	require.NoError(t, err)

	_, err = sqlDB.Exec(`INSERT INTO widgets (name) VALUES (?)`, "gear")
	require.Error(t, err)
}

func TestRunMigrationsMissingSeparator(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "migrations_bad.db")
	cfg := config.DatabaseConfig{Path: dbPath}
	cfg.ApplyDefaults()

	sqlDB, err := NewSQLiteDBFromConfig(cfg)
	require.NoError(t, err)
	defer sqlDB.Close()

	migrations := []Migration{{ID: "0001_broken", SQL: `CREATE TABLE nope (id INTEGER);`}}
	err = RunMigrationsDB(logger.GetDefaultLogger(), sqlDB, migrations)
	require.ErrorContains(t, err, "missing '-- +migrate Up' separator")
}
