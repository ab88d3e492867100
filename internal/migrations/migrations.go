package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/aureus-network/aureus-indexer/internal/config"
	"github.com/aureus-network/aureus-indexer/internal/db"
	"github.com/aureus-network/aureus-indexer/internal/logger"
)

//go:embed 001_checkpoints_1.sql
var mig001 string

//go:embed 002_raw_events_1.sql
var mig002 string

//go:embed 003_projections_1.sql
var mig003 string

//go:embed 004_webhooks_1.sql
var mig004 string

//go:embed 005_notifications_1.sql
var mig005 string

func all() []db.Migration {
	return []db.Migration{
		{
			ID:  "001_checkpoints_1.sql",
			SQL: mig001,
		},
		{
			ID:  "002_raw_events_1.sql",
			SQL: mig002,
		},
		{
			ID:  "003_projections_1.sql",
			SQL: mig003,
		},
		{
			ID:  "004_webhooks_1.sql",
			SQL: mig004,
		},
		{
			ID:  "005_notifications_1.sql",
			SQL: mig005,
		},
	}
}

// RunMigrations brings the database at cfg.Path up to the latest schema.
func RunMigrations(cfg config.DatabaseConfig) error {
	return db.RunMigrations(cfg, all())
}

// RunMigrationsDB brings an already-open database up to the latest schema.
func RunMigrationsDB(log *logger.Logger, database *sql.DB) error {
	return db.RunMigrationsDB(log, database, all())
}
