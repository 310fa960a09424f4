package db

import (
	"context"
	"fmt"
)

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS group_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		refresh_id TEXT NOT NULL,
		auth_name TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		group_id TEXT NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		remaining_fraction REAL,
		remaining_amount REAL,
		reset_time TEXT NOT NULL DEFAULT '',
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_group_snapshots_lookup ON group_snapshots(auth_name, group_id, timestamp);
	CREATE INDEX IF NOT EXISTS idx_group_snapshots_timestamp ON group_snapshots(timestamp);`,

	`CREATE INDEX IF NOT EXISTS idx_group_snapshots_refresh ON group_snapshots(refresh_id);`,
}

// SchemaVersion returns the number of applied migrations.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	if err := db.QueryRowContext(context.Background(), "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (db *DB) migrate() error {
	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		tx, err := db.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(context.Background(), migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := tx.ExecContext(context.Background(), fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", i+1, err)
		}
	}

	return nil
}
