package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/authquota/internal/logger"
	"github.com/j-veylop/authquota/internal/models"
)

// timestampLayout sorts lexically, so range filters compare strings.
const timestampLayout = "2006-01-02 15:04:05"

var timeFormats = []string{
	timestampLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func parseTimeString(s string) (time.Time, bool) {
	for _, format := range timeFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// InsertGroupSnapshots records every group of a view under one refresh id.
// It returns the number of rows written.
func (db *DB) InsertGroupSnapshots(refreshID string, view models.QuotaView, at time.Time) (int, error) {
	if len(view.Groups) == 0 {
		return 0, nil
	}
	if at.IsZero() {
		at = time.Now()
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin snapshot batch: %w", err)
	}

	stmt, err := tx.PrepareContext(context.Background(), `
		INSERT INTO group_snapshots (
			refresh_id, auth_name, provider, group_id, label,
			remaining_fraction, remaining_amount, reset_time, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to prepare snapshot insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	authName := view.AuthFile.Key()
	timestamp := formatTimestamp(at)
	for _, g := range view.Groups {
		_, err := stmt.ExecContext(context.Background(),
			refreshID,
			authName,
			view.AuthFile.Provider,
			g.ID,
			g.Label,
			nullFloat(g.RemainingFraction),
			nullFloat(g.RemainingAmount),
			g.ResetTime,
			timestamp,
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to insert group snapshot %s/%s: %w", authName, g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit snapshot batch: %w", err)
	}
	return len(view.Groups), nil
}

// GetGroupHistory returns snapshots of one group since the given time,
// oldest first.
func (db *DB) GetGroupHistory(authName, groupID string, since time.Time) ([]models.GroupSnapshot, error) {
	query := `
		SELECT id, refresh_id, auth_name, provider, group_id, label,
			   remaining_fraction, remaining_amount, reset_time, timestamp
		FROM group_snapshots
		WHERE auth_name = ? AND group_id = ? AND timestamp >= ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := db.QueryContext(context.Background(), query, authName, groupID, formatTimestamp(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query group history: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var snapshots []models.GroupSnapshot
	for rows.Next() {
		var s models.GroupSnapshot
		var fraction, amount sql.NullFloat64
		var timestamp string

		err := rows.Scan(
			&s.ID,
			&s.RefreshID,
			&s.AuthName,
			&s.Provider,
			&s.GroupID,
			&s.Label,
			&fraction,
			&amount,
			&s.ResetTime,
			&timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group snapshot: %w", err)
		}

		s.RemainingFraction = floatPtr(fraction)
		s.RemainingAmount = floatPtr(amount)
		if t, ok := parseTimeString(timestamp); ok {
			s.Timestamp = t
		}
		snapshots = append(snapshots, s)
	}

	return snapshots, rows.Err()
}


// TrackedGroup identifies a group with recorded history.
type TrackedGroup struct {
	AuthName string
	GroupID  string
	Label    string
}

// ListTrackedGroups returns every auth/group pair with at least one snapshot,
// ordered by auth name then group id.
func (db *DB) ListTrackedGroups() ([]TrackedGroup, error) {
	query := `
		SELECT auth_name, group_id, MAX(label)
		FROM group_snapshots
		GROUP BY auth_name, group_id
		ORDER BY auth_name, group_id
	`

	rows, err := db.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []TrackedGroup
	for rows.Next() {
		var g TrackedGroup
		if err := rows.Scan(&g.AuthName, &g.GroupID, &g.Label); err != nil {
			return nil, fmt.Errorf("failed to scan tracked group: %w", err)
		}
		groups = append(groups, g)
	}

	return groups, rows.Err()
}

// PruneSnapshots deletes snapshots recorded before olderThan.
func (db *DB) PruneSnapshots(olderThan time.Time) (int64, error) {
	result, err := db.ExecContext(context.Background(),
		"DELETE FROM group_snapshots WHERE timestamp < ?", formatTimestamp(olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
