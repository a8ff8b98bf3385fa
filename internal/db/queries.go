package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/j-veylop/commission-tally/internal/logger"
	"github.com/j-veylop/commission-tally/internal/models"
)

const timeLayout = time.RFC3339Nano

// InsertRun records a completed aggregation and sets run.ID.
func (db *DB) InsertRun(run *models.Run) error {
	query := `
		INSERT INTO runs (recorded_at, input_path, total, matches, warnings, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	timestamp := run.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	// SQLite has no NaN; it is stored as NULL.
	total := sql.NullFloat64{Float64: run.Total, Valid: !math.IsNaN(run.Total)}

	result, err := db.ExecContext(context.Background(), query,
		timestamp.UTC().Format(timeLayout),
		run.InputPath,
		total,
		run.Matches,
		run.Warnings,
		run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		run.ID = id
	}
	run.Timestamp = timestamp

	return nil
}

// GetRecentRuns returns up to limit runs, newest first. A non-empty
// inputPath restricts the result to that file.
func (db *DB) GetRecentRuns(inputPath string, limit int) ([]models.Run, error) {
	query := `
		SELECT id, recorded_at, input_path, total, matches, warnings, duration_ms
		FROM runs
		WHERE (? = '' OR input_path = ?)
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(context.Background(), query, inputPath, inputPath, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var recordedAt string
		var total sql.NullFloat64

		if err := rows.Scan(
			&run.ID,
			&recordedAt,
			&run.InputPath,
			&total,
			&run.Matches,
			&run.Warnings,
			&run.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Total = math.NaN()
		if total.Valid {
			run.Total = total.Float64
		}

		run.Timestamp, err = time.Parse(timeLayout, recordedAt)
		if err != nil {
			logger.Warn("unparseable run timestamp", "id", run.ID, "value", recordedAt)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

// PruneRuns keeps the newest keep runs and deletes the rest.
func (db *DB) PruneRuns(keep int) (int64, error) {
	query := `
		DELETE FROM runs
		WHERE id NOT IN (SELECT id FROM runs ORDER BY id DESC LIMIT ?)
	`

	result, err := db.ExecContext(context.Background(), query, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}
