// Package services ties loading, aggregation, reporting, history and
// notifications together for the command line.
package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/commission-tally/internal/aggregate"
	"github.com/j-veylop/commission-tally/internal/config"
	"github.com/j-veylop/commission-tally/internal/db"
	"github.com/j-veylop/commission-tally/internal/loader"
	"github.com/j-veylop/commission-tally/internal/logger"
	"github.com/j-veylop/commission-tally/internal/models"
	"github.com/j-veylop/commission-tally/internal/report"
	"github.com/j-veylop/commission-tally/internal/services/watch"
)

// maxHistoryRuns bounds the history table.
const maxHistoryRuns = 1000

// ErrHistoryDisabled is returned by History when no database is configured.
var ErrHistoryDisabled = errors.New("run history is disabled")

// Notifier delivers a desktop notification.
type Notifier func(title, message string) error

// Manager runs aggregations and their side effects.
type Manager struct {
	cfg       *config.Config
	database  *db.DB
	reporter  *report.Reporter
	notify    Notifier
	last      aggregate.Result
	hasLast   bool
}

// NewManager creates a manager. History is recorded when cfg.HistoryDBPath
// is set; desktop notifications are sent in watch mode when notify is true.
func NewManager(cfg *config.Config, reporter *report.Reporter, notify bool) (*Manager, error) {
	m := &Manager{
		cfg:      cfg,
		reporter: reporter,
	}

	if cfg.HistoryDBPath != "" {
		database, err := db.New(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize history database: %w", err)
		}
		m.database = database
	}

	if notify {
		m.notify = desktopNotify
	}

	return m, nil
}

func desktopNotify(title, message string) error {
	return beeep.Notify(title, message, "")
}

// Tally loads path, writes each conversion warning and the total, and
// records the run. Loader errors are returned unreported.
func (m *Manager) Tally(path string) (aggregate.Result, error) {
	start := time.Now()

	root, err := loader.Load(path)
	if err != nil {
		return aggregate.Result{}, err
	}

	agg := aggregate.Aggregator{OnWarning: m.reporter.Warning}
	res := agg.Sum(root)
	m.reporter.Total(res)

	logger.Info("aggregated report",
		"path", path,
		"total", res.Total,
		"matches", res.Matches,
		"warnings", len(res.Warnings))

	m.record(path, res, time.Since(start))
	return res, nil
}

func (m *Manager) record(path string, res aggregate.Result, elapsed time.Duration) {
	if m.database == nil {
		return
	}

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	run := &models.Run{
		InputPath:  path,
		Total:      res.Total,
		Matches:    res.Matches,
		Warnings:   len(res.Warnings),
		DurationMs: elapsed.Milliseconds(),
	}
	if err := m.database.InsertRun(run); err != nil {
		logger.Error("failed to record run", "error", err)
		return
	}
	if _, err := m.database.PruneRuns(maxHistoryRuns); err != nil {
		logger.Warn("failed to prune history", "error", err)
	}
}

// Watch tallies path once and again after every change until ctx is done.
// Load failures are reported and watching continues.
func (m *Manager) Watch(ctx context.Context, path string) error {
	w, err := watch.New(path, m.cfg.WatchDebounce)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			logger.Warn("failed to close watcher", "error", closeErr)
		}
	}()

	m.tallyAndNotify(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-w.Events():
			switch event.Type {
			case watch.EventFileChanged:
				m.tallyAndNotify(path)
			case watch.EventError:
				logger.Error("watch error", "path", event.Path, "error", event.Error)
			}
		}
	}
}

func (m *Manager) tallyAndNotify(path string) {
	res, err := m.Tally(path)
	if err != nil {
		if !m.reporter.LoadError(err) {
			logger.Error("aggregation failed", "path", path, "error", err)
		}
		return
	}
	m.checkNotification(path, res)
}

// checkNotification notifies when the total differs from the previous run.
func (m *Manager) checkNotification(path string, res aggregate.Result) {
	previous, hadPrevious := m.last, m.hasLast
	m.last, m.hasLast = res, true

	current := report.FormatTotal(res.Total, res.Matches)
	was := report.FormatTotal(previous.Total, previous.Matches)
	if m.notify == nil || !hadPrevious || current == was {
		return
	}

	title := "Affiliate commission updated"
	body := fmt.Sprintf("%s: %s (was %s)", filepath.Base(path), current, was)
	if err := m.notify(title, body); err != nil {
		logger.Warn("failed to send notification", "error", err)
	}
}

// History returns up to limit recorded runs, newest first, optionally
// restricted to one input file.
func (m *Manager) History(path string, limit int) ([]models.Run, error) {
	if m.database == nil {
		return nil, ErrHistoryDisabled
	}
	if path != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}
	return m.database.GetRecentRuns(path, limit)
}

// Close releases the history database.
func (m *Manager) Close() error {
	if m.database == nil {
		return nil
	}
	return m.database.Close()
}
