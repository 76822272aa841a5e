// Package ledger keeps a SQLite history of station runs.
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/couchcryptid/climate-station-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// RunRecord is one row of the run history.
type RunRecord struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	RunID      string    `gorm:"size:36;uniqueIndex" json:"run_id"`
	Station    string    `gorm:"size:32;index:idx_station_started" json:"station"`
	Kind       string    `gorm:"size:16" json:"kind"`
	Status     string    `gorm:"size:16" json:"status"`
	Error      string    `json:"error,omitempty"`
	Files      int       `json:"files"`
	SourceRows int       `json:"source_rows"`
	GridRows   int       `json:"grid_rows"`
	Filled     int       `json:"filled"`
	Unresolved int       `json:"unresolved"`
	Shifted    int       `json:"shifted"`
	Label      string    `gorm:"size:17" json:"label,omitempty"`
	Paths      string    `json:"paths,omitempty"`
	StartedAt  time.Time `gorm:"index:idx_station_started" json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Store implements pipeline.Recorder on a SQLite database.
type Store struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// Open opens (creating if needed) the ledger database at path and migrates
// the schema.
func Open(path string, clock clockwork.Clock) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", path, err)
	}
	if err := db.AutoMigrate(&RunRecord{}); err != nil {
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{db: db, clock: clock}, nil
}

// Record stores the outcome of one run.
func (s *Store) Record(ctx context.Context, res pipeline.Result, runErr error) error {
	rec := RunRecord{
		RunID:      res.RunID,
		Station:    res.Station,
		Kind:       string(res.Kind),
		Status:     "success",
		Files:      res.Files,
		SourceRows: res.SourceRows,
		GridRows:   res.Regularity.Rows,
		Filled:     res.Filled,
		Unresolved: res.Unresolved,
		Shifted:    res.Shifted,
		Label:      res.Label,
		Paths:      strings.Join(res.Paths, "\n"),
		StartedAt:  res.StartedAt.UTC(),
		DurationMS: res.Duration.Milliseconds(),
		RecordedAt: s.clock.Now().UTC(),
	}
	if runErr != nil {
		rec.Status = "error"
		rec.Error = runErr.Error()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record run %s: %w", res.RunID, err)
	}
	return nil
}

// Recent returns up to limit runs for station, newest first. An empty station
// matches every station.
func (s *Store) Recent(ctx context.Context, station string, limit int) ([]RunRecord, error) {
	q := s.db.WithContext(ctx).Order("started_at DESC").Order("id DESC")
	if station != "" {
		q = q.Where("station = ?", station)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []RunRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
