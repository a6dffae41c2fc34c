// Package journal keeps a bounded history of settled card runs in SQLite.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"apilab/internal/pkg/text"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultMaxEntries = 500
	defaultTextLimit  = 4000
	inputLimit        = 512
)

type Config struct {
	// Path persists the journal; empty keeps it in memory for the process
	// lifetime.
	Path       string
	MaxEntries int
	TextLimit  int
}

// Entry is one settled run.
type Entry struct {
	RunID      string          `json:"run_id"`
	UnitID     string          `json:"unit_id"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Input      string          `json:"input"`
	Output     string          `json:"output"`
	Result     json.RawMessage `json:"result,omitempty"`
	Duration   time.Duration   `json:"duration_ns"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

type runModel struct {
	ID         int64          `gorm:"column:id;primaryKey"`
	RunID      string         `gorm:"column:run_id;uniqueIndex"`
	UnitID     string         `gorm:"column:unit_id;index"`
	Kind       string         `gorm:"column:kind"`
	Status     string         `gorm:"column:status"`
	ErrorKind  string         `gorm:"column:error_kind"`
	Input      string         `gorm:"column:input"`
	Output     string         `gorm:"column:output"`
	Result     datatypes.JSON `gorm:"column:result"`
	DurationMS int64          `gorm:"column:duration_ms"`
	StartedAt  time.Time      `gorm:"column:started_at"`
	FinishedAt time.Time      `gorm:"column:finished_at;index"`
}

func (runModel) TableName() string { return "runs" }

type Store struct {
	db         *gorm.DB
	maxEntries int
	textLimit  int
}

// Open creates the store and migrates its single table.
func Open(cfg Config) (*Store, error) {
	path := strings.TrimSpace(cfg.Path)
	var dsn string
	if path == "" {
		dsn = fmt.Sprintf("file:journal-%s?mode=memory&cache=shared", uuid.NewString())
	} else {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("journal dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// One connection keeps the shared in-memory database alive and
	// serializes writers.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&runModel{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	s := &Store{db: db, maxEntries: cfg.MaxEntries, textLimit: cfg.TextLimit}
	if s.maxEntries <= 0 {
		s.maxEntries = defaultMaxEntries
	}
	if s.textLimit <= 0 {
		s.textLimit = defaultTextLimit
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record stores e, assigning a run id when missing, and prunes the table
// back to the configured size.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.RunID == "" {
		e.RunID = uuid.NewString()
	}
	if e.FinishedAt.IsZero() {
		e.FinishedAt = time.Now()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = e.FinishedAt.Add(-e.Duration)
	}
	e.Input = text.Truncate(e.Input, inputLimit)
	e.Output = text.Truncate(e.Output, s.textLimit)
	m := runModel{
		RunID:      e.RunID,
		UnitID:     e.UnitID,
		Kind:       e.Kind,
		Status:     e.Status,
		ErrorKind:  e.ErrorKind,
		Input:      e.Input,
		Output:     e.Output,
		DurationMS: e.Duration.Milliseconds(),
		StartedAt:  e.StartedAt,
		FinishedAt: e.FinishedAt,
	}
	if len(e.Result) > 0 {
		m.Result = datatypes.JSON(e.Result)
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return Entry{}, fmt.Errorf("record run %s: %w", e.RunID, err)
	}
	if _, err := s.Prune(ctx); err != nil {
		return e, err
	}
	return e, nil
}

// Query filters Recent. Zero values mean all units and a limit of 50.
type Query struct {
	UnitID string
	Limit  int
}

// Recent lists runs newest first.
func (s *Store) Recent(ctx context.Context, q Query) ([]Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	tx := s.db.WithContext(ctx).Model(&runModel{}).Order("finished_at DESC, id DESC").Limit(limit)
	if unit := strings.TrimSpace(q.UnitID); unit != "" {
		tx = tx.Where("unit_id = ?", unit)
	}
	var rows []runModel
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]Entry, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toEntry())
	}
	return out, nil
}

// Prune deletes everything but the newest maxEntries runs.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	keep := s.db.Model(&runModel{}).Select("id").Order("finished_at DESC, id DESC").Limit(s.maxEntries)
	res := s.db.WithContext(ctx).Where("id NOT IN (?)", keep).Delete(&runModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune runs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (m runModel) toEntry() Entry {
	e := Entry{
		RunID:      m.RunID,
		UnitID:     m.UnitID,
		Kind:       m.Kind,
		Status:     m.Status,
		ErrorKind:  m.ErrorKind,
		Input:      m.Input,
		Output:     m.Output,
		Duration:   time.Duration(m.DurationMS) * time.Millisecond,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
	}
	if len(m.Result) > 0 {
		e.Result = json.RawMessage(m.Result)
	}
	return e
}
