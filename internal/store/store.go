// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists ideas and evaluation jobs in SQLite or PostgreSQL.
// Updates are applied as column-level patches: only the fields present in a
// patch are written.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/idea-engine/pkg/types"
)

var (
	// ErrNotFound is returned when an idea or job does not exist.
	ErrNotFound = errors.New("not found")

	// ErrJobActive is returned when an idea already has a pending or running job.
	ErrJobActive = errors.New("evaluation already in progress")
)

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store is the idea and job repository.
type Store struct {
	db      *sql.DB
	dialect dialect
	cache   *lru.Cache[string, types.Idea]
	now     func() time.Time
}

// Open connects to cfg.DSN and creates the schema if needed. A DSN starting
// with postgres:// or postgresql:// selects PostgreSQL through pgx; anything
// else is a SQLite file path.
func Open(cfg types.StoreConfig) (*Store, error) {
	s := &Store{now: time.Now}

	var err error
	if isPostgres(cfg.DSN) {
		s.dialect = dialectPostgres
		s.db, err = sql.Open("pgx", cfg.DSN)
	} else {
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		s.db, err = sql.Open("sqlite3", cfg.DSN+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
		if err == nil {
			// One writer avoids SQLITE_BUSY between concurrent agents.
			s.db.SetMaxOpenConns(1)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.CacheSize > 0 {
		s.cache, err = lru.New[string, types.Idea](cfg.CacheSize)
		if err != nil {
			s.db.Close()
			return nil, fmt.Errorf("creating idea cache: %w", err)
		}
	}

	if err := s.createSchema(context.Background()); err != nil {
		s.db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ideas (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL,
			document TEXT NOT NULL,
			market_report TEXT,
			prd TEXT,
			risk_assessment TEXT,
			evaluation_summary TEXT,
			score_market DOUBLE PRECISION,
			score_buildability DOUBLE PRECISION,
			score_business DOUBLE PRECISION,
			score_total DOUBLE PRECISION,
			recommendation TEXT,
			recommendation_reason TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS evaluation_jobs (
			id TEXT PRIMARY KEY,
			idea_id TEXT NOT NULL REFERENCES ideas(id),
			status TEXT NOT NULL,
			phase TEXT,
			market_research_status TEXT,
			product_research_status TEXT,
			business_research_status TEXT,
			market_synthesis_status TEXT,
			product_synthesis_status TEXT,
			business_synthesis_status TEXT,
			notes_synthesizer_status TEXT,
			current_step_description TEXT,
			estimated_time_remaining INTEGER,
			error TEXT,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_jobs_idea ON evaluation_jobs(idea_id, created_at)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_jobs_one_active ON evaluation_jobs(idea_id)
			WHERE status IN ('pending', 'running')`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// setList accumulates "column = ?" assignments for an UPDATE.
type setList struct {
	cols []string
	args []any
}

func (l *setList) add(col string, v any) {
	l.cols = append(l.cols, col+" = ?")
	l.args = append(l.args, v)
}

func (l *setList) empty() bool { return len(l.cols) == 0 }

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}
