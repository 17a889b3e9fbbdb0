// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package leadstore holds the latest pipeline run in an in-memory SQLite
// database so the dashboard can filter and summarize it. Nothing is written
// to disk; the data lives only as long as the process.
package leadstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/leadgen/pkg/types"
)

var (
	// ErrNoRun is returned when no run has been stored yet.
	ErrNoRun = errors.New("no run has completed yet")

	// ErrLeadNotFound is returned by Lead for a rank outside the stored run.
	ErrLeadNotFound = errors.New("lead not found")
)

// driverName is the sqlite3 driver with the leadstore SQL functions loaded.
const driverName = "sqlite3_leadstore"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// SQLite's built-in lower() folds ASCII only.
			return conn.RegisterFunc("fold", strings.ToLower, true)
		},
	})
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store manages the in-memory lead database.
type Store struct {
	db *sql.DB
}

// Open creates a fresh in-memory database with the lead schema.
func Open() (*Store, error) {
	db, err := sql.Open(driverName, ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Every connection to :memory: is its own database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database and everything in it.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			notices TEXT,
			warnings TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS leads (
			seq INTEGER PRIMARY KEY,
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			title TEXT,
			company TEXT,
			location TEXT,
			email TEXT,
			linkedin_url TEXT,
			funding_signal TEXT,
			intent_signal INTEGER NOT NULL,
			source TEXT,
			rank_probability REAL NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_score ON leads(rank_probability DESC, seq)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Replace discards the stored run and stores run in its place. Leads are
// numbered from 1 in the order given, which is their rank.
func (s *Store) Replace(ctx context.Context, run types.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return fmt.Errorf("clearing leads: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs`); err != nil {
		return fmt.Errorf("clearing runs: %w", err)
	}

	noticesJSON, err := json.Marshal(run.Notices)
	if err != nil {
		return fmt.Errorf("encoding notices: %w", err)
	}
	warningsJSON, err := json.Marshal(run.Warnings)
	if err != nil {
		return fmt.Errorf("encoding warnings: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, notices, warnings) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano),
		string(noticesJSON), string(warningsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO leads (seq, run_id, name, title, company, location, email, linkedin_url,
			funding_signal, intent_signal, source, rank_probability)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range run.Leads {
		_, err := stmt.ExecContext(ctx,
			i+1, run.ID, l.Name, l.Title, l.Company, l.Location, l.Email, l.LinkedInURL,
			l.FundingSignal, l.IntentSignal, l.Source, l.RankProbability,
		)
		if err != nil {
			return fmt.Errorf("inserting lead %q: %w", l.Name, err)
		}
	}

	return tx.Commit()
}

// View is one consistent read of the stored run: the run with all its
// leads, the leads matching a filter and the score summary.
type View struct {
	Run     types.Run
	Entries []Entry
	Summary Summary
}

// View reads the run, the entries matching f and the summary in a single
// transaction, so a concurrent Replace cannot mix two runs in the result.
func (s *Store) View(ctx context.Context, f Filter) (View, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return View{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var v View
	if v.Run, err = runHeader(ctx, tx); err != nil {
		return View{}, err
	}
	all, err := queryEntries(ctx, tx, Filter{})
	if err != nil {
		return View{}, err
	}
	v.Run.Leads = make([]types.Lead, len(all))
	for i, e := range all {
		v.Run.Leads[i] = e.Lead
	}

	if f == (Filter{}) {
		v.Entries = all
	} else if v.Entries, err = queryEntries(ctx, tx, f); err != nil {
		return View{}, err
	}

	if v.Summary, err = summarize(ctx, tx); err != nil {
		return View{}, err
	}
	return v, nil
}

func runHeader(ctx context.Context, q querier) (types.Run, error) {
	var (
		run                    types.Run
		started, finished      string
		noticesJSON, warnsJSON sql.NullString
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, started_at, finished_at, notices, warnings FROM runs LIMIT 1`,
	).Scan(&run.ID, &started, &finished, &noticesJSON, &warnsJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Run{}, ErrNoRun
		}
		return types.Run{}, fmt.Errorf("looking up run: %w", err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return types.Run{}, fmt.Errorf("parsing start time of run %s: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return types.Run{}, fmt.Errorf("parsing finish time of run %s: %w", run.ID, err)
	}
	if noticesJSON.Valid {
		if err := json.Unmarshal([]byte(noticesJSON.String), &run.Notices); err != nil {
			return types.Run{}, fmt.Errorf("decoding notices of run %s: %w", run.ID, err)
		}
	}
	if warnsJSON.Valid {
		if err := json.Unmarshal([]byte(warnsJSON.String), &run.Warnings); err != nil {
			return types.Run{}, fmt.Errorf("decoding warnings of run %s: %w", run.ID, err)
		}
	}
	return run, nil
}
