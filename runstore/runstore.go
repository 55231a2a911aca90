// Package runstore is a small sqlite ledger of driver runs and every external
// command they executed, so that a long LDSC sweep can be inspected while it
// is running and audited after it is done.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/carbocation/ldsccts/batch"
	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v3"

	_ "github.com/mattn/go-sqlite3"
)

var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NULL,
	failed INTEGER NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id INTEGER NOT NULL REFERENCES runs(id),
	kind TEXT NOT NULL,
	job_index INTEGER NOT NULL,
	batch INTEGER NOT NULL,
	pid INTEGER NOT NULL,
	exit_code INTEGER NOT NULL,
	command TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS jobs_run_id ON jobs(run_id);
`

type Run struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	StartedAt  time.Time `db:"started_at" json:"started_at"`
	FinishedAt null.Time `db:"finished_at" json:"finished_at"`
	Failed     null.Int  `db:"failed" json:"failed"`
}

// Finished reports whether FinishRun was called for this run.
func (r Run) Finished() bool {
	return r.FinishedAt.Valid
}

type JobRecord struct {
	ID         int64     `db:"id" json:"id"`
	RunID      int64     `db:"run_id" json:"run_id"`
	Kind       string    `db:"kind" json:"kind"`
	Index      int       `db:"job_index" json:"index"`
	Batch      int       `db:"batch" json:"batch"`
	PID        int       `db:"pid" json:"pid"`
	ExitCode   int       `db:"exit_code" json:"exit_code"`
	Command    string    `db:"command" json:"command"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

type Store struct {
	DB *sqlx.DB

	// Overridable for tests
	now func() time.Time
}

// Open connects to (and if needed creates) the sqlite ledger at path.
func Open(path string) (*Store, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, pfx.Err(err)
	}

	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return &Store{DB: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) BeginRun(name string) (int64, error) {
	res, err := s.DB.Exec("INSERT INTO runs (name, started_at) VALUES (?, ?)", name, s.now())
	if err != nil {
		return 0, pfx.Err(err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, pfx.Err(err)
	}

	return id, nil
}

// FinishRun stamps the run as done, with the number of failed jobs.
func (s *Store) FinishRun(id int64, failed int) error {
	res, err := s.DB.Exec("UPDATE runs SET finished_at = ?, failed = ? WHERE id = ?", s.now(), failed, id)
	if err != nil {
		return pfx.Err(err)
	}

	if n, err := res.RowsAffected(); err != nil {
		return pfx.Err(err)
	} else if n == 0 {
		return fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}

	return nil
}

// RecordJob stores the outcome of one command. kind is a pipeline stage name
// or "regression".
func (s *Store) RecordJob(runID int64, kind string, st batch.ExitStatus) error {
	_, err := s.DB.Exec(`INSERT INTO jobs (run_id, kind, job_index, batch, pid, exit_code, command, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, kind, st.Index, st.Batch, st.PID, st.Code, st.Command.String(), s.now())

	return pfx.Err(err)
}

// Runs lists every run, newest first.
func (s *Store) Runs() ([]Run, error) {
	out := []Run{}
	if err := s.DB.Select(&out, "SELECT * FROM runs ORDER BY id DESC"); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}

func (s *Store) Run(id int64) (Run, error) {
	var out Run
	err := s.DB.Get(&out, "SELECT * FROM runs WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return out, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	} else if err != nil {
		return out, pfx.Err(err)
	}

	return out, nil
}

// Jobs lists the jobs of a run in the order they completed.
func (s *Store) Jobs(runID int64) ([]JobRecord, error) {
	out := []JobRecord{}
	if err := s.DB.Select(&out, "SELECT * FROM jobs WHERE run_id = ? ORDER BY id", runID); err != nil {
		return nil, pfx.Err(err)
	}

	return out, nil
}
