// Package journal appends machine transitions to a SQLite table.
//
// The journal is an audit log: nothing reads it back into a machine.
// Sequence numbers restart with every process, so each Journal writes
// under its own run ID. It expects an *sql.DB that uses a SQLite driver;
// Open uses "modernc.org/sqlite".
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/librescoot/loopfsm"
)

// Journal is a loopfsm.Observer that writes each transition as a row
type Journal struct {
	db      *sql.DB
	runID   string
	logger  *slog.Logger
	timeout time.Duration
}

var _ loopfsm.Observer = (*Journal)(nil)

// Option is a functional option for configuring a Journal
type Option func(*Journal)

// WithLogger sets the logger used to report failed writes
func WithLogger(logger *slog.Logger) Option {
	return func(j *Journal) {
		j.logger = logger
	}
}

// WithTimeout bounds each write made from OnTransition
func WithTimeout(d time.Duration) Option {
	return func(j *Journal) {
		if d > 0 {
			j.timeout = d
		}
	}
}

// Open opens (or creates) the SQLite database at path
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	j, err := New(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New initializes the schema in db and returns a Journal
func New(db *sql.DB, opts ...Option) (*Journal, error) {
	j := &Journal{
		db:      db,
		runID:   uuid.NewString(),
		logger:  loopfsm.Logger,
		timeout: time.Second,
	}
	for _, opt := range opts {
		opt(j)
	}
	if err := j.initSchema(); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return j, nil
}

func (j *Journal) initSchema() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			machine_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			at_unix_nano INTEGER NOT NULL,
			UNIQUE (run_id, machine_id, seq)
		);`,
	)
	return err
}

// RunID identifies the rows written through this Journal
func (j *Journal) RunID() string {
	return j.runID
}

// OnTransition appends rec, logging instead of returning errors
func (j *Journal) OnTransition(rec loopfsm.TransitionRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if err := j.Append(ctx, rec); err != nil {
		j.logger.Error("journal append failed", "machine", rec.MachineID, "seq", rec.Seq, "error", err)
	}
}

// Append inserts one transition under this journal's run ID
func (j *Journal) Append(ctx context.Context, rec loopfsm.TransitionRecord) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO transitions (run_id, machine_id, seq, from_state, to_state, at_unix_nano)
		VALUES (?, ?, ?, ?, ?, ?)`,
		j.runID,
		rec.MachineID,
		int64(rec.Seq),
		rec.From,
		rec.To,
		rec.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert transition %d: %w", rec.Seq, err)
	}
	return nil
}

// List returns the transitions of machineID across all runs, oldest first
func (j *Journal) List(ctx context.Context, machineID string) ([]loopfsm.TransitionRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT machine_id, seq, from_state, to_state, at_unix_nano
		FROM transitions
		WHERE machine_id = ?
		ORDER BY id`,
		machineID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []loopfsm.TransitionRecord
	for rows.Next() {
		var (
			rec loopfsm.TransitionRecord
			seq int64
			at  int64
		)
		if err := rows.Scan(&rec.MachineID, &seq, &rec.From, &rec.To, &at); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		rec.Seq = uint64(seq)
		rec.At = time.Unix(0, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}
