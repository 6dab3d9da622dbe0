// Package record persists controller events to a SQLite database.
package record

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/mesisim/coherence"
)

// DefaultBatchSize is the number of events buffered before they are written.
const DefaultBatchSize = 1000

// ErrClosed is returned when flushing a closed Recorder.
var ErrClosed = errors.New("recorder is closed")

type row struct {
	seq        uint64
	op         string
	address    uint32
	target     string
	hit        bool
	prevState  string
	state      string
	evicted    bool
	evictedTag uint32
}

// Recorder is a hook that writes every controller event to the events table
// of a SQLite database. Rows are buffered and written in batches.
type Recorder struct {
	*sql.DB
	statement *sql.Stmt

	mu        sync.Mutex
	dbName    string
	runID     string
	seq       uint64
	rows      []row
	batchSize int
	closed    bool
	err       error
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithBatchSize sets how many events are buffered before a write.
func WithBatchSize(n int) Option {
	return func(r *Recorder) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// New creates path.sqlite3 and prepares it for recording. It fails if the
// file already exists.
func New(path string, opts ...Option) (*Recorder, error) {
	r := &Recorder{
		dbName:    path + ".sqlite3",
		runID:     xid.New().String(),
		batchSize: DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.createDatabase(); err != nil {
		return nil, err
	}

	if err := r.createTable(); err != nil {
		_ = r.DB.Close()
		return nil, err
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

func (r *Recorder) createDatabase() error {
	if _, err := os.Stat(r.dbName); err == nil {
		return fmt.Errorf("file %s already exists", r.dbName)
	}

	db, err := sql.Open("sqlite3", r.dbName)
	if err != nil {
		return fmt.Errorf("failed to open record database: %w", err)
	}

	r.DB = db

	return nil
}

func (r *Recorder) createTable() error {
	_, err := r.Exec(`
		CREATE TABLE events (
			run_id      TEXT,
			seq         INTEGER,
			op          TEXT,
			address     INTEGER,
			target      TEXT,
			hit         INTEGER,
			prev_state  TEXT,
			state       TEXT,
			evicted     INTEGER,
			evicted_tag INTEGER
		)`)
	if err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	r.statement, err = r.Prepare(`INSERT INTO events VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	return nil
}

// Path returns the database file name.
func (r *Recorder) Path() string {
	return r.dbName
}

// RunID returns the identifier stored with every row of this run.
func (r *Recorder) RunID() string {
	return r.runID
}

// Func buffers the event carried by ctx.
func (r *Recorder) Func(ctx sim.HookCtx) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ctx.Pos {
	case coherence.HookPosAccess:
		o := ctx.Item.(coherence.Outcome)
		r.add(row{
			op:         o.Op.String(),
			address:    o.Address,
			target:     o.Target.String(),
			hit:        o.Hit,
			prevState:  o.PrevState.String(),
			state:      o.State.String(),
			evicted:    o.Evicted,
			evictedTag: o.EvictedTag,
		})
	case coherence.HookPosReset:
		r.add(row{op: coherence.OpReset.String()})
	}
}

func (r *Recorder) add(ev row) {
	if r.closed || r.err != nil {
		return
	}

	r.seq++
	ev.seq = r.seq
	r.rows = append(r.rows, ev)

	if len(r.rows) >= r.batchSize {
		if err := r.flush(); err != nil {
			r.err = err
			r.rows = nil
		}
	}
}

// Flush writes all buffered events. It also reports any error from an
// earlier automatic flush, after which no more events are buffered.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.flush()
}

func (r *Recorder) flush() error {
	if r.closed {
		return ErrClosed
	}

	if r.err != nil {
		return r.err
	}

	if len(r.rows) == 0 {
		return nil
	}

	tx, err := r.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := tx.Stmt(r.statement)
	for _, ev := range r.rows {
		_, err := stmt.Exec(
			r.runID,
			ev.seq,
			ev.op,
			ev.address,
			ev.target,
			ev.hit,
			ev.prevState,
			ev.state,
			ev.evicted,
			ev.evictedTag,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert event %d: %w", ev.seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit events: %w", err)
	}

	r.rows = nil

	return nil
}

// Close flushes the remaining events and closes the database. Closing twice
// is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	err := r.flush()
	r.closed = true

	_ = r.statement.Close()
	if closeErr := r.DB.Close(); err == nil {
		err = closeErr
	}

	return err
}
