// Package recorder stores predictor activity in a SQLite database.
//
// A Recorder is an akita hook. Attach it to a Predictor and every update is
// written to the branch_updates table, tagged with the current run ID and
// name. StartRun begins a new run, so several benchmarks can share one
// database. Run summaries go to the runs table under the matching run ID.
package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/bpsim/predictor"
)

const defaultBatchSize = 100000

type updateEntry struct {
	runID  string
	name   string
	seq    uint64
	branch predictor.BranchRecord
	detail predictor.UpdateDetail
}

// Recorder buffers update events and writes them to SQLite in batches.
type Recorder struct {
	db        *sql.DB
	runID     string
	name      string
	runIDs    map[string]string
	insert    *sql.Stmt
	buffer    []updateEntry
	batchSize int
	seq       uint64
	closed    bool
}

// New opens (or creates) the database at path and prepares the tables.
func New(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	r := &Recorder{
		db:        db,
		runID:     xid.New().String(),
		runIDs:    make(map[string]string),
		batchSize: defaultBatchSize,
	}

	if err := r.createTables(); err != nil {
		_ = db.Close()
		return nil, err
	}

	r.insert, err = db.Prepare(`INSERT INTO branch_updates VALUES
		(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	atexit.Register(func() { _ = r.Close() })

	return r, nil
}

func (r *Recorder) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS branch_updates (
			run_id            TEXT,
			name              TEXT,
			seq               INTEGER,
			pc                INTEGER,
			conditional       INTEGER,
			taken             INTEGER,
			predicted         INTEGER,
			local_prediction  INTEGER,
			global_prediction INTEGER,
			used_local        INTEGER,
			trained           INTEGER,
			choice_before     INTEGER,
			choice_after      INTEGER,
			path_history      INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id         TEXT,
			name           TEXT,
			config         TEXT,
			updates        INTEGER,
			correct        INTEGER,
			mispredictions INTEGER,
			accuracy       REAL
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// RunID returns the ID that tags the rows of the current run.
func (r *Recorder) RunID() string {
	return r.runID
}

// StartRun begins a new run called name. Later updates get a fresh run ID and
// a sequence number counted from zero. A summary written under the same name
// is stored with the same run ID.
func (r *Recorder) StartRun(name string) {
	r.runID = xid.New().String()
	r.name = name
	r.runIDs[name] = r.runID
	r.seq = 0
}

// SetBatchSize sets how many updates are buffered before a flush.
func (r *Recorder) SetBatchSize(n int) {
	if n < 1 {
		n = 1
	}
	r.batchSize = n
}

// Pending returns how many updates are buffered and not yet written.
func (r *Recorder) Pending() int {
	return len(r.buffer)
}

// Func records predictor updates. Other hook positions are ignored, as is
// everything after Close.
func (r *Recorder) Func(ctx sim.HookCtx) {
	if r.closed || ctx.Pos != predictor.HookPosBranchUpdate {
		return
	}

	br, ok := ctx.Item.(predictor.BranchRecord)
	if !ok {
		return
	}
	detail, ok := ctx.Detail.(predictor.UpdateDetail)
	if !ok {
		return
	}

	r.buffer = append(r.buffer, updateEntry{
		runID:  r.runID,
		name:   r.name,
		seq:    r.seq,
		branch: br,
		detail: detail,
	})
	r.seq++

	if len(r.buffer) >= r.batchSize {
		if err := r.Flush(); err != nil {
			log.Panic(err)
		}
	}
}

// Flush writes all buffered updates in one transaction.
func (r *Recorder) Flush() error {
	if r.closed || len(r.buffer) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := tx.Stmt(r.insert)
	for _, e := range r.buffer {
		_, err := stmt.Exec(
			e.runID,
			e.name,
			int64(e.seq),
			int64(e.branch.PC),
			e.branch.Conditional,
			e.detail.Taken,
			e.detail.Predicted,
			e.detail.LocalPrediction,
			e.detail.GlobalPrediction,
			e.detail.UsedLocal,
			e.detail.Trained,
			int64(e.detail.ChoiceBefore),
			int64(e.detail.ChoiceAfter),
			int64(e.detail.PathHistory),
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert update %d: %w", e.seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit updates: %w", err)
	}

	r.buffer = nil
	return nil
}

// WriteSummary stores the final statistics of a named run. The summary takes
// the run ID given to name by StartRun, or the current run ID if name was
// never started.
func (r *Recorder) WriteSummary(
	name string,
	config predictor.Config,
	stats predictor.Stats,
) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	runID, ok := r.runIDs[name]
	if !ok {
		runID = r.runID
	}

	_, err = r.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		name,
		string(configJSON),
		int64(stats.Updates),
		int64(stats.Correct),
		int64(stats.Mispredictions),
		stats.Accuracy(),
	)
	if err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}

	return nil
}

// Close flushes pending updates and closes the database. It is safe to call
// more than once.
func (r *Recorder) Close() error {
	if r.closed {
		return nil
	}

	flushErr := r.Flush()
	r.closed = true

	_ = r.insert.Close()
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return flushErr
}
