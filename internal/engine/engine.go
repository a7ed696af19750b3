// Package engine ties the durable I/O primitive, the record codec, the
// in-memory store, and the transaction lifecycle together into the
// single entry point the CLI (or any other caller) drives: Open,
// Begin, Add, Commit, Abort, Checkpoint, Close. It is the "transaction
// engine" component of spec.md §2 and implements §4.4 and §7 in full.
package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ledgerdb/ledgerdb/internal/codec"
	"github.com/ledgerdb/ledgerdb/internal/config"
	"github.com/ledgerdb/ledgerdb/internal/frame"
	"github.com/ledgerdb/ledgerdb/internal/ioutil"
	"github.com/ledgerdb/ledgerdb/internal/store"
	"github.com/ledgerdb/ledgerdb/internal/txn"
)

// maxResyncRetries bounds recovery's skip-one-byte resync loop
// (spec.md §9: "implementers ... may additionally cap the scan at some
// bounded number of retries per file as an anti-livelock measure").
// It is generous relative to any WAL file this store is expected to
// grow to between checkpoints.
const maxResyncRetries = 1 << 20

// ErrNotOpenCommit is returned by Commit when called on a transaction
// that has not been marked committed via tx.SetCommitted first.
var ErrNotOpenCommit = errors.New("engine: transaction is not in Open/Commit state")

// Engine is the single-writer database handle. It owns the committed
// store and the WAL file descriptor for the process lifetime
// (spec.md §5's shared-resource policy).
type Engine struct {
	cfg     config.Config
	store   *store.Store
	wal     *os.File
	walSize int64
	logger  *slog.Logger

	commitsSinceCheckpoint int
}

// Open initializes an engine rooted at cfg.Dir: it loads the snapshot
// if present (starting empty otherwise), opens (creating if absent)
// the WAL for append, runs recovery, and then checkpoints -- exactly
// the sequence spec.md §6 assigns to open().
func Open(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := store.New(cfg.CompressSnapshots)
	if err := s.LoadSnapshot(cfg.SnapshotPath()); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("engine: open: %w", err)
		}
		logger.Info("no snapshot found, starting with an empty store", "path", cfg.SnapshotPath())
	}

	wal, err := os.OpenFile(cfg.WALPath(), os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("engine: open WAL %s: %w", cfg.WALPath(), err)
	}

	e := &Engine{cfg: cfg, store: s, wal: wal, logger: logger}

	info, err := wal.Stat()
	if err != nil {
		wal.Close()
		return nil, fmt.Errorf("engine: stat WAL: %w", err)
	}
	e.walSize = info.Size()

	if err := e.recover(); err != nil {
		wal.Close()
		return nil, fmt.Errorf("engine: recover: %w", err)
	}

	if err := e.Checkpoint(); err != nil {
		wal.Close()
		return nil, fmt.Errorf("engine: post-recovery checkpoint: %w", err)
	}

	return e, nil
}

// Begin returns a fresh Open/Abort transaction.
func (e *Engine) Begin() *txn.Transaction {
	return txn.Begin()
}

// Add records op against tx and, for Get, resolves its read-your-writes
// value against the engine's committed store.
func (e *Engine) Add(tx *txn.Transaction, op codec.OperationRecord) (string, bool) {
	tx.AddOperation(op)
	if op.Command == codec.Get {
		return tx.Get(op.Key, e.store.Get)
	}
	return "", false
}

// Commit durably appends tx's transaction log, applies its write-set,
// and (per cfg.CheckpointEveryCommits) optionally checkpoints. On any
// failure before the WAL append completes, the in-memory store is left
// untouched and tx is returned to the caller still in Open/Commit, as
// spec.md §4.4 step 3 and §7's commit-path propagation policy require.
func (e *Engine) Commit(tx *txn.Transaction) error {
	if tx.State != txn.OpenCommit {
		return ErrNotOpenCommit
	}

	payload := tx.Log().Encode()
	encoded := frame.Encode(payload)

	if err := ioutil.WriteAndSync(e.wal, encoded); err != nil {
		return fmt.Errorf("engine: commit: wal append: %w", err)
	}
	e.walSize += int64(len(encoded))

	e.store.ApplyWriteSet(tx.WriteSet)
	tx.Finalize()

	e.commitsSinceCheckpoint++
	if e.cfg.CheckpointEveryCommits <= 0 || e.commitsSinceCheckpoint >= e.cfg.CheckpointEveryCommits {
		if err := e.Checkpoint(); err != nil {
			// The commit itself already succeeded and is durable; a
			// failed checkpoint only delays consolidation (spec.md
			// §7's checkpoint propagation policy), so it is logged
			// rather than surfaced as a commit failure.
			e.logger.Error("checkpoint after commit failed", "error", err)
		}
	}

	return nil
}

// Abort sets tx's status to Abort and clears its operations and
// write-set. No I/O occurs; an aborted transaction leaves no trace.
func (e *Engine) Abort(tx *txn.Transaction) {
	tx.SetAborted()
}

// Checkpoint writes a full snapshot of the committed store, then
// deletes the WAL file. A crash between the two steps is safe: the
// next recover() replays the WAL on top of the just-written snapshot
// and reaches the same state (spec.md §8 law 6).
func (e *Engine) Checkpoint() error {
	if err := e.store.TakeSnapshot(e.cfg.SnapshotPath()); err != nil {
		// Do not delete the WAL: next startup re-recovers from it.
		return fmt.Errorf("engine: checkpoint: snapshot: %w", err)
	}

	if err := e.resetWAL(); err != nil {
		// A stale WAL is harmless -- its effects are already captured
		// in the snapshot, so replaying it again on the next recovery
		// is idempotent. Log and continue rather than fail the
		// checkpoint outright.
		e.logger.Error("checkpoint: failed to delete WAL, leaving stale WAL in place", "error", err)
		return nil
	}

	e.commitsSinceCheckpoint = 0
	return nil
}

// resetWAL deletes the WAL file (via internal/ioutil.Delete, per
// spec.md §4.1/§4.4's checkpoint step 2) and opens a fresh, empty one
// at the same path, only closing the old descriptor once the new one
// is in place -- so a failure partway through leaves the engine with a
// still-valid WAL handle rather than a closed one.
func (e *Engine) resetWAL() error {
	path := e.cfg.WALPath()

	if err := ioutil.Delete(path); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("recreate: %w", err)
	}

	old := e.wal
	e.wal = f
	e.walSize = 0

	if err := old.Close(); err != nil {
		e.logger.Error("failed to close previous WAL file descriptor after checkpoint", "error", err)
	}
	return nil
}

// recover replays every committed transaction frame in the WAL onto
// the store, per spec.md §4.4's recover() procedure. It is called once
// from Open, after the store has already been seeded from the
// snapshot.
func (e *Engine) recover() error {
	if e.walSize == 0 {
		return nil
	}

	var offset int64
	retries := 0
	replayed := 0

	for offset < e.walSize {
		payload, next, err := frame.ReadFrame(e.wal, offset)
		switch {
		case err == nil:
			log, decodeErr := codec.DecodeTransactionLog(payload)
			if decodeErr != nil {
				offset++
				retries++
				if retries > maxResyncRetries {
					return fmt.Errorf("recover: exceeded resync retry budget at offset %d: %w", offset, decodeErr)
				}
				continue
			}
			if log.Status == codec.Commit {
				e.store.ApplyWriteSet(writeSetFromOperations(log.Operations))
				replayed++
			}
			offset = next

		case errors.Is(err, frame.ErrChecksumMismatch), errors.Is(err, frame.ErrPayloadTooLarge):
			offset++
			retries++
			if retries > maxResyncRetries {
				return fmt.Errorf("recover: exceeded resync retry budget at offset %d: %w", offset, err)
			}

		case errors.Is(err, io.EOF):
			offset = e.walSize

		default:
			return fmt.Errorf("recover: read frame at offset %d: %w", offset, err)
		}
	}

	e.logger.Info("WAL recovery complete", "transactions_replayed", replayed, "bytes_scanned", offset)
	return nil
}

// writeSetFromOperations folds a decoded operation history into a
// write-set the same way txn.AddOperation does, for records coming off
// the WAL rather than a live transaction.
func writeSetFromOperations(ops []codec.OperationRecord) map[string]*string {
	ws := make(map[string]*string, len(ops))
	for _, op := range ops {
		switch op.Command {
		case codec.Insert:
			v := op.Value
			ws[op.Key] = &v
		case codec.Remove:
			ws[op.Key] = nil
		}
	}
	return ws
}

// Close runs a final checkpoint and closes the WAL file handle.
func (e *Engine) Close() error {
	if err := e.Checkpoint(); err != nil {
		e.logger.Error("checkpoint during close failed", "error", err)
	}
	if err := e.wal.Close(); err != nil {
		return fmt.Errorf("engine: close WAL: %w", err)
	}
	return nil
}
