// Package txn implements the transaction lifecycle: write-set
// accumulation, read-your-writes, and the state machine in
// spec.md §4.4. It knows nothing of the WAL or the committed store --
// internal/engine drives a Transaction through commit/abort and is the
// only caller that touches its write-set.
package txn

import (
	"github.com/google/uuid"

	"github.com/ledgerdb/ledgerdb/internal/codec"
)

// State is one of the four states in the lifecycle table: a
// transaction starts Open/Abort, moves to Open/Commit via
// SetCommitted, and ends at either terminal state.
type State int

const (
	OpenAbort State = iota
	OpenCommit
	TerminalAbort
	TerminalCommit
)

func (s State) String() string {
	switch s {
	case OpenAbort:
		return "open/abort"
	case OpenCommit:
		return "open/commit"
	case TerminalAbort:
		return "terminal/abort"
	case TerminalCommit:
		return "terminal/commit"
	default:
		return "unknown"
	}
}

// Transaction accumulates operations and their folded write-set effect
// until it is committed or aborted. It mirrors the teacher's own
// internal/domain/transaction/transaction.go in spirit -- a UUID-tagged
// value object created fresh per unit of work -- generalized from rows
// in named tables to keys in the single committed map.
type Transaction struct {
	ID         string
	State      State
	Operations []codec.OperationRecord
	WriteSet   map[string]*string
}

// Begin returns a fresh, empty Open/Abort transaction. The UUID is an
// in-memory identifier only: no log message includes it, and it is
// never persisted as part of the WAL record (spec.md §4.2's transaction log carries no transaction
// identity, only status and operations).
func Begin() *Transaction {
	return &Transaction{
		ID:       uuid.NewString(),
		State:    OpenAbort,
		WriteSet: make(map[string]*string),
	}
}

// AddOperation appends op to the operation history and, for Insert and
// Remove, folds it into the write-set. Get never mutates the write-set;
// its effective value is read separately via Get below. Calling this
// outside the Open/Abort state is a programmer error in the caller
// (the engine never calls it on a committed or aborted transaction) and
// panics rather than returning a silently-ignored error.
func (t *Transaction) AddOperation(op codec.OperationRecord) {
	if t.State != OpenAbort {
		panic("txn: AddOperation called on a transaction that is not open")
	}
	t.Operations = append(t.Operations, op)

	switch op.Command {
	case codec.Insert:
		v := op.Value
		t.WriteSet[op.Key] = &v
	case codec.Remove:
		t.WriteSet[op.Key] = nil
	case codec.Get:
		// No mutation; Get's value is resolved by the caller via Get.
	}
}

// Get resolves the read-your-writes value for k: the write-set entry
// if one exists for this transaction (respecting the nil = tombstone
// convention), else whatever committed reports, else absent. committed
// is a closure over the engine's store so this package stays ignorant
// of the store's concrete type.
func (t *Transaction) Get(k string, committed func(string) (string, bool)) (string, bool) {
	if v, ok := t.WriteSet[k]; ok {
		if v == nil {
			return "", false
		}
		return *v, true
	}
	return committed(k)
}

// SetCommitted transitions Open/Abort to Open/Commit. The transaction
// is not yet durable: the engine still has to encode, frame, and
// write-and-sync it before it may be considered committed.
func (t *Transaction) SetCommitted() {
	t.State = OpenCommit
}

// SetAborted transitions to Terminal/Abort and clears the operation
// history and write-set, so an aborted transaction carries nothing
// that could later be mistaken for committed state (spec.md law 7).
func (t *Transaction) SetAborted() {
	t.State = TerminalAbort
	t.Operations = nil
	t.WriteSet = nil
}

// Finalize transitions Open/Commit to Terminal/Commit once the engine
// has durably written and applied the transaction. Called only after
// the WAL append has succeeded.
func (t *Transaction) Finalize() {
	t.State = TerminalCommit
}

// Log builds the on-disk transaction log for this transaction. The
// caller (internal/engine) must only call this once State is
// OpenCommit.
func (t *Transaction) Log() codec.TransactionLog {
	return codec.TransactionLog{
		Status:     codec.Commit,
		Operations: t.Operations,
	}
}
