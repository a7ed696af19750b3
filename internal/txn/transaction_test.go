package txn

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ledgerdb/ledgerdb/internal/codec"
)

func noCommitted(string) (string, bool) { return "", false }

func TestBeginStartsOpenAbortEmpty(t *testing.T) {
	tx := Begin()
	assert.Equal(t, tx.State, OpenAbort)
	assert.Equal(t, len(tx.Operations), 0)
	assert.Equal(t, len(tx.WriteSet), 0)
	assert.Assert(t, tx.ID != "")
}

// Law 4: read-your-writes.
func TestReadYourWrites(t *testing.T) {
	tx := Begin()

	v, ok := tx.Get("k", noCommitted)
	assert.Assert(t, !ok)

	tx.AddOperation(codec.OperationRecord{Command: codec.Insert, Key: "k", Value: "v1"})
	v, ok = tx.Get("k", noCommitted)
	assert.Assert(t, ok)
	assert.Equal(t, v, "v1")

	tx.AddOperation(codec.OperationRecord{Command: codec.Remove, Key: "k"})
	_, ok = tx.Get("k", noCommitted)
	assert.Assert(t, !ok)
}

func TestReadYourWritesFallsBackToCommittedStore(t *testing.T) {
	tx := Begin()
	committed := func(k string) (string, bool) {
		if k == "committed-key" {
			return "committed-value", true
		}
		return "", false
	}

	v, ok := tx.Get("committed-key", committed)
	assert.Assert(t, ok)
	assert.Equal(t, v, "committed-value")

	tx.AddOperation(codec.OperationRecord{Command: codec.Remove, Key: "committed-key"})
	_, ok = tx.Get("committed-key", committed)
	assert.Assert(t, !ok, "a tombstone in the write-set must shadow the committed store")
}

func TestAddOperationCollapsesRepeatedWritesToSameKey(t *testing.T) {
	tx := Begin()
	tx.AddOperation(codec.OperationRecord{Command: codec.Insert, Key: "k", Value: "first"})
	tx.AddOperation(codec.OperationRecord{Command: codec.Insert, Key: "k", Value: "final"})

	assert.Equal(t, len(tx.Operations), 2, "history keeps every operation")
	v, ok := tx.Get("k", noCommitted)
	assert.Assert(t, ok)
	assert.Equal(t, v, "final", "write-set reflects only the last write")
}

func TestGetOperationDoesNotMutateWriteSet(t *testing.T) {
	tx := Begin()
	tx.AddOperation(codec.OperationRecord{Command: codec.Get, Key: "k"})
	assert.Equal(t, len(tx.WriteSet), 0)
	assert.Equal(t, len(tx.Operations), 1)
}

// Law 7: abort leaves no trace.
func TestSetAbortedClearsOperationsAndWriteSet(t *testing.T) {
	tx := Begin()
	tx.AddOperation(codec.OperationRecord{Command: codec.Insert, Key: "a", Value: "1"})
	tx.SetAborted()

	assert.Equal(t, tx.State, TerminalAbort)
	assert.Equal(t, len(tx.Operations), 0)
	assert.Equal(t, len(tx.WriteSet), 0)
}

func TestSetCommittedThenFinalize(t *testing.T) {
	tx := Begin()
	tx.AddOperation(codec.OperationRecord{Command: codec.Insert, Key: "a", Value: "1"})
	tx.SetCommitted()
	assert.Equal(t, tx.State, OpenCommit)

	log := tx.Log()
	assert.Equal(t, log.Status, codec.Commit)
	assert.DeepEqual(t, log.Operations, tx.Operations)

	tx.Finalize()
	assert.Equal(t, tx.State, TerminalCommit)
}

func TestAddOperationAfterCommitPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic when mutating a non-open transaction")
		}
	}()

	tx := Begin()
	tx.SetCommitted()
	tx.AddOperation(codec.OperationRecord{Command: codec.Insert, Key: "a", Value: "1"})
}
