package repl

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/ledgerdb/ledgerdb/internal/config"
	"github.com/ledgerdb/ledgerdb/internal/engine"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(config.Default(t.TempDir()), slog.Default())
	assert.NilError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func TestReplBasicCommitAndGet(t *testing.T) {
	e := testEngine(t)
	in := strings.NewReader("insert k1 v1\ncommit\nget k1\nexit\n")
	var out bytes.Buffer

	Start(in, &out, e, slog.Default())

	assert.Assert(t, strings.Contains(out.String(), "v1"))
}

func TestReplGetMissingKeyPrintsNotFound(t *testing.T) {
	e := testEngine(t)
	in := strings.NewReader("get nope\nexit\n")
	var out bytes.Buffer

	Start(in, &out, e, slog.Default())

	assert.Assert(t, strings.Contains(out.String(), notFound))
}

func TestReplUnknownCommandPrintsError(t *testing.T) {
	e := testEngine(t)
	in := strings.NewReader("bogus\nexit\n")
	var out bytes.Buffer

	Start(in, &out, e, slog.Default())

	assert.Assert(t, strings.Contains(out.String(), "error"))
}

func TestReplAbortDiscardsWrite(t *testing.T) {
	e := testEngine(t)
	in := strings.NewReader("insert a 1\nabort\nget a\nexit\n")
	var out bytes.Buffer

	Start(in, &out, e, slog.Default())

	assert.Assert(t, strings.Contains(out.String(), notFound))
}

func TestReplCommitWithNoOpenTransactionIsError(t *testing.T) {
	e := testEngine(t)
	in := strings.NewReader("commit\nexit\n")
	var out bytes.Buffer

	Start(in, &out, e, slog.Default())

	assert.Assert(t, strings.Contains(out.String(), "error"))
}
