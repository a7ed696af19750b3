// Package repl implements the interactive command loop described in
// spec.md §6 as an "external collaborator, informational" surface: not
// part of the core contract, but the shell that drives it. It is kept
// in the teacher's own style -- a bufio.Scanner loop over stdin,
// printing to the given writer -- generalized from SQL statements to
// the five-verb get/insert/remove/commit/abort grammar.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledgerdb/ledgerdb/internal/codec"
	"github.com/ledgerdb/ledgerdb/internal/engine"
	"github.com/ledgerdb/ledgerdb/internal/txn"
)

// notFound is the sentinel the CLI prints for a get against a missing
// key, per spec.md §6.
const notFound = "not found"

// Start reads whitespace-separated commands from r and writes their
// output to w until r is exhausted or "exit"/"\q" is read. A
// transaction is opened lazily on the first get/insert/remove after
// the REPL starts or after the previous one terminates, and closed by
// an explicit commit or abort.
func Start(r io.Reader, w io.Writer, eng *engine.Engine, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	fmt.Fprintln(w, "ledgerdb ready. Commands: get KEY | insert KEY VALUE | remove KEY | commit | abort")
	fmt.Fprintln(w, "Type 'exit' or '\\q' to quit.")

	var tx *txn.Transaction

	for {
		fmt.Fprint(w, "> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "\\q" {
			if tx != nil {
				eng.Abort(tx)
			}
			return
		}

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "get":
			if len(fields) != 2 {
				fmt.Fprintln(w, "error")
				continue
			}
			if tx == nil {
				tx = eng.Begin()
			}
			v, ok := eng.Add(tx, codec.OperationRecord{Command: codec.Get, Key: fields[1]})
			if !ok {
				fmt.Fprintln(w, notFound)
			} else {
				fmt.Fprintln(w, v)
			}

		case "insert":
			if len(fields) != 3 {
				fmt.Fprintln(w, "error")
				continue
			}
			if tx == nil {
				tx = eng.Begin()
			}
			eng.Add(tx, codec.OperationRecord{Command: codec.Insert, Key: fields[1], Value: fields[2]})
			fmt.Fprintln(w, "ok")

		case "remove":
			if len(fields) != 2 {
				fmt.Fprintln(w, "error")
				continue
			}
			if tx == nil {
				tx = eng.Begin()
			}
			eng.Add(tx, codec.OperationRecord{Command: codec.Remove, Key: fields[1]})
			fmt.Fprintln(w, "ok")

		case "commit":
			if len(fields) != 1 || tx == nil {
				fmt.Fprintln(w, "error")
				continue
			}
			tx.SetCommitted()
			if err := eng.Commit(tx); err != nil {
				logger.Error("commit failed", "error", err)
				fmt.Fprintln(w, "error")
			} else {
				fmt.Fprintln(w, "ok")
			}
			tx = nil

		case "abort":
			if len(fields) != 1 || tx == nil {
				fmt.Fprintln(w, "error")
				continue
			}
			eng.Abort(tx)
			tx = nil
			fmt.Fprintln(w, "ok")

		default:
			fmt.Fprintln(w, "error")
		}
	}
}
