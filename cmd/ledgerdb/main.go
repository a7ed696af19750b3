// Command ledgerdb starts the interactive REPL against a durable
// key/value store rooted at a configurable data directory. Process
// wiring, argument parsing, and log setup are out of scope for the
// core (spec.md §1) and live entirely in this file, in the same style
// as the teacher's cmd/joydb/main.go: flag-parsed options, slog via
// internal/logging, and a deferred shutdown that checkpoints before
// exit.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledgerdb/ledgerdb/internal/config"
	"github.com/ledgerdb/ledgerdb/internal/engine"
	"github.com/ledgerdb/ledgerdb/internal/logging"
	"github.com/ledgerdb/ledgerdb/internal/repl"
)

// parseLogLevel maps the -log-level flag's value to a slog.Level.
func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unrecognized log level %q", s)
	}
}

func main() {
	dir := flag.String("dir", "data", "directory the snapshot and WAL files live in")
	compress := flag.Bool("compress", false, "snappy-compress snapshot files")
	checkpointEvery := flag.Int("checkpoint-every", 1, "run a checkpoint after every N commits")
	logLevel := flag.String("log-level", "debug", "minimum log level: debug, info, warn, error")
	seqURL := flag.String("seq-url", "http://localhost:5341", "Seq ingestion endpoint; empty disables Seq logging")
	flag.Parse()

	logOpts := logging.DefaultOptions()
	logOpts.SeqEndpoint = *seqURL
	if level, err := parseLogLevel(*logLevel); err == nil {
		logOpts.Level = level
	}

	logger, closeLogging := logging.SetupLogger(logOpts)
	defer closeLogging()
	slog.SetDefault(logger)

	if _, err := parseLogLevel(*logLevel); err != nil {
		logger.Warn("unrecognized -log-level, using default", "value", *logLevel, "default", logOpts.Level)
	}

	if err := os.MkdirAll(*dir, 0755); err != nil {
		logger.Error("failed to create data directory", "dir", *dir, "error", err)
		os.Exit(1)
	}

	cfg := config.Default(*dir)
	cfg.CompressSnapshots = *compress
	cfg.CheckpointEveryCommits = *checkpointEvery

	eng, err := engine.Open(cfg, logger)
	if err != nil {
		logger.Error("failed to open engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Error("failed to close engine cleanly", "error", err)
		}
	}()

	logger.Info("ledgerdb ready", "dir", *dir)
	repl.Start(os.Stdin, os.Stdout, eng, logger)
}
