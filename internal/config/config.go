// Package config holds the engine's construct-time configuration: the
// data directory and on-disk file names, plus the checkpoint policy.
// spec.md §9 calls out the source's hardcoded, process-wide file paths
// as a pattern needing re-architecture into "an engine value that
// carries its directory; construct-time configuration" -- this is that
// value. cmd/ledgerdb populates it from flags in the same style as the
// teacher's cmd/joydb/main.go.
package config

import "path/filepath"

// Config is passed once to engine.Open and is immutable for the life
// of the engine.
type Config struct {
	// Dir is the directory both on-disk files live in.
	Dir string

	// SnapshotFile and WALFile are file names relative to Dir. The
	// reference implementation's canonical names, per spec.md §6.
	SnapshotFile string
	WALFile      string

	// CheckpointEveryCommits is the commit-count policy threshold: a
	// checkpoint runs after every Nth successful commit. 1 reproduces
	// spec.md §4.4's reference behavior (checkpoint after every
	// commit); a caller may raise it to trade recovery-time work for
	// steady-state I/O, per the "Implementers may choose a policy"
	// escape hatch in the same section.
	CheckpointEveryCommits int

	// CompressSnapshots controls whether the store snappy-compresses
	// snapshot payloads (internal/codec.EncodeSnapshot's compress
	// argument).
	CompressSnapshots bool
}

// Default returns the configuration the reference implementation uses
// when none is supplied: checkpoint after every commit, snapshots
// uncompressed, files named after spec.md §6's canonical paths, rooted
// at dir.
func Default(dir string) Config {
	return Config{
		Dir:                    dir,
		SnapshotFile:           "data.log",
		WALFile:                "data_wal.log",
		CheckpointEveryCommits: 1,
		CompressSnapshots:      false,
	}
}

// SnapshotPath returns the full path to the snapshot file.
func (c Config) SnapshotPath() string {
	return filepath.Join(c.Dir, c.SnapshotFile)
}

// WALPath returns the full path to the WAL file.
func (c Config) WALPath() string {
	return filepath.Join(c.Dir, c.WALFile)
}
