package config

import (
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

func TestDefaultPathsJoinDir(t *testing.T) {
	c := Default("/var/lib/ledgerdb")
	assert.Equal(t, c.SnapshotPath(), filepath.Join("/var/lib/ledgerdb", "data.log"))
	assert.Equal(t, c.WALPath(), filepath.Join("/var/lib/ledgerdb", "data_wal.log"))
	assert.Equal(t, c.CheckpointEveryCommits, 1)
	assert.Assert(t, !c.CompressSnapshots)
}
