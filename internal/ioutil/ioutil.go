// Package ioutil holds the durable I/O primitive that every persistent
// write in ledgerdb funnels through: a buffered write followed by a full
// data-and-metadata sync, and file deletion. No other package is
// permitted to write to the snapshot or WAL files directly.
package ioutil

import (
	"bufio"
	"fmt"
	"os"
)

// WriteAndSync writes data to f as a single logical append: buffer it,
// flush the buffer, then fsync the file so the bytes are guaranteed
// durable before returning. f must already be positioned where the
// caller wants the bytes written (e.g. opened with os.O_APPEND, or
// seeked to 0 for a truncating rewrite).
func WriteAndSync(f *os.File, data []byte) error {
	w := bufio.NewWriterSize(f, 32*1024)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("ioutil: write: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("ioutil: flush: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("ioutil: sync: %w", err)
	}
	return nil
}

// Delete removes the file at path.
func Delete(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("ioutil: delete %s: %w", path, err)
	}
	return nil
}
