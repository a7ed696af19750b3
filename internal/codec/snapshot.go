package codec

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/klauspost/compress/snappy"
)

// snapshotFlagRaw and snapshotFlagSnappy tag the first byte of an
// encoded snapshot so DecodeSnapshot can tell whether to invert the
// snappy compression without needing a side channel.
const (
	snapshotFlagRaw    byte = 0
	snapshotFlagSnappy byte = 1
)

// EncodeSnapshot serializes an ordered key/value map deterministically:
// keys are sorted lexicographically (byte order) and written as a
// 4-byte count followed by, per entry, a length-prefixed key and a
// length-prefixed value. When compress is true the encoded map is
// snappy-compressed, which is itself deterministic for identical input,
// so two write-sets that converge to the same map still produce
// byte-identical snapshot bytes either way.
func EncodeSnapshot(m map[string]string, compress bool) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	size := 4
	for _, k := range keys {
		size += 4 + len(k) + 4 + len(m[k])
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(keys)))
	offset := 4
	for _, k := range keys {
		offset = putString(buf, offset, k)
		offset = putString(buf, offset, m[k])
	}

	if compress {
		return append([]byte{snapshotFlagSnappy}, snappy.Encode(nil, buf)...)
	}
	return append([]byte{snapshotFlagRaw}, buf...)
}

// DecodeSnapshot inverts EncodeSnapshot, returning ErrMalformed on any
// structural inconsistency (including a snappy body that fails to
// decompress).
func DecodeSnapshot(payload []byte) (map[string]string, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: snapshot payload empty", ErrMalformed)
	}

	buf := payload[1:]
	if payload[0] == snapshotFlagSnappy {
		decoded, err := snappy.Decode(nil, buf)
		if err != nil {
			return nil, fmt.Errorf("%w: snapshot decompression: %v", ErrMalformed, err)
		}
		buf = decoded
	} else if payload[0] != snapshotFlagRaw {
		return nil, fmt.Errorf("%w: unknown snapshot encoding flag %d", ErrMalformed, payload[0])
	}

	if len(buf) < 4 {
		return nil, fmt.Errorf("%w: snapshot header too short (%d bytes)", ErrMalformed, len(buf))
	}

	count := binary.LittleEndian.Uint32(buf[0:4])
	offset := 4

	m := make(map[string]string, count)
	for i := uint32(0); i < count; i++ {
		key, next, err := getString(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d key: %v", ErrMalformed, i, err)
		}
		offset = next

		value, next, err := getString(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d value: %v", ErrMalformed, i, err)
		}
		offset = next

		m[key] = value
	}

	return m, nil
}
