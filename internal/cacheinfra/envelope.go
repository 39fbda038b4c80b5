package cacheinfra

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

// Cache backends that cannot expire individual namespace entries (Redis hash
// fields, the in-process cache) store each value wrapped in this envelope and
// enforce the per-entry deadline on read.
//
// Layout: magic(4) | ver(1) | deadline unix-nano (i64 be, 0 = none) | vlen(u32 be) | payload

const envelopeVersion byte = 1

var (
	// ErrCorruptEntry is returned when an envelope fails structural checks.
	// Callers should treat it as a miss and drop the entry.
	ErrCorruptEntry = errors.New("cacheinfra: corrupt cache entry")

	envelopeMagic = [...]byte{'a', 'c', 'q', 'c'}
)

const envelopeHeader = 4 + 1 + 8 + 4

func encodeEntry(deadline time.Time, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(envelopeHeader + len(payload))

	buf.Write(envelopeMagic[:])
	buf.WriteByte(envelopeVersion)

	var u8 [8]byte
	var nanos int64
	if !deadline.IsZero() {
		nanos = deadline.UnixNano()
	}
	binary.BigEndian.PutUint64(u8[:], uint64(nanos))
	buf.Write(u8[:])

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func decodeEntry(b []byte) (deadline time.Time, payload []byte, err error) {
	if len(b) < envelopeHeader || !bytes.Equal(b[:4], envelopeMagic[:]) || b[4] != envelopeVersion {
		return time.Time{}, nil, ErrCorruptEntry
	}

	off := 5
	nanos := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen > len(b)-off {
		return time.Time{}, nil, ErrCorruptEntry
	}

	if nanos != 0 {
		deadline = time.Unix(0, nanos)
	}
	return deadline, b[off : off+vlen], nil
}

func expired(deadline time.Time, now time.Time) bool {
	return !deadline.IsZero() && now.After(deadline)
}
