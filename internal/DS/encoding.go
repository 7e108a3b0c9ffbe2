package DS

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// maxVarintLen is the longest valid encoding of a uint64.
const maxVarintLen = binary.MaxVarintLen64

// AppendVarint appends the unsigned LEB128 encoding of x to dst.
func AppendVarint(dst []byte, x uint64) []byte {
	for x >= 0x80 {
		dst = append(dst, byte(x)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// readVarint decodes a varint from the front of b and returns it with the
// number of bytes consumed. what names the field in errors.
func readVarint(b []byte, what string) (uint64, int, error) {
	var x uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		if i == maxVarintLen {
			return 0, 0, errors.New(errors.FLINT_DECODE, "%s: varint longer than %d bytes", what, maxVarintLen)
		}
		c := b[i]
		// the tenth byte may only carry the top bit of a uint64
		if i == maxVarintLen-1 && c > 1 {
			return 0, 0, errors.New(errors.FLINT_DECODE, "%s: varint overflows 64 bits", what)
		}
		x |= uint64(c&0x7f) << shift
		if c < 0x80 {
			return x, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, errors.New(errors.FLINT_DECODE, "%s: truncated varint", what)
}

// writeString16 writes s with a u16 length prefix.
func writeString16(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return errors.New(errors.FLINT_MISUSE, "string of %d bytes does not fit a 16-bit length", len(s))
	}
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(s)))
	buf.Write(hdr[:])
	buf.WriteString(s)
	return nil
}

// readString16 reads a string written by writeString16.
func readString16(r *bytes.Reader) (string, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return "", errors.Wrap(err, errors.FLINT_DECODE, "string length")
	}
	n := int(binary.LittleEndian.Uint16(hdr[:]))
	if n > r.Len() {
		return "", errors.New(errors.FLINT_DECODE, "string needs %d bytes, have %d", n, r.Len())
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", errors.Wrap(err, errors.FLINT_DECODE, "string body")
	}
	return string(b), nil
}
