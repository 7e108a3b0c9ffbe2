package DS

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarintRoundTrip(t *testing.T) {
	for _, x := range []uint64{0, 1, 127, 128, 300, 16383, 16384, math.MaxUint32, math.MaxUint64} {
		b := AppendVarint(nil, x)
		got, n, err := readVarint(append(b, 0xaa), "test")
		require.NoError(t, err, "%d", x)
		assert.Equal(t, x, got)
		assert.Equal(t, len(b), n)
	}
	assert.Len(t, AppendVarint(nil, math.MaxUint64), maxVarintLen)
}

func TestVarintMalformed(t *testing.T) {
	tests := map[string][]byte{
		"empty":         nil,
		"truncated":     {0x80},
		"truncated two": {0xff, 0xff},
		"too long":      bytes.Repeat([]byte{0x80}, maxVarintLen+1),
		"overflow":      append(bytes.Repeat([]byte{0xff}, maxVarintLen-1), 0x02),
	}
	for name, b := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := readVarint(b, "field")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.FLINT_DECODE))
			assert.Contains(t, err.Error(), "field")
		})
	}
}

func TestString16(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeString16(&buf, "hnsw"))
	require.NoError(t, writeString16(&buf, ""))
	r := bytes.NewReader(buf.Bytes())
	s, err := readString16(r)
	require.NoError(t, err)
	assert.Equal(t, "hnsw", s)
	s, err = readString16(r)
	require.NoError(t, err)
	assert.Equal(t, "", s)

	_, err = readString16(r)
	assert.True(t, errors.IsCode(err, errors.FLINT_DECODE))
	_, err = readString16(bytes.NewReader([]byte{5, 0, 'a', 'b'}))
	assert.True(t, errors.IsCode(err, errors.FLINT_DECODE))

	buf.Reset()
	require.NoError(t, writeString16(&buf, strings.Repeat("x", math.MaxUint16)))
	err = writeString16(&buf, strings.Repeat("x", math.MaxUint16+1))
	assert.True(t, errors.IsCode(err, errors.FLINT_MISUSE))
}
