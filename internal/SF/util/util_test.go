package util

import (
	"testing"

	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/stretchr/testify/assert"
)

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "fine") })
	assert.PanicsWithValue(t, "Assertion failed: value 5 is not 10", func() {
		Assert(false, "value %d is not %d", 5, 10)
	})
}

func TestIsNil(t *testing.T) {
	var m map[string]int
	var s []int
	assert.True(t, IsNil(nil))
	assert.True(t, IsNil(m))
	assert.True(t, IsNil(s))
	assert.False(t, IsNil(0))
	assert.False(t, IsNil(""))

	var p *int
	var iface interface{} = p
	assert.True(t, IsNil(iface))
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check(true, "ok"))
	err := Check(false, "type %d missing", 42)
	assert.True(t, errors.IsCode(err, errors.FLINT_INTERNAL))
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("abc")
	out := DetachBytes(buf)
	PutBuffer(buf)
	assert.Equal(t, []byte("abc"), out)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len())
	PutBuffer(again)
	PutBuffer(nil)
}
