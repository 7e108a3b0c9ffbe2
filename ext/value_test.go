package ext

import (
	"math"
	"testing"

	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ X, Y float64 }

const pointTypeID TypeID = FirstExtensionTypeID + 100

func TestBuiltinValues(t *testing.T) {
	var zero Value
	assert.True(t, zero.IsNull())
	assert.Equal(t, KindNull, Null().Kind())

	n, ok := Int(-42).AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(-42), n)

	f, ok := Float(2.5).AsFloat()
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	s, ok := Text("héllo").AsText()
	assert.True(t, ok)
	assert.Equal(t, "héllo", s)

	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = Text("x").AsInt()
	assert.False(t, ok)

	w, ok := Int(3).Float64()
	assert.True(t, ok)
	assert.Equal(t, 3.0, w)
}

func TestValueTypeIDs(t *testing.T) {
	assert.Equal(t, TypeIDNull, Null().TypeID())
	assert.Equal(t, TypeIDInt, Int(1).TypeID())
	assert.Equal(t, TypeIDFloat, Float(1).TypeID())
	assert.Equal(t, TypeIDText, Text("").TypeID())
	assert.Equal(t, TypeIDBool, Bool(false).TypeID())
	assert.Equal(t, pointTypeID, Extension(pointTypeID, point{}).TypeID())
	assert.True(t, TypeIDBool.IsBuiltin())
	assert.False(t, FirstExtensionTypeID.IsBuiltin())
}

func TestCheckedDowncast(t *testing.T) {
	v := Extension(pointTypeID, point{1, 2})

	p, err := As[point](v, pointTypeID)
	require.NoError(t, err)
	assert.Equal(t, point{1, 2}, p)

	tests := []struct {
		name string
		v    Value
		id   TypeID
	}{
		{"builtin value", Int(1), pointTypeID},
		{"wrong identity", v, pointTypeID + 1},
		{"null", Null(), pointTypeID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := As[point](tt.v, tt.id)
			assert.True(t, errors.IsCode(err, errors.FLINT_TYPE), "got %v", err)
		})
	}

	t.Run("wrong shape", func(t *testing.T) {
		_, err := As[[]float32](v, pointTypeID)
		assert.True(t, errors.IsCode(err, errors.FLINT_TYPE))
	})
}

func TestValueEqual(t *testing.T) {
	assert.True(t, Null().Equal(Null()))
	assert.True(t, Int(7).Equal(Int(7)))
	assert.False(t, Int(7).Equal(Float(7)))
	assert.True(t, Float(math.NaN()).Equal(Float(math.NaN())))
	assert.True(t, Text("a").Equal(Text("a")))
	assert.False(t, Bool(true).Equal(Bool(false)))
	assert.True(t, Extension(pointTypeID, point{1, 2}).Equal(Extension(pointTypeID, point{1, 2})))
	assert.False(t, Extension(pointTypeID, point{1, 2}).Equal(Extension(pointTypeID+1, point{1, 2})))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "12", Int(12).String())
	assert.Equal(t, "0.5", Float(0.5).String())
	assert.Equal(t, `"x"`, Text("x").String())
	assert.Equal(t, "true", Bool(true).String())
}

func TestDataType(t *testing.T) {
	dt, ok := BuiltinDataType(KindFloat)
	require.True(t, ok)
	assert.Equal(t, TypeFloat, dt)
	_, ok = BuiltinDataType(KindExtension)
	assert.False(t, ok)

	pt := DataTypeOf(pointType{})
	assert.True(t, pt.IsExtension())
	assert.Equal(t, "point", pt.Name())
	assert.True(t, pt.Is(pointTypeID))
	assert.True(t, pt.Equal(DataTypeOf(pointType{})))
	assert.False(t, pt.Equal(TypeInt))

	assert.Equal(t, TypeInt, DataTypeOf(BuiltinTypes()[1]))
	assert.Equal(t, "array", CategoryArray.String())
}

func TestTuplePointer(t *testing.T) {
	a := TuplePointer{Segment: 1, Block: 2, Slot: 3}
	b := TuplePointer{Segment: 1, Block: 2, Slot: 4}
	c := TuplePointer{Segment: 0, Block: 9, Slot: 9}
	assert.True(t, a.Less(b))
	assert.True(t, c.Less(a))
	assert.Equal(t, 0, a.Compare(a))

	enc := a.AppendBinary(nil)
	assert.Len(t, enc, TuplePointerSize)
	assert.Equal(t, []byte{1, 0, 0, 0, 2, 3, 0}, enc)
	got, err := DecodeTuplePointer(enc)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = DecodeTuplePointer(enc[:3])
	assert.True(t, errors.IsCode(err, errors.FLINT_DECODE))
}

func TestSortNeighbors(t *testing.T) {
	p1 := TuplePointer{Slot: 1}
	p2 := TuplePointer{Slot: 2}
	p3 := TuplePointer{Slot: 3}
	ns := []Neighbor{{p3, 0.5}, {p2, 0.1}, {p1, 0.5}}
	SortNeighbors(ns)
	assert.Equal(t, []Neighbor{{p2, 0.1}, {p1, 0.5}, {p3, 0.5}}, ns)

	assert.NoError(t, CheckK(0))
	assert.True(t, errors.IsCode(CheckK(-1), errors.FLINT_INDEX))
}
