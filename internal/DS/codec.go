package DS

import (
	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
)

// Codec turns Values into storage bytes through the sealed TypeRegistry.
//
// Value layout: [type id varint] [payload length varint] [payload].
// Row layout:   [column count varint] then one value per column.
type Codec struct {
	cat *ext.Catalog
}

// NewCodec returns a codec bound to cat.
func NewCodec(cat *ext.Catalog) *Codec {
	return &Codec{cat: cat}
}

func (c *Codec) typeFor(id ext.TypeID) (ext.TypeExtension, error) {
	te, ok := c.cat.Type(id)
	if !ok {
		return nil, errors.New(errors.FLINT_NOTFOUND, "no type registered with identity %d", id)
	}
	return te, nil
}

// AppendValue appends the encoding of v to dst.
func (c *Codec) AppendValue(dst []byte, v ext.Value) ([]byte, error) {
	te, err := c.typeFor(v.TypeID())
	if err != nil {
		return dst, err
	}
	payload, err := te.Serialize(v)
	if err != nil {
		return dst, errors.Wrap(err, errors.CodeOf(err), "serialize %s", te.Name())
	}
	dst = AppendVarint(dst, uint64(v.TypeID()))
	dst = AppendVarint(dst, uint64(len(payload)))
	return append(dst, payload...), nil
}

// EncodeValue returns the encoding of v.
func (c *Codec) EncodeValue(v ext.Value) ([]byte, error) {
	return c.AppendValue(nil, v)
}

// DecodeValue decodes one value from the front of b and returns it with the
// number of bytes consumed.
func (c *Codec) DecodeValue(b []byte) (ext.Value, int, error) {
	id, n, err := readVarint(b, "value type")
	if err != nil {
		return ext.Value{}, 0, err
	}
	if id > uint64(^uint32(0)) {
		return ext.Value{}, 0, errors.New(errors.FLINT_DECODE, "type identity %d out of range", id)
	}
	size, m, err := readVarint(b[n:], "value length")
	if err != nil {
		return ext.Value{}, 0, err
	}
	n += m
	if size > uint64(len(b)-n) {
		return ext.Value{}, 0, errors.New(errors.FLINT_DECODE, "value payload needs %d bytes, have %d", size, len(b)-n)
	}
	te, err := c.typeFor(ext.TypeID(id))
	if err != nil {
		return ext.Value{}, 0, err
	}
	v, err := te.Deserialize(b[n : n+int(size)])
	if err != nil {
		return ext.Value{}, 0, errors.Wrap(err, errors.FLINT_DECODE, "deserialize %s", te.Name())
	}
	return v, n + int(size), nil
}

// EncodeRow encodes a row of values.
func (c *Codec) EncodeRow(row []ext.Value) ([]byte, error) {
	out := AppendVarint(nil, uint64(len(row)))
	for i, v := range row {
		var err error
		if out, err = c.AppendValue(out, v); err != nil {
			return nil, errors.Wrap(err, errors.CodeOf(err), "column %d", i)
		}
	}
	return out, nil
}

// DecodeRow decodes a row written by EncodeRow. Trailing bytes are an error.
func (c *Codec) DecodeRow(b []byte) ([]ext.Value, error) {
	count, n, err := readVarint(b, "row header")
	if err != nil {
		return nil, err
	}
	// every value needs at least two header bytes
	if count > uint64(len(b)-n)/2 {
		return nil, errors.New(errors.FLINT_DECODE, "row claims %d columns in %d bytes", count, len(b)-n)
	}
	row := make([]ext.Value, 0, count)
	for i := uint64(0); i < count; i++ {
		v, m, err := c.DecodeValue(b[n:])
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeOf(err), "column %d", i)
		}
		row = append(row, v)
		n += m
	}
	if n != len(b) {
		return nil, errors.New(errors.FLINT_DECODE, "row has %d trailing bytes", len(b)-n)
	}
	return row, nil
}
