package DS

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/cyw0ng95/flint/ext"
	"github.com/cyw0ng95/flint/internal/SF/errors"
	"github.com/cyw0ng95/flint/internal/SF/util"
	"github.com/golang/snappy"
)

// Snapshot envelope layout (little-endian):
//
//	[magic "FLIX"] [version u8] [flags u8]
//	[structure: u16 len + bytes] [key type u32]
//	[raw body len u32] [crc32 of raw body u32]
//	[body: snappy block when flagSnappy is set, raw otherwise]
const (
	snapshotMagic   = "FLIX"
	snapshotVersion = 1

	flagSnappy = 1 << 0
)

// Snapshot is a decoded envelope around an IndexExtension.Serialize body.
type Snapshot struct {
	Structure string
	KeyType   ext.TypeID
	Body      []byte
}

// EncodeSnapshot wraps body in an envelope, optionally snappy-compressed.
func EncodeSnapshot(s Snapshot, compress bool) ([]byte, error) {
	buf := util.GetBuffer()
	defer util.PutBuffer(buf)

	buf.WriteString(snapshotMagic)
	var flags uint8
	payload := s.Body
	if compress {
		flags |= flagSnappy
		payload = snappy.Encode(nil, s.Body)
	}
	buf.WriteByte(snapshotVersion)
	buf.WriteByte(flags)
	if err := writeString16(buf, s.Structure); err != nil {
		return nil, err
	}
	binary.Write(buf, binary.LittleEndian, uint32(s.KeyType))
	binary.Write(buf, binary.LittleEndian, uint32(len(s.Body)))
	binary.Write(buf, binary.LittleEndian, crc32.ChecksumIEEE(s.Body))
	buf.Write(payload)
	return util.DetachBytes(buf), nil
}

// DecodeSnapshot validates and unwraps an envelope. Every failure is a
// FLINT_DECODE error.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	r := bytes.NewReader(data)
	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != snapshotMagic {
		return Snapshot{}, errors.New(errors.FLINT_DECODE, "not an index snapshot")
	}
	var hdr struct {
		Version uint8
		Flags   uint8
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return Snapshot{}, errors.Wrap(err, errors.FLINT_DECODE, "read snapshot header")
	}
	if hdr.Version != snapshotVersion {
		return Snapshot{}, errors.New(errors.FLINT_DECODE, "unsupported snapshot version %d", hdr.Version)
	}
	structure, err := readString16(r)
	if err != nil {
		return Snapshot{}, errors.Wrap(err, errors.FLINT_DECODE, "read structure name")
	}
	var meta struct {
		KeyType uint32
		RawLen  uint32
		CRC     uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &meta); err != nil {
		return Snapshot{}, errors.Wrap(err, errors.FLINT_DECODE, "read snapshot metadata")
	}
	payload := data[len(data)-r.Len():]
	body := payload
	if hdr.Flags&flagSnappy != 0 {
		n, err := snappy.DecodedLen(payload)
		if err != nil || n != int(meta.RawLen) {
			return Snapshot{}, errors.New(errors.FLINT_DECODE, "snapshot body length mismatch")
		}
		if body, err = snappy.Decode(nil, payload); err != nil {
			return Snapshot{}, errors.Wrap(err, errors.FLINT_DECODE, "decompress snapshot")
		}
	}
	if len(body) != int(meta.RawLen) {
		return Snapshot{}, errors.New(errors.FLINT_DECODE, "snapshot body is %d bytes, header says %d", len(body), meta.RawLen)
	}
	if crc32.ChecksumIEEE(body) != meta.CRC {
		return Snapshot{}, errors.New(errors.FLINT_DECODE, "snapshot checksum mismatch")
	}
	return Snapshot{Structure: structure, KeyType: ext.TypeID(meta.KeyType), Body: body}, nil
}
