package record

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// HeaderSize is the size of the wire header: an 8-byte next link, the
// 16-byte type tag and an 8-byte version, all 64-bit aligned.
const HeaderSize = 32

// Header field offsets within the wire form.
const (
	offsetNext    = 0
	offsetType    = 8
	offsetVersion = 24
)

// ErrShortHeader is returned when a buffer cannot hold a wire header.
var ErrShortHeader = errors.New("record: buffer shorter than header")

// AppendHeader appends the wire form of h to dst. next is the address of
// the following record as seen by the peer, or zero at the end of a chain.
//
// The type tag is laid out like a GUID in memory: the first three groups
// are little endian, the last eight bytes are copied as is.
func AppendHeader(dst []byte, h *Header, next uint64) []byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint64(buf[offsetNext:], next)
	putGUID(buf[offsetType:offsetVersion], h.Type)
	binary.LittleEndian.PutUint64(buf[offsetVersion:], uint64(h.Version))
	return append(dst, buf[:]...)
}

// ParseHeader decodes a wire header. The returned header has a nil Next;
// the raw next link is returned separately.
func ParseHeader(b []byte) (Header, uint64, error) {
	if len(b) < HeaderSize {
		return Header{}, 0, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}
	next := binary.LittleEndian.Uint64(b[offsetNext:])
	version := binary.LittleEndian.Uint64(b[offsetVersion:])
	if version > uint64(^uint32(0)) {
		return Header{}, 0, fmt.Errorf("record: version %d out of range", version)
	}
	return Header{
		Type:    getGUID(b[offsetType:offsetVersion]),
		Version: uint32(version),
	}, next, nil
}

func putGUID(dst []byte, id uuid.UUID) {
	binary.LittleEndian.PutUint32(dst[0:], binary.BigEndian.Uint32(id[0:4]))
	binary.LittleEndian.PutUint16(dst[4:], binary.BigEndian.Uint16(id[4:6]))
	binary.LittleEndian.PutUint16(dst[6:], binary.BigEndian.Uint16(id[6:8]))
	copy(dst[8:16], id[8:16])
}

func getGUID(src []byte) uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint32(id[0:], binary.LittleEndian.Uint32(src[0:4]))
	binary.BigEndian.PutUint16(id[4:], binary.LittleEndian.Uint16(src[4:6]))
	binary.BigEndian.PutUint16(id[6:], binary.LittleEndian.Uint16(src[6:8]))
	copy(id[8:16], src[8:16])
	return id
}
