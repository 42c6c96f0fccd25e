package framedata

import (
	"encoding"
	"encoding/binary"
)

// Codec converts payloads to and from the opaque bytes stored in a slot.
// Two payloads are considered identical when their encodings are equal.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(b []byte) (T, error)
}

// BinaryCodec encodes fixed-size values with encoding/binary in little
// endian order. Types implementing encoding.BinaryMarshaler and
// encoding.BinaryUnmarshaler (on the pointer) use those methods instead.
type BinaryCodec[T any] struct{}

// Marshal implements Codec.
func (BinaryCodec[T]) Marshal(v T) ([]byte, error) {
	if m, ok := any(v).(encoding.BinaryMarshaler); ok {
		return m.MarshalBinary()
	}
	if m, ok := any(&v).(encoding.BinaryMarshaler); ok {
		return m.MarshalBinary()
	}
	return binary.Append(nil, binary.LittleEndian, v)
}

// Unmarshal implements Codec.
func (BinaryCodec[T]) Unmarshal(b []byte) (T, error) {
	var v T
	if u, ok := any(&v).(encoding.BinaryUnmarshaler); ok {
		err := u.UnmarshalBinary(b)
		return v, err
	}
	_, err := binary.Decode(b, binary.LittleEndian, &v)
	return v, err
}
