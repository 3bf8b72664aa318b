package wire

import (
	"encoding/binary"
	"fmt"
)

// PutUint32 appends a little-endian uint32 argument, the encoding Wayland
// uses for object ids, new_id, and plain uint/int arguments alike.
func PutUint32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

// TakeUint32 decodes a uint32 argument from the front of data, returning the
// remainder.
func TakeUint32(data []byte) (uint32, []byte, error) {
	if len(data) < 4 {
		return 0, data, fmt.Errorf("wire: short uint32 argument")
	}
	return binary.LittleEndian.Uint32(data[:4]), data[4:], nil
}

// PutString encodes a Wayland string argument: a uint32 length (including
// the trailing NUL), the bytes themselves, and padding to the next 4-byte
// boundary.
func PutString(s string) []byte {
	raw := append([]byte(s), 0)
	padded := (len(raw) + 3) &^ 3
	buf := make([]byte, 4+padded)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(raw)))
	copy(buf[4:], raw)
	return buf
}

// TakeString decodes a string argument from the front of data, returning the
// remainder.
func TakeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wire: short string length field")
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wire: short string payload")
	}
	s := string(data[:length-1])
	return s, data[padded:], nil
}

// Concat joins encoded argument chunks into one payload, mirroring how a
// real marshaller assembles a request's argument list in declaration order.
func Concat(chunks ...[]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	buf := make([]byte, 0, total)
	for _, c := range chunks {
		buf = append(buf, c...)
	}
	return buf
}
