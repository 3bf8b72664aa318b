// Package wire implements the minimal Wayland message framing this
// repository needs to exercise the object table from realistic traffic: an
// 8-byte header (object id, then opcode packed into the low 16 bits of a
// size/opcode word, little-endian) followed by an opaque argument payload.
// Argument codecs cover only uint32 and string arguments (args.go). It
// deliberately does not implement general argument (de)marshalling, fd
// passing, or any transport beyond io.Reader/io.Writer; those are out of scope for
// this repository (see SPEC_FULL.md's supplemented-features section).
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// headerSize is the fixed 8-byte Wayland message header: a little-endian
// uint32 object id followed by a little-endian uint32 packing the opcode in
// the low 16 bits and the total message size (header + payload) in the high
// 16 bits.
const headerSize = 8

// MaxMessageSize bounds a single message's total size, matching the 16-bit
// size field's range.
const MaxMessageSize = 0xFFFF

// Message is one decoded Wayland request or event: an object id, an opcode
// scoped to that object's interface, and the opaque argument bytes that
// follow the header.
type Message struct {
	ObjectID uint32
	Opcode   uint16
	Payload  []byte
}

// Encode serializes m into the wire's header-plus-payload framing.
func Encode(m Message) ([]byte, error) {
	size := headerSize + len(m.Payload)
	if size > MaxMessageSize {
		return nil, fmt.Errorf("wire: message size %d exceeds %d", size, MaxMessageSize)
	}

	buf := make([]byte, size)
	binary.LittleEndian.PutUint32(buf[0:4], m.ObjectID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.Opcode)|uint32(size)<<16)
	copy(buf[headerSize:], m.Payload)
	return buf, nil
}

// Decode reads one Message from r, blocking until the full header and
// payload have arrived or an error (including io.EOF on a clean close)
// occurs.
func Decode(r io.Reader) (Message, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Message{}, err
	}

	objectID := binary.LittleEndian.Uint32(hdr[0:4])
	sizeOpcode := binary.LittleEndian.Uint32(hdr[4:8])
	opcode := uint16(sizeOpcode & 0xFFFF)
	size := int(sizeOpcode >> 16)

	if size < headerSize {
		return Message{}, fmt.Errorf("wire: message size %d shorter than header", size)
	}

	payload := make([]byte, size-headerSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Message{}, fmt.Errorf("wire: short payload: %w", err)
	}

	return Message{ObjectID: objectID, Opcode: opcode, Payload: payload}, nil
}

// WriteMessage encodes and writes m to w in a single call.
func WriteMessage(w io.Writer, m Message) error {
	buf, err := Encode(m)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
