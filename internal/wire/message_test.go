package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := Message{ObjectID: 0xFF000002, Opcode: 3, Payload: PutUint32(42)}

	buf, err := Encode(m)
	require.NoError(t, err)
	assert.Len(t, buf, headerSize+4)

	got, err := Decode(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestDecodeShortHeaderReturnsEOF(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{1, 2, 3}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeShortPayload(t *testing.T) {
	buf, err := Encode(Message{ObjectID: 1, Opcode: 0, Payload: []byte("1234")})
	require.NoError(t, err)

	_, err = Decode(bytes.NewReader(buf[:len(buf)-2]))
	assert.Error(t, err)
}

func TestWriteMessage(t *testing.T) {
	var buf bytes.Buffer
	m := Message{ObjectID: 5, Opcode: 1, Payload: PutString("wl_seat")}
	require.NoError(t, WriteMessage(&buf, m))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestStringArgumentRoundTrip(t *testing.T) {
	encoded := PutString("zwlr_data_control_manager_v1")
	s, rest, err := TakeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, "zwlr_data_control_manager_v1", s)
	assert.Empty(t, rest)
}

func TestUint32ArgumentRoundTrip(t *testing.T) {
	encoded := Concat(PutUint32(7), PutUint32(99))
	a, rest, err := TakeUint32(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), a)

	b, rest, err := TakeUint32(rest)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), b)
	assert.Empty(t, rest)
}

func TestEncodeRejectsOversizeMessage(t *testing.T) {
	_, err := Encode(Message{Payload: make([]byte, MaxMessageSize)})
	assert.Error(t, err)
}
