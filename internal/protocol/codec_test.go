package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_LittleEndianLayout(t *testing.T) {
	got := NewPacket(ServerSuccess).U16(0x0102).I16(-1).String("hi").Packet()
	want := []byte{byte(ServerSuccess), 0x02, 0x01, 0xff, 0xff, 2, 'h', 'i'}
	assert.Equal(t, want, got)
}

func TestWriter_RoomIDSentinels(t *testing.T) {
	got := NewPacket(ServerRoomID).I32(RoomNotFound).Packet()
	assert.Equal(t, []byte{byte(ServerRoomID), 0xfe, 0xff, 0xff, 0xff}, got)

	got = NewPacket(ServerVersion).U32(GameVersion).Packet()
	assert.Equal(t, []byte{byte(ServerVersion), 3, 0, 0, 0}, got)
}

func TestWriter_StringByteLength(t *testing.T) {
	// Two runes, six bytes.
	got := NewPacket(ServerGuess).String("貓貓").Packet()
	assert.Equal(t, byte(6), got[1])
	assert.Len(t, got, 1+1+6)
}

func TestWriter_StringTruncated(t *testing.T) {
	long := strings.Repeat("a", 300)
	got := NewPacket(ServerChat).String(long).Packet()
	assert.Equal(t, byte(MaxStringLen), got[1])
	assert.Len(t, got, 2+MaxStringLen)
}

func TestDecode(t *testing.T) {
	op, payload, err := Decode([]byte{byte(ClientJoinRoom), 0x39, 0x30, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, ClientJoinRoom, op)
	assert.Equal(t, uint64(12345), Uint(payload))

	_, _, err = Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestReader(t *testing.T) {
	frame := NewPacket(ServerConnect).U16(7).String("Alice").U32(99).U8(1).Packet()
	r := NewReader(frame[1:])

	uid, err := r.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), uid)

	name, err := r.String()
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	n, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(99), n)

	assert.Equal(t, []byte{1}, r.Rest())
	_, err = r.U8()
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestReader_ShortString(t *testing.T) {
	r := NewReader([]byte{5, 'a', 'b'})
	_, err := r.String()
	assert.ErrorIs(t, err, ErrShortPayload)
}

func TestUint(t *testing.T) {
	assert.Equal(t, uint64(0), Uint(nil))
	assert.Equal(t, uint64(2), Uint([]byte{2}))
	assert.Equal(t, uint64(1000), Uint([]byte{0xe8, 0x03}))
}

func TestOpNames(t *testing.T) {
	assert.Equal(t, "SET_URGENT", ClientSetUrgent.String())
	assert.Equal(t, "URGENT_PLAYER", ServerUrgentPlayer.String())
	assert.Equal(t, "CLIENT_OP(200)", ClientOp(200).String())
	assert.Equal(t, uint8(18), uint8(ClientSetUrgent))
	assert.Equal(t, uint8(25), uint8(ServerUrgentPlayer))
	assert.Equal(t, "arrange_number", ArrangeNumber.String())
}
