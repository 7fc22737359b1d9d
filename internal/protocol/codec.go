package protocol

import (
	"encoding/binary"
	"errors"
)

// MaxStringLen is the largest byte length a 1-byte length prefix can carry.
const MaxStringLen = 255

// MaxCount is the largest collection size Count can encode.
const MaxCount = 255

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrShortPayload = errors.New("payload too short")
)

// Writer builds a single outgoing packet.
type Writer struct {
	buf []byte
}

// NewPacket starts a packet with the given opcode.
func NewPacket(op ServerOp) *Writer {
	w := &Writer{buf: make([]byte, 0, 32)}
	w.buf = append(w.buf, byte(op))
	return w
}

func (w *Writer) U8(v uint8) *Writer {
	w.buf = append(w.buf, v)
	return w
}

func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.U8(1)
	}
	return w.U8(0)
}

func (w *Writer) U16(v uint16) *Writer {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
	return w
}

func (w *Writer) I16(v int16) *Writer {
	return w.U16(uint16(v))
}

func (w *Writer) U32(v uint32) *Writer {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

func (w *Writer) I32(v int32) *Writer {
	return w.U32(uint32(v))
}

// Count writes a 1-byte collection length. Callers keep collections at or
// below MaxCount.
func (w *Writer) Count(n int) *Writer {
	return w.U8(uint8(n))
}

// String writes s as UTF-8 with a 1-byte byte-length prefix. Anything past
// MaxStringLen bytes is cut off.
func (w *Writer) String(s string) *Writer {
	return w.RawString([]byte(s))
}

// RawString is String for text that is already encoded.
func (w *Writer) RawString(b []byte) *Writer {
	if len(b) > MaxStringLen {
		b = b[:MaxStringLen]
	}
	w.U8(uint8(len(b)))
	w.buf = append(w.buf, b...)
	return w
}

func (w *Writer) Bytes(b []byte) *Writer {
	w.buf = append(w.buf, b...)
	return w
}

// Packet returns the encoded frame.
func (w *Writer) Packet() []byte {
	return w.buf
}

// Decode splits a frame into its opcode and payload.
func Decode(frame []byte) (ClientOp, []byte, error) {
	if len(frame) == 0 {
		return 0, nil, ErrEmptyFrame
	}
	return ClientOp(frame[0]), frame[1:], nil
}

// Reader consumes a payload front to back.
type Reader struct {
	data []byte
	off  int
}

func NewReader(payload []byte) *Reader {
	return &Reader{data: payload}
}

func (r *Reader) Len() int {
	return len(r.data) - r.off
}

func (r *Reader) U8() (uint8, error) {
	if r.Len() < 1 {
		return 0, ErrShortPayload
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

func (r *Reader) U16() (uint16, error) {
	if r.Len() < 2 {
		return 0, ErrShortPayload
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

func (r *Reader) U32() (uint32, error) {
	if r.Len() < 4 {
		return 0, ErrShortPayload
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// String reads a 1-byte length prefixed string.
func (r *Reader) String() (string, error) {
	n, err := r.U8()
	if err != nil {
		return "", err
	}
	if r.Len() < int(n) {
		return "", ErrShortPayload
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}

// Rest returns everything not consumed yet.
func (r *Reader) Rest() []byte {
	b := r.data[r.off:]
	r.off = len(r.data)
	return b
}

// Uint decodes a little-endian unsigned integer of any width up to 8 bytes.
// Clients are not strict about widths for single-value payloads, so the
// server accepts whatever it gets.
func Uint(payload []byte) uint64 {
	if len(payload) > 8 {
		payload = payload[:8]
	}
	var v uint64
	for i := len(payload) - 1; i >= 0; i-- {
		v = v<<8 | uint64(payload[i])
	}
	return v
}
