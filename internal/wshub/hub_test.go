package wshub

import (
	"testing"
)

func TestRegisterAndSend(t *testing.T) {
	h := NewHub()

	c1 := &Client{UID: 1, Send: make(chan []byte, 16)}
	c2 := &Client{UID: 2, Send: make(chan []byte, 16)}
	h.Register(c1)
	h.Register(c2)

	if err := h.Send(2, []byte{7, 1}); err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	select {
	case data := <-c2.Send:
		if len(data) != 2 || data[0] != 7 {
			t.Fatalf("unexpected packet: %v", data)
		}
	default:
		t.Fatal("c2 did not receive packet")
	}

	select {
	case <-c1.Send:
		t.Fatal("c1 should not receive c2's packet")
	default:
	}

	if h.Count() != 2 {
		t.Errorf("Count() = %d, want 2", h.Count())
	}
}

func TestSendUnknownClient(t *testing.T) {
	h := NewHub()
	if err := h.Send(9, []byte{0}); err != ErrNotConnected {
		t.Errorf("Send() error = %v, want %v", err, ErrNotConnected)
	}
}

func TestUnregisterClosesSend(t *testing.T) {
	h := NewHub()
	c := &Client{UID: 1, Send: make(chan []byte, 16)}
	h.Register(c)

	h.Unregister(1)

	if _, ok := <-c.Send; ok {
		t.Fatal("c.Send should be closed")
	}
	if err := h.Send(1, []byte{0}); err != ErrNotConnected {
		t.Errorf("Send() after unregister error = %v, want %v", err, ErrNotConnected)
	}
}

func TestUnregisterNonexistent(t *testing.T) {
	h := NewHub()
	// Should not panic
	h.Unregister(42)
}

func TestSendFailsWhenFull(t *testing.T) {
	h := NewHub()

	c := &Client{UID: 1, Send: make(chan []byte, 1)}
	h.Register(c)
	c.Send <- []byte("filler")

	// This should not block
	if err := h.Send(1, []byte{1}); err != ErrBufferFull {
		t.Fatalf("Send() error = %v, want %v", err, ErrBufferFull)
	}

	data := <-c.Send
	if string(data) != "filler" {
		t.Fatalf("expected filler, got: %s", data)
	}
}

func TestCloseWithoutConn(t *testing.T) {
	h := NewHub()
	h.Register(&Client{UID: 1, Send: make(chan []byte, 1)})
	// Should not panic
	h.Close(1, "test")
	h.Close(2, "test")
}
