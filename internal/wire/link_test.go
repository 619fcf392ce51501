package wire_test

import (
	"testing"

	"github.com/crosstalk-io/crosstalk/internal/errors"
	"github.com/crosstalk-io/crosstalk/internal/wire"
)

func TestLink_PreservesOrder(t *testing.T) {
	l := wire.NewLink("P1", "P2", 8)

	for i := uint64(1); i <= 5; i++ {
		if err := l.Send(wire.Message{From: "P1", Seq: i}); err != nil {
			t.Fatalf("Send(%d): %v", i, err)
		}
	}
	for i := uint64(1); i <= 5; i++ {
		m, ok := l.Recv()
		if !ok {
			t.Fatalf("Recv %d: nothing waiting", i)
		}
		if m.Seq != i {
			t.Errorf("Seq = %d, want %d: delivery order must match send order", m.Seq, i)
		}
	}
}

func TestLink_RecvEmptyDoesNotBlock(t *testing.T) {
	l := wire.NewLink("P1", "P2", 1)
	if _, ok := l.Recv(); ok {
		t.Error("Recv on an empty link must report false")
	}
}

func TestLink_SendOnClosed(t *testing.T) {
	l := wire.NewLink("P1", "P2", 1)
	_ = l.Send(wire.Message{Seq: 1})
	l.Close()
	l.Close() // idempotent

	err := l.Send(wire.Message{Seq: 2})
	if !errors.Is(err, errors.ErrLinkClosed) {
		t.Errorf("error = %v, want ErrLinkClosed", err)
	}

	// Messages buffered before the close stay receivable.
	if m, ok := l.Recv(); !ok || m.Seq != 1 {
		t.Errorf("Recv = %+v %v, want the buffered message", m, ok)
	}
}

func TestLink_SendOnFullBuffer(t *testing.T) {
	l := wire.NewLink("P1", "P2", 1)
	if err := l.Send(wire.Message{Seq: 1}); err != nil {
		t.Fatalf("first send: %v", err)
	}

	err := l.Send(wire.Message{Seq: 2})
	if err == nil {
		t.Fatal("send on a full buffer must fail, not block")
	}
	var wireErr *errors.WireError
	if !errors.As(err, &wireErr) {
		t.Errorf("error = %T, want *WireError", err)
	}
}
