package softap

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestMailboxFIFO(t *testing.T) {
	mb := newMailbox()

	mb.push(msgStart{})
	mb.push(msgFailure{})
	mb.push(msgInterfaceDown{})

	expected := []message{msgStart{}, msgFailure{}, msgInterfaceDown{}}
	for i, want := range expected {
		got, ok := mb.pop()
		if !ok {
			t.Fatalf("pop %d: mailbox closed unexpectedly", i)
		}
		if got != want {
			t.Errorf("pop %d = %T, want %T", i, got, want)
		}
	}
}

func TestMailboxClose(t *testing.T) {
	mb := newMailbox()
	mb.push(msgStart{})
	mb.close()

	// Pushes after close are dropped.
	mb.push(msgFailure{})

	if msg, ok := mb.pop(); !ok || msg != (msgStart{}) {
		t.Fatalf("Expected queued message before close, got %v ok=%v", msg, ok)
	}
	if _, ok := mb.pop(); ok {
		t.Fatal("Expected closed mailbox after drain")
	}
}

func TestMailboxBlockingPop(t *testing.T) {
	mb := newMailbox()
	done := make(chan message, 1)

	go func() {
		msg, _ := mb.pop()
		done <- msg
	}()

	time.Sleep(10 * time.Millisecond)
	mb.push(msgStart{})

	select {
	case msg := <-done:
		if msg != (msgStart{}) {
			t.Errorf("Got %T, want msgStart", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("pop did not wake up")
	}
}

func TestShutdownTimer(t *testing.T) {
	t.Run("Fires once", func(t *testing.T) {
		mock := clock.NewMock()
		fired := 0
		timer := newShutdownTimer(mock, func() { fired++ })

		timer.Schedule(time.Minute)
		mock.Add(59 * time.Second)
		if fired != 0 {
			t.Fatal("Timer fired early")
		}
		mock.Add(2 * time.Second)
		if fired != 1 {
			t.Fatalf("Expected one fire, got %d", fired)
		}

		// One-shot: no re-fire without a new schedule.
		mock.Add(10 * time.Minute)
		if fired != 1 {
			t.Fatalf("Timer re-fired, count %d", fired)
		}
	})

	t.Run("Cancel is idempotent", func(t *testing.T) {
		mock := clock.NewMock()
		fired := 0
		timer := newShutdownTimer(mock, func() { fired++ })

		timer.Cancel()
		timer.Schedule(time.Minute)
		timer.Cancel()
		timer.Cancel()
		mock.Add(2 * time.Minute)
		if fired != 0 {
			t.Fatalf("Canceled timer fired %d times", fired)
		}
	})

	t.Run("Reschedule replaces pending fire", func(t *testing.T) {
		mock := clock.NewMock()
		fired := 0
		timer := newShutdownTimer(mock, func() { fired++ })

		timer.Schedule(time.Minute)
		mock.Add(30 * time.Second)
		timer.Schedule(time.Minute)
		mock.Add(45 * time.Second)
		if fired != 0 {
			t.Fatal("Replaced schedule fired from the old deadline")
		}
		mock.Add(16 * time.Second)
		if fired != 1 {
			t.Fatalf("Expected one fire after reschedule, got %d", fired)
		}
	})
}
