package softap

import (
	"time"

	"github.com/benbjohnson/clock"
)

// shutdownTimer is the one-shot idle timer behind auto-shutdown. It fires a
// single NO_ASSOCIATED_STATIONS_TIMEOUT message into the mailbox; re-arming
// requires an explicit new Schedule. The clock abstraction keeps it
// wall-clock independent and mockable.
//
// The host is assumed awake; on platforms that sleep, the clock must be a
// wake-capable elapsed-time source.
type shutdownTimer struct {
	clk   clock.Clock
	fire  func()
	timer *clock.Timer
}

func newShutdownTimer(clk clock.Clock, fire func()) *shutdownTimer {
	return &shutdownTimer{clk: clk, fire: fire}
}

// Schedule arms the timer, replacing any pending fire.
func (t *shutdownTimer) Schedule(d time.Duration) {
	t.Cancel()
	t.timer = t.clk.AfterFunc(d, t.fire)
}

// Cancel is idempotent.
func (t *shutdownTimer) Cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
