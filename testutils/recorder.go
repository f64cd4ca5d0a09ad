package testutils

import (
	"sync"
	"time"

	"github.com/fbettag/softap-manager/internal/softap"
)

// BlockedEvent records one OnBlockedClientConnecting callback.
type BlockedEvent struct {
	Client softap.Client
	Reason softap.BlockReason
}

// StaEvent records one legacy station callback.
type StaEvent struct {
	MAC   string
	Count int
}

// CallbackRecorder implements the manager's callback surface, mode listener,
// broadcast sink and notifier, recording everything for assertions. WaitFor
// lets tests synchronize with the asynchronous event loop.
type CallbackRecorder struct {
	mu sync.Mutex

	Broadcasts      []softap.StateChange
	States          []softap.State
	ClientSnapshots [][]softap.Client
	Infos           []softap.Info
	Blocked         []BlockedEvent
	StaConnects     []StaEvent
	StaDisconnects  []StaEvent
	StartedCount    int
	StoppedCount    int
	StartFailures   int
	Notifications   int

	wake chan struct{}
}

func NewCallbackRecorder() *CallbackRecorder {
	return &CallbackRecorder{wake: make(chan struct{}, 1)}
}

func (r *CallbackRecorder) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// WaitFor polls pred under the recorder lock until it holds or the timeout
// expires.
func (r *CallbackRecorder) WaitFor(pred func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		r.mu.Lock()
		ok := pred()
		r.mu.Unlock()
		if ok {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		select {
		case <-r.wake:
		case <-time.After(remaining):
		}
	}
}

// WaitForState waits for a broadcast announcing the state.
func (r *CallbackRecorder) WaitForState(state softap.State, timeout time.Duration) bool {
	return r.WaitFor(func() bool {
		for _, change := range r.Broadcasts {
			if change.NewState == state {
				return true
			}
		}
		return false
	}, timeout)
}

// BroadcastSequence returns the ordered list of broadcast states.
func (r *CallbackRecorder) BroadcastSequence() []softap.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]softap.State, len(r.Broadcasts))
	for i, change := range r.Broadcasts {
		out[i] = change.NewState
	}
	return out
}

// LastClients returns the latest roster snapshot delivered.
func (r *CallbackRecorder) LastClients() []softap.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.ClientSnapshots) == 0 {
		return nil
	}
	return append([]softap.Client(nil), r.ClientSnapshots[len(r.ClientSnapshots)-1]...)
}

// BroadcastSink

func (r *CallbackRecorder) PublishStateChange(change softap.StateChange) {
	r.mu.Lock()
	r.Broadcasts = append(r.Broadcasts, change)
	r.mu.Unlock()
	r.signal()
}

// Callback

func (r *CallbackRecorder) OnStateChanged(newState softap.State, reason softap.FailureReason) {
	r.mu.Lock()
	r.States = append(r.States, newState)
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) OnConnectedClientsChanged(clients []softap.Client) {
	r.mu.Lock()
	r.ClientSnapshots = append(r.ClientSnapshots, append([]softap.Client(nil), clients...))
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) OnInfoChanged(info softap.Info) {
	r.mu.Lock()
	r.Infos = append(r.Infos, info)
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) OnStaConnected(mac string, count int) {
	r.mu.Lock()
	r.StaConnects = append(r.StaConnects, StaEvent{MAC: mac, Count: count})
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) OnStaDisconnected(mac string, count int) {
	r.mu.Lock()
	r.StaDisconnects = append(r.StaDisconnects, StaEvent{MAC: mac, Count: count})
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) OnBlockedClientConnecting(client softap.Client, reason softap.BlockReason) {
	r.mu.Lock()
	r.Blocked = append(r.Blocked, BlockedEvent{Client: client, Reason: reason})
	r.mu.Unlock()
	r.signal()
}

// ModeListener

func (r *CallbackRecorder) OnStarted() {
	r.mu.Lock()
	r.StartedCount++
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) OnStopped() {
	r.mu.Lock()
	r.StoppedCount++
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) OnStartFailure() {
	r.mu.Lock()
	r.StartFailures++
	r.mu.Unlock()
	r.signal()
}

// Notifier

func (r *CallbackRecorder) ShowShutdownTimeoutExpiredNotification() {
	r.mu.Lock()
	r.Notifications++
	r.mu.Unlock()
	r.signal()
}

func (r *CallbackRecorder) DismissShutdownTimeoutExpiredNotification() {}

// TestConfigStore is an in-memory softap.ConfigStore.
type TestConfigStore struct {
	mu               sync.Mutex
	StoredConfig     *softap.Configuration
	Randomize        bool
	DefaultTimeoutMs int64
	DualSap          bool
}

func NewTestConfigStore() *TestConfigStore {
	return &TestConfigStore{DefaultTimeoutMs: 600000}
}

func (s *TestConfigStore) ApConfiguration() *softap.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.StoredConfig.Clone()
}

func (s *TestConfigStore) BSSIDRandomizationEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Randomize
}

func (s *TestConfigStore) DefaultShutdownTimeoutMillis() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DefaultTimeoutMs
}

func (s *TestConfigStore) DualSapStatus() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DualSap
}

func (s *TestConfigStore) SetDualSapStatus(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DualSap = enabled
}
