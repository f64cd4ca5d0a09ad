package handlers

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fbettag/softap-manager/internal/database"
	"github.com/fbettag/softap-manager/internal/softap"
)

// Recorder is the daemon's implementation of the manager's callback surface,
// broadcast sink, mode listener and shutdown notifier. It mirrors the latest
// observable state for the control API and writes the lifecycle journal.
type Recorder struct {
	logger *logrus.Logger
	db     *database.DB

	mu         sync.RWMutex
	lastChange softap.StateChange
	clients    []softap.Client
	info       softap.Info
	started    bool
	staCount   int
}

func NewRecorder(db *database.DB, logger *logrus.Logger) *Recorder {
	return &Recorder{logger: logger, db: db}
}

// Status is the API-facing snapshot.
type Status struct {
	State         string         `json:"state"`
	PrevState     string         `json:"prev_state"`
	FailureReason string         `json:"failure_reason,omitempty"`
	DataInterface string         `json:"data_interface,omitempty"`
	Started       bool           `json:"started"`
	Clients       []softap.Client `json:"clients"`
	StationCount  int            `json:"station_count"`
	Info          softap.Info    `json:"info"`
}

func (r *Recorder) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := Status{
		State:         r.lastChange.NewState.String(),
		PrevState:     r.lastChange.PrevState.String(),
		DataInterface: r.lastChange.DataInterface,
		Started:       r.started,
		Clients:       append([]softap.Client(nil), r.clients...),
		StationCount:  r.staCount,
		Info:          r.info,
	}
	if r.lastChange.NewState == softap.StateFailed {
		status.FailureReason = r.lastChange.FailureReason.String()
	}
	return status
}

func (r *Recorder) journal(entry *database.Entry) {
	if r.db == nil {
		return
	}
	if err := r.db.LogEvent(entry); err != nil {
		r.logger.Errorf("Failed to write journal entry: %v", err)
	}
}

// BroadcastSink

func (r *Recorder) PublishStateChange(change softap.StateChange) {
	r.mu.Lock()
	r.lastChange = change
	r.mu.Unlock()

	r.logger.Infof("AP state %s -> %s (reason: %s)",
		change.PrevState, change.NewState, change.FailureReason)
	r.journal(&database.Entry{
		Event:     "state_changed",
		State:     change.NewState.String(),
		PrevState: change.PrevState.String(),
		Reason:    change.FailureReason.String(),
		Interface: change.DataInterface,
		Message:   change.FailureDescription,
	})
}

// Callback

func (r *Recorder) OnStateChanged(newState softap.State, reason softap.FailureReason) {
	// The broadcast carries the full payload; nothing extra to mirror here.
}

func (r *Recorder) OnConnectedClientsChanged(clients []softap.Client) {
	r.mu.Lock()
	r.clients = append([]softap.Client(nil), clients...)
	r.mu.Unlock()
}

func (r *Recorder) OnInfoChanged(info softap.Info) {
	r.mu.Lock()
	r.info = info
	r.mu.Unlock()
}

func (r *Recorder) OnStaConnected(mac string, count int) {
	r.mu.Lock()
	r.staCount = count
	r.mu.Unlock()

	if mac != "" {
		r.journal(&database.Entry{Event: "client_connected", ClientMAC: mac})
	}
}

func (r *Recorder) OnStaDisconnected(mac string, count int) {
	r.mu.Lock()
	r.staCount = count
	r.mu.Unlock()

	if mac != "" {
		r.journal(&database.Entry{Event: "client_disconnected", ClientMAC: mac})
	}
}

func (r *Recorder) OnBlockedClientConnecting(client softap.Client, reason softap.BlockReason) {
	r.logger.Infof("Blocked client connecting: %s (%s)", client.MAC, reason)
	r.journal(&database.Entry{
		Event:     "client_blocked",
		ClientMAC: client.MAC,
		Reason:    reason.String(),
	})
}

// ModeListener

func (r *Recorder) OnStarted() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
}

func (r *Recorder) OnStopped() {
	r.mu.Lock()
	r.started = false
	r.mu.Unlock()
}

func (r *Recorder) OnStartFailure() {
	r.mu.Lock()
	r.started = false
	r.mu.Unlock()
}

// Notifier

func (r *Recorder) ShowShutdownTimeoutExpiredNotification() {
	r.logger.Info("Soft AP shut down after idle timeout")
	r.journal(&database.Entry{Event: "shutdown_notice", Message: "idle timeout expired"})
}

func (r *Recorder) DismissShutdownTimeoutExpiredNotification() {}
