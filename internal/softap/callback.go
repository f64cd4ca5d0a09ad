package softap

// Callback is the external callback surface of the manager. All methods are
// invoked from the manager's event loop; implementations must return quickly
// and must not call back into the manager synchronously. Re-entry goes
// through the public API, which only enqueues.
type Callback interface {
	OnStateChanged(newState State, reason FailureReason)
	OnConnectedClientsChanged(clients []Client)
	OnInfoChanged(info Info)
	OnStaConnected(mac string, count int)
	OnStaDisconnected(mac string, count int)
	OnBlockedClientConnecting(client Client, reason BlockReason)
}

// ModeListener is notified about the lifecycle of the manager itself.
type ModeListener interface {
	OnStarted()
	OnStopped()
	OnStartFailure()
}

// BroadcastSink receives the state-change broadcast published alongside every
// OnStateChanged callback.
type BroadcastSink interface {
	PublishStateChange(change StateChange)
}

// Metrics is the injected metrics sink. The prometheus-backed implementation
// lives in the metrics package.
type Metrics interface {
	IncrementSoftApStartResult(success bool, reason FailureReason)
	AddNumAssociatedStationsChangedEvent(count int, mode TargetMode)
	AddChannelSwitchedEvent(frequencyMHz int, bandwidth Bandwidth, mode TargetMode)
	AddUpChangedEvent(up bool, mode TargetMode)
	IncrementUserBandPreferenceViolation()
}

// Notifier surfaces the idle auto-shutdown to the user.
type Notifier interface {
	ShowShutdownTimeoutExpiredNotification()
	DismissShutdownTimeoutExpiredNotification()
}

// Diagnostics brackets hostapd operation with verbose driver logging.
type Diagnostics interface {
	StartLogging(iface string)
	StopLogging(iface string)
}

// eventBus fans a state change out to the callback surface and the broadcast
// sink. Failure reason and description ride along only on FAILED.
type eventBus struct {
	cb        Callback
	broadcast BroadcastSink
}

func (b *eventBus) publishStateChange(newState, prevState State, reason FailureReason,
	failureDesc, dataIface string, mode TargetMode) {
	if b.cb != nil {
		b.cb.OnStateChanged(newState, reason)
	}
	if b.broadcast == nil {
		return
	}
	change := StateChange{
		NewState:      newState,
		PrevState:     prevState,
		DataInterface: dataIface,
		TargetMode:    mode,
	}
	if newState == StateFailed {
		change.FailureReason = reason
		change.FailureDescription = failureDesc
	}
	b.broadcast.PublishStateChange(change)
}

// nopCallback, nopModeListener, nopMetrics, nopNotifier and nopDiagnostics
// stand in for collaborators the caller did not wire.

type nopCallback struct{}

func (nopCallback) OnStateChanged(State, FailureReason)           {}
func (nopCallback) OnConnectedClientsChanged([]Client)            {}
func (nopCallback) OnInfoChanged(Info)                            {}
func (nopCallback) OnStaConnected(string, int)                    {}
func (nopCallback) OnStaDisconnected(string, int)                 {}
func (nopCallback) OnBlockedClientConnecting(Client, BlockReason) {}

type nopModeListener struct{}

func (nopModeListener) OnStarted()      {}
func (nopModeListener) OnStopped()      {}
func (nopModeListener) OnStartFailure() {}

type nopMetrics struct{}

func (nopMetrics) IncrementSoftApStartResult(bool, FailureReason)              {}
func (nopMetrics) AddNumAssociatedStationsChangedEvent(int, TargetMode)        {}
func (nopMetrics) AddChannelSwitchedEvent(int, Bandwidth, TargetMode)          {}
func (nopMetrics) AddUpChangedEvent(bool, TargetMode)                          {}
func (nopMetrics) IncrementUserBandPreferenceViolation()                       {}

type nopNotifier struct{}

func (nopNotifier) ShowShutdownTimeoutExpiredNotification()    {}
func (nopNotifier) DismissShutdownTimeoutExpiredNotification() {}

type nopDiagnostics struct{}

func (nopDiagnostics) StartLogging(string) {}
func (nopDiagnostics) StopLogging(string)  {}
