package softap

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
)

type stateID int

const (
	stateIdle stateID = iota
	stateStarted
)

func (s stateID) String() string {
	if s == stateStarted {
		return "Started"
	}
	return "Idle"
}

const startTimestampLayout = "01-02 15:04:05.000"

const fsmLogSize = 32

// ErrRoleAlreadySet is returned by SetRole after the role was assigned.
var ErrRoleAlreadySet = errors.New("role already assigned")

// ErrInvalidRole is returned by SetRole for roles outside the soft-AP set.
var ErrInvalidRole = errors.New("role is not a soft-AP role")

// Deps are the collaborators a Manager is constructed with. Logger, Driver
// and Store are required; every other seam defaults to a no-op.
type Deps struct {
	Logger       *logrus.Logger
	Driver       Driver
	Store        ConfigStore
	Callback     Callback
	ModeListener ModeListener
	Broadcast    BroadcastSink
	Metrics      Metrics
	Notifier     Notifier
	Diagnostics  Diagnostics
	Clock        clock.Clock
	CountryCode  string
}

// Manager owns one soft-AP instance from interface creation through confirmed
// teardown. All state below the mailbox is owned by the event loop goroutine;
// public methods only enqueue.
type Manager struct {
	log      *logrus.Logger
	driver   Driver
	store    ConfigStore
	bus      *eventBus
	cb       Callback
	listener ModeListener
	metrics  Metrics
	notifier Notifier
	diag     Diagnostics
	clk      clock.Clock
	country  string

	mailbox *mailbox
	done    chan struct{}

	roleMu sync.Mutex
	role   Role

	// Event-loop-owned state.
	state            stateID
	apConfig         ModeConfiguration
	capability       Capability
	blocked          map[string]struct{}
	allowed          map[string]struct{}
	timeoutEnabled   bool
	randomizedBSSID  bool
	apIface          string
	dataIface        string
	ifaceUp          bool
	ifaceDestroyed   bool
	dualIfaces       [2]string
	dualSapDestroyed bool
	roster           *clientRoster
	legacyStations   int
	info             Info
	startFailureDesc string
	startTimestamp   string
	timer            *shutdownTimer
	fsmLog           []string
}

// NewManager builds a manager for a fixed mode configuration and starts its
// event loop. A nil apConfig.Config falls back to the stored user
// configuration; an unset BSSID is randomized up front.
func NewManager(deps Deps, apConfig ModeConfiguration) (*Manager, error) {
	if deps.Logger == nil || deps.Driver == nil || deps.Store == nil {
		return nil, fmt.Errorf("logger, driver and store are required")
	}
	if deps.Callback == nil {
		deps.Callback = nopCallback{}
	}
	if deps.ModeListener == nil {
		deps.ModeListener = nopModeListener{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Diagnostics == nil {
		deps.Diagnostics = nopDiagnostics{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}

	cfg := apConfig.Config
	if cfg == nil {
		cfg = deps.Store.ApConfiguration()
	}
	randomized := false
	if cfg != nil && deps.Store.BSSIDRandomizationEnabled() {
		var err error
		cfg, randomized, err = RandomizeBSSIDIfUnset(cfg)
		if err != nil {
			return nil, err
		}
	}

	m := &Manager{
		log:      deps.Logger,
		driver:   deps.Driver,
		store:    deps.Store,
		cb:       deps.Callback,
		listener: deps.ModeListener,
		metrics:  deps.Metrics,
		notifier: deps.Notifier,
		diag:     deps.Diagnostics,
		clk:      deps.Clock,
		country:  deps.CountryCode,
		mailbox:  newMailbox(),
		done:     make(chan struct{}),
		apConfig: ModeConfiguration{
			TargetMode: apConfig.TargetMode,
			Config:     cfg,
			Capability: apConfig.Capability,
		},
		capability:      apConfig.Capability.Clone(),
		randomizedBSSID: randomized,
		blocked:         make(map[string]struct{}),
		allowed:         make(map[string]struct{}),
	}
	m.roster = newClientRoster(m.log)
	m.bus = &eventBus{cb: m.cb, broadcast: deps.Broadcast}
	if cfg != nil {
		m.blocked = macSet(cfg.BlockedClientList)
		m.allowed = macSet(cfg.AllowedClientList)
		m.timeoutEnabled = cfg.AutoShutdownEnabled
	}

	go m.run()
	return m, nil
}

func macSet(macs []string) map[string]struct{} {
	set := make(map[string]struct{}, len(macs))
	for _, mac := range macs {
		set[NormalizeMAC(mac)] = struct{}{}
	}
	return set
}

// Start brings the AP up as configured in the constructor.
func (m *Manager) Start() {
	m.mailbox.push(msgStart{})
}

// Stop shuts the AP and the event loop down. Stopping an idle manager is a
// silent no-op apart from ending the loop.
func (m *Manager) Stop() {
	m.mailbox.push(msgQuit{})
}

// Done is closed once the event loop has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// UpdateCapability replaces the AP capability. Only applied in tethered mode.
func (m *Manager) UpdateCapability(capability Capability) {
	m.mailbox.push(msgUpdateCapability{capability: capability.Clone()})
}

// UpdateConfiguration replaces the AP configuration where possible without a
// restart.
func (m *Manager) UpdateConfiguration(cfg *Configuration) {
	m.mailbox.push(msgUpdateConfig{config: cfg.Clone()})
}

// Role returns the assigned role.
func (m *Manager) Role() Role {
	m.roleMu.Lock()
	defer m.roleMu.Unlock()
	return m.role
}

// SetRole assigns the role. It is settable exactly once and must be a soft-AP
// role.
func (m *Manager) SetRole(role Role) error {
	if role != RoleTetheredAP && role != RoleLocalOnlyAP {
		return fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	m.roleMu.Lock()
	defer m.roleMu.Unlock()
	if m.role != RoleUnspecified {
		return fmt.Errorf("%w: %s", ErrRoleAlreadySet, m.role)
	}
	m.role = role
	return nil
}

func (m *Manager) resetRole() {
	m.roleMu.Lock()
	m.role = RoleUnspecified
	m.roleMu.Unlock()
}

// Dump writes a diagnostic snapshot. When the event loop is no longer
// running only a minimal line is written.
func (m *Manager) Dump(w io.Writer) {
	out := make(chan string, 1)
	m.mailbox.push(msgDump{out: out})
	select {
	case text := <-out:
		fmt.Fprint(w, text)
	case <-m.done:
		fmt.Fprintln(w, "--Dump of SoftApManager--")
		fmt.Fprintln(w, "state machine not running")
	}
}

func (m *Manager) run() {
	m.enterIdle()
	for {
		msg, ok := m.mailbox.pop()
		if !ok {
			break
		}
		if quit := m.process(msg); quit {
			break
		}
	}
	m.mailbox.close()
	close(m.done)
}

func (m *Manager) process(msg message) bool {
	m.logFSM(msg)

	switch msg := msg.(type) {
	case msgQuit:
		if m.apIface != "" {
			if m.ifaceUp {
				m.updateApState(StateDisabling, StateEnabled, FailureNone)
			} else {
				m.updateApState(StateDisabling, StateEnabling, FailureNone)
			}
		}
		if m.state == stateStarted {
			m.exitStarted()
			m.state = stateIdle
			m.enterIdle()
		}
		return true
	case msgDump:
		msg.out <- m.dumpText()
		return false
	}

	if m.state == stateIdle {
		m.processIdle(msg)
		return false
	}
	return m.processStarted(msg)
}

func (m *Manager) logFSM(msg message) {
	entry := fmt.Sprintf("%s %s %T", m.clk.Now().Format(startTimestampLayout), m.state, msg)
	m.fsmLog = append(m.fsmLog, entry)
	if len(m.fsmLog) > fsmLogSize {
		m.fsmLog = m.fsmLog[len(m.fsmLog)-fsmLogSize:]
	}
}

func (m *Manager) enterIdle() {
	m.apIface = ""
	m.dataIface = ""
	m.ifaceUp = false
	m.ifaceDestroyed = false
}

func (m *Manager) processIdle(msg message) {
	switch msg := msg.(type) {
	case msgStart:
		cfg := m.apConfig.Config
		switch {
		case cfg != nil && cfg.Band == BandAny:
			if !m.setupForDualBandSoftApMode(cfg) {
				m.log.Debug("Dual band sap start failed")
				return
			}
			m.transitionToStarted()
		case cfg != nil && cfg.Security == SecurityOWE:
			if !m.setupForOweTransitionSoftApMode(cfg) {
				m.log.Debug("OWE transition sap start failed")
				return
			}
			m.transitionToStarted()
		default:
			if !m.startSingleSoftAp() {
				return
			}
			m.transitionToStarted()
		}
	case msgUpdateCapability:
		// Capability only changes on carrier requirements, which apply to
		// tethered mode.
		if m.apConfig.TargetMode == ModeTethered {
			m.capability = msg.capability.Clone()
		}
	case msgUpdateConfig:
		m.log.Debugf("Configuration changed to ssid=%q", msg.config.SSID)
		m.applyConfig(msg.config)
	default:
		// Ignore everything else while idle.
	}
}

func (m *Manager) applyConfig(cfg *Configuration) {
	m.apConfig = ModeConfiguration{
		TargetMode: m.apConfig.TargetMode,
		Config:     cfg,
		Capability: m.capability,
	}
	m.blocked = macSet(cfg.BlockedClientList)
	m.allowed = macSet(cfg.AllowedClientList)
	m.timeoutEnabled = cfg.AutoShutdownEnabled
}

func (m *Manager) transitionToStarted() {
	m.state = stateStarted
	m.enterStarted()
}

// transitionToIdle runs the Started exit sequence. The manager is single use:
// once Started is left, the loop ends and the instance is done.
func (m *Manager) transitionToIdle() bool {
	m.exitStarted()
	m.state = stateIdle
	m.enterIdle()
	return true
}

func (m *Manager) enterStarted() {
	m.ifaceUp = false
	m.ifaceDestroyed = false
	m.onUpChanged(m.driver.IsInterfaceUp(m.apIface))
	m.onUpChanged(m.driver.IsInterfaceUp(m.dataIface))

	m.timer = newShutdownTimer(m.clk, func() {
		m.mailbox.push(msgNoAssociatedStationsTimeout{})
	})

	m.log.Debug("Resetting connected clients on start")
	m.roster.Clear()
	m.legacyStations = 0
	m.scheduleTimeoutMessage()
}

func (m *Manager) exitStarted() {
	if !m.ifaceDestroyed {
		m.stopSoftAp()
	}

	m.log.Debug("Resetting num stations on stop")
	m.legacyStations = 0
	if m.roster.Len() != 0 {
		m.roster.Clear()
		m.cb.OnConnectedClientsChanged(nil)
		m.metrics.AddNumAssociatedStationsChangedEvent(0, m.apConfig.TargetMode)
	}
	m.timer.Cancel()

	// Won't see further interface status changes after this point.
	m.metrics.AddUpChangedEvent(false, m.apConfig.TargetMode)
	m.updateApState(StateDisabled, StateDisabling, FailureNone)

	m.apIface = ""
	m.dataIface = ""
	m.ifaceUp = false
	m.ifaceDestroyed = false
	m.resetRole()
	m.listener.OnStopped()
	m.setSoftApInfo(0, BandwidthInvalid)
}

func (m *Manager) processStarted(msg message) bool {
	switch msg := msg.(type) {
	case msgAssociatedStationsChanged:
		m.log.Debugf("Station %s connected=%v", msg.client.MAC, msg.connected)
		m.updateConnectedClients(msg.client, msg.connected)
	case msgChannelSwitched:
		m.setSoftApInfo(msg.frequency, msg.bandwidth)
	case msgConnectedStation:
		m.setConnectedStation(msg.mac)
	case msgDisconnectedStation:
		m.setDisconnectedStation(msg.mac)
	case msgInterfaceStatus:
		if msg.iface == m.dataIface {
			m.onUpChanged(msg.up)
		}
	case msgStart:
		// Already started.
	case msgNoAssociatedStationsTimeout:
		if !m.timeoutEnabled {
			m.log.Error("Timeout message received while timeout is disabled. Dropping.")
			return false
		}
		if m.roster.Len() != 0 {
			m.log.Error("Timeout message received but has clients. Dropping.")
			return false
		}
		m.notifier.ShowShutdownTimeoutExpiredNotification()
		m.log.Info("Timeout message received. Stopping soft AP.")
		m.updateApState(StateDisabling, StateEnabled, FailureNone)
		return m.transitionToIdle()
	case msgInterfaceDestroyed:
		if msg.iface != m.dataIface {
			return false
		}
		if m.store.DualSapStatus() && !m.dualSapDestroyed {
			m.log.Debug("Bridge interface destroyed, tearing down dual interfaces")
			m.dualSapDestroyed = true
			m.teardownInterface(m.dualIfaces[0])
			m.teardownInterface(m.dualIfaces[1])
		}
		m.log.Debug("Interface(s) was cleanly destroyed.")
		m.updateApState(StateDisabling, StateEnabled, FailureNone)
		m.ifaceDestroyed = true
		return m.transitionToIdle()
	case msgDualSapInterfaceDestroyed:
		// One of the radio interfaces died underneath us. Tear down the
		// sibling and the bridge; the bridge destroy callback finishes the
		// job.
		if !m.dualSapDestroyed {
			m.log.Debugf("Dual interface %s destroyed, triggering cleanup", msg.iface)
			m.dualSapDestroyed = true
			switch msg.iface {
			case m.dualIfaces[0]:
				m.teardownInterface(m.dualIfaces[1])
			case m.dualIfaces[1]:
				m.teardownInterface(m.dualIfaces[0])
			}
			m.teardownInterface(m.apIface)
		}
	case msgFailure:
		m.log.Warn("hostapd failure, stop and report failure")
		return m.handleInterfaceError()
	case msgInterfaceDown:
		m.log.Warn("interface error, stop and report failure")
		return m.handleInterfaceError()
	case msgUpdateCapability:
		if m.apConfig.TargetMode == ModeTethered {
			m.capability = msg.capability.Clone()
			m.roster.Reconcile(m.admissionEnv())
		}
	case msgUpdateConfig:
		m.updateConfigInStarted(msg.config)
	}
	return false
}

func (m *Manager) handleInterfaceError() bool {
	m.updateApState(StateFailed, StateEnabled, FailureGeneral)
	m.updateApState(StateDisabling, StateFailed, FailureNone)
	return m.transitionToIdle()
}

func (m *Manager) updateConfigInStarted(newConfig *Configuration) {
	currentConfig := m.apConfig.Config
	if m.randomizedBSSID {
		// The running BSSID is synthetic; compare as if unset so persisting
		// a BSSID-less config stays a live update.
		currentConfig = currentConfig.Clone()
		currentConfig.BSSID = ""
	}
	if changeRequiresRestart(currentConfig, newConfig) {
		m.log.Debugf("Ignoring config update for ssid=%q since it requires restart", newConfig.SSID)
		return
	}

	m.log.Debugf("Configuration changed to ssid=%q", newConfig.SSID)
	needReschedule := m.apConfig.Config.ShutdownTimeoutMillis != newConfig.ShutdownTimeoutMillis ||
		m.timeoutEnabled != newConfig.AutoShutdownEnabled
	m.applyConfig(newConfig)
	m.roster.Reconcile(m.admissionEnv())
	if needReschedule {
		m.cancelTimeoutMessage()
		m.scheduleTimeoutMessage()
	}
}

func (m *Manager) admissionEnv() admissionEnv {
	return admissionEnv{
		config:     m.apConfig.Config,
		capability: m.capability,
		blocked:    m.blocked,
		allowed:    m.allowed,
		iface:      m.apIface,
		driver:     m.driver,
		cb:         m.cb,
	}
}

func (m *Manager) updateConnectedClients(client Client, connected bool) {
	if !m.roster.Update(client, connected, m.admissionEnv()) {
		return
	}
	m.cb.OnConnectedClientsChanged(m.roster.Snapshot())
	m.metrics.AddNumAssociatedStationsChangedEvent(m.roster.Len(), m.apConfig.TargetMode)
	m.scheduleTimeoutMessage()
}

// setConnectedStation services the legacy count-only driver path. The
// roster-based path is authoritative when a driver reports through both.
func (m *Manager) setConnectedStation(mac string) {
	m.legacyStations++
	m.cb.OnStaConnected(mac, m.legacyStations)
	if m.legacyStations > 0 {
		m.cancelTimeoutMessage()
	}
}

func (m *Manager) setDisconnectedStation(mac string) {
	if m.legacyStations > 0 {
		m.legacyStations--
	}
	m.cb.OnStaDisconnected(mac, m.legacyStations)
	if m.legacyStations == 0 {
		m.scheduleTimeoutMessage()
	}
}

func (m *Manager) setSoftApInfo(frequency int, bandwidth Bandwidth) {
	m.log.Debugf("Channel switched. Frequency: %d Bandwidth: %s", frequency, bandwidth)
	if frequency == m.info.Frequency && bandwidth == m.info.Bandwidth {
		return
	}
	m.info = Info{Frequency: frequency, Bandwidth: bandwidth}
	m.cb.OnInfoChanged(m.info)

	// Ignore the invalid-frequency and AP-disable cases for metrics.
	if frequency > 0 && bandwidth != BandwidthInvalid {
		m.metrics.AddChannelSwitchedEvent(frequency, bandwidth, m.apConfig.TargetMode)
		m.checkBandPreferenceViolation()
	}
}

func (m *Manager) checkBandPreferenceViolation() {
	band := m.apConfig.Config.Band
	freqBand := frequencyToBand(m.info.Frequency)
	if freqBand == 0 {
		return
	}
	if !band.Contains(freqBand) {
		m.log.Errorf("Channel does not satisfy user band preference: %d", m.info.Frequency)
		m.metrics.IncrementUserBandPreferenceViolation()
	}
}

func frequencyToBand(frequencyMHz int) Band {
	switch {
	case frequencyMHz >= 2412 && frequencyMHz <= 2484:
		return Band2GHz
	case frequencyMHz >= 5160 && frequencyMHz <= 5885:
		return Band5GHz
	case frequencyMHz >= 5925 && frequencyMHz <= 7125:
		return Band6GHz
	}
	return 0
}

func (m *Manager) onUpChanged(up bool) {
	if up == m.ifaceUp {
		return
	}
	m.ifaceUp = up
	if up {
		m.log.Debug("SoftAp is ready for use")
		m.updateApState(StateEnabled, StateEnabling, FailureNone)
		m.listener.OnStarted()
		m.metrics.IncrementSoftApStartResult(true, FailureNone)
		m.cb.OnConnectedClientsChanged(m.roster.Snapshot())
		m.cb.OnStaConnected("", m.legacyStations)
	} else {
		// The interface was up, but went down.
		m.mailbox.push(msgInterfaceDown{})
	}
	m.metrics.AddUpChangedEvent(up, m.apConfig.TargetMode)
}

func (m *Manager) scheduleTimeoutMessage() {
	if !m.timeoutEnabled || m.roster.Len() != 0 || m.legacyStations != 0 {
		m.cancelTimeoutMessage()
		return
	}
	timeout := m.apConfig.Config.ShutdownTimeoutMillis
	if timeout == 0 {
		timeout = m.store.DefaultShutdownTimeoutMillis()
	}
	m.timer.Schedule(time.Duration(timeout) * time.Millisecond)
	m.log.Debugf("Timeout message scheduled, delay = %dms", timeout)
}

func (m *Manager) cancelTimeoutMessage() {
	if m.timer != nil {
		m.timer.Cancel()
		m.log.Debug("Timeout message canceled")
	}
}

func (m *Manager) updateApState(newState, prevState State, reason FailureReason) {
	m.bus.publishStateChange(newState, prevState, reason, m.startFailureDesc,
		m.dataIface, m.apConfig.TargetMode)
}

func (m *Manager) teardownInterface(iface string) {
	if iface != "" {
		m.driver.TeardownInterface(iface)
	}
}

func (m *Manager) dumpText() string {
	var b []byte
	add := func(format string, args ...interface{}) {
		b = append(b, fmt.Sprintf(format+"\n", args...)...)
	}
	cfg := m.apConfig.Config
	add("--Dump of SoftApManager--")
	add("current state: %s", m.state)
	add("role: %s", m.Role())
	add("apInterfaceName: %s", m.apIface)
	add("dataInterfaceName: %s", m.dataIface)
	add("ifaceIsUp: %v", m.ifaceUp)
	add("softApCountryCode: %s", m.country)
	add("targetMode: %s", m.apConfig.TargetMode)
	if cfg != nil {
		add("ssid: %s", cfg.SSID)
		add("band: %s", cfg.Band)
		add("hiddenSSID: %v", cfg.HiddenSSID)
	}
	add("connectedClients: %d", m.roster.Len())
	add("timeoutEnabled: %v", m.timeoutEnabled)
	add("currentSoftApInfo: %s", m.info)
	add("startTimestamp: %s", m.startTimestamp)
	add("fsm log:")
	for _, line := range m.fsmLog {
		add("  %s", line)
	}
	return string(b)
}
