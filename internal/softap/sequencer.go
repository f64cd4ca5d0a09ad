package softap

import (
	"errors"
	"strings"
)

// startResult classifies the outcome of the ordered startup sequence.
type startResult int

const (
	startSuccess startResult = iota
	startErrGeneral
	startErrNoChannel
	startErrUnsupportedConfiguration
)

func (r startResult) failureReason() FailureReason {
	switch r {
	case startErrNoChannel:
		return FailureNoChannel
	case startErrUnsupportedConfiguration:
		return FailureUnsupportedConfiguration
	default:
		return FailureGeneral
	}
}

// startSingleSoftAp is the single-interface startup path: create the AP
// interface, publish ENABLING, run the driver-call sequence, and roll back on
// any failure. Returns true when the FSM may enter Started.
func (m *Manager) startSingleSoftAp() bool {
	iface, err := m.driver.SetupInterfaceForSoftApMode(m.ifaceCallback())
	if err != nil || iface == "" {
		m.log.Errorf("setup failure when creating ap interface: %v", err)
		m.updateApState(StateFailed, StateDisabled, FailureGeneral)
		m.metrics.IncrementSoftApStartResult(false, FailureGeneral)
		m.listener.OnStartFailure()
		return false
	}
	m.apIface = iface
	m.dataIface = m.driver.GetFstDataInterfaceName()
	if m.dataIface == "" {
		m.dataIface = m.apIface
	}

	m.notifier.DismissShutdownTimeoutExpiredNotification()
	m.updateApState(StateEnabling, StateDisabled, FailureNone)

	result := m.startSoftAp()
	if result != startSuccess {
		reason := result.failureReason()
		m.updateApState(StateFailed, StateEnabling, reason)
		m.stopSoftAp()
		m.metrics.IncrementSoftApStartResult(false, reason)
		m.listener.OnStartFailure()
		return false
	}
	return true
}

// startSoftAp runs the ordered driver-call sequence against the current AP
// interface and configuration: MAC, country code, band support, channel
// resolution, capability check, hostapd start, diagnostics.
func (m *Manager) startSoftAp() startResult {
	cfg := m.apConfig.Config
	if cfg == nil || cfg.SSID == "" {
		m.log.Error("Unable to start soft AP without valid configuration")
		return startErrGeneral
	}

	m.log.Debugf("band %s iface %s country %s", cfg.Band, m.apIface, m.country)

	if result := m.setMacAddress(); result != startSuccess {
		return result
	}
	if result := m.setCountryCode(); result != startSuccess {
		return result
	}

	if cfg.Band == Band5GHz && !m.driver.Is5GHzBandSupported() {
		m.startFailureDesc = FailureDescNo5GHzSupport
		m.log.Error("Failed to start soft AP as 5GHz band not supported")
		return startErrNoChannel
	}
	m.startFailureDesc = ""

	// Work on a copy for channel resolution; the stored config keeps the
	// user's channel request.
	localConfig := cfg.Clone()
	acsEnabled := m.capability.Supports(FeatureACSOffload)
	if err := updateChannelConfig(localConfig, m.capability, acsEnabled); err != nil {
		m.log.Errorf("Failed to update AP band and channel: %v", err)
		if errors.Is(err, errNoChannel) {
			return startErrNoChannel
		}
		return startErrGeneral
	}

	if localConfig.HiddenSSID {
		m.log.Debug("SoftAP is a hidden network")
	}

	if !checkSupportAllConfiguration(localConfig, m.capability) {
		m.log.Debugf("Unsupported configuration detected, ssid=%q", localConfig.SSID)
		return startErrUnsupportedConfiguration
	}

	if err := m.driver.StartSoftAp(m.apIface, localConfig, m.apEventListener()); err != nil {
		m.log.Errorf("Soft AP start failed: %v", err)
		return startErrGeneral
	}

	m.diag.StartLogging(m.apIface)
	m.startTimestamp = m.clk.Now().Format(startTimestampLayout)
	m.log.Debug("Soft AP is started")

	return startSuccess
}

// setMacAddress applies the configured BSSID, or resets to the factory MAC
// when the BSSID is unset. An explicitly requested BSSID must stick; the
// factory reset tolerates set failures since some drivers cannot set the MAC
// at all.
func (m *Manager) setMacAddress() startResult {
	bssid := m.apConfig.Config.BSSID

	if bssid == "" {
		factory := m.driver.GetFactoryMacAddress(m.apIface)
		if factory == "" {
			m.log.Error("failed to get factory MAC address")
			return startErrGeneral
		}
		if err := m.driver.SetMacAddress(m.apIface, factory); err != nil {
			m.log.Warnf("failed to reset to factory MAC address; continuing with current MAC: %v", err)
		}
		return startSuccess
	}

	if err := m.driver.SetMacAddress(m.apIface, bssid); err != nil {
		m.log.Errorf("failed to set explicitly requested MAC address: %v", err)
		return startErrGeneral
	}
	return startSuccess
}

// setCountryCode pushes the regulatory code. An absent code, and a failed
// set call, are fatal only when the AP is pinned to 5 GHz.
func (m *Manager) setCountryCode() startResult {
	band := m.apConfig.Config.Band
	if m.country == "" {
		if band == Band5GHz {
			m.log.Error("Invalid country code, required for setting up soft ap in 5GHz")
			return startErrGeneral
		}
		return startSuccess
	}

	if err := m.driver.SetCountryCode(m.apIface, strings.ToUpper(m.country)); err != nil {
		if band == Band5GHz {
			m.log.Errorf("Failed to set country code, required for setting up soft ap in 5GHz: %v", err)
			return startErrGeneral
		}
		// Not fatal for the other band options.
	}
	return startSuccess
}

// stopSoftAp tears down hostapd and every interface the manager still owns.
func (m *Manager) stopSoftAp() {
	if m.store.DualSapStatus() && !m.dualSapDestroyed {
		m.dualSapDestroyed = true
		m.teardownInterface(m.dualIfaces[0])
		m.teardownInterface(m.dualIfaces[1])
	}
	m.diag.StopLogging(m.apIface)
	m.teardownInterface(m.apIface)
	m.log.Debug("Soft AP is stopped")
}

// setupInterfacesForDualSoftApMode creates the two radio interfaces and the
// bridge. Either all three exist afterwards or none do.
func (m *Manager) setupInterfacesForDualSoftApMode() bool {
	m.dualIfaces[0], _ = m.driver.SetupInterfaceForSoftApMode(m.dualIfaceCallback())
	m.dualIfaces[1], _ = m.driver.SetupInterfaceForSoftApMode(m.dualIfaceCallback())
	bridge, _ := m.driver.SetupInterfaceForBridgeMode(m.ifaceCallback())

	m.apIface = bridge
	m.store.SetDualSapStatus(true)
	if m.dualIfaces[0] == "" || m.dualIfaces[1] == "" || m.apIface == "" {
		m.log.Error("setup failure when creating dual ap interface(s).")
		m.stopSoftAp()
		m.updateApState(StateFailed, StateDisabled, FailureGeneral)
		m.metrics.IncrementSoftApStartResult(false, FailureGeneral)
		m.listener.OnStartFailure()
		return false
	}
	m.dataIface = m.driver.GetFstDataInterfaceName()
	if m.dataIface == "" {
		m.dataIface = m.apIface
	}
	m.updateApState(StateEnabling, StateDisabled, FailureNone)
	return true
}

// validateDualSapSetupResult finishes a dual startup: rolls everything back
// on child failure, then brings the bridge up.
func (m *Manager) validateDualSapSetupResult(result startResult) bool {
	if result != startSuccess {
		reason := FailureGeneral
		if result == startErrNoChannel {
			reason = FailureNoChannel
		}
		m.updateApState(StateFailed, StateEnabling, reason)
		m.stopSoftAp()
		m.metrics.IncrementSoftApStartResult(false, reason)
		m.listener.OnStartFailure()
		return false
	}

	if err := m.driver.SetHostapdParams("softap bridge up " + m.apIface); err != nil {
		m.log.Errorf("Failed to set interface up %s: %v", m.apIface, err)
		m.updateApState(StateFailed, StateEnabling, FailureGeneral)
		m.stopSoftAp()
		m.metrics.IncrementSoftApStartResult(false, FailureGeneral)
		m.listener.OnStartFailure()
		return false
	}
	return true
}

// setupForDualBandSoftApMode starts a dual-band AP: the 2 GHz child on the
// first radio interface, the 5 GHz child on the second, bridged together.
func (m *Manager) setupForDualBandSoftApMode(cfg *Configuration) bool {
	if !m.setupInterfacesForDualSoftApMode() {
		return false
	}

	bridge := m.apIface
	cfg2GHz, cfg5GHz := splitDualBand(cfg)

	m.apIface = m.dualIfaces[0]
	m.apConfig = ModeConfiguration{
		TargetMode: m.apConfig.TargetMode,
		Config:     cfg2GHz,
		Capability: m.capability,
	}
	result := m.startSoftAp()
	if result == startSuccess {
		m.apIface = m.dualIfaces[1]
		m.apConfig = ModeConfiguration{
			TargetMode: m.apConfig.TargetMode,
			Config:     cfg5GHz,
			Capability: m.capability,
		}
		result = m.startSoftAp()
	}

	m.apIface = bridge
	return m.validateDualSapSetupResult(result)
}

// setupForOweTransitionSoftApMode starts an OWE transition AP: the hidden OWE
// child and its open companion on the two radio interfaces, bridged together.
func (m *Manager) setupForOweTransitionSoftApMode(cfg *Configuration) bool {
	if !m.setupInterfacesForDualSoftApMode() {
		return false
	}

	bridge := m.apIface
	oweCfg, openCfg := oweTransitionPair(cfg, m.dualIfaces[0], m.dualIfaces[1])
	m.log.Infof("Generated OWE SSID: %s", oweCfg.SSID)

	m.apIface = m.dualIfaces[0]
	m.apConfig = ModeConfiguration{
		TargetMode: m.apConfig.TargetMode,
		Config:     oweCfg,
		Capability: m.capability,
	}
	result := m.startSoftAp()
	if result == startSuccess {
		m.apIface = m.dualIfaces[1]
		m.apConfig = ModeConfiguration{
			TargetMode: m.apConfig.TargetMode,
			Config:     openCfg,
			Capability: m.capability,
		}
		result = m.startSoftAp()
	}

	m.apIface = bridge
	return m.validateDualSapSetupResult(result)
}
