package softap

// InterfaceCallback receives asynchronous interface status events from the
// driver. Implementations must not block and must not call back into the
// manager synchronously.
type InterfaceCallback interface {
	OnDestroyed(iface string)
	OnUp(iface string)
	OnDown(iface string)
}

// APEventListener receives hostapd-level events for a running AP.
type APEventListener interface {
	OnFailure()
	OnConnectedClientsChanged(client Client, connected bool)
	OnSoftApChannelSwitched(frequencyMHz int, bandwidth Bandwidth)
	OnStaConnected(mac string)
	OnStaDisconnected(mac string)
}

// Driver is the low-level Wi-Fi adapter (hostapd/nl80211 wrapper) the manager
// drives. Implementations live outside this package; calls are synchronous
// from the manager's event loop and must not call back into it while the call
// is in flight.
type Driver interface {
	// SetupInterfaceForSoftApMode creates an AP interface and returns its
	// name.
	SetupInterfaceForSoftApMode(cb InterfaceCallback) (string, error)

	// SetupInterfaceForBridgeMode creates the bridge interface of a
	// dual-interface AP and returns its name.
	SetupInterfaceForBridgeMode(cb InterfaceCallback) (string, error)

	// TeardownInterface destroys an interface previously created by one of
	// the setup calls.
	TeardownInterface(iface string)

	// StartSoftAp brings hostapd up on the interface with the given final
	// configuration.
	StartSoftAp(iface string, cfg *Configuration, listener APEventListener) error

	// SetMacAddress assigns a MAC address to the interface.
	SetMacAddress(iface, mac string) error

	// GetFactoryMacAddress returns the interface's factory MAC, or empty if
	// the driver cannot provide it.
	GetFactoryMacAddress(iface string) string

	// SetCountryCode pushes the regulatory country code to the HAL.
	SetCountryCode(iface, countryCode string) error

	// Is5GHzBandSupported reports whether the radio can serve 5 GHz.
	Is5GHzBandSupported() bool

	// IsInterfaceUp probes the current link state of an interface.
	IsInterfaceUp(iface string) bool

	// ForceClientDisconnect kicks a station off the AP.
	ForceClientDisconnect(iface, mac string, reason BlockReason) error

	// SetHostapdParams issues a raw hostapd control command.
	SetHostapdParams(cmd string) error

	// GetFstDataInterfaceName returns the FST data interface name, or empty
	// when FST is not in use.
	GetFstDataInterfaceName() string
}

// ConfigStore is the persistent AP configuration store the manager consults.
// It owns no manager state; see the config package for the file-backed
// implementation.
type ConfigStore interface {
	// ApConfiguration returns the stored user AP configuration, used when
	// the manager is constructed without one. May be nil.
	ApConfiguration() *Configuration

	// BSSIDRandomizationEnabled reports whether an unset BSSID is filled
	// with a randomized MAC. When disabled the factory MAC is used instead.
	BSSIDRandomizationEnabled() bool

	// DefaultShutdownTimeoutMillis is the platform default used when the
	// per-AP shutdown timeout is 0.
	DefaultShutdownTimeoutMillis() int64

	// DualSapStatus reports whether the AP is running in a dual-interface
	// topology (dual band or OWE transition).
	DualSapStatus() bool

	// SetDualSapStatus records the dual-interface topology flag.
	SetDualSapStatus(enabled bool)
}
