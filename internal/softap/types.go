package softap

import (
	"fmt"
	"strings"
)

// State of the access point as published to the callback surface and the
// state-change broadcast.
type State int

const (
	StateDisabled State = iota
	StateEnabling
	StateEnabled
	StateDisabling
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "DISABLED"
	case StateEnabling:
		return "ENABLING"
	case StateEnabled:
		return "ENABLED"
	case StateDisabling:
		return "DISABLING"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FailureReason qualifies a FAILED state change.
type FailureReason int

const (
	FailureNone FailureReason = iota
	FailureGeneral
	FailureNoChannel
	FailureUnsupportedConfiguration
)

func (r FailureReason) String() string {
	switch r {
	case FailureNone:
		return "NONE"
	case FailureGeneral:
		return "GENERAL"
	case FailureNoChannel:
		return "NO_CHANNEL"
	case FailureUnsupportedConfiguration:
		return "UNSUPPORTED_CONFIGURATION"
	}
	return fmt.Sprintf("FailureReason(%d)", int(r))
}

// BlockReason is passed to ForceClientDisconnect and OnBlockedClientConnecting.
type BlockReason int

const (
	BlockedByUser BlockReason = iota
	NoMoreStas
)

func (r BlockReason) String() string {
	switch r {
	case BlockedByUser:
		return "BLOCKED_BY_USER"
	case NoMoreStas:
		return "NO_MORE_STAS"
	}
	return fmt.Sprintf("BlockReason(%d)", int(r))
}

// FailureDescNo5GHzSupport is carried in the state-change broadcast when a
// 5 GHz AP is requested on a driver without 5 GHz support.
const FailureDescNo5GHzSupport = "failure due to no 5GHz support"

// SecurityType selects the authentication mode of the AP.
type SecurityType int

const (
	SecurityOpen SecurityType = iota
	SecurityWPA2PSK
	SecurityWPA3SAE
	SecuritySAETransition
	SecurityOWE
)

func (s SecurityType) String() string {
	switch s {
	case SecurityOpen:
		return "OPEN"
	case SecurityWPA2PSK:
		return "WPA2-PSK"
	case SecurityWPA3SAE:
		return "WPA3-SAE"
	case SecuritySAETransition:
		return "SAE-TRANSITION"
	case SecurityOWE:
		return "OWE"
	}
	return fmt.Sprintf("SecurityType(%d)", int(s))
}

// Band is a bitmask of radio bands the AP may operate on.
type Band int

const (
	Band2GHz Band = 1 << iota
	Band5GHz
	Band6GHz

	BandAny = Band2GHz | Band5GHz | Band6GHz
)

func (b Band) Contains(other Band) bool { return b&other == other }

func (b Band) String() string {
	switch b {
	case Band2GHz:
		return "2GHZ"
	case Band5GHz:
		return "5GHZ"
	case Band6GHz:
		return "6GHZ"
	case BandAny:
		return "ANY"
	}
	return fmt.Sprintf("Band(%#x)", int(b))
}

// Bandwidth of the operating channel.
type Bandwidth int

const (
	BandwidthInvalid Bandwidth = iota
	Bandwidth20MHzNoHT
	Bandwidth20MHz
	Bandwidth40MHz
	Bandwidth80MHz
	Bandwidth80Plus80MHz
	Bandwidth160MHz
)

func (b Bandwidth) String() string {
	switch b {
	case BandwidthInvalid:
		return "INVALID"
	case Bandwidth20MHzNoHT:
		return "20MHZ_NOHT"
	case Bandwidth20MHz:
		return "20MHZ"
	case Bandwidth40MHz:
		return "40MHZ"
	case Bandwidth80MHz:
		return "80MHZ"
	case Bandwidth80Plus80MHz:
		return "80+80MHZ"
	case Bandwidth160MHz:
		return "160MHZ"
	}
	return fmt.Sprintf("Bandwidth(%d)", int(b))
}

// TargetMode says what the AP instance is for.
type TargetMode int

const (
	ModeTethered TargetMode = iota
	ModeLocalOnly
)

func (m TargetMode) String() string {
	switch m {
	case ModeTethered:
		return "TETHERED"
	case ModeLocalOnly:
		return "LOCAL_ONLY"
	}
	return fmt.Sprintf("TargetMode(%d)", int(m))
}

// Role of the manager instance. Assignable exactly once from RoleUnspecified.
type Role int

const (
	RoleUnspecified Role = iota
	RoleTetheredAP
	RoleLocalOnlyAP
)

func (r Role) String() string {
	switch r {
	case RoleUnspecified:
		return "UNSPECIFIED"
	case RoleTetheredAP:
		return "TETHERED_AP"
	case RoleLocalOnlyAP:
		return "LOCAL_ONLY_AP"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Client is a connected station, identified by its MAC address.
// Equality is by MAC.
type Client struct {
	MAC string `json:"mac"`
}

// NormalizeMAC upper-cases a MAC address so map lookups and comparisons are
// stable regardless of how the driver formats it.
func NormalizeMAC(mac string) string {
	return strings.ToUpper(strings.TrimSpace(mac))
}

// Configuration describes the AP the user asked for.
type Configuration struct {
	SSID                  string        `json:"ssid"`
	Passphrase            string        `json:"passphrase,omitempty"`
	Security              SecurityType  `json:"security"`
	Band                  Band          `json:"band"`
	Channel               int           `json:"channel"` // 0 means automatic selection
	HiddenSSID            bool          `json:"hidden_ssid"`
	BSSID                 string        `json:"bssid,omitempty"` // empty means randomize
	AutoShutdownEnabled   bool          `json:"auto_shutdown_enabled"`
	ShutdownTimeoutMillis int64         `json:"shutdown_timeout_ms"` // 0 means platform default
	MaxNumberOfClients    int           `json:"max_clients"`         // 0 means capability-derived
	ClientControlByUser   bool          `json:"client_control_by_user"`
	BlockedClientList     []string      `json:"blocked_client_list,omitempty"`
	AllowedClientList     []string      `json:"allowed_client_list,omitempty"`

	// OweTransIfaceName names the companion interface of an OWE transition
	// pair. Set by the manager, never by the user.
	OweTransIfaceName string `json:"-"`
}

// Clone returns a deep copy.
func (c *Configuration) Clone() *Configuration {
	if c == nil {
		return nil
	}
	out := *c
	out.BlockedClientList = append([]string(nil), c.BlockedClientList...)
	out.AllowedClientList = append([]string(nil), c.AllowedClientList...)
	return &out
}

// Validate checks the fields the manager refuses to even try.
func (c *Configuration) Validate() error {
	if c == nil {
		return fmt.Errorf("configuration is nil")
	}
	if n := len(c.SSID); n < 1 || n > 32 {
		return fmt.Errorf("ssid must be 1-32 octets, got %d", n)
	}
	return nil
}

// changeRequiresRestart reports whether switching from cur to next cannot be
// applied to a running AP. Only the admission policy, the shutdown policy and
// the client lists are applied live.
func changeRequiresRestart(cur, next *Configuration) bool {
	if cur == nil || next == nil {
		return true
	}
	return cur.SSID != next.SSID ||
		cur.Passphrase != next.Passphrase ||
		cur.Security != next.Security ||
		cur.Band != next.Band ||
		cur.Channel != next.Channel ||
		cur.HiddenSSID != next.HiddenSSID ||
		cur.BSSID != next.BSSID
}

// Capability feature bits.
const (
	FeatureACSOffload uint = 1 << iota
	FeatureClientForceDisconnect
)

// Capability is what the driver and carrier allow the AP to do.
type Capability struct {
	Features            uint
	MaxSupportedClients int
	// SupportedChannels lists usable channels per band.
	SupportedChannels map[Band][]int
}

// Supports reports whether all given feature bits are present.
func (c Capability) Supports(features uint) bool {
	return c.Features&features == features
}

// Clone returns a deep copy.
func (c Capability) Clone() Capability {
	out := c
	if c.SupportedChannels != nil {
		out.SupportedChannels = make(map[Band][]int, len(c.SupportedChannels))
		for band, chans := range c.SupportedChannels {
			out.SupportedChannels[band] = append([]int(nil), chans...)
		}
	}
	return out
}

// checkSupportAllConfiguration verifies the configuration against the
// capability. Mismatches surface as UNSUPPORTED_CONFIGURATION.
func checkSupportAllConfiguration(cfg *Configuration, cap Capability) bool {
	if cfg.MaxNumberOfClients > 0 && cfg.MaxNumberOfClients > cap.MaxSupportedClients {
		return false
	}
	if cfg.ClientControlByUser && !cap.Supports(FeatureClientForceDisconnect) {
		return false
	}
	return true
}

// effectiveMaxClients is min(capability limit, user limit) with a user limit
// of 0 meaning unbounded.
func effectiveMaxClients(cfg *Configuration, cap Capability) int {
	max := cap.MaxSupportedClients
	if cfg.MaxNumberOfClients > 0 && cfg.MaxNumberOfClients < max {
		max = cfg.MaxNumberOfClients
	}
	return max
}

// Info is the observable channel state of a running AP.
type Info struct {
	// Frequency of the operating channel in MHz, 0 when down.
	Frequency int `json:"frequency_mhz"`
	Bandwidth Bandwidth `json:"bandwidth"`
}

func (i Info) String() string {
	return fmt.Sprintf("frequency=%d bandwidth=%s", i.Frequency, i.Bandwidth)
}

// ModeConfiguration fixes an AP instance: what mode it serves, the requested
// configuration and the capability it was admitted under.
type ModeConfiguration struct {
	TargetMode TargetMode
	Config     *Configuration
	Capability Capability
}

// StateChange is the broadcast payload published alongside every
// OnStateChanged callback.
type StateChange struct {
	NewState           State         `json:"new_state"`
	PrevState          State         `json:"prev_state"`
	FailureReason      FailureReason `json:"failure_reason,omitempty"`
	FailureDescription string        `json:"failure_description,omitempty"`
	DataInterface      string        `json:"data_interface"`
	TargetMode         TargetMode    `json:"target_mode"`
}
