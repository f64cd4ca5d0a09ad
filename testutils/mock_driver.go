package testutils

import (
	"fmt"
	"sync"

	"github.com/fbettag/softap-manager/internal/softap"
)

// Disconnect records one ForceClientDisconnect call.
type Disconnect struct {
	Iface  string
	MAC    string
	Reason softap.BlockReason
}

// MockDriver is a scripted softap.Driver. Failure switches default to the
// happy path; tests flip them per scenario and drive callbacks through the
// captured listener handles.
type MockDriver struct {
	mu sync.Mutex

	// Scripting
	FailSetupAp      bool
	FailSetupBridge  bool
	FailStartSoftAp  bool
	FailSetMac       bool
	FailCountryCode  bool
	FactoryMAC       string
	No5GHz           bool
	FstDataIface     string
	UpAfterStart     bool
	FailHostapdParam bool

	// Recording
	seq            int
	Created        []string
	TornDown       []string
	StartedConfigs map[string]*softap.Configuration
	SetMACs        map[string]string
	CountryCodes   map[string]string
	Disconnects    []Disconnect
	HostapdCmds    []string

	// Captured handles
	IfaceCallbacks map[string]softap.InterfaceCallback
	Listeners      map[string]softap.APEventListener

	up map[string]bool
}

func NewMockDriver() *MockDriver {
	return &MockDriver{
		FactoryMAC:     "02:00:00:00:10:00",
		UpAfterStart:   true,
		StartedConfigs: make(map[string]*softap.Configuration),
		SetMACs:        make(map[string]string),
		CountryCodes:   make(map[string]string),
		IfaceCallbacks: make(map[string]softap.InterfaceCallback),
		Listeners:      make(map[string]softap.APEventListener),
		up:             make(map[string]bool),
	}
}

func (d *MockDriver) SetupInterfaceForSoftApMode(cb softap.InterfaceCallback) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailSetupAp {
		return "", fmt.Errorf("interface creation failed")
	}
	name := fmt.Sprintf("wlan%d", d.seq)
	d.seq++
	d.Created = append(d.Created, name)
	d.IfaceCallbacks[name] = cb
	return name, nil
}

func (d *MockDriver) SetupInterfaceForBridgeMode(cb softap.InterfaceCallback) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailSetupBridge {
		return "", fmt.Errorf("bridge creation failed")
	}
	name := fmt.Sprintf("softap_br%d", d.seq)
	d.seq++
	d.Created = append(d.Created, name)
	d.IfaceCallbacks[name] = cb
	return name, nil
}

func (d *MockDriver) TeardownInterface(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.TornDown = append(d.TornDown, name)
	d.up[name] = false
}

func (d *MockDriver) StartSoftAp(name string, cfg *softap.Configuration, listener softap.APEventListener) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailStartSoftAp {
		return fmt.Errorf("hostapd start failed")
	}
	d.StartedConfigs[name] = cfg.Clone()
	d.Listeners[name] = listener
	if d.UpAfterStart {
		d.up[name] = true
	}
	return nil
}

func (d *MockDriver) SetMacAddress(name, mac string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailSetMac {
		return fmt.Errorf("set mac failed")
	}
	d.SetMACs[name] = mac
	return nil
}

func (d *MockDriver) GetFactoryMacAddress(name string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.FactoryMAC
}

func (d *MockDriver) SetCountryCode(name, countryCode string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailCountryCode {
		return fmt.Errorf("set country code failed")
	}
	d.CountryCodes[name] = countryCode
	return nil
}

func (d *MockDriver) Is5GHzBandSupported() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.No5GHz
}

func (d *MockDriver) IsInterfaceUp(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.up[name]
}

func (d *MockDriver) ForceClientDisconnect(name, mac string, reason softap.BlockReason) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Disconnects = append(d.Disconnects, Disconnect{Iface: name, MAC: mac, Reason: reason})
	return nil
}

func (d *MockDriver) SetHostapdParams(cmd string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailHostapdParam {
		return fmt.Errorf("hostapd command failed")
	}
	d.HostapdCmds = append(d.HostapdCmds, cmd)
	return nil
}

func (d *MockDriver) GetFstDataInterfaceName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.FstDataIface
}

// Listener returns the hostapd event listener captured for an interface.
func (d *MockDriver) Listener(name string) softap.APEventListener {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Listeners[name]
}

// IfaceCallback returns the interface callback captured for an interface.
func (d *MockDriver) IfaceCallback(name string) softap.InterfaceCallback {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.IfaceCallbacks[name]
}

// CreatedIfaces returns a copy of the created interface names in order.
func (d *MockDriver) CreatedIfaces() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.Created...)
}

// TornDownIfaces returns a copy of the torn-down interface names in order.
func (d *MockDriver) TornDownIfaces() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.TornDown...)
}

// DisconnectCalls returns a copy of the recorded forced disconnects.
func (d *MockDriver) DisconnectCalls() []Disconnect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Disconnect(nil), d.Disconnects...)
}
