// Package driverstub is an in-memory stand-in for the native hostapd/nl80211
// adapter, used for development and the control-API demo. The real adapter is
// a separate component; the manager only depends on the softap.Driver seam.
package driverstub

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fbettag/softap-manager/internal/scancache"
	"github.com/fbettag/softap-manager/internal/softap"
)

type iface struct {
	name string
	cb   softap.InterfaceCallback
	up   bool
}

// Driver simulates a happy-path radio: interface creation always succeeds,
// hostapd start brings the interface up and reports a channel switch.
type Driver struct {
	logger *logrus.Logger
	scans  *scancache.Cache
	start  time.Time

	mu     sync.Mutex
	seq    int
	ifaces map[string]*iface
}

func New(logger *logrus.Logger) *Driver {
	d := &Driver{
		logger: logger,
		start:  time.Now(),
		ifaces: make(map[string]*iface),
	}
	d.scans = scancache.New(60000, func() int64 {
		return time.Since(d.start).Milliseconds()
	})
	return d
}

// ScanCache exposes the synthetic neighbor scans the stub produces while an
// AP is running.
func (d *Driver) ScanCache() *scancache.Cache {
	return d.scans
}

func (d *Driver) SetupInterfaceForSoftApMode(cb softap.InterfaceCallback) (string, error) {
	return d.createInterface("wlan", cb), nil
}

func (d *Driver) SetupInterfaceForBridgeMode(cb softap.InterfaceCallback) (string, error) {
	return d.createInterface("softap_br", cb), nil
}

func (d *Driver) createInterface(prefix string, cb softap.InterfaceCallback) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := fmt.Sprintf("%s%d", prefix, d.seq)
	d.seq++
	d.ifaces[name] = &iface{name: name, cb: cb}
	d.logger.Debugf("driverstub: created interface %s", name)
	return name
}

func (d *Driver) TeardownInterface(name string) {
	d.mu.Lock()
	entry, ok := d.ifaces[name]
	delete(d.ifaces, name)
	d.mu.Unlock()

	d.logger.Debugf("driverstub: teardown interface %s", name)
	if ok && entry.cb != nil {
		go entry.cb.OnDestroyed(name)
	}
}

func (d *Driver) StartSoftAp(name string, cfg *softap.Configuration, listener softap.APEventListener) error {
	d.mu.Lock()
	entry, ok := d.ifaces[name]
	if ok {
		entry.up = true
	}
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("unknown interface %s", name)
	}

	d.logger.Infof("driverstub: hostapd up on %s ssid=%q band=%s", name, cfg.SSID, cfg.Band)

	// Report the operating channel and a couple of neighbor sightings the
	// way firmware would after bring-up.
	go func() {
		freq := 2437
		if cfg.Band == softap.Band5GHz {
			freq = 5180
		}
		listener.OnSoftApChannelSwitched(freq, softap.Bandwidth20MHz)

		now := time.Since(d.start).Milliseconds()
		d.scans.Update([]scancache.Result{
			{BSSID: "AA:BB:CC:00:00:01", Timestamp: now},
			{BSSID: "AA:BB:CC:00:00:02", Timestamp: now},
		})
	}()
	return nil
}

func (d *Driver) SetMacAddress(name, mac string) error {
	d.logger.Debugf("driverstub: set MAC of %s to %s", name, mac)
	return nil
}

func (d *Driver) GetFactoryMacAddress(name string) string {
	return "02:00:00:00:10:00"
}

func (d *Driver) SetCountryCode(name, countryCode string) error {
	d.logger.Debugf("driverstub: set country code %s on %s", countryCode, name)
	return nil
}

func (d *Driver) Is5GHzBandSupported() bool { return true }

func (d *Driver) IsInterfaceUp(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.ifaces[name]
	return ok && entry.up
}

func (d *Driver) ForceClientDisconnect(name, mac string, reason softap.BlockReason) error {
	d.logger.Infof("driverstub: force disconnect %s on %s (%s)", mac, name, reason)
	return nil
}

func (d *Driver) SetHostapdParams(cmd string) error {
	d.logger.Debugf("driverstub: hostapd params %q", cmd)

	var bridge string
	if _, err := fmt.Sscanf(cmd, "softap bridge up %s", &bridge); err == nil {
		d.mu.Lock()
		entry, ok := d.ifaces[bridge]
		if ok {
			entry.up = true
		}
		d.mu.Unlock()
		if ok && entry.cb != nil {
			go entry.cb.OnUp(bridge)
		}
	}
	return nil
}

func (d *Driver) GetFstDataInterfaceName() string { return "" }
