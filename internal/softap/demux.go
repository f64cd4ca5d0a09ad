package softap

import "github.com/sirupsen/logrus"

// The demux wraps native driver callbacks into FSM messages. Every callback
// enqueues without blocking; the event loop performs all mutation. Malformed
// payloads are dropped with an error log.

// apEventDemux normalizes hostapd events.
type apEventDemux struct {
	log  *logrus.Logger
	push func(message)
}

func (d *apEventDemux) OnFailure() {
	d.push(msgFailure{})
}

func (d *apEventDemux) OnConnectedClientsChanged(client Client, connected bool) {
	mac := NormalizeMAC(client.MAC)
	if mac == "" {
		d.log.Error("onConnectedClientsChanged: invalid client")
		return
	}
	d.push(msgAssociatedStationsChanged{client: Client{MAC: mac}, connected: connected})
}

func (d *apEventDemux) OnSoftApChannelSwitched(frequencyMHz int, bandwidth Bandwidth) {
	if frequencyMHz < 0 {
		d.log.Errorf("Invalid ap channel frequency: %d", frequencyMHz)
		return
	}
	d.push(msgChannelSwitched{frequency: frequencyMHz, bandwidth: bandwidth})
}

func (d *apEventDemux) OnStaConnected(mac string) {
	mac = NormalizeMAC(mac)
	if mac == "" {
		d.log.Error("onStaConnected: invalid station address")
		return
	}
	d.push(msgConnectedStation{mac: mac})
}

func (d *apEventDemux) OnStaDisconnected(mac string) {
	mac = NormalizeMAC(mac)
	if mac == "" {
		d.log.Error("onStaDisconnected: invalid station address")
		return
	}
	d.push(msgDisconnectedStation{mac: mac})
}

// apIfaceDemux forwards status events of the AP/data interface. The event
// loop filters by interface name, since the data interface name is loop-owned
// state.
type apIfaceDemux struct {
	push func(message)
}

func (d *apIfaceDemux) OnDestroyed(iface string) {
	d.push(msgInterfaceDestroyed{iface: iface})
}

func (d *apIfaceDemux) OnUp(iface string) {
	d.push(msgInterfaceStatus{iface: iface, up: true})
}

func (d *apIfaceDemux) OnDown(iface string) {
	d.push(msgInterfaceStatus{iface: iface, up: false})
}

// dualIfaceDemux watches the two radio interfaces of a dual-interface AP.
// Only destruction matters; link state is observed on the bridge.
type dualIfaceDemux struct {
	push func(message)
}

func (d *dualIfaceDemux) OnDestroyed(iface string) {
	d.push(msgDualSapInterfaceDestroyed{iface: iface})
}

func (d *dualIfaceDemux) OnUp(iface string)   {}
func (d *dualIfaceDemux) OnDown(iface string) {}

func (m *Manager) apEventListener() APEventListener {
	return &apEventDemux{log: m.log, push: m.mailbox.push}
}

func (m *Manager) ifaceCallback() InterfaceCallback {
	return &apIfaceDemux{push: m.mailbox.push}
}

func (m *Manager) dualIfaceCallback() InterfaceCallback {
	return &dualIfaceDemux{push: m.mailbox.push}
}
