package softap

import (
	"github.com/sirupsen/logrus"
)

// clientRoster is the ordered set of connected stations. Insertion order is
// what the callback surface observes. All methods run on the event loop.
type clientRoster struct {
	log     *logrus.Logger
	clients []Client
}

func newClientRoster(log *logrus.Logger) *clientRoster {
	return &clientRoster{log: log}
}

// admissionEnv is the policy context a connection event is judged against.
type admissionEnv struct {
	config     *Configuration
	capability Capability
	blocked    map[string]struct{}
	allowed    map[string]struct{}
	iface      string
	driver     Driver
	cb         Callback
}

func (r *clientRoster) indexOf(client Client) int {
	for i, c := range r.clients {
		if c.MAC == client.MAC {
			return i
		}
	}
	return -1
}

// Update applies a connection-state change. It returns true when membership
// actually changed. A duplicate event, equal to current membership, is a
// no-op logged at error level.
func (r *clientRoster) Update(client Client, connected bool, env admissionEnv) bool {
	index := r.indexOf(client)
	if (index != -1) == connected {
		r.log.Errorf("Dropping client connection event for %s connected=%v: duplicate event or client is blocked",
			client.MAC, connected)
		return false
	}
	if connected {
		if !r.admit(client, env) {
			return false
		}
		r.clients = append(r.clients, client)
	} else {
		r.clients = append(r.clients[:index], r.clients[index+1:]...)
	}
	r.log.Debugf("Connected stations changed, count=%d", len(r.clients))
	return true
}

// admit decides whether a newly connected station may stay. Rejections are
// enforced through the driver; the roster is only mutated on confirmation
// events.
func (r *clientRoster) admit(client Client, env admissionEnv) bool {
	if !env.capability.Supports(FeatureClientForceDisconnect) {
		return true
	}

	if env.config.ClientControlByUser {
		if _, ok := env.allowed[client.MAC]; !ok {
			if _, known := env.blocked[client.MAC]; !known {
				env.cb.OnBlockedClientConnecting(client, BlockedByUser)
			}
			r.log.Debugf("Force disconnect for unauthorized client: %s", client.MAC)
			if err := env.driver.ForceClientDisconnect(env.iface, client.MAC, BlockedByUser); err != nil {
				r.log.Errorf("Failed to disconnect unauthorized client %s: %v", client.MAC, err)
			}
			return false
		}
	}

	if len(r.clients) >= effectiveMaxClients(env.config, env.capability) {
		r.log.Infof("No more room for new client: %s", client.MAC)
		if err := env.driver.ForceClientDisconnect(env.iface, client.MAC, NoMoreStas); err != nil {
			r.log.Errorf("Failed to disconnect client %s: %v", client.MAC, err)
		}
		env.cb.OnBlockedClientConnecting(client, NoMoreStas)
		return false
	}
	return true
}

// Reconcile re-checks the roster after a config or capability change. Clients
// off the allow list are ejected first (when user control is enabled); if the
// roster is still over the effective limit, allowed clients are evicted from
// the tail until it fits. Roster mutation follows the driver's disconnect
// confirmation events.
func (r *clientRoster) Reconcile(env admissionEnv) {
	if !env.capability.Supports(FeatureClientForceDisconnect) {
		return
	}

	finalMax := effectiveMaxClients(env.config, env.capability)
	toDisconnect := len(r.clients) - finalMax

	var allowedConnected []Client
	if env.config.ClientControlByUser {
		for _, client := range r.clients {
			if _, ok := env.allowed[client.MAC]; ok {
				allowedConnected = append(allowedConnected, client)
				continue
			}
			r.log.Debugf("Force disconnect for no longer allowed client: %s", client.MAC)
			if err := env.driver.ForceClientDisconnect(env.iface, client.MAC, BlockedByUser); err != nil {
				r.log.Errorf("Failed to disconnect client %s: %v", client.MAC, err)
			}
			toDisconnect--
		}
	} else {
		allowedConnected = append(allowedConnected, r.clients...)
	}

	for i := len(allowedConnected) - 1; i >= 0 && toDisconnect > 0; i-- {
		client := allowedConnected[i]
		r.log.Debugf("Force disconnect for client due to no more room: %s", client.MAC)
		if err := env.driver.ForceClientDisconnect(env.iface, client.MAC, NoMoreStas); err != nil {
			r.log.Errorf("Failed to disconnect client %s: %v", client.MAC, err)
		}
		toDisconnect--
	}
}

func (r *clientRoster) Len() int { return len(r.clients) }

func (r *clientRoster) Clear() { r.clients = nil }

// Snapshot returns a copy safe to hand to callbacks.
func (r *clientRoster) Snapshot() []Client {
	return append([]Client(nil), r.clients...)
}
