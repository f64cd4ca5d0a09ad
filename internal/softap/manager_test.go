package softap_test

import (
	"io"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/fbettag/softap-manager/internal/softap"
	"github.com/fbettag/softap-manager/testutils"
)

const waitTimeout = 2 * time.Second

type managerFixture struct {
	Manager  *softap.Manager
	Driver   *testutils.MockDriver
	Recorder *testutils.CallbackRecorder
	Store    *testutils.TestConfigStore
	Clock    *clock.Mock
}

// sync flushes the mailbox: Dump is answered in-loop, so once it returns
// every previously enqueued message has been processed.
func (f *managerFixture) sync() {
	f.Manager.Dump(io.Discard)
}

func newManagerFixture(t *testing.T, country string, cfg *softap.Configuration,
	capability softap.Capability, mutate func(*managerFixture)) *managerFixture {
	t.Helper()

	f := &managerFixture{
		Driver:   testutils.NewMockDriver(),
		Recorder: testutils.NewCallbackRecorder(),
		Store:    testutils.NewTestConfigStore(),
		Clock:    clock.NewMock(),
	}
	if mutate != nil {
		mutate(f)
	}

	mgr, err := softap.NewManager(softap.Deps{
		Logger:       testutils.TestLogger(),
		Driver:       f.Driver,
		Store:        f.Store,
		Callback:     f.Recorder,
		ModeListener: f.Recorder,
		Broadcast:    f.Recorder,
		Notifier:     f.Recorder,
		Clock:        f.Clock,
		CountryCode:  country,
	}, softap.ModeConfiguration{
		TargetMode: softap.ModeTethered,
		Config:     cfg,
		Capability: capability,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	f.Manager = mgr
	t.Cleanup(func() {
		mgr.Stop()
		select {
		case <-mgr.Done():
		case <-time.After(waitTimeout):
		}
	})
	return f
}

func waitDone(t *testing.T, mgr *softap.Manager) {
	t.Helper()
	select {
	case <-mgr.Done():
	case <-time.After(waitTimeout):
		t.Fatal("Manager event loop did not stop")
	}
}

func assertStateSequence(t *testing.T, got, want []softap.State) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("Broadcast sequence %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Broadcast sequence %v, want %v", got, want)
		}
	}
}

func TestSingleApHappyPath(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.ShutdownTimeoutMillis = 600000
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)

	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateEnabled, waitTimeout) {
		t.Fatal("AP never reached ENABLED")
	}
	f.sync()

	assertStateSequence(t, f.Recorder.BroadcastSequence(),
		[]softap.State{softap.StateEnabling, softap.StateEnabled})
	if f.Recorder.StartedCount != 1 {
		t.Errorf("Expected one onStarted, got %d", f.Recorder.StartedCount)
	}
	if len(f.Driver.CreatedIfaces()) != 1 {
		t.Fatalf("Expected one interface, got %v", f.Driver.CreatedIfaces())
	}

	// No clients for the full timeout: auto-shutdown.
	f.Clock.Add(600001 * time.Millisecond)
	if !f.Recorder.WaitForState(softap.StateDisabled, waitTimeout) {
		t.Fatal("AP never shut down after idle timeout")
	}
	waitDone(t, f.Manager)

	assertStateSequence(t, f.Recorder.BroadcastSequence(), []softap.State{
		softap.StateEnabling, softap.StateEnabled,
		softap.StateDisabling, softap.StateDisabled,
	})
	if f.Recorder.Notifications != 1 {
		t.Errorf("Expected one shutdown notification, got %d", f.Recorder.Notifications)
	}
	if f.Recorder.StoppedCount != 1 {
		t.Errorf("Expected one onStopped, got %d", f.Recorder.StoppedCount)
	}
	if torn := f.Driver.TornDownIfaces(); len(torn) != 1 || torn[0] != "wlan0" {
		t.Errorf("Expected wlan0 torn down, got %v", torn)
	}
}

func Test5GHzWithoutCountryCode(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.Band = softap.Band5GHz
	f := newManagerFixture(t, "", cfg, testutils.DefaultCapability(), nil)

	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateFailed, waitTimeout) {
		t.Fatal("Expected start failure")
	}
	f.sync()

	broadcasts := f.Recorder.Broadcasts
	last := broadcasts[len(broadcasts)-1]
	if last.NewState != softap.StateFailed || last.FailureReason != softap.FailureGeneral {
		t.Errorf("Expected FAILED/GENERAL, got %s/%s", last.NewState, last.FailureReason)
	}
	if f.Recorder.StartFailures != 1 {
		t.Errorf("Expected one onStartFailure, got %d", f.Recorder.StartFailures)
	}
	if f.Recorder.StartedCount != 0 {
		t.Error("AP must not report started")
	}
	// The created interface is rolled back.
	if torn := f.Driver.TornDownIfaces(); len(torn) != 1 {
		t.Errorf("Expected interface rollback, got %v", torn)
	}
}

func Test5GHzUnsupportedByDriver(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.Band = softap.Band5GHz
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), func(f *managerFixture) {
		f.Driver.No5GHz = true
	})

	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateFailed, waitTimeout) {
		t.Fatal("Expected start failure")
	}
	f.sync()

	broadcasts := f.Recorder.Broadcasts
	last := broadcasts[len(broadcasts)-1]
	if last.FailureReason != softap.FailureNoChannel {
		t.Errorf("Expected NO_CHANNEL, got %s", last.FailureReason)
	}
	if last.FailureDescription != softap.FailureDescNo5GHzSupport {
		t.Errorf("Expected 5GHz failure description, got %q", last.FailureDescription)
	}
}

func TestUnsupportedConfiguration(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.MaxNumberOfClients = 100
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)

	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateFailed, waitTimeout) {
		t.Fatal("Expected start failure")
	}
	f.sync()

	broadcasts := f.Recorder.Broadcasts
	last := broadcasts[len(broadcasts)-1]
	if last.FailureReason != softap.FailureUnsupportedConfiguration {
		t.Errorf("Expected UNSUPPORTED_CONFIGURATION, got %s", last.FailureReason)
	}
}

func TestDualBandStartup(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.Band = softap.BandAny
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)

	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateEnabling, waitTimeout) {
		t.Fatal("AP never reached ENABLING")
	}
	f.sync()

	created := f.Driver.CreatedIfaces()
	if len(created) != 3 {
		t.Fatalf("Expected 3 interfaces, got %v", created)
	}
	if cfg2 := f.Driver.StartedConfigs["wlan0"]; cfg2 == nil || cfg2.Band != softap.Band2GHz {
		t.Errorf("First radio config: %+v", cfg2)
	}
	if cfg5 := f.Driver.StartedConfigs["wlan1"]; cfg5 == nil || cfg5.Band != softap.Band5GHz {
		t.Errorf("Second radio config: %+v", cfg5)
	}

	foundBridgeUp := false
	for _, cmd := range f.Driver.HostapdCmds {
		if strings.HasPrefix(cmd, "softap bridge up softap_br") {
			foundBridgeUp = true
		}
	}
	if !foundBridgeUp {
		t.Errorf("Bridge up command missing, got %v", f.Driver.HostapdCmds)
	}
	if !f.Store.DualSapStatus() {
		t.Error("Dual-SAP status flag not recorded")
	}

	// The bridge comes up; ENABLED exactly once.
	f.Driver.IfaceCallback("softap_br2").OnUp("softap_br2")
	if !f.Recorder.WaitForState(softap.StateEnabled, waitTimeout) {
		t.Fatal("AP never reached ENABLED")
	}
	f.sync()
	enabled := 0
	for _, state := range f.Recorder.BroadcastSequence() {
		if state == softap.StateEnabled {
			enabled++
		}
	}
	if enabled != 1 {
		t.Errorf("Expected exactly one ENABLED broadcast, got %d", enabled)
	}
}

func TestDualBandChildFailureRollsBackAll(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.Band = softap.BandAny
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), func(f *managerFixture) {
		f.Driver.FailStartSoftAp = true
	})

	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateFailed, waitTimeout) {
		t.Fatal("Expected start failure")
	}
	f.sync()

	// All three interfaces are gone.
	created := f.Driver.CreatedIfaces()
	torn := f.Driver.TornDownIfaces()
	if len(created) != 3 {
		t.Fatalf("Expected 3 created interfaces, got %v", created)
	}
	tornSet := make(map[string]bool)
	for _, name := range torn {
		tornSet[name] = true
	}
	for _, name := range created {
		if !tornSet[name] {
			t.Errorf("Interface %s not torn down after dual failure (torn: %v)", name, torn)
		}
	}
	if f.Recorder.StartFailures != 1 {
		t.Errorf("Expected one onStartFailure, got %d", f.Recorder.StartFailures)
	}
}

func TestOweTransitionStartup(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.SSID = "foo"
	cfg.Security = softap.SecurityOWE
	cfg.Passphrase = ""
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)

	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateEnabling, waitTimeout) {
		t.Fatal("AP never reached ENABLING")
	}
	f.sync()

	oweCfg := f.Driver.StartedConfigs["wlan0"]
	openCfg := f.Driver.StartedConfigs["wlan1"]
	if oweCfg == nil || openCfg == nil {
		t.Fatalf("Both radios must be started, got %v", f.Driver.StartedConfigs)
	}
	if oweCfg.SSID != "OWE_101574" || !oweCfg.HiddenSSID {
		t.Errorf("OWE child: ssid=%q hidden=%v", oweCfg.SSID, oweCfg.HiddenSSID)
	}
	if oweCfg.OweTransIfaceName != "wlan1" {
		t.Errorf("OWE child peer = %q, want wlan1", oweCfg.OweTransIfaceName)
	}
	if openCfg.SSID != "foo" || openCfg.Security != softap.SecurityOpen {
		t.Errorf("Open child: ssid=%q security=%s", openCfg.SSID, openCfg.Security)
	}
	if openCfg.OweTransIfaceName != "wlan0" {
		t.Errorf("Open child peer = %q, want wlan0", openCfg.OweTransIfaceName)
	}
}

func startSingleAp(t *testing.T, f *managerFixture) softap.APEventListener {
	t.Helper()
	f.Manager.Start()
	if !f.Recorder.WaitForState(softap.StateEnabled, waitTimeout) {
		t.Fatal("AP never reached ENABLED")
	}
	f.sync()
	listener := f.Driver.Listener("wlan0")
	if listener == nil {
		t.Fatal("No hostapd listener captured")
	}
	return listener
}

func TestClientAdmissionOverCapacity(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.MaxNumberOfClients = 1
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:01"}, true)
	f.sync()
	if clients := f.Recorder.LastClients(); len(clients) != 1 {
		t.Fatalf("Expected 1 client, got %v", clients)
	}

	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:02"}, true)
	f.sync()

	disconnects := f.Driver.DisconnectCalls()
	if len(disconnects) != 1 || disconnects[0].MAC != "AA:BB:CC:DD:EE:02" ||
		disconnects[0].Reason != softap.NoMoreStas {
		t.Errorf("Expected NO_MORE_STAS disconnect of second client, got %v", disconnects)
	}
	if len(f.Recorder.Blocked) != 1 || f.Recorder.Blocked[0].Reason != softap.NoMoreStas {
		t.Errorf("Expected NO_MORE_STAS blocked callback, got %v", f.Recorder.Blocked)
	}
	if clients := f.Recorder.LastClients(); len(clients) != 1 {
		t.Errorf("Roster must stay at 1 client, got %v", clients)
	}
}

func TestUnauthorizedClient(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.ClientControlByUser = true
	cfg.AllowedClientList = []string{"AA:BB:CC:DD:EE:01"}
	cfg.BlockedClientList = []string{"AA:BB:CC:DD:EE:03"}
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	// Not allowed, not yet known blocked: callback plus forced disconnect.
	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:02"}, true)
	f.sync()
	if len(f.Recorder.Blocked) != 1 || f.Recorder.Blocked[0].Reason != softap.BlockedByUser {
		t.Fatalf("Expected BLOCKED_BY_USER callback, got %v", f.Recorder.Blocked)
	}
	if disconnects := f.Driver.DisconnectCalls(); len(disconnects) != 1 ||
		disconnects[0].Reason != softap.BlockedByUser {
		t.Fatalf("Expected BLOCKED_BY_USER disconnect, got %v", disconnects)
	}

	// Already on the blocked list: forced disconnect without the callback.
	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:03"}, true)
	f.sync()
	if len(f.Recorder.Blocked) != 1 {
		t.Errorf("Known-blocked client must not trigger the callback, got %v", f.Recorder.Blocked)
	}
	if disconnects := f.Driver.DisconnectCalls(); len(disconnects) != 2 {
		t.Errorf("Expected 2 disconnects, got %v", disconnects)
	}
}

func TestInfoChangeDeduplication(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	listener.OnSoftApChannelSwitched(2437, softap.Bandwidth20MHz)
	listener.OnSoftApChannelSwitched(2437, softap.Bandwidth20MHz)
	f.sync()
	if len(f.Recorder.Infos) != 1 {
		t.Fatalf("Expected one onInfoChanged, got %v", f.Recorder.Infos)
	}

	listener.OnSoftApChannelSwitched(2462, softap.Bandwidth40MHz)
	f.sync()
	if len(f.Recorder.Infos) != 2 {
		t.Fatalf("Expected a second onInfoChanged, got %v", f.Recorder.Infos)
	}
	if info := f.Recorder.Infos[1]; info.Frequency != 2462 || info.Bandwidth != softap.Bandwidth40MHz {
		t.Errorf("Unexpected info: %+v", info)
	}
}

func TestHostapdFailureTearsDown(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	listener.OnFailure()
	if !f.Recorder.WaitForState(softap.StateDisabled, waitTimeout) {
		t.Fatal("AP never shut down after hostapd failure")
	}
	waitDone(t, f.Manager)

	assertStateSequence(t, f.Recorder.BroadcastSequence(), []softap.State{
		softap.StateEnabling, softap.StateEnabled,
		softap.StateFailed, softap.StateDisabling, softap.StateDisabled,
	})
	if torn := f.Driver.TornDownIfaces(); len(torn) != 1 || torn[0] != "wlan0" {
		t.Errorf("Expected wlan0 teardown, got %v", torn)
	}
}

func TestInterfaceDestroyedByNative(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	startSingleAp(t, f)

	f.Driver.IfaceCallback("wlan0").OnDestroyed("wlan0")
	if !f.Recorder.WaitForState(softap.StateDisabled, waitTimeout) {
		t.Fatal("AP never shut down after interface destruction")
	}
	waitDone(t, f.Manager)

	// Torn down by the native layer already: no further teardown calls.
	if torn := f.Driver.TornDownIfaces(); len(torn) != 0 {
		t.Errorf("Expected no teardown after native destroy, got %v", torn)
	}
}

func TestStopWhileStarted(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	startSingleAp(t, f)

	f.Manager.Stop()
	waitDone(t, f.Manager)

	assertStateSequence(t, f.Recorder.BroadcastSequence(), []softap.State{
		softap.StateEnabling, softap.StateEnabled,
		softap.StateDisabling, softap.StateDisabled,
	})
	if f.Recorder.StoppedCount != 1 {
		t.Errorf("Expected one onStopped, got %d", f.Recorder.StoppedCount)
	}
}

func TestStopOnIdleIsNoOp(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)

	f.Manager.Stop()
	waitDone(t, f.Manager)

	if len(f.Recorder.Broadcasts) != 0 {
		t.Errorf("Expected no broadcasts, got %v", f.Recorder.BroadcastSequence())
	}
	if f.Recorder.StoppedCount != 0 {
		t.Errorf("Expected no onStopped, got %d", f.Recorder.StoppedCount)
	}
}

func TestLegacyStationCountPath(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.ShutdownTimeoutMillis = 60000
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	listener.OnStaConnected("AA:BB:CC:DD:EE:01")
	f.sync()

	// The interface-up refresh reports ("", 0) first; the real station is
	// next.
	last := f.Recorder.StaConnects[len(f.Recorder.StaConnects)-1]
	if last.MAC != "AA:BB:CC:DD:EE:01" || last.Count != 1 {
		t.Fatalf("Unexpected onStaConnected: %+v", last)
	}

	// Station present: the idle timeout must not fire.
	f.Clock.Add(2 * time.Minute)
	f.sync()
	if f.Recorder.Notifications != 0 {
		t.Fatal("Idle timeout fired with a station connected")
	}

	listener.OnStaDisconnected("AA:BB:CC:DD:EE:01")
	f.sync()
	lastDis := f.Recorder.StaDisconnects[len(f.Recorder.StaDisconnects)-1]
	if lastDis.Count != 0 {
		t.Fatalf("Unexpected onStaDisconnected: %+v", lastDis)
	}

	f.Clock.Add(61 * time.Second)
	if !f.Recorder.WaitForState(softap.StateDisabled, waitTimeout) {
		t.Fatal("AP never shut down after last station left")
	}
}

func TestTimeoutDroppedWithClients(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	cfg.ShutdownTimeoutMillis = 60000
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	// Client connects just before the deadline; cancellation replaces the
	// pending fire.
	f.Clock.Add(59 * time.Second)
	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:01"}, true)
	f.sync()
	f.Clock.Add(10 * time.Minute)
	f.sync()

	if f.Recorder.Notifications != 0 {
		t.Error("Shutdown notification fired with a connected client")
	}
	select {
	case <-f.Manager.Done():
		t.Fatal("Manager stopped despite connected client")
	default:
	}
}

func TestCapabilityUpdateReconcilesClients(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:01"}, true)
	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:02"}, true)
	f.sync()
	if clients := f.Recorder.LastClients(); len(clients) != 2 {
		t.Fatalf("Expected 2 clients, got %v", clients)
	}

	smaller := testutils.DefaultCapability()
	smaller.MaxSupportedClients = 1
	f.Manager.UpdateCapability(smaller)
	f.sync()

	disconnects := f.Driver.DisconnectCalls()
	if len(disconnects) != 1 || disconnects[0].MAC != "AA:BB:CC:DD:EE:02" ||
		disconnects[0].Reason != softap.NoMoreStas {
		t.Errorf("Expected tail eviction of second client, got %v", disconnects)
	}

	// The roster shrinks once the driver confirms.
	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:02"}, false)
	f.sync()
	if clients := f.Recorder.LastClients(); len(clients) != 1 {
		t.Errorf("Expected 1 client after confirmation, got %v", clients)
	}
}

func TestConfigUpdateIsIdempotent(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	startSingleAp(t, f)

	update := testutils.DefaultConfiguration()
	update.MaxNumberOfClients = 4

	f.Manager.UpdateConfiguration(update)
	f.sync()
	broadcastsAfterFirst := len(f.Recorder.Broadcasts)
	disconnectsAfterFirst := len(f.Driver.DisconnectCalls())

	f.Manager.UpdateConfiguration(update)
	f.sync()

	if len(f.Recorder.Broadcasts) != broadcastsAfterFirst {
		t.Error("Second identical update changed broadcast state")
	}
	if len(f.Driver.DisconnectCalls()) != disconnectsAfterFirst {
		t.Error("Second identical update issued disconnects")
	}
}

func TestConfigUpdateRequiringRestartIsIgnored(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	listener := startSingleAp(t, f)

	listener.OnConnectedClientsChanged(softap.Client{MAC: "AA:BB:CC:DD:EE:01"}, true)
	f.sync()

	update := testutils.DefaultConfiguration()
	update.SSID = "OtherNetwork"
	f.Manager.UpdateConfiguration(update)
	f.sync()

	// Still running with the original roster; no restart, no eviction.
	if clients := f.Recorder.LastClients(); len(clients) != 1 {
		t.Errorf("Expected roster untouched, got %v", clients)
	}
	select {
	case <-f.Manager.Done():
		t.Fatal("Manager stopped on a restart-requiring update")
	default:
	}
}

func TestRandomizedBSSID(t *testing.T) {
	cfg := testutils.DefaultConfiguration()
	f := newManagerFixture(t, "DE", cfg, testutils.DefaultCapability(), func(f *managerFixture) {
		f.Store.Randomize = true
	})
	startSingleAp(t, f)

	mac := f.Driver.SetMACs["wlan0"]
	if len(mac) != 17 {
		t.Fatalf("Expected a full MAC to be set, got %q", mac)
	}

	// A later update that still leaves the BSSID unset must apply live: the
	// synthetic BSSID does not count as a restart-requiring difference.
	update := testutils.DefaultConfiguration()
	update.AutoShutdownEnabled = false
	f.Manager.UpdateConfiguration(update)
	f.sync()

	f.Clock.Add(24 * time.Hour)
	f.sync()
	if f.Recorder.Notifications != 0 {
		t.Error("Timer fired although auto-shutdown was disabled by the update")
	}
}

func TestSetRoleOnce(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)

	if f.Manager.Role() != softap.RoleUnspecified {
		t.Fatalf("Fresh manager role = %s", f.Manager.Role())
	}
	if err := f.Manager.SetRole(softap.RoleUnspecified); err == nil {
		t.Error("Assigning UNSPECIFIED must fail")
	}
	if err := f.Manager.SetRole(softap.RoleTetheredAP); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	if err := f.Manager.SetRole(softap.RoleLocalOnlyAP); err == nil {
		t.Error("Role must be assignable only once")
	}
	if f.Manager.Role() != softap.RoleTetheredAP {
		t.Errorf("Role = %s", f.Manager.Role())
	}
}

func TestDumpContainsState(t *testing.T) {
	f := newManagerFixture(t, "DE", testutils.DefaultConfiguration(), testutils.DefaultCapability(), nil)
	startSingleAp(t, f)

	var sb strings.Builder
	f.Manager.Dump(&sb)
	out := sb.String()
	for _, want := range []string{"--Dump of SoftApManager--", "current state: Started",
		"apInterfaceName: wlan0", "ssid: TestAP", "softApCountryCode: DE"} {
		if !strings.Contains(out, want) {
			t.Errorf("Dump missing %q:\n%s", want, out)
		}
	}
}
