package testutils

import (
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fbettag/softap-manager/internal/auth"
	"github.com/fbettag/softap-manager/internal/config"
	"github.com/fbettag/softap-manager/internal/database"
	"github.com/fbettag/softap-manager/internal/handlers"
	"github.com/fbettag/softap-manager/internal/softap"
)

// TestLogger returns a quiet logger for tests.
func TestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})
	return logger
}

// DefaultConfiguration is a plain 2.4 GHz WPA2 AP with auto-shutdown.
func DefaultConfiguration() *softap.Configuration {
	return &softap.Configuration{
		SSID:                "TestAP",
		Passphrase:          "test-passphrase",
		Security:            softap.SecurityWPA2PSK,
		Band:                softap.Band2GHz,
		AutoShutdownEnabled: true,
	}
}

// DefaultCapability supports ACS and forced disconnects with room for 8
// stations.
func DefaultCapability() softap.Capability {
	return softap.Capability{
		Features:            softap.FeatureACSOffload | softap.FeatureClientForceDisconnect,
		MaxSupportedClients: 8,
		SupportedChannels: map[softap.Band][]int{
			softap.Band2GHz: {1, 6, 11},
			softap.Band5GHz: {36, 40, 44, 48},
		},
	}
}

// TestApp holds test application context
type TestApp struct {
	App     *handlers.App
	Config  *config.Config
	Cleanup func()
}

// NewTestApp creates a new test application instance
func NewTestApp(t *testing.T) *TestApp {
	// Create unique test files
	configFile := "test_config_" + time.Now().Format("20060102150405.000") + ".yaml"
	dbFile := "test_db_" + time.Now().Format("20060102150405.000") + ".db"

	// Set up logger with test level
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel) // Reduce noise in tests
	logger.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		DisableTimestamp: true,
	})

	// Create test config
	cfg := &config.Config{
		DatabasePath:  dbFile,
		SessionSecret: "test-session-secret-32-characters!",
		Platform: config.PlatformConfig{
			CountryCode:              "DE",
			DefaultShutdownTimeoutMs: 600000,
			BSSIDRandomization:       true,
		},
		AP: config.APConfig{
			SSID:         "TestAP",
			Passphrase:   "test-passphrase",
			Security:     "wpa2",
			Band:         "2ghz",
			AutoShutdown: true,
		},
		SetupComplete: false,
	}

	// Initialize database
	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	// Initialize session store
	sessionStore := auth.NewSessionStore(cfg.SessionSecret)

	// Create app context
	app := &handlers.App{
		Config:       cfg,
		ConfigPath:   configFile,
		DB:           db,
		Logger:       logger,
		SessionStore: sessionStore,
		Recorder:     handlers.NewRecorder(db, logger),
	}

	cleanup := func() {
		if db != nil {
			db.Close()
		}
		os.Remove(configFile)
		os.Remove(dbFile)
	}

	return &TestApp{
		App:     app,
		Config:  cfg,
		Cleanup: cleanup,
	}
}

// CompleteSetup sets up the app as if initial setup was completed
func (ta *TestApp) CompleteSetup() {
	ta.Config.SetupComplete = true
	ta.Config.Admin.Username = "admin"
	if err := ta.Config.SetAdminPassword("testpassword123"); err != nil {
		panic(err)
	}
}

// GetValidTestMAC returns a valid MAC address for testing
func GetValidTestMAC() string {
	return "aa:bb:cc:dd:ee:01"
}

// GetValidTestMACUppercase returns a valid uppercase MAC address for testing
func GetValidTestMACUppercase() string {
	return "AA:BB:CC:DD:EE:01"
}
