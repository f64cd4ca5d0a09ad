package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/fbettag/softap-manager/internal/auth"
	"github.com/fbettag/softap-manager/internal/config"
	"github.com/fbettag/softap-manager/internal/database"
	"github.com/fbettag/softap-manager/internal/driverstub"
	"github.com/fbettag/softap-manager/internal/handlers"
	"github.com/fbettag/softap-manager/internal/metrics"
	"github.com/fbettag/softap-manager/internal/softap"
)

var (
	Version = "dev" // Set by build process
)

// diagLogger brackets hostapd operation with verbose driver logging.
type diagLogger struct {
	logger *logrus.Logger
}

func (d *diagLogger) StartLogging(iface string) {
	d.logger.Infof("Starting driver diagnostics on %s", iface)
}

func (d *diagLogger) StopLogging(iface string) {
	d.logger.Infof("Stopping driver diagnostics on %s", iface)
}

var (
	configFile  = flag.String("config", "config.yaml", "Path to configuration file")
	port        = flag.Int("port", 8080, "Port to run the control API on")
	dbPath      = flag.String("database", "", "Path to database file (overrides config)")
	logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	showVersion = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	// Handle version flag
	if *showVersion {
		fmt.Printf("SoftAP Manager %s\n", Version)
		os.Exit(0)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Set log level from flag
	switch *logLevel {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Infof("Starting SoftAP Manager %s", Version)

	// Load or initialize configuration
	cfg, err := config.LoadOrInitialize(*configFile)
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Override database path if provided via flag
	databasePath := cfg.DatabasePath
	if *dbPath != "" {
		databasePath = *dbPath
		logger.Infof("Using database path from command line: %s", databasePath)
	}

	// Initialize database
	db, err := database.Initialize(databasePath)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Initialize session store
	sessionStore := auth.NewSessionStore(cfg.SessionSecret)

	store := config.NewStore(*configFile, cfg, logger)
	recorder := handlers.NewRecorder(db, logger)
	promMetrics := metrics.NewRecorder(prometheus.DefaultRegisterer)

	// The native hostapd/nl80211 adapter is a separate component; the stub
	// simulates it so the control API can be exercised end to end.
	driver := driverstub.New(logger)

	apConfig, err := cfg.ToSoftApConfiguration()
	if err != nil {
		logger.Fatalf("Invalid AP configuration: %v", err)
	}

	manager, err := softap.NewManager(softap.Deps{
		Logger:       logger,
		Driver:       driver,
		Store:        store,
		Callback:     recorder,
		ModeListener: recorder,
		Broadcast:    recorder,
		Metrics:      promMetrics,
		Notifier:     recorder,
		Diagnostics:  &diagLogger{logger: logger},
		CountryCode:  cfg.Platform.CountryCode,
	}, softap.ModeConfiguration{
		TargetMode: softap.ModeTethered,
		Config:     apConfig,
		Capability: softap.Capability{
			Features:            softap.FeatureACSOffload | softap.FeatureClientForceDisconnect,
			MaxSupportedClients: 16,
			SupportedChannels: map[softap.Band][]int{
				softap.Band2GHz: {1, 6, 11},
				softap.Band5GHz: {36, 40, 44, 48},
			},
		},
	})
	if err != nil {
		logger.Fatalf("Failed to create soft AP manager: %v", err)
	}
	if err := manager.SetRole(softap.RoleTetheredAP); err != nil {
		logger.Fatalf("Failed to assign role: %v", err)
	}

	app := &handlers.App{
		Config:       cfg,
		ConfigPath:   *configFile,
		DB:           db,
		Logger:       logger,
		SessionStore: sessionStore,
		Manager:      manager,
		Recorder:     recorder,
		ScanCache:    driver.ScanCache(),
	}

	// Setup routes
	router := mux.NewRouter()
	app.Routes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%d", *port)
	logger.Infof("Starting control API on http://localhost%s", addr)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Shutting down...")
		manager.Stop()
		select {
		case <-manager.Done():
		case <-time.After(5 * time.Second):
			logger.Warn("Timed out waiting for soft AP shutdown")
		}
		os.Exit(0)
	}()

	// Create server with timeouts
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if err := server.ListenAndServe(); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
