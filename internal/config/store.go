package config

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fbettag/softap-manager/internal/softap"
)

// Store adapts the on-disk config file to the manager's ConfigStore seam.
type Store struct {
	mu     sync.Mutex
	path   string
	cfg    *Config
	logger *logrus.Logger
}

func NewStore(path string, cfg *Config, logger *logrus.Logger) *Store {
	return &Store{path: path, cfg: cfg, logger: logger}
}

func (s *Store) ApConfiguration() *softap.Configuration {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.cfg.ToSoftApConfiguration()
	if err != nil {
		s.logger.Errorf("Stored AP configuration is invalid: %v", err)
		return nil
	}
	return cfg
}

func (s *Store) BSSIDRandomizationEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Platform.BSSIDRandomization
}

func (s *Store) DefaultShutdownTimeoutMillis() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Platform.DefaultShutdownTimeoutMs
}

func (s *Store) DualSapStatus() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Platform.DualSap
}

func (s *Store) SetDualSapStatus(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.Platform.DualSap == enabled {
		return
	}
	s.cfg.Platform.DualSap = enabled
	if err := SaveConfig(s.path, s.cfg); err != nil {
		s.logger.Errorf("Failed to persist dual-SAP status: %v", err)
	}
}
