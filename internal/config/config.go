package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/fbettag/softap-manager/internal/softap"
)

type Config struct {
	Admin         AdminConfig    `mapstructure:"admin"`
	Platform      PlatformConfig `mapstructure:"platform"`
	AP            APConfig       `mapstructure:"ap"`
	DatabasePath  string         `mapstructure:"database_path"`
	SessionSecret string         `mapstructure:"session_secret"`
	SetupComplete bool           `mapstructure:"setup_complete"`
}

type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type PlatformConfig struct {
	CountryCode              string `mapstructure:"country_code"`
	DefaultShutdownTimeoutMs int64  `mapstructure:"default_shutdown_timeout_ms"`
	BSSIDRandomization       bool   `mapstructure:"bssid_randomization"`
	DualSap                  bool   `mapstructure:"dual_sap"`
}

type APConfig struct {
	SSID                string   `mapstructure:"ssid" json:"ssid"`
	Passphrase          string   `mapstructure:"passphrase" json:"passphrase"`
	Security            string   `mapstructure:"security" json:"security"`
	Band                string   `mapstructure:"band" json:"band"`
	Channel             int      `mapstructure:"channel" json:"channel"`
	HiddenSSID          bool     `mapstructure:"hidden_ssid" json:"hidden_ssid"`
	BSSID               string   `mapstructure:"bssid" json:"bssid"`
	AutoShutdown        bool     `mapstructure:"auto_shutdown" json:"auto_shutdown"`
	ShutdownTimeoutMs   int64    `mapstructure:"shutdown_timeout_ms" json:"shutdown_timeout_ms"`
	MaxClients          int      `mapstructure:"max_clients" json:"max_clients"`
	ClientControlByUser bool     `mapstructure:"client_control_by_user" json:"client_control_by_user"`
	BlockedClients      []string `mapstructure:"blocked_clients" json:"blocked_clients"`
	AllowedClients      []string `mapstructure:"allowed_clients" json:"allowed_clients"`
}

func LoadOrInitialize(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Set defaults
	viper.SetDefault("database_path", "softap_manager.db")
	viper.SetDefault("platform.country_code", "")
	viper.SetDefault("platform.default_shutdown_timeout_ms", 600000)
	viper.SetDefault("platform.bssid_randomization", true)
	viper.SetDefault("platform.dual_sap", false)
	viper.SetDefault("ap.ssid", "SoftAP")
	viper.SetDefault("ap.security", "wpa2")
	viper.SetDefault("ap.band", "2ghz")
	viper.SetDefault("ap.auto_shutdown", true)
	viper.SetDefault("setup_complete", false)

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Create new config with defaults
		cfg := &Config{
			DatabasePath:  viper.GetString("database_path"),
			SessionSecret: generateSessionSecret(),
			Platform: PlatformConfig{
				CountryCode:              viper.GetString("platform.country_code"),
				DefaultShutdownTimeoutMs: viper.GetInt64("platform.default_shutdown_timeout_ms"),
				BSSIDRandomization:       viper.GetBool("platform.bssid_randomization"),
			},
			AP: APConfig{
				SSID:         viper.GetString("ap.ssid"),
				Security:     viper.GetString("ap.security"),
				Band:         viper.GetString("ap.band"),
				AutoShutdown: viper.GetBool("ap.auto_shutdown"),
			},
			SetupComplete: false,
		}

		// Save initial config
		if err := SaveConfig(configPath, cfg); err != nil {
			return nil, err
		}

		return cfg, nil
	}

	// Read existing config
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Ensure session secret exists
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = generateSessionSecret()
		if err := SaveConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func SaveConfig(configPath string, cfg *Config) error {
	viper.Set("admin.username", cfg.Admin.Username)
	viper.Set("admin.password_hash", cfg.Admin.PasswordHash)

	viper.Set("platform.country_code", cfg.Platform.CountryCode)
	viper.Set("platform.default_shutdown_timeout_ms", cfg.Platform.DefaultShutdownTimeoutMs)
	viper.Set("platform.bssid_randomization", cfg.Platform.BSSIDRandomization)
	viper.Set("platform.dual_sap", cfg.Platform.DualSap)

	viper.Set("ap.ssid", cfg.AP.SSID)
	viper.Set("ap.passphrase", cfg.AP.Passphrase)
	viper.Set("ap.security", cfg.AP.Security)
	viper.Set("ap.band", cfg.AP.Band)
	viper.Set("ap.channel", cfg.AP.Channel)
	viper.Set("ap.hidden_ssid", cfg.AP.HiddenSSID)
	viper.Set("ap.bssid", cfg.AP.BSSID)
	viper.Set("ap.auto_shutdown", cfg.AP.AutoShutdown)
	viper.Set("ap.shutdown_timeout_ms", cfg.AP.ShutdownTimeoutMs)
	viper.Set("ap.max_clients", cfg.AP.MaxClients)
	viper.Set("ap.client_control_by_user", cfg.AP.ClientControlByUser)
	viper.Set("ap.blocked_clients", cfg.AP.BlockedClients)
	viper.Set("ap.allowed_clients", cfg.AP.AllowedClients)

	viper.Set("database_path", cfg.DatabasePath)
	viper.Set("session_secret", cfg.SessionSecret)
	viper.Set("setup_complete", cfg.SetupComplete)

	return viper.WriteConfigAs(configPath)
}

func (c *Config) IsConfigured() bool {
	return c.SetupComplete && c.Admin.Username != ""
}

func (c *Config) SetAdminPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.Admin.PasswordHash = string(hash)
	return nil
}

func (c *Config) VerifyAdminPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(c.Admin.PasswordHash), []byte(password))
	return err == nil
}

// ParseSecurity maps the config file's security string to the manager enum.
func ParseSecurity(s string) (softap.SecurityType, error) {
	switch strings.ToLower(s) {
	case "", "open":
		return softap.SecurityOpen, nil
	case "wpa2", "wpa2-psk":
		return softap.SecurityWPA2PSK, nil
	case "sae", "wpa3", "wpa3-sae":
		return softap.SecurityWPA3SAE, nil
	case "sae-transition":
		return softap.SecuritySAETransition, nil
	case "owe":
		return softap.SecurityOWE, nil
	}
	return 0, fmt.Errorf("unknown security type %q", s)
}

// ParseBand maps the config file's band string to the manager bitmask.
func ParseBand(s string) (softap.Band, error) {
	switch strings.ToLower(s) {
	case "", "2ghz":
		return softap.Band2GHz, nil
	case "5ghz":
		return softap.Band5GHz, nil
	case "6ghz":
		return softap.Band6GHz, nil
	case "any":
		return softap.BandAny, nil
	}
	return 0, fmt.Errorf("unknown band %q", s)
}

// ToSoftApConfiguration converts the stored AP section into the manager's
// configuration type.
func (c *Config) ToSoftApConfiguration() (*softap.Configuration, error) {
	security, err := ParseSecurity(c.AP.Security)
	if err != nil {
		return nil, err
	}
	band, err := ParseBand(c.AP.Band)
	if err != nil {
		return nil, err
	}
	cfg := &softap.Configuration{
		SSID:                  c.AP.SSID,
		Passphrase:            c.AP.Passphrase,
		Security:              security,
		Band:                  band,
		Channel:               c.AP.Channel,
		HiddenSSID:            c.AP.HiddenSSID,
		BSSID:                 softap.NormalizeMAC(c.AP.BSSID),
		AutoShutdownEnabled:   c.AP.AutoShutdown,
		ShutdownTimeoutMillis: c.AP.ShutdownTimeoutMs,
		MaxNumberOfClients:    c.AP.MaxClients,
		ClientControlByUser:   c.AP.ClientControlByUser,
		BlockedClientList:     append([]string(nil), c.AP.BlockedClients...),
		AllowedClientList:     append([]string(nil), c.AP.AllowedClients...),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func generateSessionSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// This should never happen with crypto/rand
		panic(err)
	}
	return base64.URLEncoding.EncodeToString(b)
}
