// Package config collects process configuration into an explicit value.
// Nothing here is global: the gateway and reconciler receive a Config
// (or pieces of it) through their constructors, so tests can run several
// instances against mock devices side by side.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for optional settings.
const (
	DefaultPort         = 5000
	DefaultPollInterval = 10 * time.Second
	DefaultStaticDir    = "frontend/dist"
	DefaultIconsDir     = "icons"
	DefaultAppsConfig   = "apps_config.yaml"
)

// Config holds everything the process reads from the environment once
// at startup.
type Config struct {
	// TVHost is the TV's IP address or host on the local network.
	TVHost string
	// TVMAC is the TV's physical network address, required for the
	// wake signal.
	TVMAC string
	// PSK is the pre-shared key configured on the TV.
	PSK string

	Port         int
	PollInterval time.Duration
	StaticDir    string
	IconsDir     string
	AppsConfig   string
}

// BaseURL returns the TV's control endpoint base URL.
func (c *Config) BaseURL() string {
	return "http://" + c.TVHost
}

// Load reads configuration from the environment. TV_IP, TV_MAC and
// TV_PSK are required; everything else has a default.
func Load() (*Config, error) {
	cfg := &Config{
		TVHost:       os.Getenv("TV_IP"),
		TVMAC:        os.Getenv("TV_MAC"),
		PSK:          os.Getenv("TV_PSK"),
		Port:         DefaultPort,
		PollInterval: DefaultPollInterval,
		StaticDir:    DefaultStaticDir,
		IconsDir:     DefaultIconsDir,
		AppsConfig:   DefaultAppsConfig,
	}

	if cfg.TVHost == "" {
		return nil, fmt.Errorf("TV_IP must be set")
	}
	if cfg.TVMAC == "" {
		return nil, fmt.Errorf("TV_MAC must be set")
	}
	if cfg.PSK == "" {
		return nil, fmt.Errorf("TV_PSK must be set")
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid POLL_INTERVAL %q", v)
		}
		cfg.PollInterval = time.Duration(seconds) * time.Second
	}

	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}
	if v := os.Getenv("ICONS_DIR"); v != "" {
		cfg.IconsDir = v
	}
	if v := os.Getenv("APPS_CONFIG"); v != "" {
		cfg.AppsConfig = v
	}

	return cfg, nil
}
