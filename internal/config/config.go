package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

const (
	appName               = "sbcast"
	defaultDisplayPort    = 4444
	defaultConnectTimeout = 5 * time.Second
	defaultUpdateDelay    = 1 * time.Second
	defaultHealthInterval = 60 * time.Second
	defaultLookupEndpoint = "https://www.youtube.com/oembed"
	defaultLookupTimeout  = 10 * time.Second
)

// ErrNoDisplayHost is returned when no display host was configured anywhere
var ErrNoDisplayHost = errors.New("display host is not configured (set SBCAST_DISPLAY_HOST or display.host)")

// fileConfig mirrors config.toml
type fileConfig struct {
	Display DisplayConfig `koanf:"display"`
	Sources SourcesConfig `koanf:"sources"`
	Lookup  LookupConfig  `koanf:"lookup"`
}

// DisplayConfig holds the remote display settings.
type DisplayConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"` // also bounds each write
	UpdateDelay    time.Duration `koanf:"update_delay"`    // debounce window
}

// SourcesConfig holds media source settings.
type SourcesConfig struct {
	Filter         []string      `koanf:"filter"` // empty accepts every source
	HealthInterval time.Duration `koanf:"health_interval"`
}

// LookupConfig holds title lookup settings.
type LookupConfig struct {
	Endpoint string        `koanf:"endpoint"`
	Timeout  time.Duration `koanf:"timeout"`
}

// AppConfig holds application configuration
type AppConfig struct {
	display DisplayConfig
	sources SourcesConfig
	lookup  LookupConfig
}

// NewAppConfig loads config files, applies environment overrides and defaults
func NewAppConfig(logger *zap.Logger) (*AppConfig, error) {
	return load(logger, getConfigPaths())
}

func load(logger *zap.Logger, paths []string) (*AppConfig, error) {
	k := koanf.New(".")

	// Later files win
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		logger.Debug("Config file loaded", zap.String("path", path))
	}

	var fc fileConfig
	if err := k.Unmarshal("", &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment variables override files
	if host := os.Getenv("SBCAST_DISPLAY_HOST"); host != "" {
		fc.Display.Host = host
	}
	if port := os.Getenv("SBCAST_DISPLAY_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SBCAST_DISPLAY_PORT %q: %w", port, err)
		}
		fc.Display.Port = p
	}
	if filter := os.Getenv("SBCAST_SOURCE_FILTER"); filter != "" {
		fc.Sources.Filter = splitList(filter)
	}

	applyDefaults(&fc)

	if fc.Display.Host == "" {
		return nil, ErrNoDisplayHost
	}

	cfg := &AppConfig{
		display: fc.Display,
		sources: fc.Sources,
		lookup:  fc.Lookup,
	}

	logger.Info("Configuration loaded",
		zap.String("display", cfg.GetDisplayAddress()),
		zap.Duration("updateDelay", fc.Display.UpdateDelay),
		zap.Strings("sourceFilter", fc.Sources.Filter))
	if len(fc.Sources.Filter) == 0 {
		logger.Info("Reporting status of all media sources, set SBCAST_SOURCE_FILTER to limit")
	}

	return cfg, nil
}

func applyDefaults(fc *fileConfig) {
	if fc.Display.Port <= 0 {
		fc.Display.Port = defaultDisplayPort
	}
	if fc.Display.ConnectTimeout <= 0 {
		fc.Display.ConnectTimeout = defaultConnectTimeout
	}
	if fc.Display.UpdateDelay <= 0 {
		fc.Display.UpdateDelay = defaultUpdateDelay
	}
	if fc.Sources.HealthInterval <= 0 {
		fc.Sources.HealthInterval = defaultHealthInterval
	}
	if fc.Lookup.Endpoint == "" {
		fc.Lookup.Endpoint = defaultLookupEndpoint
	}
	if fc.Lookup.Timeout <= 0 {
		fc.Lookup.Timeout = defaultLookupTimeout
	}
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/sbcast/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (highest priority)
		"config.toml",
	}
}

// splitList parses a comma separated list, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// GetDisplayAddress returns host:port of the remote display
func (c *AppConfig) GetDisplayAddress() string {
	return net.JoinHostPort(c.display.Host, strconv.Itoa(c.display.Port))
}

// GetConnectTimeout returns the connect and write timeout
func (c *AppConfig) GetConnectTimeout() time.Duration {
	return c.display.ConnectTimeout
}

// GetUpdateDelay returns the debounce window for redraws
func (c *AppConfig) GetUpdateDelay() time.Duration {
	return c.display.UpdateDelay
}

// GetSourceFilter returns the accepted source labels
func (c *AppConfig) GetSourceFilter() []string {
	return c.sources.Filter
}

// GetHealthInterval returns how often source liveness is checked
func (c *AppConfig) GetHealthInterval() time.Duration {
	return c.sources.HealthInterval
}

// GetLookupEndpoint returns the oEmbed endpoint for title lookups
func (c *AppConfig) GetLookupEndpoint() string {
	return c.lookup.Endpoint
}

// GetLookupTimeout bounds a single title lookup
func (c *AppConfig) GetLookupTimeout() time.Duration {
	return c.lookup.Timeout
}
