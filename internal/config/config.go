// Package config loads the responder configuration from a YAML file,
// applies environment overrides, and converts the service section into
// the identity the responder advertises.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jroosing/herald/internal/mdns"
)

// ResolveConfigPath picks the configuration file path: an explicit flag
// wins, then the HERALD_CONFIG environment variable. Empty means
// built-in defaults.
func ResolveConfigPath(flag string) string {
	if p := strings.TrimSpace(flag); p != "" {
		return p
	}
	return strings.TrimSpace(os.Getenv("HERALD_CONFIG"))
}

// Load reads the configuration at path, merges environment overrides
// on top, and validates the result. An empty path skips the file and
// starts from Default.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("HERALD_INSTANCE"); v != "" {
		cfg.Service.Instance = v
	}
	if v := os.Getenv("HERALD_SERVICE"); v != "" {
		cfg.Service.Service = v
	}
	if v := os.Getenv("HERALD_PROTOCOL"); v != "" {
		cfg.Service.Protocol = v
	}
	if v := os.Getenv("HERALD_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 65535 {
			cfg.Service.Port = uint16(n)
		}
	}
	if v := os.Getenv("HERALD_IPV4"); v != "" {
		cfg.Service.IPv4 = v
	}
	if v := os.Getenv("HERALD_IPV6"); v != "" {
		cfg.Service.IPv6 = v
	}
	if v := os.Getenv("HERALD_TEXT"); v != "" {
		parts := strings.Split(v, ",")
		entries := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				entries = append(entries, p)
			}
		}
		cfg.Service.Text = entries
	}
	if v := os.Getenv("HERALD_ANNOUNCE"); v != "" {
		cfg.Service.Announce = envBool(v, cfg.Service.Announce)
	}
	if v := os.Getenv("HERALD_INTERFACE"); v != "" {
		cfg.Service.Interface = v
	}
	if v := os.Getenv("HERALD_API_ENABLED"); v != "" {
		cfg.API.Enabled = envBool(v, cfg.API.Enabled)
	}
	if v := os.Getenv("HERALD_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("HERALD_API_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}
	if v := os.Getenv("HERALD_API_KEY"); v != "" {
		cfg.API.APIKey = v
	}
	if v := os.Getenv("HERALD_STATS_PATH"); v != "" {
		cfg.Stats.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// envBool interprets common truthy/falsy spellings, falling back to def
// for anything else.
func envBool(raw string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// Validate validates and normalizes the configuration.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Service.Instance) == "" {
		return errors.New("service.instance must not be empty")
	}

	cfg.Service.Service = underscored(cfg.Service.Service)
	if cfg.Service.Service == "" {
		return errors.New("service.service must not be empty")
	}

	cfg.Service.Protocol = underscored(cfg.Service.Protocol)
	if cfg.Service.Protocol != "_tcp" && cfg.Service.Protocol != "_udp" {
		return fmt.Errorf("service.protocol must be _tcp or _udp, got %q", cfg.Service.Protocol)
	}

	if cfg.Service.Port == 0 {
		return errors.New("service.port must be 1..65535")
	}

	// Normalize logging
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	// Normalize management API
	if cfg.API.Host == "" {
		cfg.API.Host = "0.0.0.0"
	}
	if cfg.API.Enabled {
		if cfg.API.Port <= 0 || cfg.API.Port > 65535 {
			return errors.New("api.port must be 1..65535")
		}
	}

	// Normalize stats persistence
	if cfg.Stats.FlushInterval == "" {
		cfg.Stats.FlushInterval = "30s"
	}
	if _, err := cfg.FlushEvery(); err != nil {
		return err
	}

	// The identity conversion performs the record-level checks (address
	// families, label and TXT sizes).
	if _, err := cfg.Identity(); err != nil {
		return err
	}
	return nil
}

// underscored trims the value and adds the service-label underscore
// when it is missing.
func underscored(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "_") {
		return s
	}
	return "_" + s
}

// FlushEvery parses the stats flush interval.
func (cfg *Config) FlushEvery() (time.Duration, error) {
	d, err := time.ParseDuration(cfg.Stats.FlushInterval)
	if err != nil {
		return 0, fmt.Errorf("config: stats.flush_interval: %w", err)
	}
	if d <= 0 {
		return 0, errors.New("config: stats.flush_interval must be positive")
	}
	return d, nil
}

// Identity converts the service section into the identity published on
// the wire.
func (cfg *Config) Identity() (mdns.Identity, error) {
	id := mdns.Identity{
		Instance: cfg.Service.Instance,
		Service:  cfg.Service.Service,
		Protocol: cfg.Service.Protocol,
		Port:     cfg.Service.Port,
		Text:     cfg.Service.Text,
	}

	if cfg.Service.IPv4 != "" {
		addr, err := netip.ParseAddr(cfg.Service.IPv4)
		if err != nil {
			return mdns.Identity{}, fmt.Errorf("config: service.ipv4 %q: %w", cfg.Service.IPv4, err)
		}
		id.IPv4 = addr
	}
	if cfg.Service.IPv6 != "" {
		addr, err := netip.ParseAddr(cfg.Service.IPv6)
		if err != nil {
			return mdns.Identity{}, fmt.Errorf("config: service.ipv6 %q: %w", cfg.Service.IPv6, err)
		}
		id.IPv6 = addr
	}

	if err := id.Validate(); err != nil {
		return mdns.Identity{}, fmt.Errorf("config: %w", err)
	}
	return id, nil
}
