package config

import (
	"os"
	"strings"
)

// ServiceConfig describes the one service instance the responder
// advertises.
type ServiceConfig struct {
	// Instance is the instance label, e.g. "hue" in hue._hue._tcp.local.
	// Defaults to the machine's host name.
	Instance string `yaml:"instance"`
	// Service is the service label, e.g. "_hue". A missing leading
	// underscore is added during validation.
	Service string `yaml:"service"`
	// Protocol is "_tcp" or "_udp".
	Protocol string `yaml:"protocol"`
	// Port is the port the advertised service listens on.
	Port uint16 `yaml:"port"`
	// IPv4 and IPv6 are the addresses published in A and AAAA records.
	// Either may be empty; questions for the missing family go
	// unanswered.
	IPv4 string `yaml:"ipv4"`
	IPv6 string `yaml:"ipv6"`
	// Text holds the TXT record entries, usually "key=value".
	Text []string `yaml:"text"`
	// Announce sends an unsolicited reply at startup.
	Announce bool `yaml:"announce"`
	// Interface pins multicast to a named interface. Empty lets the OS
	// choose.
	Interface string `yaml:"interface"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "text" or "json"
	IncludePID bool   `yaml:"include_pid"`
}

// APIConfig contains management API settings.
//
// Note: APIKey is a secret and is never returned by API endpoints.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	APIKey  string `yaml:"api_key"`
}

// StatsConfig controls counter persistence. An empty Path keeps
// counters in memory only.
type StatsConfig struct {
	Path          string `yaml:"path"`
	FlushInterval string `yaml:"flush_interval"` // e.g. "30s"
}

// Config is the root configuration structure.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Logging LoggingConfig `yaml:"logging"`
	API     APIConfig     `yaml:"api"`
	Stats   StatsConfig   `yaml:"stats"`
}

// Default returns the built-in configuration used when no file is
// given.
func Default() Config {
	return Config{
		Service: ServiceConfig{
			Instance: defaultInstance(),
			Service:  "_herald",
			Protocol: "_tcp",
			Port:     8080,
			Announce: true,
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
		},
		Stats: StatsConfig{
			FlushInterval: "30s",
		},
	}
}

func defaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "herald"
	}
	// Strip any DNS suffix; only the first label names the instance.
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return strings.ToLower(host)
}
