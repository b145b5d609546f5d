package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestResolveConfigPath(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		envValue string
		want     string
	}{
		{"flag takes precedence", "/path/from/flag", "/path/from/env", "/path/from/flag"},
		{"env when no flag", "", "/path/from/env", "/path/from/env"},
		{"empty when neither", "", "", ""},
		{"whitespace flag", "  ", "/path/from/env", "/path/from/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HERALD_CONFIG", tt.envValue)
			got := ResolveConfigPath(tt.flag)
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service.Instance == "" {
		t.Error("expected a default instance name")
	}
	if cfg.Service.Service != "_herald" {
		t.Errorf("expected service _herald, got %s", cfg.Service.Service)
	}
	if cfg.Service.Protocol != "_tcp" {
		t.Errorf("expected protocol _tcp, got %s", cfg.Service.Protocol)
	}
	if cfg.Service.Port != 8080 {
		t.Errorf("expected port 8080, got %d", cfg.Service.Port)
	}
	if !cfg.Service.Announce {
		t.Error("expected Announce true")
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected log level INFO, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected log format text, got %s", cfg.Logging.Format)
	}
	if cfg.API.Enabled {
		t.Error("expected API disabled by default")
	}
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("expected API host 0.0.0.0, got %s", cfg.API.Host)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
service:
  instance: "hue"
  service: "_hue"
  protocol: "_tcp"
  port: 80
  ipv4: "192.168.1.20"
  ipv6: "fd00::20"
  text:
    - "md=bridge"
    - "path=/api"
  announce: false
  interface: "eth0"

logging:
  level: "debug"
  format: "json"

api:
  enabled: true
  host: "127.0.0.1"
  port: 9090
  api_key: "secret"

stats:
  path: "/var/lib/herald/stats.db"
  flush_interval: "10s"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.Instance != "hue" {
		t.Errorf("expected instance hue, got %s", cfg.Service.Instance)
	}
	if cfg.Service.Service != "_hue" {
		t.Errorf("expected service _hue, got %s", cfg.Service.Service)
	}
	if cfg.Service.Port != 80 {
		t.Errorf("expected port 80, got %d", cfg.Service.Port)
	}
	if len(cfg.Service.Text) != 2 {
		t.Errorf("expected 2 text entries, got %d", len(cfg.Service.Text))
	}
	if cfg.Service.Announce {
		t.Error("expected Announce false")
	}
	if cfg.Service.Interface != "eth0" {
		t.Errorf("expected interface eth0, got %s", cfg.Service.Interface)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected log format json, got %s", cfg.Logging.Format)
	}
	if !cfg.API.Enabled || cfg.API.Host != "127.0.0.1" || cfg.API.Port != 9090 {
		t.Errorf("unexpected api config: %+v", cfg.API)
	}
	if cfg.Stats.Path != "/var/lib/herald/stats.db" {
		t.Errorf("unexpected stats path %s", cfg.Stats.Path)
	}
	if d, err := cfg.FlushEvery(); err != nil || d != 10*time.Second {
		t.Errorf("expected flush interval 10s, got %v (%v)", d, err)
	}
}

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path/to/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("service:\n  port: [invalid"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestValidateAddsServiceUnderscores(t *testing.T) {
	cfg := Default()
	cfg.Service.Service = "hue"
	cfg.Service.Protocol = "tcp"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service.Service != "_hue" {
		t.Errorf("expected _hue, got %s", cfg.Service.Service)
	}
	if cfg.Service.Protocol != "_tcp" {
		t.Errorf("expected _tcp, got %s", cfg.Service.Protocol)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"empty instance", func(cfg *Config) { cfg.Service.Instance = "" }},
		{"empty service", func(cfg *Config) { cfg.Service.Service = "" }},
		{"bad protocol", func(cfg *Config) { cfg.Service.Protocol = "_icmp" }},
		{"zero port", func(cfg *Config) { cfg.Service.Port = 0 }},
		{"bad ipv4", func(cfg *Config) { cfg.Service.IPv4 = "not-an-ip" }},
		{"ipv6 in ipv4 slot", func(cfg *Config) { cfg.Service.IPv4 = "fd00::20" }},
		{"ipv4 in ipv6 slot", func(cfg *Config) { cfg.Service.IPv6 = "192.168.1.20" }},
		{"oversized txt entry", func(cfg *Config) { cfg.Service.Text = []string{string(make([]byte, 256))} }},
		{"bad flush interval", func(cfg *Config) { cfg.Stats.FlushInterval = "soon" }},
		{"api enabled without port", func(cfg *Config) { cfg.API.Enabled = true; cfg.API.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HERALD_INSTANCE", "bridge")
	t.Setenv("HERALD_SERVICE", "_hue")
	t.Setenv("HERALD_PORT", "8443")
	t.Setenv("HERALD_IPV4", "192.168.1.40")
	t.Setenv("HERALD_TEXT", "md=bridge, path=/api")
	t.Setenv("HERALD_ANNOUNCE", "no")
	t.Setenv("HERALD_API_ENABLED", "true")
	t.Setenv("HERALD_API_PORT", "7000")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Service.Instance != "bridge" {
		t.Errorf("expected instance bridge, got %s", cfg.Service.Instance)
	}
	if cfg.Service.Service != "_hue" {
		t.Errorf("expected service _hue, got %s", cfg.Service.Service)
	}
	if cfg.Service.Port != 8443 {
		t.Errorf("expected port 8443, got %d", cfg.Service.Port)
	}
	if cfg.Service.IPv4 != "192.168.1.40" {
		t.Errorf("expected ipv4 override, got %s", cfg.Service.IPv4)
	}
	if len(cfg.Service.Text) != 2 || cfg.Service.Text[0] != "md=bridge" || cfg.Service.Text[1] != "path=/api" {
		t.Errorf("unexpected text entries: %v", cfg.Service.Text)
	}
	if cfg.Service.Announce {
		t.Error("expected Announce false")
	}
	if !cfg.API.Enabled || cfg.API.Port != 7000 {
		t.Errorf("unexpected api config: %+v", cfg.API)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %s", cfg.Logging.Level)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"true", false, true},
		{"yes", false, true},
		{"y", false, true},
		{"on", false, true},
		{"TRUE", false, true},
		{"0", true, false},
		{"false", true, false},
		{"no", true, false},
		{"n", true, false},
		{"off", true, false},
		{"FALSE", true, false},
		{"invalid", true, true},
		{"invalid", false, false},
		{"", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := envBool(tt.raw, tt.def)
			if got != tt.want {
				t.Errorf("envBool(%q, %v) = %v, want %v", tt.raw, tt.def, got, tt.want)
			}
		})
	}
}

func TestIdentityConversion(t *testing.T) {
	cfg := Default()
	cfg.Service.Instance = "hue"
	cfg.Service.Service = "_hue"
	cfg.Service.Port = 80
	cfg.Service.IPv4 = "192.168.1.20"
	cfg.Service.IPv6 = "fd00::20"
	cfg.Service.Text = []string{"md=bridge"}

	id, err := cfg.Identity()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id.InstanceName() != "hue._hue._tcp.local" {
		t.Errorf("unexpected instance name %s", id.InstanceName())
	}
	if id.IPv4.String() != "192.168.1.20" {
		t.Errorf("unexpected ipv4 %s", id.IPv4)
	}
	if id.IPv6.String() != "fd00::20" {
		t.Errorf("unexpected ipv6 %s", id.IPv6)
	}
	if id.Port != 80 {
		t.Errorf("unexpected port %d", id.Port)
	}
}
