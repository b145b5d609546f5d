package api

import "time"

// HealthResponse is returned by GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServiceInfo describes the advertised service instance.
type ServiceInfo struct {
	Instance string   `json:"instance"`
	Service  string   `json:"service"`
	Hostname string   `json:"hostname"`
	Port     uint16   `json:"port"`
	IPv4     string   `json:"ipv4,omitempty"`
	IPv6     string   `json:"ipv6,omitempty"`
	Text     []string `json:"text,omitempty"`
}

// RuntimeInfo carries process-level runtime figures.
type RuntimeInfo struct {
	Uptime        string    `json:"uptime"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	StartTime     time.Time `json:"start_time"`
	GoRoutines    int       `json:"goroutines"`
	MemoryAllocMB float64   `json:"memory_alloc_mb"`
	NumCPU        int       `json:"num_cpu"`
	GoVersion     string    `json:"go_version"`
}

// HostInfo carries machine-level figures, filled best effort.
type HostInfo struct {
	Hostname        string `json:"hostname"`
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelArch      string `json:"kernel_arch,omitempty"`
	UptimeSeconds   uint64 `json:"uptime_seconds"`
}

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Status  string      `json:"status"`
	Service ServiceInfo `json:"service"`
	Runtime RuntimeInfo `json:"runtime"`
	Host    *HostInfo   `json:"host,omitempty"`
}
