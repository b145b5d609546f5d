package api

import (
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/jroosing/herald/internal/mdns"
	"github.com/jroosing/herald/internal/stats"
)

type handler struct {
	logger    *slog.Logger
	id        mdns.Identity
	rec       *stats.Recorder
	store     *stats.Store
	startTime time.Time
}

func (h *handler) health(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Health(); err != nil {
			h.logger.Error("stats store health check failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "stats store unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *handler) status(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)

	resp := StatusResponse{
		Status: "ok",
		Service: ServiceInfo{
			Instance: h.id.InstanceName(),
			Service:  h.id.ServiceName(),
			Hostname: h.id.HostName(),
			Port:     h.id.Port,
			Text:     h.id.Text,
		},
		Runtime: RuntimeInfo{
			Uptime:        uptime.Round(time.Second).String(),
			UptimeSeconds: int64(uptime.Seconds()),
			StartTime:     h.startTime,
			GoRoutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(m.Alloc) / 1024 / 1024,
			NumCPU:        runtime.NumCPU(),
			GoVersion:     runtime.Version(),
		},
		Host: hostInfo(),
	}
	if h.id.IPv4.IsValid() {
		resp.Service.IPv4 = h.id.IPv4.String()
	}
	if h.id.IPv6.IsValid() {
		resp.Service.IPv6 = h.id.IPv6.String()
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.rec.Snapshot())
}

// hostInfo collects machine details, returning nil when the platform
// gives none.
func hostInfo() *HostInfo {
	info, err := host.Info()
	if err != nil || info == nil {
		return nil
	}
	return &HostInfo{
		Hostname:        info.Hostname,
		OS:              info.OS,
		Platform:        info.Platform,
		PlatformVersion: info.PlatformVersion,
		KernelArch:      info.KernelArch,
		UptimeSeconds:   info.Uptime,
	}
}
