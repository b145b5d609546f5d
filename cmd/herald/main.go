package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jroosing/herald/internal/config"
	"github.com/jroosing/herald/internal/logging"
	"github.com/jroosing/herald/internal/server"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML configuration file (or set HERALD_CONFIG)")
		instance   = flag.String("instance", "", "Override the advertised instance name")
		port       = flag.Int("port", 0, "Override the advertised service port")
		iface      = flag.String("interface", "", "Override the multicast interface")
		noAnnounce = flag.Bool("no-announce", false, "Skip the startup announcement")
		jsonLogs   = flag.Bool("json-logs", false, "Enable JSON structured logging")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(config.ResolveConfigPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *instance != "" {
		cfg.Service.Instance = *instance
	}
	if *port > 0 && *port <= 65535 {
		cfg.Service.Port = uint16(*port)
	}
	if *iface != "" {
		cfg.Service.Interface = *iface
	}
	if *noAnnounce {
		cfg.Service.Announce = false
	}
	if *jsonLogs {
		cfg.Logging.Format = "json"
	}
	if *debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger := logging.Configure(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		IncludePID: cfg.Logging.IncludePID,
	})
	logger.Info("herald starting",
		"instance", cfg.Service.Instance,
		"service", cfg.Service.Service,
		"protocol", cfg.Service.Protocol,
		"port", cfg.Service.Port,
		"api", cfg.API.Enabled,
	)

	runner := server.NewRunner(logger)
	if err := runner.Run(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "responder exited with error: %v\n", err)
		os.Exit(1)
	}
}
