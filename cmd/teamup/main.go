package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"teamup/internal/api"
	"teamup/internal/config"
	appLog "teamup/internal/log"
	"teamup/internal/session"
	"teamup/internal/web"
)

const version = "0.1.0"

type flagConfig struct {
	configPath string
	listen     string
	apiBaseURL string
	debug      bool
}

func main() {
	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.apiBaseURL != "" {
		conf.APIBaseURL = flags.apiBaseURL
	}

	level := appLog.ParseLevel(conf.LogLevel)
	if flags.debug {
		level = appLog.LevelDebug
	}
	appLog.SetLevel(level)

	appLog.Info("teamup starting", "version", version)
	appLog.Info("effective config",
		"listen", conf.Listen,
		"api_base_url", conf.APIBaseURL,
		"timezone", conf.Timezone,
		"request_timeout_seconds", conf.RequestTimeoutSeconds,
		"state_path", conf.StatePath,
		"sweep", conf.Sweep,
		"draft_ttl_minutes", conf.DraftTTLMinutes,
		"basic_auth", conf.BasicAuth.Enabled(),
	)

	client := api.NewClient(conf.APIBaseURL, conf.RequestTimeout())
	store, err := session.Open(conf.StatePath, client)
	if err != nil {
		appLog.Error("failed to open session store", err, "state_path", conf.StatePath)
		os.Exit(1)
	}

	srv, err := web.NewServer(conf, store, flags.debug)
	if err != nil {
		appLog.Error("failed to build web server", err)
		os.Exit(1)
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := srv.StartSweeper(ctx); err != nil {
		appLog.Error("invalid sweep schedule", err, "sweep", conf.Sweep)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}
	appLog.Info("teamup exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/teamup/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.StringVar(&cfg.apiBaseURL, "api", "", "TeamUp REST API base URL (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}
