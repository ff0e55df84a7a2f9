// cmd/web/main.go
//
// Research gateway HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Parse flags (--env-file, --config-file, --check).
//
//  2. Attach Vault when VAULT_ADDR is set, so `vault:` references resolve.
//
//  3. Resolve settings once through the process-wide cache.  --check stops
//     here and prints the outcome.
//
//  4. Start the logger (JSON to LOG_DIR, tees to console in a TTY).
//
//  5. Open PostgreSQL, Redis, S3, and GeoIP via server.App.
//
//  6. Serve until SIGINT or SIGTERM, then drain and close.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/yanizio/research-gateway/internal/config"
	"github.com/yanizio/research-gateway/internal/identity"
	"github.com/yanizio/research-gateway/internal/logger"
	"github.com/yanizio/research-gateway/internal/metrics"
	"github.com/yanizio/research-gateway/internal/server"
	"github.com/yanizio/research-gateway/internal/vault"
)

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	app := kingpin.New("research-gateway", "Research Platform API gateway")
	envFile := app.Flag("env-file", "Path to a dotenv file; missing files are ignored").Default(".env").String()
	configFile := app.Flag("config-file", "Optional YAML settings file").String()
	check := app.Flag("check", "Resolve and validate settings, then exit").Bool()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []config.Option{config.WithEnvFile(*envFile)}
	if *configFile != "" {
		opts = append(opts, config.WithYAMLFile(*configFile))
	}
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "vault: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, config.WithSecretResolver(vc))
	}
	if err := config.Configure(opts...); err != nil {
		fmt.Fprintf(os.Stderr, "configure: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Get()
	metrics.ObserveConfig(err)
	if *check {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println("ok")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "settings: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Options{
		Level: cfg.Runtime.LogLevel,
		Dir:   cfg.Runtime.LogDir.Or(""),
		Tee:   runningInTTY(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "start logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log.Infow("settings resolved", cfg.LogFields()...)

	gw := server.NewApp(cfg, log)
	if err := gw.Startup(ctx); err != nil {
		log.Fatalw("startup failed", "err", err)
	}

	h, err := gw.Handler(identity.New(ctx, cfg.Keycloak), nil)
	if err != nil {
		_ = gw.Shutdown(context.Background())
		log.Fatalw("build router", "err", err)
	}

	serveErr := gw.ListenAndServe(ctx, h)
	if err := gw.Shutdown(context.Background()); err != nil {
		log.Errorw("shutdown", "err", err)
	}
	if serveErr != nil {
		log.Fatalw("http server", "err", serveErr)
	}
}
