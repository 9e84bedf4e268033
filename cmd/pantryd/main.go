package main

import (
	"flag"
	"log/slog"

	"github.com/bibhubhatta/wecare/internal/app"
	"github.com/bibhubhatta/wecare/internal/config"
	"github.com/bibhubhatta/wecare/internal/httpapi"
	"github.com/bibhubhatta/wecare/internal/worker"
	"github.com/bibhubhatta/wecare/lib/serviceutil"
	"github.com/bibhubhatta/wecare/lib/telemetry"

	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to the json5 config file.")
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	opts := InitTelemetry(ctx, *verbose, cfg.Telemetry)
	tel := telemetry.SlogAPI{}

	a, err := app.Open(ctx, cfg, tel, opts)
	if err != nil {
		serviceutil.Fatal("open app", err)
	}
	defer a.Close()

	w := worker.New(a.Requests, a.Engine, a.Alerter, tel, worker.Options{
		PollInterval: cfg.Worker.PollInterval(),
	})
	server := httpapi.New(a.Requests, httpapi.Options{
		AllowedOrigins: cfg.Http.AllowedOrigins,
		JwtSecret:      []byte(cfg.Http.JwtSecret),
	}, tel)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return w.Run(ctx)
	})
	group.Go(func() error {
		return serviceutil.StartHttpServer(ctx, cfg.Http.Addr, server.Handler())
	})

	slog.InfoContext(ctx, "pantryd started", "addr", cfg.Http.Addr)
	err = group.Wait()
	if err != nil {
		a.Close()
		serviceutil.Fatal("pantryd stopped", err)
	}
}
