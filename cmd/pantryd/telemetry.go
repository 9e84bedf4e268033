package main

import (
	"context"
	"log/slog"

	"github.com/bibhubhatta/wecare/internal/app"
	"github.com/bibhubhatta/wecare/lib/restyutil"
	"github.com/bibhubhatta/wecare/lib/serviceutil"
	"github.com/bibhubhatta/wecare/lib/telemetry"
)

func InitTelemetry(ctx context.Context, verbose bool, config telemetry.Config) app.Options {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	var err error
	if config.Enabled() {
		err = telemetry.Setup(ctx, "pantryd", config)
	} else {
		err = telemetry.SetupFromEnv(ctx, "pantryd")
	}
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return app.Options{}
	}

	pantryOutput, err := restyutil.NewFilesystemOutput(".dev/resty/pantrysoft")
	if err != nil {
		serviceutil.Fatal("create resty output", err)
	}
	catalogOutput, err := restyutil.NewFilesystemOutput(".dev/resty/catalog")
	if err != nil {
		serviceutil.Fatal("create resty output", err)
	}
	return app.Options{
		PantryOutput:  pantryOutput,
		CatalogOutput: catalogOutput,
	}
}
