package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bibhubhatta/wecare/internal/app"
	"github.com/bibhubhatta/wecare/internal/config"
	"github.com/bibhubhatta/wecare/lib/restyutil"
	"github.com/bibhubhatta/wecare/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpHttp   string
)

var rootCmd = &cobra.Command{
	Use:           "pantry-cli",
	Short:         "pantry-cli reconciles scanned items against PantrySoft and the Shoprite catalog.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)
		return telemetry.SetupFromEnv(cmd.Context(), "pantry-cli")
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return telemetry.Shutdown(context.Background())
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.DefaultPath, "Path to the json5 config file.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging.")
	flags.StringVar(&dumpHttp, "dump-http", "", "Write every http exchange into this directory.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads the config and builds every component, the caller must
// close the result.
func openApp(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var opts app.Options
	if dumpHttp != "" {
		pantryOutput, err := restyutil.NewFilesystemOutput(filepath.Join(dumpHttp, "pantrysoft"))
		if err != nil {
			return nil, err
		}
		catalogOutput, err := restyutil.NewFilesystemOutput(filepath.Join(dumpHttp, "catalog"))
		if err != nil {
			return nil, err
		}
		opts.PantryOutput = pantryOutput
		opts.CatalogOutput = catalogOutput
	}

	return app.Open(cmd.Context(), cfg, telemetry.SlogAPI{}, opts)
}

// withApp adapts a command body that needs the application.
func withApp(run func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}
