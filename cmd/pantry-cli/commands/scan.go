package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bibhubhatta/wecare/internal/app"
	"github.com/bibhubhatta/wecare/internal/inventory"
	"github.com/bibhubhatta/wecare/internal/reconcile"

	"github.com/spf13/cobra"
)

// Sentinel ends a scanning session.
const Sentinel = "no more meat"

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Reads UPCs from stdin and adds each one to PantrySoft.",
	Long: fmt.Sprintf(
		"Reads one UPC per line and adds it to PantrySoft from the Shoprite catalog, "+
			"asking for a name when the catalog does not know it. Enter %q to stop.",
		Sentinel,
	),
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		return scan(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.Engine)
	}),
}

type scanner interface {
	AddItem(ctx context.Context, code string, progress reconcile.Progress) (reconcile.Outcome, error)
	AddManual(ctx context.Context, code, name string, progress reconcile.Progress) (reconcile.Outcome, error)
}

func isSentinel(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), Sentinel)
}

// scan runs the scanning loop until the sentinel or the end of input. Errors
// are printed and the loop continues, except for authentication timeouts.
func scan(ctx context.Context, in io.Reader, out io.Writer, engine scanner) error {
	lines := bufio.NewScanner(in)
	progress := func(message string) {
		fmt.Fprintln(out, message)
	}
	prompt := func(text string) (string, bool) {
		fmt.Fprint(out, text)
		if !lines.Scan() {
			return "", false
		}
		return strings.TrimSpace(lines.Text()), true
	}

	for {
		code, ok := prompt("Scan a UPC: ")
		if !ok || isSentinel(code) {
			return lines.Err()
		}
		if code == "" {
			continue
		}

		outcome, err := engine.AddItem(ctx, code, progress)
		if err == nil && outcome.Result == inventory.NotFound {
			var name string
			name, ok = prompt("Enter the item name (leave empty to skip): ")
			if !ok {
				return lines.Err()
			}
			if name == "" {
				fmt.Fprintln(out, "Skipped.")
				continue
			}
			outcome, err = engine.AddManual(ctx, code, name, progress)
		}

		if errors.Is(err, inventory.ErrAuthTimeout) {
			return err
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "%s: %s\n", outcome.Result, code)
	}
}
