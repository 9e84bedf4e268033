package commands

import (
	"fmt"
	"io"

	"github.com/bibhubhatta/wecare/lib/upc"

	"github.com/spf13/cobra"
)

func init() {
	upcCmd.AddCommand(upcCheckCmd)
	rootCmd.AddCommand(upcCmd)
}

var upcCmd = &cobra.Command{
	Use:   "upc",
	Short: "UPC-A utilities.",
}

var upcCheckCmd = &cobra.Command{
	Use:   "check <code>...",
	Short: "Validates the check digit of each code.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if invalid := checkCodes(cmd.OutOrStdout(), args); invalid > 0 {
			return fmt.Errorf("%d of %d codes are invalid", invalid, len(args))
		}
		return nil
	},
}

func checkCodes(out io.Writer, codes []string) (invalid int) {
	for _, code := range codes {
		if upc.IsValid(code) {
			fmt.Fprintf(out, "%s: valid\n", code)
			continue
		}
		invalid++
		if len(code) == upc.Length-1 {
			if digit, ok := upc.CheckDigit(code); ok {
				fmt.Fprintf(out, "%s: invalid, did you mean %s%d?\n", code, code, digit)
				continue
			}
		}
		fmt.Fprintf(out, "%s: invalid\n", code)
	}
	return invalid
}
