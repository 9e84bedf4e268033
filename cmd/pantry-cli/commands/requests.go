package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/bibhubhatta/wecare/internal/app"
	"github.com/bibhubhatta/wecare/internal/config"
	"github.com/bibhubhatta/wecare/internal/httpapi"
	"github.com/bibhubhatta/wecare/internal/requests"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listUPC    string
	listLimit  uint64

	tokenSubject string
	tokenTTL     time.Duration
)

func init() {
	flags := requestsListCmd.Flags()
	flags.StringVar(&listStatus, "status", "", "Only show pending, succeeded or failed requests.")
	flags.StringVar(&listUPC, "upc", "", "Only show requests for this UPC.")
	flags.Uint64Var(&listLimit, "limit", 50, "Maximum number of requests to show.")
	requestsCmd.AddCommand(requestsListCmd)

	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "scanner", "Subject of the token.")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 30*24*time.Hour, "Lifetime of the token.")
	tokenCmd.AddCommand(tokenIssueCmd)

	rootCmd.AddCommand(requestsCmd, tokenCmd)
}

func status(success *bool) string {
	switch {
	case success == nil:
		return "pending"
	case *success:
		return "succeeded"
	}
	return "failed"
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Inspects the add requests queued for the worker.",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists add requests, newest first.",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		list, err := a.Requests.List(cmd.Context(), requests.Filter{
			Status: requests.Status(listStatus),
			UPC:    listUPC,
			Limit:  listLimit,
		})
		if err != nil {
			return err
		}
		t := newTable("ID", "UPC", "Name", "Created", "Status", "Message")
		for _, r := range list {
			t.AppendRow(table.Row{
				r.ID,
				r.UPC,
				r.ItemName,
				r.CreatedAt.Local().Format(time.DateTime),
				status(r.Success),
				strings.TrimSpace(r.Message),
			})
		}
		t.Render()
		return nil
	}),
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manages bearer tokens for the http api.",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issues a bearer token signed with the configured secret.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(configPath)
		if err != nil {
			return err
		}
		token, err := httpapi.IssueToken([]byte(cfg.Http.JwtSecret), tokenSubject, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
