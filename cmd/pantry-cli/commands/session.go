package commands

import (
	"fmt"
	"time"

	"github.com/bibhubhatta/wecare/internal/app"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs into PantrySoft and stores the session cookie.",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		cred, err := a.Sessions.Login(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("logged in, session valid until %s\n", time.Unix(cred.Expiry, 0).Format(time.RFC1123))
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forgets the stored PantrySoft session.",
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app.App) error {
		err := a.Sessions.Invalidate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	}),
}
