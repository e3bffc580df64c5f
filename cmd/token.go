package cmd

import (
	"context"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lancealx/nanocli/pkg/util"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show the current session token",
	Long: `Wait for a valid session token from the exported session file, cache it
in the OS keyring and print it. The token is masked unless --full is given.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Duration("timeout", 30*time.Second, "How long to wait for a valid token (0 waits forever)")
	tokenCmd.Flags().Bool("full", false, "Print the full token instead of a masked prefix")
}

func runToken(cmd *cobra.Command, args []string) error {
	timeout, _ := cmd.Flags().GetDuration("timeout")
	full, _ := cmd.Flags().GetBool("full")

	ctx := cmd.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tok, err := getAuthSource(cmd).Acquire(ctx)
	if err != nil {
		return err
	}

	value := maskToken(tok.Value)
	if full {
		value = tok.Value
	}

	pterm.Success.Println("Session token acquired")
	rows := pterm.TableData{{"Property", "Value"}}
	rows = append(rows, []string{"Token", value})
	rows = append(rows, []string{"Expires", util.FormatLocal(tok.ExpiresAt)})
	PrintTableNoPad(rows, true)
	return nil
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:12] + "..."
}
