package cmd

import (
	"fmt"

	"github.com/pkg/browser"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open [loan-id]",
	Short: "Open a loan in the Nano web app",
	Long:  "Open the Nano web app in your browser, at a specific loan when an ID is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	url := getAppURL()
	if len(args) == 1 {
		url = fmt.Sprintf("%s/loans/%s", url, args[0])
	}

	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	pterm.Success.Printf("Opened %s\n", url)
	return nil
}
