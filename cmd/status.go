package cmd

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/lancealx/nanocli/internal/auth"
	"github.com/lancealx/nanocli/pkg/util"
)

type statusReport struct {
	Host         string `json:"host"`
	Reachable    bool   `json:"reachable"`
	SessionFile  string `json:"session_file"`
	SessionValid bool   `json:"session_valid"`
	TokenExpires string `json:"token_expires,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check Nano API reachability and session health",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringP("output", "o", "", "Output format (json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	report := statusReport{
		Host:        getBaseURL(cmd),
		SessionFile: getSessionFile(cmd),
	}

	// any HTTP response counts as reachable; an unauthenticated request
	// is expected to come back 401
	client := &http.Client{Timeout: 10 * time.Second}
	if resp, err := client.Get(report.Host + "/nano/users"); err == nil {
		resp.Body.Close()
		report.Reachable = true
	}

	if data, err := os.ReadFile(report.SessionFile); err == nil {
		if tok, err := auth.ParseSession(data); err == nil {
			report.SessionValid = tok.Valid(time.Now())
			if !tok.ExpiresAt.IsZero() {
				report.TokenExpires = util.FormatLocal(tok.ExpiresAt)
			}
		}
	}

	if output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printStatusReport(report)
	return nil
}

var (
	dotGood = pterm.NewRGB(31, 163, 130)
	dotBad  = pterm.NewRGB(239, 68, 68)
)

func coloredDot(ok bool) string {
	if ok {
		return dotGood.Sprint("●")
	}
	return dotBad.Sprint("●")
}

func printStatusReport(r statusReport) {
	pterm.Println()
	pterm.Println("  " + pterm.Bold.Sprint("Nano Status"))
	pterm.Println()

	reach := "Unreachable"
	if r.Reachable {
		reach = "Reachable"
	}
	pterm.Printf("  %s %-20s %s\n", coloredDot(r.Reachable), "API Host", reach+" ("+r.Host+")")

	session := "No valid token"
	if r.SessionValid {
		session = "Valid until " + r.TokenExpires
	}
	pterm.Printf("  %s %-20s %s\n", coloredDot(r.SessionValid), "Session", session)
	pterm.Println()
}
