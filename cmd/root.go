package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/lancealx/nanocli/internal/auth"
	"github.com/lancealx/nanocli/internal/nano"
)

// Set at release time via ldflags.
var version = "dev"

var metadata = struct {
	Version string
}{Version: version}

var rootCmd = &cobra.Command{
	Use:   "nanocli",
	Short: "Loan summaries and pipeline views for the Nano LOS",
	Long: `nanocli augments the Nano loan-origination system from the terminal:
computed loan summaries, a live card that follows your browsing session,
and a pipeline grid with derived status ordering.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		bindEnvOverrides(cmd.Flags())
	},
}

func init() {
	rootCmd.PersistentFlags().String("base-url", "", "Nano API base URL (defaults to NANO_BASE_URL or production)")
	rootCmd.PersistentFlags().String("session-file", "", "Path to the exported session file (defaults to NANO_SESSION_FILE)")
}

// bindEnvOverrides lets NANO_* environment variables stand in for flags the
// user did not pass: --base-url falls back to NANO_BASE_URL and so on.
func bindEnvOverrides(flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		env := "NANO_" + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v, ok := os.LookupEnv(env); ok {
			_ = flags.Set(f.Name, v)
		}
	})
}

// Execute runs the root command. Called from main.
func Execute() {
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := fang.Execute(ctx, rootCmd, fang.WithVersion(metadata.Version)); err != nil {
		os.Exit(1)
	}
}

func getBaseURL(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("base-url"); strings.TrimSpace(u) != "" {
		return strings.TrimRight(u, "/")
	}
	return nano.DefaultBaseURL
}

func getSessionFile(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("session-file"); strings.TrimSpace(p) != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "session.json"
	}
	return filepath.Join(home, ".nanocli", "session.json")
}

func getStateFile(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("state-file"); strings.TrimSpace(p) != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "state"
	}
	return filepath.Join(home, ".nanocli", "state")
}

func getAppURL() string {
	if u := os.Getenv("NANO_APP_URL"); strings.TrimSpace(u) != "" {
		return strings.TrimRight(u, "/")
	}
	return "https://app.nanolos.com"
}

func getAuthSource(cmd *cobra.Command) auth.Source {
	return auth.Source{
		SessionFile: getSessionFile(cmd),
		Interval:    time.Second,
	}
}

// getNanoClient builds the API client used by every networked command.
func getNanoClient(cmd *cobra.Command) *nano.Client {
	provider := &auth.Provider{Source: getAuthSource(cmd)}
	return nano.New(getBaseURL(cmd), provider)
}

// PrintTableNoPad renders tabular command output with a header row and no
// row separators.
func PrintTableNoPad(data pterm.TableData, hasHeader bool) {
	t := pterm.DefaultTable.WithData(data).WithBoxed(false)
	if hasHeader {
		t = t.WithHasHeader()
	}
	if err := t.Render(); err != nil {
		pterm.Error.Printf("failed to render table: %v\n", err)
	}
}
