package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/persistorai/vitiapi/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.3.0"
	commit    = ""
	buildDate = ""
)

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("vitiapi-cli version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("vitiapi-cli version %s-dev", version)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "vitiapi-cli",
		Short:   "Query Brazilian viticulture statistics from a vitiapi server",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			opts := []client.Option{client.WithUserAgent("vitiapi-cli/" + version)}
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "vitiapi server URL (env: "+envURL+")")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: "+envAPIKey+")")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // resolves settings itself

	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
