package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/persistorai/vitiapi/client"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server, readiness and auth",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor(ctx context.Context) error {
	fmt.Println("\nvitiapi doctor")
	fmt.Println("==============")

	results := doctorChecks(ctx)

	fmt.Println()
	allPassed := true
	for _, r := range results {
		mark := "ok  "
		if !r.Passed {
			mark = "FAIL"
			allPassed = false
		}
		if r.Detail != "" {
			fmt.Printf("[%s] %s: %s\n", mark, r.Name, r.Detail)
		} else {
			fmt.Printf("[%s] %s\n", mark, r.Name)
		}
		if !r.Passed && r.Hint != "" {
			fmt.Printf("       Hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if !allPassed {
		fmt.Println("Some checks failed.")
		return fmt.Errorf("doctor found issues")
	}
	fmt.Println("All checks passed.")
	return nil
}

func doctorChecks(ctx context.Context) []checkResult {
	var results []checkResult

	cfgPath, cfg, cfgErr := loadConfigFile()
	if cfgErr != nil {
		results = append(results, checkResult{
			Name: "Config file", Detail: cfgPath,
			Hint: "Run: vitiapi-cli login --email you@example.com --save",
		})
	} else {
		results = append(results, checkResult{Name: "Config file", Passed: true, Detail: cfgPath})
	}

	url, apiKey := resolveSettings(flagURL, flagKey, cfg)
	results = append(results, checkResult{Name: "Server URL", Passed: true, Detail: url})

	c := client.New(url, client.WithAPIKey(apiKey), client.WithTimeout(5*time.Second))

	h, err := c.Health(ctx)
	if err != nil {
		return append(results, checkResult{
			Name: "Server reachable", Detail: url,
			Hint: fmt.Sprintf("Is vitiapi running? Error: %v", err),
		})
	}
	results = append(results, checkResult{
		Name: "Server reachable", Passed: true,
		Detail: fmt.Sprintf("v%s, database %s, schema %d", h.Version, h.Database, h.SchemaVersion),
	})

	if _, err := c.Ready(ctx); err != nil {
		results = append(results, checkResult{
			Name: "Server ready",
			Hint: fmt.Sprintf("Startup ingestion may still be running or the database is down. Error: %v", err),
		})
	} else {
		results = append(results, checkResult{Name: "Server ready", Passed: true})
	}

	if apiKey == "" {
		return append(results, checkResult{
			Name: "API key",
			Hint: "Set --api-key, " + envAPIKey + ", or run vitiapi-cli login --save",
		})
	}

	u, err := c.Accounts.Me(ctx)
	if err != nil {
		hint := fmt.Sprintf("Error: %v", err)
		if client.IsUnauthorized(err) {
			hint = "The key is invalid or was rotated by a later login. Run vitiapi-cli login --save"
		}
		return append(results, checkResult{Name: "Authentication", Hint: hint})
	}
	return append(results, checkResult{Name: "Authentication", Passed: true, Detail: u.Username})
}
