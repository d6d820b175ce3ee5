package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"infra-inventory/core/config"
	"infra-inventory/core/logger"
	"infra-inventory/feature/vmsync/models"

	"github.com/spf13/cobra"
)

var syncJSONOutput bool

// syncCmd is the parent command for one-off sync runs.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a one-off inventory sync",
}

// syncVMsCmd runs one manual VM sync and exits non-zero when it fails.
var syncVMsCmd = &cobra.Command{
	Use:   "vms",
	Short: "Sync virtual machines from the discovery service",
	Long: `Runs one manual VM sync against the configured hypervisor endpoint and prints the result.

Examples:
  # Human readable summary
  sync vms

  # Raw trigger result
  sync vms --json`,
	RunE: runSyncVMs,
}

func init() {
	syncVMsCmd.Flags().BoolVar(&syncJSONOutput, "json", false, "Print the trigger result as JSON")
	syncCmd.AddCommand(syncVMsCmd)
	RootCmd.AddCommand(syncCmd)
}

func runSyncVMs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Sync()

	rt, err := newRuntime(ctx, cfg, logg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rt.close(closeCtx)
	}()

	result := rt.orchestrator.TriggerManual(ctx)

	if syncJSONOutput {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		fmt.Println(string(data))
	} else {
		printTriggerResult(result)
	}

	if !result.Success {
		return fmt.Errorf("vm sync failed: %s", result.Message)
	}
	return nil
}

func printTriggerResult(result models.TriggerResult) {
	fmt.Println("\n=== VM Sync ===")
	fmt.Printf("Success: %t\n", result.Success)
	fmt.Printf("Message: %s\n", result.Message)
	if result.DurationSeconds != nil {
		fmt.Printf("Duration: %.2fs\n", *result.DurationSeconds)
	}
	if len(result.Errors) == 0 {
		return
	}
	fmt.Printf("\nErrors (%d):\n", len(result.Errors))
	for _, e := range result.Errors {
		fmt.Printf("  - %s: %s\n", e.RecordName, e.ErrorMessage)
	}
}
