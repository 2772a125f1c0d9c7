package cmd

import (
	"fmt"

	"github.com/theirongolddev/kcal/internal/config"
	"github.com/theirongolddev/kcal/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Default goal: %d\n", cfg.General.DefaultGoal)
	fmt.Println()

	backend, dir := resolveStorage(cfg)
	fmt.Println("  [Storage]")
	fmt.Printf("    Backend:  %s\n", backend)
	if backend == store.BackendMemory {
		fmt.Println("    Database: none (nothing is saved)")
	} else {
		fmt.Printf("    Database: %s\n", store.PathFor(backend, dir))
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  Run `kcal setup` to reconfigure.")
	return nil
}
