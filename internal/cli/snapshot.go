package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/poolworks/swapd/internal/config"
	"github.com/poolworks/swapd/internal/storage/snapshot"
)

// snapshotCmd groups the offline snapshot operations. The server must be
// stopped: both subcommands open the state store directly.
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import a state snapshot",
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the full state store to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}

		db, err := openStateStore(&cfg.Store)
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
		defer db.Close()

		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := snapshot.Export(cmd.Context(), db, f, cfg.Snapshot.Compressor); err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		if !quiet {
			fmt.Printf("Exported state to %s (%s)\n", args[0], cfg.Snapshot.Compressor)
		}
		return nil
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a snapshot file into an empty state store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			return err
		}

		db, err := openStateStore(&cfg.Store)
		if err != nil {
			return fmt.Errorf("failed to open state store: %w", err)
		}
		defer db.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		if err := snapshot.Import(cmd.Context(), db, f); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		if !quiet {
			fmt.Printf("Imported state from %s\n", args[0])
		}
		return nil
	},
}

func init() {
	snapshotCmd.AddCommand(snapshotExportCmd)
	snapshotCmd.AddCommand(snapshotImportCmd)
	rootCmd.AddCommand(snapshotCmd)
}
