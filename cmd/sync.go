package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/sync"
)

var (
	syncManifest string
	syncForce    bool
	syncValidate bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Bring --dir in line with a remote manifest",
	Long: `Fetches --manifest, fetches every file that's missing or whose digest
doesn't match, and, with --force, deletes local files the manifest
doesn't name. By default the comparison trusts a comstar.json cached by
a prior sync and skips re-hashing files that haven't changed; --validate
forces a full re-hash instead of trusting that local cache.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestURL := syncManifest
		if manifestURL == "" {
			return fmt.Errorf("--manifest is required")
		}

		var result *sync.Result
		err := withRenderer("Syncing", -1, func(sink events.Sink) error {
			r, err := sync.Run(cmd.Context(), manifestURL, dir, sync.Options{
				Force:    syncForce,
				Prune:    syncForce,
				Validate: syncValidate,
				Width:    cfg.Defaults.Concurrency,
				Sink:     sink,
			})
			if err != nil {
				return err
			}
			result = r
			return nil
		})
		if err != nil {
			return err
		}

		for _, p := range result.Fetched {
			fmt.Printf("fetched: %s\n", p)
		}
		for _, p := range result.Deleted {
			fmt.Printf("deleted: %s\n", p)
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("sync completed with %d error(s)", len(result.Errors))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncManifest, "manifest", "", "URL of the manifest to sync against (required)")
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "also delete local files the manifest doesn't name")
	syncCmd.Flags().BoolVar(&syncValidate, "validate", false, "force a full re-hash instead of trusting a cached comstar.json")
	rootCmd.AddCommand(syncCmd)
}
