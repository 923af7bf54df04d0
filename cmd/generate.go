package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/generate"
	"github.com/bsundsrud/comstar/internal/manifest"
)

var generateTarget string

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a comstar.json manifest for a directory",
	Long: `Walks --dir, hashes every file it finds, and writes a comstar.json
manifest describing the tree, advertising --target as the manifest's
source; each entry's source URL is --target joined with its path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if generateTarget == "" {
			generateTarget = "file://" + dir + "/"
		}

		var m *manifest.Manifest
		err := withRenderer("Generating manifest", -1, func(sink events.Sink) error {
			result, err := generate.Run(cmd.Context(), dir, generateTarget, generate.Options{
				IgnoreFile: cfg.Defaults.IgnoreFile,
				Width:      cfg.Defaults.Concurrency,
				Sink:       sink,
			})
			if err != nil {
				return err
			}
			m = result
			return nil
		})
		if err != nil {
			return err
		}

		return m.Save(filepath.Join(dir, manifest.FileName))
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateTarget, "target", "", "base URL entries resolve against (default: file://<dir>/)")
	rootCmd.AddCommand(generateCmd)
}
