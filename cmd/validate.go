package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/manifest"
	"github.com/bsundsrud/comstar/internal/validate"
)

var (
	validateManifest string
	validateForce    bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compare a remote manifest against --dir and report drift",
	Long: `Fetches --manifest and compares every entry against --dir, reporting
anything missing or whose digest no longer matches. --force additionally
walks --dir for files the manifest doesn't name.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manifestURL := validateManifest
		if manifestURL == "" {
			manifestURL = "file://" + dir + "/" + manifest.FileName
		}

		var report *validate.Report
		err := withRenderer("Validating", -1, func(sink events.Sink) error {
			r, err := validate.Run(cmd.Context(), manifestURL, dir, validateForce, sink)
			if err != nil {
				return err
			}
			report = r
			return nil
		})
		if err != nil {
			return err
		}

		for _, d := range report.Missing {
			fmt.Printf("missing:    %s\n", d.Path)
		}
		for _, d := range report.Mismatched {
			fmt.Printf("mismatched: %s\n", d.Path)
		}
		for _, d := range report.Unknown {
			fmt.Printf("unknown:    %s\n", d.Path)
		}

		return report.Err()
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateManifest, "manifest", "", "URL of the manifest to validate against (default: --dir/comstar.json)")
	validateCmd.Flags().BoolVar(&validateForce, "force", false, "also report local files the manifest doesn't name")
	rootCmd.AddCommand(validateCmd)
}
