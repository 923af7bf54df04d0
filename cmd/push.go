package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/push"
)

var (
	pushManifest   string
	pushBucket     string
	pushBucketPath string
)

var pushCmd = &cobra.Command{
	Use:   "push <gs|s3|file>",
	Short: "Generate a manifest for --dir and upload the difference to a bucket",
	Long: `Walks --dir, diffs the result against whatever manifest currently
lives at --manifest, and uploads every added or changed object plus a
fresh manifest to --bucket. Objects the local tree no longer has are
deleted from the bucket unconditionally.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scheme := args[0]
		if scheme != "gs" && scheme != "s3" && scheme != "file" {
			return fmt.Errorf("unsupported bucket scheme %q, want gs, s3, or file", scheme)
		}
		if pushManifest == "" {
			return fmt.Errorf("--manifest is required")
		}
		if pushBucket == "" {
			return fmt.Errorf("--bucket is required")
		}

		bucket := scheme + "://" + pushBucket
		bucketPath := strings.Trim(pushBucketPath, "/")

		var result *push.Result
		err := withRenderer("Pushing", -1, func(sink events.Sink) error {
			r, err := push.Run(cmd.Context(), dir, pushManifest, bucket, bucketPath, push.Options{
				IgnoreFile: cfg.Defaults.IgnoreFile,
				Width:      cfg.Defaults.Concurrency,
				Sink:       sink,
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

		for _, p := range result.Uploaded {
			fmt.Printf("uploaded: %s\n", p)
		}
		for _, p := range result.Deleted {
			fmt.Printf("deleted: %s\n", p)
		}
		if len(result.Errors) > 0 {
			return fmt.Errorf("push completed with %d error(s)", len(result.Errors))
		}
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVar(&pushManifest, "manifest", "", "public-facing URL the pushed manifest advertises as its source (required)")
	pushCmd.Flags().StringVar(&pushBucket, "bucket", "", "bucket name to write objects to (required)")
	pushCmd.Flags().StringVar(&pushBucketPath, "bucket-path", "", "key prefix within the bucket")
	rootCmd.AddCommand(pushCmd)
}
