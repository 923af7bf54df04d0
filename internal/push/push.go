// Package push implements the push command: generate a fresh local
// manifest, diff it against whatever the bucket currently advertises,
// and upload the difference — unconditionally deleting objects the
// local tree no longer has, matching the original implementation's
// push_dir.
package push

import (
	"context"
	"path/filepath"

	"github.com/bsundsrud/comstar/internal/diff"
	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/generate"
	"github.com/bsundsrud/comstar/internal/manifest"
	"github.com/bsundsrud/comstar/internal/pipeline"
	"github.com/bsundsrud/comstar/internal/transport"
)

// Options controls a push run.
type Options struct {
	IgnoreFile string
	Width      int
	Sink       events.Sink
}

// Result summarizes what a push run did.
type Result struct {
	Uploaded []string
	Deleted  []string
	Errors   []error
}

// Run generates a manifest for root advertising manifestURL as its
// source, fetches whatever manifest currently lives at manifestURL
// (its absence is not fatal — nothing there yet means "upload
// everything", the first-push case), uploads every added or changed
// object to bucket (within bucketPath) plus deletions for anything the
// bucket has that the local tree no longer does, and finally uploads
// the new manifest.
// manifestURL and bucket are deliberately distinct: the former is the
// public-facing location entries are resolved against (may sit behind
// a CDN), the latter is where object-store writes land. bucketPath
// namespaces every object-store write under a key prefix within
// bucket; empty means write at the bucket root.
func Run(ctx context.Context, root, manifestURL, bucket, bucketPath string, opts Options) (*Result, error) {
	if opts.Sink == nil {
		opts.Sink = events.NopSink{}
	}

	local, err := generate.Run(ctx, root, manifestURL, generate.Options{IgnoreFile: opts.IgnoreFile, Width: opts.Width})
	if err != nil {
		return nil, err
	}

	remote, found, err := transport.FetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}
	if !found {
		remote = nil
	}

	diffs := diff.Manifests(local, remote, true)
	if len(diffs) == 0 {
		return &Result{}, nil
	}

	type outcome struct {
		uploaded, deleted string
		err               error
	}
	outcomes := make([]outcome, len(diffs))

	runErr := pipeline.Run(ctx, indexed(diffs), opts.Width, func(ctx context.Context, item indexedDiff) error {
		d := item.d
		switch d.Kind {
		case diff.Missing, diff.HashMismatch:
			localPath := filepath.Join(root, filepath.FromSlash(d.Path))
			opts.Sink.Started(d.Path, 0)
			if err := transport.UploadObject(ctx, bucket, bucketPath, d.Path, localPath); err != nil {
				opts.Sink.Done(d.Path, err)
				outcomes[item.i] = outcome{err: err}
				return err
			}
			opts.Sink.Done(d.Path, nil)
			outcomes[item.i] = outcome{uploaded: d.Path}

		case diff.Unknown:
			opts.Sink.Started(d.Path, 0)
			if err := transport.DeleteObject(ctx, bucket, bucketPath, d.Path); err != nil {
				opts.Sink.Done(d.Path, err)
				outcomes[item.i] = outcome{err: err}
				return err
			}
			opts.Sink.Done(d.Path, nil)
			outcomes[item.i] = outcome{deleted: d.Path}
		}
		return nil
	})

	result := &Result{}
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			result.Errors = append(result.Errors, o.err)
		case o.uploaded != "":
			result.Uploaded = append(result.Uploaded, o.uploaded)
		case o.deleted != "":
			result.Deleted = append(result.Deleted, o.deleted)
		}
	}
	if runErr != nil {
		return result, runErr
	}

	data, err := local.ToJSON()
	if err != nil {
		return result, err
	}
	if err := transport.UploadManifest(ctx, bucket, bucketPath, manifest.FileName, data); err != nil {
		return result, err
	}

	return result, nil
}

type indexedDiff struct {
	i int
	d diff.Difference
}

func indexed(diffs []diff.Difference) []indexedDiff {
	out := make([]indexedDiff, len(diffs))
	for i, d := range diffs {
		out[i] = indexedDiff{i: i, d: d}
	}
	return out
}
