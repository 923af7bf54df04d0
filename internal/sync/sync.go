// Package sync implements the sync command: bring a local directory
// tree in line with whatever a remote manifest describes, fetching
// what's missing or changed and, when permitted, deleting what
// shouldn't be there.
package sync

import (
	"context"
	"path/filepath"

	"github.com/bsundsrud/comstar/internal/comstarerr"
	"github.com/bsundsrud/comstar/internal/diff"
	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/manifest"
	"github.com/bsundsrud/comstar/internal/pipeline"
	"github.com/bsundsrud/comstar/internal/transport"
)

// Options controls a sync run.
type Options struct {
	// Force allows the diff to report local files the remote manifest
	// doesn't know about (diff.Unknown).
	Force bool
	// Prune additionally deletes those Unknown files. Kept distinct
	// from Force so a plain sync never deletes unexpectedly.
	Prune bool
	// Validate forces a full per-file re-hash against the directory
	// tree (diff.Tree) instead of trusting a locally cached
	// comstar.json (diff.Manifests). Has no effect when no local cache
	// exists: that case always falls back to diff.Tree regardless.
	Validate bool
	Width    int
	Sink     events.Sink
}

// Result summarizes what a sync run did.
type Result struct {
	Fetched []string
	Deleted []string
	Errors  []error
}

// Run fetches the manifest at manifestURL (fatal if absent), diffs it
// against root, and fans fetches/deletes out through internal/pipeline.
//
// The diff itself takes the cheap manifest-vs-manifest path
// (diff.Manifests) whenever a local comstar.json cache from a prior
// successful sync is present and opts.Validate and opts.Force are both
// false; otherwise it
// falls back to the full per-file re-hash (diff.Tree). A fully
// successful run caches remote locally so the next invocation can take
// the fast path.
func Run(ctx context.Context, manifestURL, root string, opts Options) (*Result, error) {
	if opts.Sink == nil {
		opts.Sink = events.NopSink{}
	}

	remote, found, err := transport.FetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &comstarerr.Error{Kind: comstarerr.KindNetwork, Op: "syncing " + manifestURL, Err: comstarerr.ErrManifestMissing}
	}

	cachePath := filepath.Join(root, manifest.FileName)
	diffs, err := diffSource(ctx, remote, root, cachePath, opts)
	if err != nil {
		return nil, err
	}
	if len(diffs) == 0 {
		saveCache(remote, cachePath)
		return &Result{}, nil
	}

	type outcome struct {
		fetched, deleted string
		err              error
	}
	outcomes := make([]outcome, len(diffs))

	runErr := pipeline.Run(ctx, indexed(diffs), opts.Width, func(ctx context.Context, item indexedDiff) error {
		d := item.d
		localPath := filepath.Join(root, filepath.FromSlash(d.Path))

		switch d.Kind {
		case diff.Missing, diff.HashMismatch:
			src := d.Upstream.Source
			if src == "" {
				var srcErr error
				src, srcErr = manifest.EntrySource(remote.Source, d.Path)
				if srcErr != nil {
					outcomes[item.i] = outcome{err: srcErr}
					return srcErr
				}
			}
			if err := transport.FetchFile(ctx, src, localPath, d.Path, opts.Sink); err != nil {
				outcomes[item.i] = outcome{err: err}
				return err
			}
			outcomes[item.i] = outcome{fetched: d.Path}

		case diff.Unknown:
			if !opts.Prune {
				return nil
			}
			opts.Sink.Started(d.Path, 0)
			if err := transport.DeleteFile(localPath); err != nil {
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
		case o.fetched != "":
			result.Fetched = append(result.Fetched, o.fetched)
		case o.deleted != "":
			result.Deleted = append(result.Deleted, o.deleted)
		}
	}

	if runErr != nil {
		return result, runErr
	}

	saveCache(remote, cachePath)
	return result, nil
}

// diffSource picks the manifest-vs-manifest fast path over a full
// re-hash whenever a usable local cache exists and opts.Validate isn't
// set. Any failure to load the cache (missing file, unparseable JSON)
// is treated the same as "no cache": fall back to diff.Tree. Force is
// also excluded from the fast path: the cached manifest only records
// what a prior sync fetched, so it can never reveal files a caller
// dropped into the tree out of band — finding those requires actually
// walking root, which only diff.Tree does.
func diffSource(ctx context.Context, remote *manifest.Manifest, root, cachePath string, opts Options) ([]diff.Difference, error) {
	if !opts.Validate && !opts.Force {
		if local, err := manifest.Load(cachePath); err == nil {
			return diff.Manifests(remote, local, opts.Force), nil
		}
	}
	return diff.Tree(ctx, remote, root, opts.Force, opts.Sink)
}

// saveCache best-effort caches remote as the local comstar.json so a
// subsequent sync can take the fast path. A failure to write the cache
// doesn't fail the sync itself: the next run just falls back to a full
// re-hash.
func saveCache(remote *manifest.Manifest, cachePath string) {
	_ = remote.Save(cachePath)
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
