// Package generate implements the generate command: walk a directory,
// hash every file, and write a fresh comstar.json describing it.
package generate

import (
	"context"
	"path/filepath"

	"github.com/bsundsrud/comstar/internal/digest"
	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/manifest"
	"github.com/bsundsrud/comstar/internal/pipeline"
	"github.com/bsundsrud/comstar/internal/walker"
)

// Options configures a generate run.
type Options struct {
	IgnoreFile string
	Width      int
	Sink       events.Sink
}

// Run walks root, hashes every file it finds (internal/walker +
// internal/pipeline + internal/digest), and returns the resulting
// manifest advertising sourceURL as its own location. The manifest is
// not written to disk here; callers decide where comstar.json lands.
func Run(ctx context.Context, root, sourceURL string, opts Options) (*manifest.Manifest, error) {
	if opts.Sink == nil {
		opts.Sink = events.NopSink{}
	}

	paths, err := walker.Walk(root, opts.IgnoreFile)
	if err != nil {
		return nil, err
	}

	items := make([]indexedPath, len(paths))
	for i, p := range paths {
		items[i] = indexedPath{index: i, rel: p}
	}

	entries := make([]manifest.Entry, len(paths))
	err = pipeline.Run(ctx, items, opts.Width, func(_ context.Context, item indexedPath) error {
		opts.Sink.Started(item.rel, 0)
		sum, err := digest.Hash(filepath.Join(root, filepath.FromSlash(item.rel)))
		if err != nil {
			opts.Sink.Done(item.rel, err)
			return err
		}
		src, err := manifest.EntrySource(sourceURL, item.rel)
		if err != nil {
			opts.Sink.Done(item.rel, err)
			return err
		}
		entries[item.index] = manifest.Entry{Path: item.rel, SHA512: sum, Source: src}
		opts.Sink.Done(item.rel, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m := manifest.New(sourceURL)
	m.Entries = entries
	return m, nil
}

type indexedPath struct {
	index int
	rel   string
}
