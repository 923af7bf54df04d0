// Package diff computes the set of differences between a manifest and
// either a local directory tree or another manifest, the comparison at
// the heart of validate, sync, and push.
package diff

import (
	"context"
	"path/filepath"

	"github.com/bsundsrud/comstar/internal/digest"
	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/manifest"
	"github.com/bsundsrud/comstar/internal/pipeline"
	"github.com/bsundsrud/comstar/internal/walker"
)

// Kind identifies how a path differs from its authority entry.
type Kind int

const (
	// Missing means the authority manifest names a path that is absent
	// from the comparison side (tree or manifest).
	Missing Kind = iota
	// HashMismatch means the path exists on both sides with different
	// digests.
	HashMismatch
	// Unknown means the comparison side has a path the authority does
	// not name. Only surfaced when force is set.
	Unknown
)

// Difference is one entry in a diff report.
type Difference struct {
	Kind     Kind
	Path     string
	Upstream manifest.Entry // valid for Missing and HashMismatch
	Local    string         // local digest, valid for HashMismatch
}

// Tree compares remote against the directory tree rooted at root: every
// entry in remote is checked for existence and digest match, fanned out
// across internal/pipeline. When force is set, the tree is also walked
// (internal/walker) to find files present locally but absent from
// remote's index, reported as Unknown. sink receives Started/Progress/
// Done for each entry checked; a nil sink is valid.
func Tree(ctx context.Context, remote *manifest.Manifest, root string, force bool, sink events.Sink) ([]Difference, error) {
	if sink == nil {
		sink = events.NopSink{}
	}

	type result struct {
		diff *Difference
	}
	results := make([]result, len(remote.Entries))

	err := pipeline.Run(ctx, indices(len(remote.Entries)), pipeline.DefaultWidth, func(_ context.Context, i int) error {
		e := remote.Entries[i]
		sink.Started(e.Path, 0)
		localPath := filepath.Join(root, filepath.FromSlash(e.Path))

		sum, hashErr := digest.Hash(localPath)
		if hashErr != nil {
			sink.Done(e.Path, hashErr)
			results[i] = result{diff: &Difference{Kind: Missing, Path: e.Path, Upstream: e}}
			return nil
		}
		if sum != e.SHA512 {
			sink.Done(e.Path, nil)
			results[i] = result{diff: &Difference{Kind: HashMismatch, Path: e.Path, Upstream: e, Local: sum}}
			return nil
		}
		sink.Done(e.Path, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var diffs []Difference
	for _, r := range results {
		if r.diff != nil {
			diffs = append(diffs, *r.diff)
		}
	}

	if force {
		idx := remote.Index()
		paths, walkErr := walker.Walk(root, "")
		if walkErr != nil {
			return nil, walkErr
		}
		for _, p := range paths {
			sink.Started(p, 0)
			if _, known := idx[p]; !known {
				diffs = append(diffs, Difference{Kind: Unknown, Path: p})
			}
			sink.Done(p, nil)
		}
	}

	return diffs, nil
}

// Manifests compares authority against comparison: every entry in
// authority that is missing, or present with a different digest, in
// comparison becomes a Difference. When force is set, entries present
// in comparison but absent from authority are reported as Unknown. A
// nil comparison behaves as an empty manifest (comparison absent
// entirely): every authority entry is Missing, and nothing is Unknown
// regardless of force.
func Manifests(authority, comparison *manifest.Manifest, force bool) []Difference {
	var compIdx map[string]manifest.Entry
	if comparison != nil {
		compIdx = comparison.Index()
	}

	var diffs []Difference
	for _, e := range authority.Entries {
		local, ok := compIdx[e.Path]
		if !ok {
			diffs = append(diffs, Difference{Kind: Missing, Path: e.Path, Upstream: e})
			continue
		}
		if local.SHA512 != e.SHA512 {
			diffs = append(diffs, Difference{Kind: HashMismatch, Path: e.Path, Upstream: e, Local: local.SHA512})
		}
	}

	if force && comparison != nil {
		authIdx := authority.Index()
		for _, e := range comparison.Entries {
			if _, ok := authIdx[e.Path]; !ok {
				diffs = append(diffs, Difference{Kind: Unknown, Path: e.Path})
			}
		}
	}

	return diffs
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
