// Package validate implements the validate command: compare a remote
// manifest against a local directory tree and report every difference.
package validate

import (
	"context"
	"fmt"

	"github.com/bsundsrud/comstar/internal/comstarerr"
	"github.com/bsundsrud/comstar/internal/diff"
	"github.com/bsundsrud/comstar/internal/events"
	"github.com/bsundsrud/comstar/internal/transport"
)

// Report summarizes a validate run's findings.
type Report struct {
	Missing    []diff.Difference
	Mismatched []diff.Difference
	Unknown    []diff.Difference
}

// Err returns a non-nil error whenever the report found any difference
// at all, so the CLI can exit non-zero on drift.
func (r *Report) Err() error {
	total := len(r.Missing) + len(r.Mismatched) + len(r.Unknown)
	if total == 0 {
		return nil
	}
	return fmt.Errorf("%d difference(s): %d missing, %d mismatched, %d unknown",
		total, len(r.Missing), len(r.Mismatched), len(r.Unknown))
}

// Run fetches the manifest at manifestURL and diffs it against the
// directory tree rooted at root, returning a Report. force also walks
// the tree for files the manifest doesn't name (diff.Tree's Unknown
// kind). A missing remote manifest is fatal here, unlike push's
// first-push tolerance.
func Run(ctx context.Context, manifestURL, root string, force bool, sink events.Sink) (*Report, error) {
	m, found, err := transport.FetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &comstarerr.Error{Kind: comstarerr.KindNetwork, Op: "validating " + manifestURL, Err: comstarerr.ErrManifestMissing}
	}

	diffs, err := diff.Tree(ctx, m, root, force, sink)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, d := range diffs {
		switch d.Kind {
		case diff.Missing:
			report.Missing = append(report.Missing, d)
		case diff.HashMismatch:
			report.Mismatched = append(report.Mismatched, d)
		case diff.Unknown:
			report.Unknown = append(report.Unknown, d)
		}
	}
	return report, nil
}
