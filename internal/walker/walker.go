// Package walker enumerates the regular files beneath a root directory,
// honoring a per-tree ignore file and the manifest's own forced exclusion.
package walker

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bsundsrud/comstar/internal/comstarerr"
	"github.com/bsundsrud/comstar/internal/manifest"
)

// DefaultIgnoreFile is the gitignore-style pattern file honored per
// directory tree, unless overridden.
const DefaultIgnoreFile = ".comstarignore"

// Walk returns the canonical, slash-separated relative paths of every
// regular file under root, skipping directories that match an ignore
// pattern entirely rather than descending into them. The file named
// comstar.json at root is always excluded, whether or not it appears in
// the ignore file. Symlinks are not followed (filepath.WalkDir default).
// Output order is the walk order; callers must not depend on it.
func Walk(root, ignoreFile string) ([]string, error) {
	if ignoreFile == "" {
		ignoreFile = DefaultIgnoreFile
	}

	patterns, err := loadPatterns(filepath.Join(root, ignoreFile))
	if err != nil {
		return nil, err
	}

	var out []string
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return comstarerr.IO("walking "+path, err)
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return comstarerr.IO("computing relative path for "+path, err)
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != manifest.FileName && matches(patterns, rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if rel == manifest.FileName || rel == ignoreFile || matches(patterns, rel, false) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		out = append(out, rel)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	return out, nil
}

// loadPatterns reads path as a gitignore-style pattern file: one
// doublestar glob per line, blank lines and "#" comments skipped, a
// leading "!" marking a re-include. A missing ignore file is not an
// error — it simply means no patterns beyond the forced exclusion.
func loadPatterns(path string) ([]pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, comstarerr.IO("reading ignore file "+path, err)
	}
	defer f.Close()

	var patterns []pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		negate := strings.HasPrefix(line, "!")
		if negate {
			line = strings.TrimPrefix(line, "!")
		}
		patterns = append(patterns, pattern{glob: line, negate: negate})
	}
	if err := scanner.Err(); err != nil {
		return nil, comstarerr.IO("reading ignore file "+path, err)
	}
	return patterns, nil
}

type pattern struct {
	glob   string
	negate bool
}

// matches reports whether relPath should be excluded by patterns. Later
// patterns override earlier ones, so a "!" re-include after a broader
// exclusion wins, matching gitignore precedence. For directories, a
// synthetic child path is also probed so that a pattern like "build/**"
// causes the whole directory to be skipped early.
func matches(patterns []pattern, relPath string, isDir bool) bool {
	excluded := false
	for _, p := range patterns {
		ok, _ := doublestar.Match(p.glob, relPath)
		if !ok && isDir {
			ok, _ = doublestar.Match(p.glob, relPath+"/x")
		}
		if ok {
			excluded = !p.negate
		}
	}
	return excluded
}
