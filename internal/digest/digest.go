// Package digest turns a repository checkout into a bounded text sample
// for the model prompt. Priority files (readmes, entry points, manifests)
// are emitted first, so on large repositories the budget is spent on the
// highest-signal files.
package digest

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Directories pruned before descent. Subtrees under these names are never
// enumerated, no matter how large.
var ignoredDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
	"__pycache__":  {},
	".venv":        {},
	"venv":         {},
	"dist":         {},
	"build":        {},
}

var ignoredExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".gif": {}, ".svg": {}, ".ico": {},
	".pdf": {}, ".zip": {}, ".exe": {}, ".pyc": {}, ".lock": {},
}

var ignoredFilenames = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"poetry.lock":       {},
	"Pipfile.lock":      {},
}

// Priority names are matched against the lowercased base name.
var priorityNames = map[string]struct{}{
	"readme.md":        {},
	"main.py":          {},
	"app.py":           {},
	"index.js":         {},
	"package.json":     {},
	"pyproject.toml":   {},
	"requirements.txt": {},
	"dockerfile":       {},
}

// Options bounds the digest. Zero values are replaced with the defaults.
type Options struct {
	// MaxPerFile caps the bytes read from any single file.
	MaxPerFile int
	// MaxTotal caps the length of the whole digest.
	MaxTotal int
}

func DefaultOptions() Options {
	return Options{MaxPerFile: 2000, MaxTotal: 12000}
}

type candidate struct {
	rel      string
	abs      string
	priority bool
}

// Build walks the tree rooted at root and returns the digest. An empty
// repository yields an empty string and no error. The walk honors ctx
// cancellation; every other per-file problem is skipped silently.
func Build(ctx context.Context, root string, opts Options) (string, error) {
	if opts.MaxPerFile <= 0 {
		opts.MaxPerFile = DefaultOptions().MaxPerFile
	}
	if opts.MaxTotal <= 0 {
		opts.MaxTotal = DefaultOptions().MaxTotal
	}

	candidates, err := collect(ctx, root)
	if err != nil {
		return "", err
	}

	// Priority files first; traversal order preserved within each group.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority && !candidates[j].priority
	})

	var b strings.Builder
	for _, c := range candidates {
		if b.Len() >= opts.MaxTotal {
			break
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		excerpt, ok := readExcerpt(c.abs, opts.MaxPerFile)
		if !ok {
			continue
		}

		block := "\n### " + c.rel + "\n" + excerpt + "\n"
		if remaining := opts.MaxTotal - b.Len(); len(block) > remaining {
			block = strings.ToValidUTF8(block[:remaining], "")
		}
		b.WriteString(block)
	}
	return b.String(), nil
}

func collect(ctx context.Context, root string) ([]candidate, error) {
	var out []candidate
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		name := d.Name()
		if d.IsDir() {
			if _, skip := ignoredDirs[name]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if _, skip := ignoredFilenames[name]; skip {
			return nil
		}
		if _, skip := ignoredExtensions[strings.ToLower(filepath.Ext(name))]; skip {
			return nil
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return nil
		}

		_, priority := priorityNames[strings.ToLower(name)]
		out = append(out, candidate{
			rel:      filepath.ToSlash(rel),
			abs:      path,
			priority: priority,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// readExcerpt reads up to limit bytes, dropping invalid UTF-8 sequences.
// Returns ok=false for unreadable or effectively empty files.
func readExcerpt(path string, limit int) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, limit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", false
	}

	excerpt := strings.ToValidUTF8(string(buf[:n]), "")
	if strings.TrimSpace(excerpt) == "" {
		return "", false
	}
	return excerpt, true
}
