// Package intake turns file selections and drops into resume payloads.
package intake

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/resumeranker/resume-uploader/internal/models"
)

// Source is a batch of file handles delivered by one intake event.
type Source interface {
	collect(in *Intake, r *Result) error
}

// Selection is an explicit file pick. Entries may be glob patterns.
type Selection struct {
	Paths []string
}

// Drop is a drag-and-drop style delivery of files and directories.
// Directories are expanded to the files they contain.
type Drop struct {
	Roots     []string
	Recursive bool
}

// Result holds the accepted payloads in delivery order plus everything that
// was filtered out.
type Result struct {
	Payloads []models.Payload
	Rejected []Rejection

	seen map[string]bool
}

// Intake resolves sources against a filesystem.
type Intake struct {
	fs     billy.Filesystem
	filter Filter
}

// New creates an Intake over fs using filter.
func New(fs billy.Filesystem, filter Filter) *Intake {
	return &Intake{fs: fs, filter: filter}
}

// Collect resolves every source into one Result. A path delivered twice
// (after cleaning) yields one payload. Only a malformed glob is an error.
func (in *Intake) Collect(sources ...Source) (Result, error) {
	r := Result{seen: make(map[string]bool)}
	for _, src := range sources {
		if err := src.collect(in, &r); err != nil {
			return Result{}, err
		}
	}
	r.seen = nil
	return r, nil
}

func (s Selection) collect(in *Intake, r *Result) error {
	for _, p := range s.Paths {
		matches, err := in.expand(p, r)
		if err != nil {
			return err
		}
		for _, m := range matches {
			info, err := in.fs.Stat(m)
			if err != nil {
				r.reject(m, ReasonNotFound)
				continue
			}
			if info.IsDir() {
				r.reject(m, ReasonDirectory)
				continue
			}
			in.accept(m, info, r)
		}
	}
	return nil
}

func (d Drop) collect(in *Intake, r *Result) error {
	for _, root := range d.Roots {
		matches, err := in.expand(root, r)
		if err != nil {
			return err
		}
		for _, m := range matches {
			info, err := in.fs.Stat(m)
			if err != nil {
				r.reject(m, ReasonNotFound)
				continue
			}
			if !info.IsDir() {
				in.accept(m, info, r)
				continue
			}
			if err := in.walk(m, d.Recursive, r); err != nil {
				return err
			}
		}
	}
	return nil
}

// walk adds the files under dir, skipping hidden entries.
func (in *Intake) walk(dir string, recursive bool, r *Result) error {
	err := util.Walk(in.fs, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			r.reject(p, ReasonNotFound)
			return nil
		}
		if p == dir {
			return nil
		}
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		in.accept(p, info, r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", dir, err)
	}
	return nil
}

// expand resolves a glob pattern to its sorted matches; plain paths pass through.
func (in *Intake) expand(p string, r *Result) ([]string, error) {
	p = path.Clean(p)
	if !strings.ContainsAny(p, "*?[") {
		return []string{p}, nil
	}
	if _, err := path.Match(p, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", p, err)
	}
	matches, err := util.Glob(in.fs, p)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern '%s': %w", p, err)
	}
	if len(matches) == 0 {
		r.reject(p, ReasonNoMatch)
		return nil, nil
	}
	sort.Strings(matches)
	return matches, nil
}

func (in *Intake) accept(p string, info os.FileInfo, r *Result) {
	p = path.Clean(p)
	if r.seen[p] {
		return
	}
	if reason := in.filter.check(info.Name(), info.Size()); reason != "" {
		r.reject(p, reason)
		return
	}
	r.seen[p] = true
	r.Payloads = append(r.Payloads, &FilePayload{fs: in.fs, path: p, size: info.Size()})
}

func (r *Result) reject(p, reason string) {
	r.Rejected = append(r.Rejected, Rejection{Path: p, Reason: reason})
}
