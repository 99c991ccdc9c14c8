package stage

import (
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Sink receives staging actions. A Registry records them for a later build
// stage; a Copier performs them immediately.
type Sink interface {
	Stage(p Pair) error
}

// Result summarises a staging pass.
type Result struct {
	Pairs   []Pair
	Skipped []string // optional files that were absent
}

// Stager resolves rules and files into pairs and hands them to a Sink.
type Stager struct {
	Vars Vars
	Sink Sink
}

// New creates a stager.
func New(vars Vars, sink Sink) *Stager {
	return &Stager{Vars: vars, Sink: sink}
}

// Run resolves every rule and file first and only then feeds the sink, so a
// missing source directory fails the pass before anything is written.
func (s *Stager) Run(rules []Rule, files []File) (Result, error) {
	res, err := Collect(rules, files, s.Vars)
	if err != nil {
		return res, err
	}
	if s.Sink == nil {
		return res, nil
	}
	if err := Apply(s.Sink, res.Pairs); err != nil {
		return res, err
	}
	return res, nil
}

// Collect resolves rules and files into staging pairs without writing
// anything.
func Collect(rules []Rule, files []File, vars Vars) (Result, error) {
	var res Result
	if len(rules) == 0 && len(files) == 0 {
		return res, ErrNoRules
	}

	for _, f := range files {
		p, ok, err := ResolveFile(f, vars)
		if err != nil {
			return res, err
		}
		if !ok {
			res.Skipped = append(res.Skipped, f.Source)
			continue
		}
		res.Pairs = append(res.Pairs, p)
	}

	for _, r := range rules {
		pairs, err := Walk(r, vars)
		if err != nil {
			return res, err
		}
		res.Pairs = append(res.Pairs, pairs...)
	}

	return res, nil
}

// CheckSources verifies every source is a regular file before anything is
// staged.
func CheckSources(pairs []Pair) error {
	for _, p := range pairs {
		info, err := os.Stat(p.Source)
		if err != nil || info.IsDir() {
			return &StageError{Op: "resolve", Path: p.Source, Err: ErrFileNotFound}
		}
	}
	return nil
}

// Apply feeds pairs to the sink in order and stops at the first error.
func Apply(sink Sink, pairs []Pair) error {
	for _, p := range pairs {
		if err := sink.Stage(p); err != nil {
			return err
		}
	}
	return nil
}

// ResolveFile expands a single-file entry. ok is false when an optional
// file is absent.
func ResolveFile(f File, vars Vars) (Pair, bool, error) {
	info, err := os.Stat(f.Source)
	if err != nil || info.IsDir() {
		if f.Optional {
			log.Debug("optional file absent, skipping", "src", f.Source)
			return Pair{}, false, nil
		}
		return Pair{}, false, &StageError{Op: "resolve", Path: f.Source, Err: ErrFileNotFound}
	}

	dest, err := Expand(f.Destination, vars)
	if err != nil {
		return Pair{}, false, &StageError{Op: "resolve", Path: f.Source, Err: err}
	}
	return Pair{Destination: dest, Source: f.Source}, true, nil
}

// Walk enumerates the files of a rule: files of a directory first, then its
// subdirectories depth-first, each level in name order.
func Walk(r Rule, vars Vars) ([]Pair, error) {
	dest, err := Expand(r.Destination, vars)
	if err != nil {
		return nil, &StageError{Op: "walk", Rule: r.label(), Err: err}
	}

	subDest := dest
	if r.SubdirDestination != "" {
		subDest, err = Expand(r.SubdirDestination, vars)
		if err != nil {
			return nil, &StageError{Op: "walk", Rule: r.label(), Err: err}
		}
	}

	var pairs []Pair
	if err := walkDir(r, filepath.ToSlash(r.Source), dest, subDest, nil, &pairs); err != nil {
		return nil, err
	}

	log.Debug("walked staging rule", "rule", r.label(), "files", len(pairs))
	return pairs, nil
}

func walkDir(r Rule, rel, dest, subDest string, ancestors []os.FileInfo, out *[]Pair) error {
	dir := filepath.Join(r.Root, filepath.FromSlash(rel))

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &StageError{Op: "walk", Rule: r.label(), Path: rel, Err: ErrDirectoryNotFound}
	}
	for _, a := range ancestors {
		if os.SameFile(a, info) {
			log.Warn("skipping symlinked directory cycle", "rule", r.label(), "path", rel)
			return nil
		}
	}
	ancestors = append(ancestors, info)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return &StageError{Op: "walk", Rule: r.label(), Path: rel, Err: err}
	}

	var subdirs []string
	for _, e := range entries {
		switch entryKind(dir, e) {
		case kindDir:
			subdirs = append(subdirs, e.Name())
		case kindFile:
			*out = append(*out, Pair{
				Destination: JoinDest(dest, rel, e.Name()),
				Source:      filepath.Join(dir, e.Name()),
			})
		default:
			log.Warn("skipping dangling symlink", "rule", r.label(), "path", path.Join(rel, e.Name()))
		}
	}

	if !r.Recursive {
		return nil
	}

	for _, name := range subdirs {
		if err := walkDir(r, path.Join(rel, name), subDest, subDest, ancestors, out); err != nil {
			return err
		}
	}
	return nil
}

const (
	kindFile = iota
	kindDir
	kindDangling
)

// entryKind follows symlinks so linked directories are walked.
func entryKind(parent string, e os.DirEntry) int {
	if e.IsDir() {
		return kindDir
	}
	if e.Type()&os.ModeSymlink == 0 {
		return kindFile
	}
	info, err := os.Stat(filepath.Join(parent, e.Name()))
	switch {
	case err != nil:
		return kindDangling
	case info.IsDir():
		return kindDir
	default:
		return kindFile
	}
}
