package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/voicevox-ue/vvstage/internal/platform"
)

// Kind classifies a checked input.
type Kind string

const (
	KindLibrary   Kind = "library"
	KindOptional  Kind = "optional"
	KindBundle    Kind = "bundle"
	KindDirectory Kind = "directory"
)

// Status represents the state of one input of a profile.
type Status struct {
	Name     string
	Kind     Kind
	Required bool
	Present  bool
	Path     string
	Size     int64
	Files    int
}

// Check inspects every input a profile layout names without failing on
// missing ones. It returns an error only if a required input is absent.
func Check(p Profile, target platform.Target, moduleDir string) ([]Status, error) {
	info, ok := platform.Lookup(target)
	layout, hasLayout := p.Layouts[target]
	if !ok || !hasLayout {
		return nil, nil
	}
	root := filepath.Join(moduleDir, info.SourceDir)

	var results []Status
	var missing int

	fileStatus := func(name, rel string, kind Kind, required bool) Status {
		st := Status{Name: name, Kind: kind, Required: required, Path: filepath.Join(root, filepath.FromSlash(rel))}
		if fi, err := os.Stat(st.Path); err == nil && !fi.IsDir() {
			st.Present = true
			st.Size = fi.Size()
			st.Files = 1
		}
		return st
	}

	for _, lib := range layout.Libraries {
		results = append(results, fileStatus(lib.File, filepath.ToSlash(filepath.Join(lib.Dir, lib.File)), KindLibrary, true))
	}
	for _, lib := range layout.Optional {
		results = append(results, fileStatus(lib.File, filepath.ToSlash(filepath.Join(lib.Dir, lib.File)), KindOptional, false))
	}
	for _, b := range layout.Bundles {
		st := fileStatus(b.Name, b.Gate, KindBundle, false)
		if st.Present {
			st.Files, st.Size = 0, 0
			for _, m := range b.Members {
				if fi, err := os.Stat(filepath.Join(root, filepath.FromSlash(b.MemberDir), m)); err == nil && !fi.IsDir() {
					st.Files++
					st.Size += fi.Size()
				}
			}
		}
		results = append(results, st)
	}
	for _, d := range layout.Directories {
		st := Status{Name: d.Name, Kind: KindDirectory, Required: true, Path: filepath.Join(root, filepath.FromSlash(d.Dir), d.Name)}
		if fi, err := os.Stat(st.Path); err == nil && fi.IsDir() {
			st.Present = true
			st.Files, st.Size = dirUsage(st.Path)
		}
		results = append(results, st)
	}

	for _, st := range results {
		if st.Required && !st.Present {
			missing++
			log.Error("Missing required input", "name", st.Name, "path", st.Path)
		} else if st.Present {
			log.Debug("Input found", "name", st.Name, "path", st.Path)
		}
	}

	if missing > 0 {
		return results, fmt.Errorf("%d required inputs missing for %s on %s", missing, p.Name, target)
	}
	return results, nil
}

func dirUsage(root string) (files int, size int64) {
	_ = filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil //nolint:nilerr
		}
		if fi, err := d.Info(); err == nil {
			files++
			size += fi.Size()
		}
		return nil
	})
	return files, size
}
