// Package discover finds ThirdParty module directories holding VOICEVOX
// CORE builds inside a project tree.
package discover

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	"github.com/voicevox-ue/vvstage/internal/platform"
)

// CoreLibraries are the file names that identify a platform folder.
var CoreLibraries = []string{
	"voicevox_core.dll",
	"libvoicevox_core.dylib",
	"libvoicevox_core_nemo.dylib",
	"libvoicevox_core.so",
}

// Module is a directory usable as a module dir.
type Module struct {
	Dir       string
	Platforms []platform.Target
	// Nemo is set when a platform folder keeps its build in a Nemo/ subfolder.
	Nemo      bool
	Libraries []string
}

// Options controls a search.
type Options struct {
	// All searches files ignored by .gitignore too.
	All bool
}

// Find searches root for module directories.
func Find(root string, opts Options) ([]Module, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var ch chan gitcha.SearchResult
	if opts.All {
		ch, err = gitcha.FindAllFilesExcept(root, CoreLibraries, nil)
	} else {
		ch, err = gitcha.FindFilesExcept(root, CoreLibraries, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("error finding core libraries: %w", err)
	}

	found := make(map[string]*Module)
	for res := range ch {
		dir, target, nemo, ok := moduleOf(res.Path)
		if !ok {
			log.Debug("core library outside a platform folder", "path", res.Path)
			continue
		}

		m, exists := found[dir]
		if !exists {
			m = &Module{Dir: dir}
			found[dir] = m
		}
		if !hasTarget(m.Platforms, target) {
			m.Platforms = append(m.Platforms, target)
		}
		m.Nemo = m.Nemo || nemo
		m.Libraries = append(m.Libraries, res.Path)
	}

	mods := make([]Module, 0, len(found))
	for _, m := range found {
		sort.Slice(m.Platforms, func(i, j int) bool { return m.Platforms[i] < m.Platforms[j] })
		sort.Strings(m.Libraries)
		mods = append(mods, *m)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].Dir < mods[j].Dir })

	log.Debug("discovery finished", "root", root, "modules", len(mods))
	return mods, nil
}

// moduleOf maps a core library path to its module dir.
func moduleOf(lib string) (dir string, target platform.Target, nemo bool, ok bool) {
	folder := filepath.Dir(lib)
	if filepath.Base(folder) == "Nemo" {
		nemo = true
		folder = filepath.Dir(folder)
	}
	name := filepath.Base(folder)
	for _, t := range platform.Targets() {
		info, _ := platform.Lookup(t)
		if info.SourceDir == name {
			return filepath.Dir(folder), t, nemo, true
		}
	}
	return "", "", false, false
}

func hasTarget(ts []platform.Target, t platform.Target) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}
