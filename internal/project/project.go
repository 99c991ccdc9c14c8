// Package project locates the game project and plugin directories that
// staging destinations are rooted at.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/voicevox-ue/vvstage/utils"
)

// ProjectFlag is the command line switch naming the project file.
const ProjectFlag = "-Project"

// ErrProjectNotFound is returned when no project directory can be found.
var ErrProjectNotFound = errors.New("project directory not found")

// FromArgs returns the directory of the project file passed as
// -Project=<path>.uproject. Entries that do not split into a name and a
// value are ignored.
func FromArgs(args []string) (string, bool) {
	for _, arg := range args {
		parts := splitNonEmpty(arg, "=")
		if len(parts) < 2 || parts[0] != ProjectFlag {
			continue
		}
		// Re-join with "=" so paths containing it survive.
		file := strings.Trim(strings.Join(parts[1:], "="), `"`)
		return filepath.Dir(file), true
	}
	return "", false
}

// Find walks up from start looking for a directory holding a .uproject file.
func Find(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.uproject"))
		if len(matches) > 0 {
			log.Debug("found project file", "path", matches[0])
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w above %s", ErrProjectNotFound, start)
		}
		dir = parent
	}
}

// Resolve picks the project directory: the -Project argument wins, then the
// configured directory, then a search upwards from cwd.
func Resolve(args []string, configured, cwd string) (string, error) {
	if dir, ok := FromArgs(args); ok {
		log.Debug("project directory from arguments", "dir", dir)
		return dir, nil
	}
	if configured != "" {
		dir := utils.ExpandPath(configured)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return "", fmt.Errorf("%w: %s", ErrProjectNotFound, dir)
		}
		return dir, nil
	}
	return Find(cwd)
}

// PluginDir returns the directory of a plugin inside a project. The plugin
// is found by its .uplugin file when the folder name differs.
func PluginDir(projectDir, name string) (string, error) {
	direct := filepath.Join(projectDir, "Plugins", name)
	if info, err := os.Stat(direct); err == nil && info.IsDir() {
		return direct, nil
	}
	matches, _ := filepath.Glob(filepath.Join(projectDir, "Plugins", "*", name+".uplugin"))
	if len(matches) == 0 {
		return "", fmt.Errorf("plugin %s not found in %s", name, projectDir)
	}
	return filepath.Dir(matches[0]), nil
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitArgs separates -Project= switches from the rest of the arguments, so
// a host tool's command line can be passed through unchanged.
func SplitArgs(args []string) (rest, host []string) {
	for _, arg := range args {
		if strings.HasPrefix(arg, ProjectFlag+"=") {
			host = append(host, arg)
			continue
		}
		rest = append(rest, arg)
	}
	return rest, host
}

// PluginFromModule derives the plugin directory from a ThirdParty module
// directory laid out as <plugin>/Source/ThirdParty/<module>.
func PluginFromModule(moduleDir string) (string, bool) {
	thirdParty := filepath.Dir(filepath.Clean(moduleDir))
	source := filepath.Dir(thirdParty)
	if filepath.Base(thirdParty) != "ThirdParty" || filepath.Base(source) != "Source" {
		return "", false
	}
	return filepath.Dir(source), true
}
