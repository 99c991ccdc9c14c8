// Package platform maps build target platforms to the on-disk layout of the
// prebuilt VOICEVOX CORE distribution and to the binaries folder name the
// packaged executable expects.
package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrUnsupportedPlatform is returned when a platform name is not in the table.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Target represents a build target platform.
type Target string

const (
	Win64   Target = "Win64"
	Mac     Target = "Mac"
	Linux   Target = "Linux"
	Unknown Target = "Unknown"
)

// Info describes how a target lays out its native libraries.
type Info struct {
	Target Target

	// SourceDir is the platform folder inside the ThirdParty module ("x64", "osx").
	SourceDir string

	// BinDir is the platform folder under Binaries/ ("Win64", "Mac").
	BinDir string

	// SharedLibExt is the shared library extension including the dot.
	SharedLibExt string

	// ImportLibExt is set on platforms that link against an import library.
	ImportLibExt string

	// LibPrefix is prepended to library base names ("lib" on unix-likes).
	LibPrefix string

	// DelayLoadByPath is true when delay-load entries must be full paths
	// rather than bare file names.
	DelayLoadByPath bool
}

// SharedLib returns the platform file name for a library base name, e.g.
// "voicevox_core" becomes "voicevox_core.dll" or "libvoicevox_core.dylib".
func (i Info) SharedLib(base string) string {
	return i.LibPrefix + base + i.SharedLibExt
}

// ImportLib returns the import library name, or "" if the platform has none.
func (i Info) ImportLib(base string) string {
	if i.ImportLibExt == "" {
		return ""
	}
	return base + i.ImportLibExt
}

var table = map[Target]Info{
	Win64: {
		Target:       Win64,
		SourceDir:    "x64",
		BinDir:       "Win64",
		SharedLibExt: ".dll",
		ImportLibExt: ".lib",
	},
	Mac: {
		Target:          Mac,
		SourceDir:       "osx",
		BinDir:          "Mac",
		SharedLibExt:    ".dylib",
		LibPrefix:       "lib",
		DelayLoadByPath: true,
	},
	Linux: {
		Target:          Linux,
		SourceDir:       "linux",
		BinDir:          "Linux",
		SharedLibExt:    ".so",
		LibPrefix:       "lib",
		DelayLoadByPath: true,
	},
}

// Lookup returns the layout for a target.
func Lookup(t Target) (Info, bool) {
	info, ok := table[t]
	return info, ok
}

// Targets returns every known target in a stable order.
func Targets() []Target {
	return []Target{Win64, Mac, Linux}
}

// Parse accepts Unreal names ("Win64", "Mac"), GOOS names ("windows",
// "darwin") and source folder names ("x64", "osx"), case-insensitively.
func Parse(name string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "win64", "windows", "x64", "win":
		return Win64, nil
	case "mac", "darwin", "osx", "macos":
		return Mac, nil
	case "linux":
		return Linux, nil
	case "", "auto":
		return Detect(), nil
	}
	return Unknown, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, name)
}

// Detect returns the target for the running operating system.
func Detect() Target {
	t := fromGOOS(runtime.GOOS)
	log.Debug("Platform detected", "goos", runtime.GOOS, "arch", runtime.GOARCH, "target", t)
	return t
}

func fromGOOS(goos string) Target {
	switch goos {
	case "windows":
		return Win64
	case "darwin":
		return Mac
	case "linux":
		return Linux
	default:
		return Unknown
	}
}
