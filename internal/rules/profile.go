// Package rules holds the module rule profiles that describe how each
// historical plugin configuration links and stages VOICEVOX CORE, and
// evaluates them for a platform into a ModuleRules plan.
package rules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/voicevox-ue/vvstage/internal/platform"
)

var (
	// ErrUnknownProfile is returned for a profile name not in the table.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrNoRuntimeLoader is returned when a profile has no runtime loader
	// path for a platform.
	ErrNoRuntimeLoader = errors.New("profile has no runtime loader for platform")

	// ErrMissingModuleDir is returned when no ThirdParty module directory
	// is configured.
	ErrMissingModuleDir = errors.New("module directory is required")
)

// OpenJTalkDicName is the dictionary folder name, including its version.
const OpenJTalkDicName = "open_jtalk_dic_utf_8-1.11"

// Destination templates shared by the profiles.
const (
	ProjectBinaries = "$(ProjectDir)/Binaries/$(BinPlatform)"
)

// ThirdPartyBinaries returns the plugin ThirdParty binaries template for a
// library folder name.
func ThirdPartyBinaries(name string) string {
	return "$(PluginDir)/Binaries/ThirdParty/" + name + "/$(BinPlatform)"
}

// Library is a single native library shipped in the platform folder.
type Library struct {
	// File is the on-disk file name.
	File string

	// Dir is the folder holding File, relative to the platform folder.
	Dir string

	// Dest is the destination directory template.
	Dest string

	// DelayLoad registers the library for delay loading.
	DelayLoad bool

	// Link adds the library itself to the additional libraries.
	Link bool
}

// Bundle is a set of optional libraries staged only when Gate exists.
// Members are looked up in MemberDir and each is staged only if present.
type Bundle struct {
	Name      string
	Gate      string // relative to the platform folder
	MemberDir string // relative to the platform folder
	Members   []string
	Dest      string
}

// Directory is a data folder mirrored recursively.
type Directory struct {
	Name       string
	Dir        string // parent folder relative to the platform folder
	Dest       string
	SubdirDest string
}

// Layout is everything a profile does for one platform.
type Layout struct {
	// IncludeDir is added to the system include paths, relative to the
	// platform folder. Nil means no include path.
	IncludeDir *string

	// ImportLibs are import libraries relative to the platform folder.
	ImportLibs []string

	Libraries   []Library
	Optional    []Library
	Bundles     []Bundle
	Directories []Directory

	// Loader is the path the runtime module loads the core library from,
	// relative to the plugin directory.
	Loader string
}

// Profile is one module rules configuration.
type Profile struct {
	Name        string
	Module      string
	Plugin      string // plugin folder the module ships in
	Description string
	Layouts     map[platform.Target]Layout
	Definitions []string
}

// Lookup returns the profile with the given name.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownProfile, name, Names())
	}
	return p, nil
}

// Names lists the known profiles, sorted.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for n := range profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Platforms lists the platforms a profile has a layout for.
func (p Profile) Platforms() []platform.Target {
	var out []platform.Target
	for _, t := range platform.Targets() {
		if _, ok := p.Layouts[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func dir(s string) *string { return &s }
