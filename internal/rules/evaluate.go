package rules

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/voicevox-ue/vvstage/internal/platform"
	"github.com/voicevox-ue/vvstage/internal/stage"
)

// Env holds the directories a profile is evaluated against.
type Env struct {
	// ModuleDir is the ThirdParty module directory holding x64/ and osx/.
	ModuleDir  string
	ProjectDir string
	PluginDir  string
}

// Vars returns the template variables for a platform.
func (e Env) Vars(info platform.Info) stage.Vars {
	vars := stage.Vars{
		stage.VarModuleDir:   e.ModuleDir,
		stage.VarPlatform:    info.SourceDir,
		stage.VarBinPlatform: info.BinDir,
	}
	if e.ProjectDir != "" {
		vars[stage.VarProjectDir] = e.ProjectDir
	}
	if e.PluginDir != "" {
		vars[stage.VarPluginDir] = e.PluginDir
	}
	return vars
}

// Plan is a profile bound to a platform and directories, before any
// directory has been walked.
type Plan struct {
	Profile  Profile
	Platform platform.Target
	Env      Env
	Vars     stage.Vars

	// Supported is false when the profile has no layout for the platform.
	Supported bool

	SystemIncludePaths  []string
	AdditionalLibraries []string
	DelayLoadDLLs       []string
	PublicDefinitions   []string

	Files []stage.File
	Rules []stage.Rule
}

// ModuleRules is the evaluated result of a plan.
type ModuleRules struct {
	Profile             string          `json:"profile" yaml:"profile"`
	Module              string          `json:"module" yaml:"module"`
	Platform            platform.Target `json:"platform" yaml:"platform"`
	SystemIncludePaths  []string        `json:"system_include_paths,omitempty" yaml:"system_include_paths,omitempty"`
	AdditionalLibraries []string        `json:"additional_libraries,omitempty" yaml:"additional_libraries,omitempty"`
	DelayLoadDLLs       []string        `json:"delay_load_dlls,omitempty" yaml:"delay_load_dlls,omitempty"`
	RuntimeDependencies []stage.Pair    `json:"runtime_dependencies,omitempty" yaml:"runtime_dependencies,omitempty"`
	PublicDefinitions   []string        `json:"public_definitions,omitempty" yaml:"public_definitions,omitempty"`
	Skipped             []string        `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// Resolve binds a profile to a platform. Optional libraries and bundles are
// decided here by looking at what is on disk; required files and data
// directories are checked when the plan is evaluated.
func Resolve(p Profile, target platform.Target, env Env) (*Plan, error) {
	if env.ModuleDir == "" {
		return nil, ErrMissingModuleDir
	}

	plan := &Plan{
		Profile:           p,
		Platform:          target,
		Env:               env,
		PublicDefinitions: append([]string(nil), p.Definitions...),
	}

	info, ok := platform.Lookup(target)
	layout, hasLayout := p.Layouts[target]
	if !ok || !hasLayout {
		log.Warn("profile has no layout for platform, only definitions apply", "profile", p.Name, "platform", target)
		return plan, nil
	}
	plan.Supported = true
	plan.Vars = env.Vars(info)

	root := filepath.Join(env.ModuleDir, info.SourceDir)
	seen := make(map[string]bool)
	delayLoad := func(name string) {
		if !seen[name] {
			seen[name] = true
			plan.DelayLoadDLLs = append(plan.DelayLoadDLLs, name)
		}
	}

	if layout.IncludeDir != nil {
		inc, err := filepath.Abs(filepath.Join(root, filepath.FromSlash(*layout.IncludeDir)))
		if err != nil {
			return nil, fmt.Errorf("unable to resolve include path: %w", err)
		}
		plan.SystemIncludePaths = append(plan.SystemIncludePaths, inc)
	}

	for _, lib := range layout.ImportLibs {
		plan.AdditionalLibraries = append(plan.AdditionalLibraries, filepath.Join(root, filepath.FromSlash(lib)))
	}

	addLibrary := func(lib Library, optional bool) {
		src := filepath.Join(root, filepath.FromSlash(lib.Dir), lib.File)
		if optional && !exists(src) {
			log.Debug("optional library absent", "file", lib.File)
			return
		}
		if lib.Link {
			plan.AdditionalLibraries = append(plan.AdditionalLibraries, src)
		}
		if lib.DelayLoad {
			if info.DelayLoadByPath {
				delayLoad(src)
			} else {
				delayLoad(lib.File)
			}
		}
		plan.Files = append(plan.Files, stage.File{
			Source:      src,
			Destination: lib.Dest + "/" + lib.File,
			Optional:    optional,
		})
	}

	for _, lib := range layout.Libraries {
		addLibrary(lib, false)
	}
	for _, lib := range layout.Optional {
		addLibrary(lib, true)
	}

	for _, b := range layout.Bundles {
		gate := filepath.Join(root, filepath.FromSlash(b.Gate))
		if !exists(gate) {
			log.Debug("accelerator bundle not present", "bundle", b.Name, "gate", gate)
			continue
		}
		log.Info("accelerator bundle found", "bundle", b.Name)
		for _, m := range b.Members {
			addLibrary(Library{File: m, Dir: b.MemberDir, Dest: b.Dest, DelayLoad: true}, true)
		}
	}

	for _, d := range layout.Directories {
		plan.Rules = append(plan.Rules, stage.Rule{
			Name:              d.Name,
			Root:              filepath.Join(root, filepath.FromSlash(d.Dir)),
			Source:            d.Name,
			Destination:       d.Dest,
			SubdirDestination: d.SubdirDest,
			Recursive:         true,
		})
	}

	return plan, nil
}

// Evaluate walks the plan's directories and produces the module rules.
// A missing data directory or required library aborts evaluation.
func (p *Plan) Evaluate() (*ModuleRules, error) {
	mr := p.static()
	if !p.Supported {
		return mr, nil
	}

	res, err := stage.Collect(p.Rules, p.Files, p.Vars)
	if err != nil {
		return nil, fmt.Errorf("evaluating %s for %s: %w", p.Profile.Name, p.Platform, err)
	}

	reg := stage.NewRegistry()
	if err := stage.Apply(reg, res.Pairs); err != nil {
		return nil, err
	}
	mr.RuntimeDependencies = reg.Pairs()
	mr.Skipped = res.Skipped
	return mr, nil
}

// Stage evaluates the plan and hands every runtime dependency to sink.
func (p *Plan) Stage(sink stage.Sink) (*ModuleRules, error) {
	mr, err := p.Evaluate()
	if err != nil {
		return nil, err
	}
	if err := stage.Apply(sink, mr.RuntimeDependencies); err != nil {
		return mr, err
	}
	return mr, nil
}

// SourceDirs lists the directories whose contents feed the plan.
func (p *Plan) SourceDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, f := range p.Files {
		add(filepath.Dir(f.Source))
	}
	for _, r := range p.Rules {
		add(r.SourceDir())
	}
	return dirs
}

func (p *Plan) static() *ModuleRules {
	return &ModuleRules{
		Profile:             p.Profile.Name,
		Module:              p.Profile.Module,
		Platform:            p.Platform,
		SystemIncludePaths:  p.SystemIncludePaths,
		AdditionalLibraries: p.AdditionalLibraries,
		DelayLoadDLLs:       p.DelayLoadDLLs,
		PublicDefinitions:   p.PublicDefinitions,
	}
}

// RuntimeLibraryPath returns the path the runtime module opens the core
// library from.
func RuntimeLibraryPath(p Profile, target platform.Target, pluginDir string) (string, error) {
	layout, ok := p.Layouts[target]
	if !ok || layout.Loader == "" {
		return "", fmt.Errorf("%w: %s on %s", ErrNoRuntimeLoader, p.Name, target)
	}
	return filepath.Join(pluginDir, filepath.FromSlash(layout.Loader)), nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
