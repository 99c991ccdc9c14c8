package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/voicevox-ue/vvstage/internal/discover"
	"github.com/voicevox-ue/vvstage/internal/platform"
	"github.com/voicevox-ue/vvstage/internal/project"
	"github.com/voicevox-ue/vvstage/internal/rulefile"
	"github.com/voicevox-ue/vvstage/internal/rules"
	"github.com/voicevox-ue/vvstage/utils"
)

// settings is the resolved configuration of one invocation.
type settings struct {
	Profile    rules.Profile
	Platform   platform.Target
	Env        rules.Env
	Mode       string
	Manifest   string
	RulesFiles []string
}

func loadSettings() (*settings, error) {
	p, err := rules.Lookup(viper.GetString("profile"))
	if err != nil {
		return nil, err
	}
	target, err := platform.Parse(viper.GetString("platform"))
	if err != nil {
		return nil, err
	}

	s := &settings{
		Profile:  p,
		Platform: target,
		Mode:     viper.GetString("mode"),
		Manifest: expand(viper.GetString("manifest")),
	}
	for _, f := range viper.GetStringSlice("rules_files") {
		s.RulesFiles = append(s.RulesFiles, expand(f))
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	// A missing project directory is not fatal: profiles that only stage
	// into the plugin never need it, and the others fail on the
	// unresolved placeholder.
	s.Env.ProjectDir, err = project.Resolve(hostArgs, viper.GetString("project_dir"), cwd)
	if err != nil {
		log.Warn("project directory not resolved", "error", err)
		s.Env.ProjectDir = ""
	}

	s.Env.ModuleDir, err = resolveModuleDir(p, s.Env.ProjectDir)
	if err != nil {
		return nil, err
	}
	s.Env.PluginDir = resolvePluginDir(p, s.Env)

	log.Debug("settings resolved",
		"profile", p.Name,
		"platform", target,
		"module_dir", s.Env.ModuleDir,
		"project_dir", s.Env.ProjectDir,
		"plugin_dir", s.Env.PluginDir)
	return s, nil
}

// resolveModuleDir uses the configured module directory, or looks for the
// profile's ThirdParty module under the project.
func resolveModuleDir(p rules.Profile, projectDir string) (string, error) {
	if dir := viper.GetString("module_dir"); dir != "" {
		return filepath.Abs(expand(dir))
	}
	if projectDir == "" {
		return "", rules.ErrMissingModuleDir
	}

	mods, err := discover.Find(projectDir, discover.Options{All: true})
	if err != nil {
		return "", err
	}
	for _, m := range mods {
		if filepath.Base(m.Dir) == p.Module {
			log.Info("using discovered module directory", "dir", m.Dir)
			return m.Dir, nil
		}
	}
	return "", fmt.Errorf("%w: no %s module found under %s", rules.ErrMissingModuleDir, p.Module, projectDir)
}

func resolvePluginDir(p rules.Profile, e rules.Env) string {
	if dir := viper.GetString("plugin_dir"); dir != "" {
		return expand(dir)
	}
	if dir, ok := project.PluginFromModule(e.ModuleDir); ok {
		return dir
	}
	if e.ProjectDir != "" {
		if dir, err := project.PluginDir(e.ProjectDir, p.Plugin); err == nil {
			return dir
		}
	}
	return ""
}

// buildPlan resolves the profile and appends the extra rule files.
func buildPlan(s *settings) (*rules.Plan, error) {
	plan, err := rules.Resolve(s.Profile, s.Platform, s.Env)
	if err != nil {
		return nil, err
	}
	if len(s.RulesFiles) == 0 || !plan.Supported {
		return plan, nil
	}

	set, err := rulefile.Load(plan.Vars, s.RulesFiles...)
	if err != nil {
		return nil, err
	}
	plan.Rules = append(plan.Rules, set.Rules...)
	plan.Files = append(plan.Files, set.Files...)
	return plan, nil
}

func expand(path string) string {
	if path == "" {
		return ""
	}
	return utils.ExpandPath(path)
}
