// Package rulefile loads custom staging rules from HCL files.
//
// A rule file holds any number of rule and file blocks:
//
//	rule "model" {
//	  root               = "$(ModuleDir)/x64"
//	  source             = "model"
//	  destination        = "$(ProjectDir)/Binaries/$(BinPlatform)"
//	  subdir_destination = "$(ProjectDir)/Binaries/$(BinPlatform)"
//	  recursive          = true
//	}
//
//	file "core" {
//	  source      = "$(ModuleDir)/x64/voicevox_core.dll"
//	  destination = "$(ProjectDir)/Binaries/$(BinPlatform)/voicevox_core.dll"
//	  optional    = false
//	}
//
// Placeholders in root and file sources are expanded when the file is
// loaded; destinations keep them until staging.
package rulefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/voicevox-ue/vvstage/internal/stage"
)

// ErrDuplicateBlock is returned when two blocks of a kind share a name.
var ErrDuplicateBlock = errors.New("duplicate block name")

// Set is the content of one or more rule files.
type Set struct {
	Rules []stage.Rule
	Files []stage.File
}

type hclFile struct {
	Rules []*hclRule  `hcl:"rule,block"`
	Files []*hclEntry `hcl:"file,block"`
}

type hclRule struct {
	Name              string  `hcl:"name,label"`
	Root              string  `hcl:"root"`
	Source            string  `hcl:"source"`
	Destination       string  `hcl:"destination"`
	SubdirDestination *string `hcl:"subdir_destination,optional"`
	Recursive         *bool   `hcl:"recursive,optional"`
}

type hclEntry struct {
	Name        string `hcl:"name,label"`
	Source      string `hcl:"source"`
	Destination string `hcl:"destination"`
	Optional    *bool  `hcl:"optional,optional"`
}

// Load parses the given rule files in order.
func Load(vars stage.Vars, paths ...string) (*Set, error) {
	parser := hclparse.NewParser()
	set := &Set{}
	rules := make(map[string]string)
	files := make(map[string]string)

	for _, path := range paths {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse rule file %s: %w", path, diags)
		}

		var parsed hclFile
		if diags := gohcl.DecodeBody(f.Body, nil, &parsed); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode rule file %s: %w", path, diags)
		}

		base := filepath.Dir(path)
		for _, r := range parsed.Rules {
			if prev, ok := rules[r.Name]; ok {
				return nil, fmt.Errorf("%w: rule %q in %s, first defined in %s", ErrDuplicateBlock, r.Name, path, prev)
			}
			rules[r.Name] = path

			rule, err := r.toRule(base, vars)
			if err != nil {
				return nil, fmt.Errorf("%s: rule %q: %w", path, r.Name, err)
			}
			set.Rules = append(set.Rules, rule)
		}
		for _, e := range parsed.Files {
			if prev, ok := files[e.Name]; ok {
				return nil, fmt.Errorf("%w: file %q in %s, first defined in %s", ErrDuplicateBlock, e.Name, path, prev)
			}
			files[e.Name] = path

			src, err := localPath(base, e.Source, vars)
			if err != nil {
				return nil, fmt.Errorf("%s: file %q: %w", path, e.Name, err)
			}
			set.Files = append(set.Files, stage.File{
				Source:      src,
				Destination: e.Destination,
				Optional:    e.Optional != nil && *e.Optional,
			})
		}

		log.Debug("loaded rule file", "path", path, "rules", len(parsed.Rules), "files", len(parsed.Files))
	}

	return set, nil
}

func (r *hclRule) toRule(base string, vars stage.Vars) (stage.Rule, error) {
	root, err := localPath(base, r.Root, vars)
	if err != nil {
		return stage.Rule{}, err
	}
	rule := stage.Rule{
		Name:        r.Name,
		Root:        root,
		Source:      r.Source,
		Destination: r.Destination,
		Recursive:   r.Recursive == nil || *r.Recursive,
	}
	if r.SubdirDestination != nil {
		rule.SubdirDestination = *r.SubdirDestination
	}
	return rule, nil
}

// localPath expands placeholders and resolves a relative result against the
// rule file's directory.
func localPath(base, tmpl string, vars stage.Vars) (string, error) {
	p, err := stage.Expand(tmpl, vars)
	if err != nil {
		return "", err
	}
	p = filepath.FromSlash(p)
	if !filepath.IsAbs(p) && !isUNC(p) {
		p = filepath.Join(base, p)
	}
	return p, nil
}

func isUNC(p string) bool {
	return len(p) > 1 && os.IsPathSeparator(p[0]) && os.IsPathSeparator(p[1])
}
