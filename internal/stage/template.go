package stage

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Well-known template variables.
const (
	VarProjectDir  = "ProjectDir"
	VarPluginDir   = "PluginDir"
	VarModuleDir   = "ModuleDir"
	VarPlatform    = "Platform"
	VarBinPlatform = "BinPlatform"
)

var placeholderRe = regexp.MustCompile(`\$\(([A-Za-z][A-Za-z0-9_]*)\)`)

// Vars holds the values substituted into destination templates.
type Vars map[string]string

// With returns a copy of v with key set to value.
func (v Vars) With(key, value string) Vars {
	out := make(Vars, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	out[key] = value
	return out
}

// Keys returns the defined variable names, sorted.
func (v Vars) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expand substitutes $(Name) placeholders. Every placeholder must resolve.
// The result uses forward slashes and is NFC-normalised so that names read
// from HFS+ volumes compare equal to names typed in configuration.
func Expand(tmpl string, vars Vars) (string, error) {
	if strings.TrimSpace(tmpl) == "" {
		return "", ErrEmptyDestination
	}

	var missing []string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		val, ok := vars[name]
		if !ok || val == "" {
			missing = append(missing, name)
			return m
		}
		return filepath.ToSlash(val)
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s in %q", ErrUnresolvedPlaceholder, strings.Join(missing, ", "), tmpl)
	}

	return cleanSlash(out), nil
}

// Placeholders lists the variable names a template refers to.
func Placeholders(tmpl string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		names = append(names, m[1])
	}
	return names
}

// JoinDest joins slash-separated destination segments.
func JoinDest(elem ...string) string {
	parts := make([]string, 0, len(elem))
	for _, e := range elem {
		if e != "" {
			parts = append(parts, filepath.ToSlash(e))
		}
	}
	return cleanSlash(path.Join(parts...))
}

func cleanSlash(p string) string {
	p = norm.NFC.String(filepath.ToSlash(p))
	// path.Clean would collapse a leading "//" of UNC shares.
	if strings.HasPrefix(p, "//") {
		return "/" + path.Clean(p[1:])
	}
	return path.Clean(p)
}
