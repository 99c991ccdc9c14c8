package stage

import "path/filepath"

// Rule mirrors a directory tree into a destination.
//
// Every file under Root/Source is staged to
// Destination/Source/<path relative to Root/Source>, so the source folder
// name (for example the dictionary folder with its version string) is kept
// in the staged layout.
type Rule struct {
	// Name identifies the rule in logs and errors.
	Name string

	// Root is the directory Source is resolved against, usually the
	// platform folder of a ThirdParty module (".../VoicevoxCore/x64").
	Root string

	// Source is the directory to mirror, relative to Root.
	Source string

	// Destination is the destination base template.
	Destination string

	// SubdirDestination, when set, is used instead of Destination for
	// everything below the top level of Source.
	SubdirDestination string

	// Recursive descends into subdirectories depth-first.
	Recursive bool
}

// SourceDir returns the absolute source directory of the rule.
func (r Rule) SourceDir() string {
	return filepath.Join(r.Root, filepath.FromSlash(r.Source))
}

func (r Rule) label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Source
}

// File stages a single file.
type File struct {
	// Source is the absolute path of the file.
	Source string

	// Destination is the full destination template including the file name.
	Destination string

	// Optional files are skipped silently when absent.
	Optional bool
}

// Pair is one staging action: Source is copied to Destination.
type Pair struct {
	Destination string `json:"destination" yaml:"destination"`
	Source      string `json:"source" yaml:"source"`
}
