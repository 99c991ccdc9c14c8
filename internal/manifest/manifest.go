// Package manifest writes evaluated module rules to disk and reads them back
// so a later copy pass can replay the runtime dependencies without
// re-evaluating a profile.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/voicevox-ue/vvstage/internal/rules"
	"github.com/voicevox-ue/vvstage/internal/stage"
	"gopkg.in/yaml.v3"
)

// Version is the manifest schema version written by this package.
const Version = 1

var (
	// ErrUnsupportedFormat is returned for an unknown manifest extension.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrInvalidManifest is returned when a manifest fails validation.
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Format is a manifest encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Manifest is the on-disk form of evaluated module rules.
type Manifest struct {
	Version           int `json:"version" yaml:"version"`
	rules.ModuleRules `yaml:",inline"`
}

// New wraps module rules in a manifest.
func New(mr *rules.ModuleRules) *Manifest {
	return &Manifest{Version: Version, ModuleRules: *mr}
}

// Validate checks the manifest can be replayed.
func (m *Manifest) Validate() error {
	if m.Version != Version {
		return fmt.Errorf("%w: version %d, expected %d", ErrInvalidManifest, m.Version, Version)
	}
	seen := make(map[string]bool, len(m.RuntimeDependencies))
	for i, p := range m.RuntimeDependencies {
		if p.Source == "" || p.Destination == "" {
			return fmt.Errorf("%w: entry %d has an empty source or destination", ErrInvalidManifest, i)
		}
		if seen[p.Destination] {
			return fmt.Errorf("%w: duplicate destination %s", ErrInvalidManifest, p.Destination)
		}
		seen[p.Destination] = true
	}
	return nil
}

// Encode writes the manifest in the given format.
func Encode(w io.Writer, m *Manifest, f Format) error {
	switch f {
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("unable to encode manifest: %w", err)
		}
		return enc.Close()
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("unable to encode manifest: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

// Decode reads a manifest in the given format and validates it.
func Decode(r io.Reader, f Format) (*Manifest, error) {
	var m Manifest
	switch f {
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
		}
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest to path, choosing the format from its extension.
// The file is only replaced once encoding succeeded.
func Save(path string, m *Manifest) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, m, f); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("unable to create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("unable to write manifest: %w", err)
	}

	log.Debug("wrote manifest", "path", path, "entries", len(m.RuntimeDependencies))
	return nil
}

// Load reads the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open manifest: %w", err)
	}
	defer file.Close() //nolint:errcheck

	m, err := Decode(file, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Replay hands every runtime dependency of the manifest to sink. All sources
// are checked first so a stale manifest fails before the first write.
func Replay(m *Manifest, sink stage.Sink) error {
	log.Info("replaying manifest", "profile", m.Profile, "platform", m.Platform, "entries", len(m.RuntimeDependencies))
	if err := stage.CheckSources(m.RuntimeDependencies); err != nil {
		return fmt.Errorf("stale manifest: %w", err)
	}
	return stage.Apply(sink, m.RuntimeDependencies)
}
