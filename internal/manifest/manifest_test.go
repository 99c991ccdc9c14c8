package manifest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/voicevox-ue/vvstage/internal/platform"
	"github.com/voicevox-ue/vvstage/internal/rules"
	"github.com/voicevox-ue/vvstage/internal/stage"
)

func sample() *Manifest {
	return New(&rules.ModuleRules{
		Profile:       "engine-core",
		Module:        "VoicevoxCore",
		Platform:      platform.Win64,
		DelayLoadDLLs: []string{"voicevox_core.dll"},
		RuntimeDependencies: []stage.Pair{
			{Destination: "/proj/Binaries/Win64/voicevox_core.dll", Source: "/mod/x64/voicevox_core.dll"},
			{Destination: "/proj/Binaries/Win64/model/metas.json", Source: "/mod/x64/model/metas.json"},
		},
		PublicDefinitions: []string{`OPEN_JTALK_DIC_NAME="open_jtalk_dic_utf_8-1.11"`},
	})
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("out/rules.YML")
	require.NoError(t, err)
	require.Equal(t, YAML, f)

	f, err = FormatFromPath("rules.json")
	require.NoError(t, err)
	require.Equal(t, JSON, f)

	_, err = FormatFromPath("rules.toml")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSaveLoad(t *testing.T) {
	for _, name := range []string{"rules.yml", "rules.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, Save(path, sample()))

			got, err := Load(path)
			require.NoError(t, err)
			require.Equal(t, sample(), got)
		})
	}
}

func TestYAMLLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample(), YAML))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "version: 1\nprofile: engine-core\n"), out)
	require.Contains(t, out, "runtime_dependencies:\n  - destination: /proj/Binaries/Win64/voicevox_core.dll\n")
}

func TestDecodeRejectsDuplicates(t *testing.T) {
	in := `{"version":1,"profile":"x","module":"m","platform":"Win64","runtime_dependencies":[
		{"destination":"/a","source":"/s1"},
		{"destination":"/a","source":"/s2"}]}`
	_, err := Decode(strings.NewReader(in), JSON)
	require.ErrorIs(t, err, ErrInvalidManifest)
}

func TestDecodeRejectsVersion(t *testing.T) {
	_, err := Decode(strings.NewReader("version: 7\nprofile: x\n"), YAML)
	require.ErrorIs(t, err, ErrInvalidManifest)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(strings.NewReader("version: 1\nprofiles: x\n"), YAML)
	require.ErrorIs(t, err, ErrInvalidManifest)
}

func TestReplay(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "core.dll"), []byte("core"), 0o644))

	m := New(&rules.ModuleRules{
		Profile:  "engine-core",
		Platform: platform.Win64,
		RuntimeDependencies: []stage.Pair{
			{Destination: filepath.ToSlash(filepath.Join(dst, "Binaries", "core.dll")), Source: filepath.Join(src, "core.dll")},
		},
	})

	copier := stage.NewCopier()
	require.NoError(t, Replay(m, copier))
	require.Equal(t, 1, copier.Stats().Files)

	b, err := os.ReadFile(filepath.Join(dst, "Binaries", "core.dll"))
	require.NoError(t, err)
	require.Equal(t, "core", string(b))
}

func TestReplayMissingSourceWritesNothing(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.bin"), []byte("a"), 0o644))

	m := New(&rules.ModuleRules{
		Profile:  "engine-core",
		Platform: platform.Win64,
		RuntimeDependencies: []stage.Pair{
			{Destination: filepath.ToSlash(filepath.Join(dst, "out", "a.bin")), Source: filepath.Join(src, "a.bin")},
			{Destination: filepath.ToSlash(filepath.Join(dst, "out", "model", "b.bin")), Source: filepath.Join(src, "model", "b.bin")},
		},
	})

	copier := stage.NewCopier()
	err := Replay(m, copier)
	require.ErrorIs(t, err, stage.ErrFileNotFound)
	require.Zero(t, copier.Stats().Files)

	_, err = os.Stat(filepath.Join(dst, "out"))
	require.True(t, os.IsNotExist(err), "nothing may be written when a source is missing")
}
