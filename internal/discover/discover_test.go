package discover

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/voicevox-ue/vvstage/internal/platform"
)

func TestFind(t *testing.T) {
	root := t.TempDir()
	core := filepath.Join(root, "Plugins", "VoicevoxEngine", "Source", "ThirdParty", "VoicevoxCore")
	nemo := filepath.Join(root, "Plugins", "VoicevoxNemoCore", "Source", "ThirdParty", "VoicevoxNativeNemoCore")
	for _, f := range []string{
		filepath.Join(core, "x64", "voicevox_core.dll"),
		filepath.Join(core, "osx", "libvoicevox_core.dylib"),
		filepath.Join(nemo, "x64", "Nemo", "voicevox_core.dll"),
		filepath.Join(root, "Binaries", "Win64", "voicevox_core.dll"),
	} {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(f, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	mods, err := Find(root, Options{All: true})
	if err != nil {
		t.Fatal(err)
	}

	want := []Module{
		{
			Dir:       core,
			Platforms: []platform.Target{platform.Mac, platform.Win64},
			Libraries: []string{
				filepath.Join(core, "osx", "libvoicevox_core.dylib"),
				filepath.Join(core, "x64", "voicevox_core.dll"),
			},
		},
		{
			Dir:       nemo,
			Platforms: []platform.Target{platform.Win64},
			Nemo:      true,
			Libraries: []string{filepath.Join(nemo, "x64", "Nemo", "voicevox_core.dll")},
		},
	}
	if diff := cmp.Diff(want, mods); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}
}

func TestFindEmpty(t *testing.T) {
	mods, err := Find(t.TempDir(), Options{All: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(mods) != 0 {
		t.Errorf("expected no modules, got %v", mods)
	}
}
