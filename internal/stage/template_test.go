package stage

import (
	"errors"
	"testing"
)

func TestExpand(t *testing.T) {
	vars := Vars{
		VarProjectDir:  "/work/Game",
		VarPluginDir:   "/work/Game/Plugins/VoicevoxNativeCore",
		VarBinPlatform: "Win64",
	}

	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"project binaries", "$(ProjectDir)/Binaries/$(BinPlatform)/voicevox_core.dll", "/work/Game/Binaries/Win64/voicevox_core.dll"},
		{"plugin third party", "$(PluginDir)/Binaries/ThirdParty/VoicevoxCore/$(BinPlatform)", "/work/Game/Plugins/VoicevoxNativeCore/Binaries/ThirdParty/VoicevoxCore/Win64"},
		{"duplicate slashes", "$(ProjectDir)//Binaries/./$(BinPlatform)/", "/work/Game/Binaries/Win64"},
		{"no placeholders", "staging/out", "staging/out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.tmpl, vars)
			if err != nil {
				t.Fatalf("Expand failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestExpandUnresolved(t *testing.T) {
	_, err := Expand("$(ProjectDir)/Binaries/$(BinPlatform)", Vars{VarBinPlatform: "Mac"})
	if !errors.Is(err, ErrUnresolvedPlaceholder) {
		t.Fatalf("expected ErrUnresolvedPlaceholder, got %v", err)
	}
}

func TestExpandEmpty(t *testing.T) {
	if _, err := Expand("  ", nil); !errors.Is(err, ErrEmptyDestination) {
		t.Fatalf("expected ErrEmptyDestination, got %v", err)
	}
}

func TestExpandNormalizesUnicode(t *testing.T) {
	// "ボ" decomposed (NFD) as returned by HFS+.
	decomposed := "\u30db\u3099"
	got, err := Expand("out/"+decomposed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "out/\u30dc" {
		t.Errorf("expected NFC form, got %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders("$(PluginDir)/Binaries/$(BinPlatform)/x")
	if len(got) != 2 || got[0] != "PluginDir" || got[1] != "BinPlatform" {
		t.Errorf("Placeholders = %v", got)
	}
}

func TestVarsWith(t *testing.T) {
	base := Vars{"A": "1"}
	next := base.With("B", "2")
	if _, ok := base["B"]; ok {
		t.Error("With must not modify the receiver")
	}
	if next["A"] != "1" || next["B"] != "2" {
		t.Errorf("unexpected vars %v", next)
	}
}
