package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/voicevox-ue/vvstage/internal/discover"
	"github.com/voicevox-ue/vvstage/internal/platform"
	"github.com/voicevox-ue/vvstage/internal/rules"
	"github.com/voicevox-ue/vvstage/internal/stage"
)

var plain = NewStyles(false)

func sampleRules() *rules.ModuleRules {
	return &rules.ModuleRules{
		Profile:       "engine-core",
		Module:        "VoicevoxCore",
		Platform:      platform.Win64,
		DelayLoadDLLs: []string{"voicevox_core.dll", "onnxruntime.dll"},
		RuntimeDependencies: []stage.Pair{
			{Destination: "/proj/Binaries/Win64/voicevox_core.dll", Source: "/mod/x64/voicevox_core.dll"},
		},
		PublicDefinitions: []string{`OPEN_JTALK_DIC_NAME="open_jtalk_dic_utf_8-1.11"`},
	}
}

func TestCheck(t *testing.T) {
	out := Check("native-core", platform.Win64, []rules.Status{
		{Name: "voicevox_core.dll", Kind: rules.KindLibrary, Required: true, Present: true, Path: "/m/x64/voicevox_core.dll", Size: 2048, Files: 1},
		{Name: "onnxruntime.dll", Kind: rules.KindLibrary, Required: true, Path: "/m/x64/onnxruntime.dll"},
		{Name: "DirectML.dll", Kind: rules.KindOptional, Path: "/m/x64/DirectML.dll"},
		{Name: "model", Kind: rules.KindDirectory, Required: true, Present: true, Path: "/m/x64/model", Size: 1000, Files: 3},
	}, plain)

	require.Contains(t, out, "native-core inputs for Win64")
	require.Contains(t, out, "✓ voicevox_core.dll: /m/x64/voicevox_core.dll (2.0 kB)")
	require.Contains(t, out, "✗ onnxruntime.dll: not found /m/x64/onnxruntime.dll")
	require.Contains(t, out, "○ DirectML.dll: not found (optional)")
	require.Contains(t, out, "✓ model: /m/x64/model (1.0 kB, 3 files)")
}

func TestCheckNoLayout(t *testing.T) {
	out := Check("core-nemo", platform.Linux, nil, plain)
	require.Contains(t, out, "no layout for this platform")
}

func TestPlan(t *testing.T) {
	out := Plan(sampleRules(), plain)
	require.True(t, strings.HasPrefix(out, "engine-core (VoicevoxCore) for Win64\n"), out)
	require.Contains(t, out, "Delay-load:\n  voicevox_core.dll\n  onnxruntime.dll\n")
	require.Contains(t, out, "Runtime dependencies (1):\n  /proj/Binaries/Win64/voicevox_core.dll\n    ← /mod/x64/voicevox_core.dll\n")
	require.NotContains(t, out, "Include paths")
}

func TestPlanMarkdown(t *testing.T) {
	md := PlanMarkdown(sampleRules())
	require.Contains(t, md, "# engine-core\n")
	require.Contains(t, md, "| `/proj/Binaries/Win64/voicevox_core.dll` | `/mod/x64/voicevox_core.dll` |")

	out, err := RenderMarkdown(md, "notty", 80)
	require.NoError(t, err)
	require.Contains(t, out, "engine-core")
}

func TestSummaries(t *testing.T) {
	require.Equal(t, "✓ staged 2 files (1.5 kB) in 12ms",
		Staged(stage.CopyStats{Files: 2, Bytes: 1500}, 12*time.Millisecond, plain))
	require.Equal(t, "✓ registered 4 runtime dependencies", Registered(4, plain))
}

func TestModules(t *testing.T) {
	out := Modules([]discover.Module{
		{Dir: "/p/VoicevoxCore", Platforms: []platform.Target{platform.Mac, platform.Win64}},
		{Dir: "/p/VoicevoxNativeNemoCore", Platforms: []platform.Target{platform.Win64}, Nemo: true},
	}, plain)
	require.Equal(t, "/p/VoicevoxCore [Mac, Win64]\n/p/VoicevoxNativeNemoCore [Win64, nemo]\n", out)

	require.Contains(t, Modules(nil, plain), "no module directories found")
}
