package stage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func destinations(pairs []Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Destination)
	}
	return out
}

func TestWalkRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x64", "model", "a.bin"), "a")
	writeFile(t, filepath.Join(root, "x64", "model", "sub", "b.bin"), "b")

	pairs, err := Walk(Rule{
		Root:        filepath.Join(root, "x64"),
		Source:      "model",
		Destination: "dest",
		Recursive:   true,
	}, nil)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"dest/model/a.bin", "dest/model/sub/b.bin"}
	if diff := cmp.Diff(want, destinations(pairs)); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}
	if pairs[1].Source != filepath.Join(root, "x64", "model", "sub", "b.bin") {
		t.Errorf("unexpected source %s", pairs[1].Source)
	}
}

func TestWalkNonRecursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "model", "a.bin"), "a")
	writeFile(t, filepath.Join(root, "model", "sub", "b.bin"), "b")

	pairs, err := Walk(Rule{Root: root, Source: "model", Destination: "dest"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"dest/model/a.bin"}, destinations(pairs)); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkFilesBeforeSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "dic", "z.def"), "z")
	writeFile(t, filepath.Join(root, "dic", "a", "x.bin"), "x")
	writeFile(t, filepath.Join(root, "dic", "a", "b", "y.bin"), "y")
	writeFile(t, filepath.Join(root, "dic", "c", "w.bin"), "w")

	pairs, err := Walk(Rule{Root: root, Source: "dic", Destination: "out", Recursive: true}, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"out/dic/z.def",
		"out/dic/a/x.bin",
		"out/dic/a/b/y.bin",
		"out/dic/c/w.bin",
	}
	if diff := cmp.Diff(want, destinations(pairs)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkSubdirDestination(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "model", "top.bin"), "t")
	writeFile(t, filepath.Join(root, "model", "v1", "deep.bin"), "d")

	vars := Vars{VarPluginDir: "/plugin", VarProjectDir: "/project", VarBinPlatform: "Win64"}
	pairs, err := Walk(Rule{
		Root:              root,
		Source:            "model",
		Destination:       "$(PluginDir)/Binaries/ThirdParty/VoicevoxCore/$(BinPlatform)",
		SubdirDestination: "$(ProjectDir)/Binaries/$(BinPlatform)",
		Recursive:         true,
	}, vars)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"/plugin/Binaries/ThirdParty/VoicevoxCore/Win64/model/top.bin",
		"/project/Binaries/Win64/model/v1/deep.bin",
	}
	if diff := cmp.Diff(want, destinations(pairs)); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkSymlinkCycle(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "model", "a.bin"), "a")
	writeFile(t, filepath.Join(root, "shared", "c.bin"), "c")
	if err := os.Symlink("..", filepath.Join(root, "model", "loop")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := os.Symlink(filepath.Join(root, "shared"), filepath.Join(root, "model", "shared")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "gone"), filepath.Join(root, "model", "dangling")); err != nil {
		t.Fatal(err)
	}

	pairs, err := Walk(Rule{Root: root, Source: "model", Destination: "dest", Recursive: true}, nil)
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	// loop resolves to root and is walked once; root's model is the
	// directory being walked, so the walk stops there.
	want := []string{
		"dest/model/a.bin",
		"dest/model/loop/shared/c.bin",
		"dest/model/shared/c.bin",
	}
	if diff := cmp.Diff(want, destinations(pairs)); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkMissingDirectory(t *testing.T) {
	_, err := Walk(Rule{Name: "model", Root: t.TempDir(), Source: "model", Destination: "out"}, nil)
	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StageError, got %T", err)
	}
	if se.Rule != "model" || se.Path != "model" {
		t.Errorf("unexpected error context: %+v", se)
	}
}

func TestWalkSourceIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "model"), "not a dir")

	_, err := Walk(Rule{Root: root, Source: "model", Destination: "out"}, nil)
	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestCollectOptionalFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "voicevox_core.dll"), "core")
	writeFile(t, filepath.Join(root, "onnxruntime_providers_cuda.dll"), "cuda")

	files := []File{
		{Source: filepath.Join(root, "voicevox_core.dll"), Destination: "bin/voicevox_core.dll"},
		{Source: filepath.Join(root, "onnxruntime_providers_cuda.dll"), Destination: "bin/onnxruntime_providers_cuda.dll", Optional: true},
		{Source: filepath.Join(root, "onnxruntime_providers_tensorrt.dll"), Destination: "bin/onnxruntime_providers_tensorrt.dll", Optional: true},
	}

	res, err := Collect(nil, files, nil)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"bin/voicevox_core.dll", "bin/onnxruntime_providers_cuda.dll"}
	if diff := cmp.Diff(want, destinations(res.Pairs)); diff != "" {
		t.Errorf("destinations mismatch (-want +got):\n%s", diff)
	}
	if len(res.Skipped) != 1 || filepath.Base(res.Skipped[0]) != "onnxruntime_providers_tensorrt.dll" {
		t.Errorf("unexpected skipped list: %v", res.Skipped)
	}
}

func TestCollectRequiredFileMissing(t *testing.T) {
	files := []File{{Source: filepath.Join(t.TempDir(), "voicevox_core.dll"), Destination: "bin/voicevox_core.dll"}}
	_, err := Collect(nil, files, nil)
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if !IsNotFound(err) {
		t.Error("IsNotFound should report a missing file")
	}
}

func TestCollectNoRules(t *testing.T) {
	if _, err := Collect(nil, nil, nil); !errors.Is(err, ErrNoRules) {
		t.Fatalf("expected ErrNoRules, got %v", err)
	}
}

func TestRunMissingDirectoryWritesNothing(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(root, "model", "a.bin"), "a")

	rules := []Rule{
		{Root: root, Source: "model", Destination: out, Recursive: true},
		{Root: root, Source: "open_jtalk_dic_utf_8-1.11", Destination: out, Recursive: true},
	}

	_, err := New(nil, NewCopier()).Run(rules, nil)
	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("destination should not exist after a failed pass, stat err = %v", err)
	}
}

func TestCheckSourcesBeforeCopy(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(root, "a.bin"), "a")

	pairs := []Pair{
		{Destination: filepath.Join(out, "a.bin"), Source: filepath.Join(root, "a.bin")},
		{Destination: filepath.Join(out, "model", "b.bin"), Source: filepath.Join(root, "model", "b.bin")},
	}
	err := CheckSources(pairs)
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if err := CheckSources(pairs[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunRegistryPerformsNoIO(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(root, "model", "a.bin"), "a")

	reg := NewRegistry()
	res, err := New(nil, reg).Run([]Rule{{Root: root, Source: "model", Destination: out}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reg.Len() != len(res.Pairs) || reg.Len() != 1 {
		t.Fatalf("registry has %d entries, result has %d", reg.Len(), len(res.Pairs))
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("registration must not create the destination")
	}
}

func TestRegistryDeduplicates(t *testing.T) {
	reg := NewRegistry()
	reg.Add("bin/a.dll", "src1/a.dll")
	reg.Add("bin/b.dll", "src/b.dll")
	reg.Add("bin/a.dll", "src2/a.dll")

	want := []Pair{
		{Destination: "bin/a.dll", Source: "src2/a.dll"},
		{Destination: "bin/b.dll", Source: "src/b.dll"},
	}
	if diff := cmp.Diff(want, reg.Pairs()); diff != "" {
		t.Errorf("registry mismatch (-want +got):\n%s", diff)
	}
	if src, ok := reg.Lookup("bin/a.dll"); !ok || src != "src2/a.dll" {
		t.Errorf("Lookup = %q, %v", src, ok)
	}
}
