package stage

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		files[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return files
}

func TestCopyIsIdempotent(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(src, "x64", "model", "a.bin"), "alpha")
	writeFile(t, filepath.Join(src, "x64", "model", "sub", "b.bin"), "beta")

	rules := []Rule{{Root: filepath.Join(src, "x64"), Source: "model", Destination: filepath.ToSlash(out), Recursive: true}}

	for i := 0; i < 2; i++ {
		c := NewCopier()
		if _, err := New(nil, c).Run(rules, nil); err != nil {
			t.Fatalf("pass %d failed: %v", i, err)
		}
		if c.Stats().Files != 2 {
			t.Errorf("pass %d copied %d files, want 2", i, c.Stats().Files)
		}
	}

	got := readTree(t, out)
	want := map[string]string{"model/a.bin": "alpha", "model/sub/b.bin": "beta"}
	if len(got) != len(want) {
		t.Fatalf("got %d files, want %d: %v", len(got), len(want), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestCopyOverwritesReadOnlyDestination(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(src, "model", "a.bin"), "fresh")

	stale := filepath.Join(out, "model", "a.bin")
	writeFile(t, stale, "stale contents from a previous run")
	if err := os.Chmod(stale, 0o444); err != nil {
		t.Fatal(err)
	}

	rules := []Rule{{Root: src, Source: "model", Destination: filepath.ToSlash(out)}}
	if _, err := New(nil, NewCopier()).Run(rules, nil); err != nil {
		t.Fatalf("re-staging over read-only file failed: %v", err)
	}

	b, err := os.ReadFile(stale)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "fresh" {
		t.Errorf("destination not overwritten: %q", b)
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(stale)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0o200 == 0 {
			t.Errorf("destination should be owner-writable, mode %v", info.Mode())
		}
	}
}

func TestCopyDryRun(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "out")
	writeFile(t, filepath.Join(src, "model", "a.bin"), "a")

	c := &Copier{DryRun: true}
	if _, err := New(nil, c).Run([]Rule{{Root: src, Source: "model", Destination: filepath.ToSlash(out)}}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("dry run must not write")
	}
}
