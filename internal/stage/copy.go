package stage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// CopyStats holds counters for an eager copy pass.
type CopyStats struct {
	Files int
	Bytes int64
}

// Copier stages pairs by copying them immediately. Destinations are always
// overwritten; read-only attributes on an existing destination are cleared
// first so that files left by a previous run never block re-staging.
type Copier struct {
	// DryRun logs the copies without performing them.
	DryRun bool

	stats CopyStats
}

// NewCopier creates a copier.
func NewCopier() *Copier {
	return &Copier{}
}

// Stats returns the counters accumulated so far.
func (c *Copier) Stats() CopyStats {
	return c.stats
}

// Stage implements Sink.
func (c *Copier) Stage(p Pair) error {
	dst := filepath.FromSlash(p.Destination)

	if c.DryRun {
		log.Info("would copy", "src", p.Source, "dst", dst)
		return nil
	}

	n, err := CopyFile(p.Source, dst)
	if err != nil {
		return &StageError{Op: "copy", Path: p.Source, Err: err}
	}

	c.stats.Files++
	c.stats.Bytes += n
	log.Debug("staged file", "src", p.Source, "dst", dst, "bytes", n)
	return nil
}

// CopyFile copies src over dst, creating parent directories. The destination
// keeps the source permission bits plus owner write.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("unable to open source: %w", err)
	}
	defer in.Close() //nolint:errcheck

	info, err := in.Stat()
	if err != nil {
		return 0, fmt.Errorf("unable to stat source: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil { //nolint:gosec
		return 0, fmt.Errorf("unable to create destination directory: %w", err)
	}

	if err := clearReadOnly(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("unable to clear read-only attribute: %w", err)
	}

	mode := info.Mode().Perm() | 0o200
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, fmt.Errorf("unable to create destination: %w", err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return n, fmt.Errorf("unable to copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("unable to close destination: %w", err)
	}

	// O_CREATE does not touch the mode of an existing file.
	if err := os.Chmod(dst, mode); err != nil {
		return n, fmt.Errorf("unable to set destination mode: %w", err)
	}
	return n, nil
}
