// Package archive packs a staged tree into a zstd-compressed tarball and
// unpacks it again. Packing is deterministic: entries are sorted and carry
// no timestamps or ownership, so the same tree always gives the same bytes.
package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

// DefaultLevel is the zstd level used when none is configured.
const DefaultLevel = 3

// ErrUnsafePath is returned when an archive entry would land outside the
// extraction directory.
var ErrUnsafePath = errors.New("archive entry escapes destination")

var epoch = time.Unix(0, 0).UTC()

// Stats holds counters for a pack or unpack.
type Stats struct {
	Files int
	Dirs  int
	Bytes int64
}

// Pack writes every entry under dir to w.
func Pack(w io.Writer, dir string, level int) (Stats, error) {
	var stats Stats
	if level <= 0 {
		level = DefaultLevel
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return stats, fmt.Errorf("%s is not a directory", dir)
	}

	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return stats, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	tw := tar.NewWriter(zw)

	// WalkDir visits entries in lexical order.
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		name := filepath.ToSlash(rel)

		fi, err := d.Info()
		if err != nil {
			return err
		}

		hdr := &tar.Header{
			Name:    name,
			Mode:    int64(fi.Mode().Perm()),
			ModTime: epoch,
			Format:  tar.FormatPAX,
		}

		switch {
		case d.IsDir():
			hdr.Typeflag = tar.TypeDir
			hdr.Name += "/"
			stats.Dirs++
			return tw.WriteHeader(hdr)

		case fi.Mode()&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			hdr.Typeflag = tar.TypeSymlink
			hdr.Linkname = filepath.ToSlash(target)
			return tw.WriteHeader(hdr)

		case fi.Mode().IsRegular():
			hdr.Typeflag = tar.TypeReg
			hdr.Size = fi.Size()
			if err := tw.WriteHeader(hdr); err != nil {
				return err
			}
			n, err := copyFile(tw, path)
			stats.Files++
			stats.Bytes += n
			return err

		default:
			log.Warn("skipping special file", "path", path)
			return nil
		}
	})
	if err != nil {
		_ = zw.Close()
		return stats, fmt.Errorf("failed to pack %s: %w", dir, err)
	}

	if err := tw.Close(); err != nil {
		return stats, err
	}
	if err := zw.Close(); err != nil {
		return stats, err
	}

	log.Debug("packed directory", "dir", dir, "files", stats.Files, "bytes", stats.Bytes)
	return stats, nil
}

// PackFile packs dir into the file at out.
func PackFile(dir, out string, level int) (Stats, error) {
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil { //nolint:gosec
		return Stats{}, err
	}
	f, err := os.Create(out)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to create archive: %w", err)
	}

	stats, err := Pack(f, dir, level)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(out)
	}
	return stats, err
}

// Unpack extracts an archive written by Pack into dir.
func Unpack(r io.Reader, dir string) (Stats, error) {
	var stats Stats

	zr, err := zstd.NewReader(r)
	if err != nil {
		return stats, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("failed to read archive: %w", err)
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return stats, err
		}
		if err := checkParents(dir, target); err != nil {
			return stats, fmt.Errorf("%w: %s: %w", ErrUnsafePath, hdr.Name, err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil { //nolint:gosec
				return stats, err
			}
			stats.Dirs++

		case tar.TypeSymlink:
			if err := checkLink(dir, target, hdr.Linkname); err != nil {
				return stats, err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { //nolint:gosec
				return stats, err
			}
			_ = os.Remove(target)
			if err := os.Symlink(filepath.FromSlash(hdr.Linkname), target); err != nil {
				return stats, err
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { //nolint:gosec
				return stats, err
			}
			if fi, err := os.Lstat(target); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
				if err := os.Remove(target); err != nil {
					return stats, err
				}
			}
			n, err := writeFile(target, tr, fs.FileMode(hdr.Mode).Perm()|0o200) //nolint:gosec
			if err != nil {
				return stats, err
			}
			stats.Files++
			stats.Bytes += n

		default:
			log.Warn("skipping unsupported archive entry", "name", hdr.Name, "type", hdr.Typeflag)
		}
	}
}

func safeJoin(dir, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimSuffix(name, "/")))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return filepath.Join(dir, clean), nil
}

// checkParents refuses a target below an existing symlink. Pack never
// descends into symlinked directories, so a valid archive has no such entry.
func checkParents(dir, target string) error {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return err
	}
	p := dir
	for _, part := range strings.Split(filepath.Dir(rel), string(filepath.Separator)) {
		if part == "." || part == "" {
			continue
		}
		p = filepath.Join(p, part)
		fi, err := os.Lstat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if fi.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("parent %s is a symlink", p)
		}
	}
	return nil
}

// checkLink refuses link targets that are absolute or point outside dir.
func checkLink(dir, target, linkname string) error {
	link := filepath.FromSlash(linkname)
	if linkname == "" || filepath.IsAbs(link) || strings.HasPrefix(linkname, "/") || filepath.VolumeName(link) != "" {
		return fmt.Errorf("%w: link %s -> %s", ErrUnsafePath, target, linkname)
	}
	resolved := filepath.Join(filepath.Dir(target), link)
	rel, err := filepath.Rel(dir, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: link %s -> %s", ErrUnsafePath, target, linkname)
	}
	return nil
}

func copyFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	return io.Copy(w, f)
}

func writeFile(path string, r io.Reader, mode fs.FileMode) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}
