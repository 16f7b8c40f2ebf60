package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
)

// markerName is written into the destination after a complete extraction.
const markerName = ".parlacorpus-extracted"

// ErrLocked is returned when another process holds the destination lock.
var ErrLocked = errors.New("another extraction into this directory is in progress")

// Summary describes a finished extraction.
type Summary struct {
	Archive string
	Dest    string
	Files   int
	Dirs    int
	// Skipped counts symlinks, devices and other non-regular entries.
	Skipped int
	Bytes   int64
	Elapsed time.Duration
}

// HumanBytes renders the extracted payload size, e.g. "1.2 GB".
func (s Summary) HumanBytes() string {
	if s.Bytes < 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(s.Bytes))
}

// Extract decompresses the tar.gz at archivePath into destDir, recreating
// its directory structure.
func Extract(ctx context.Context, archivePath, destDir string) (Summary, error) {
	start := time.Now()
	summary := Summary{Archive: archivePath, Dest: destDir}

	file, err := os.Open(archivePath)
	if err != nil {
		return summary, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return summary, fmt.Errorf("create destination: %w", err)
	}

	lock := flock.New(LockPath(destDir))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("lock destination: %w", err)
	}
	if !locked {
		return summary, ErrLocked
	}
	defer func() {
		_ = lock.Unlock()
	}()

	// A partial extraction must not look complete.
	_ = os.Remove(filepath.Join(destDir, markerName))

	gz, err := gzip.NewReader(file)
	if err != nil {
		return summary, fmt.Errorf("read archive %s: %w", archivePath, err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("read archive %s: %w", archivePath, err)
		}

		target, err := entryPath(destDir, header.Name)
		if err != nil {
			return summary, err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return summary, fmt.Errorf("create directory %s: %w", header.Name, err)
			}
			summary.Dirs++
		case tar.TypeReg:
			n, err := writeEntry(target, tr, header.FileInfo().Mode().Perm())
			if err != nil {
				return summary, fmt.Errorf("extract %s: %w", header.Name, err)
			}
			summary.Files++
			summary.Bytes += n
		default:
			summary.Skipped++
		}
	}

	marker := filepath.Join(destDir, markerName)
	if err := os.WriteFile(marker, []byte(archivePath+"\n"), 0o644); err != nil {
		return summary, fmt.Errorf("write extraction marker: %w", err)
	}
	summary.Elapsed = time.Since(start)
	return summary, nil
}

// LockPath returns the lock file guarding destDir.
func LockPath(destDir string) string {
	return filepath.Clean(destDir) + ".lock"
}

// UpToDate reports whether destDir holds a complete extraction that is not
// older than the archive.
func UpToDate(archivePath, destDir string) (bool, error) {
	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return false, fmt.Errorf("stat archive: %w", err)
	}
	markerInfo, err := os.Stat(filepath.Join(destDir, markerName))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat extraction marker: %w", err)
	}
	return !markerInfo.ModTime().Before(archiveInfo.ModTime()), nil
}

func entryPath(destDir, name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("archive entry %q escapes the destination directory", name)
	}
	return filepath.Join(destDir, rel), nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) (int64, error) {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm|0o200)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, r)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return n, err
}
