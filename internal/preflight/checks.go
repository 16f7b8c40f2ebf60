package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/sys/unix"
)

// extractionExpansion estimates how much larger the extracted corpus is than
// its gzip archive. Plain text compresses at roughly 4-5x.
const extractionExpansion = 5

// CheckArchive verifies that the archive exists, is readable and starts
// with a valid gzip header.
func CheckArchive(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}

	f, err := os.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a gzip archive: %v)", path, err)}
	}
	_ = gz.Close()

	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(info.Size())))}
}

// CheckDestination verifies that dir is writable, or that it can be created
// inside its nearest existing ancestor.
func CheckDestination(name, dir string) Result {
	if _, err := os.Stat(dir); err == nil {
		return CheckDirectoryAccess(name, dir)
	}
	ancestor, err := existingAncestor(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create in %s: %v)", dir, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", dir)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding dir has room for the
// extracted archive.
func CheckFreeSpace(name, dir, archivePath string) Result {
	info, err := os.Stat(archivePath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", archivePath, err)}
	}
	ancestor, err := existingAncestor(dir)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", dir, err)}
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(ancestor, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", ancestor, err)}
	}
	available := stat.Bavail * uint64(stat.Bsize)
	needed := uint64(info.Size()) * extractionExpansion
	if available < needed {
		return Result{Name: name, Detail: fmt.Sprintf("%s available, about %s needed", humanize.Bytes(available), humanize.Bytes(needed))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s available", humanize.Bytes(available))}
}

// CheckPostgres verifies that the export database accepts connections.
func CheckPostgres(ctx context.Context, dsn string) Result {
	const name = "Postgres"

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := pgx.Connect(checkCtx, dsn)
	if err != nil {
		return Result{Name: name, Detail: summarizeConnError(err)}
	}
	defer conn.Close(context.Background())

	if err := conn.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeConnError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

func existingAncestor(dir string) (string, error) {
	current := filepath.Clean(dir)
	for {
		info, err := os.Stat(current)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", current)
			}
			return current, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing parent for %s", dir)
		}
		current = parent
	}
}

func summarizeConnError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "connection timed out"
	}
	return err.Error()
}
