package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

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

// CheckDriveMount verifies that mountPoint is a mounted filesystem rather
// than a plain directory on the root volume. A notebook that skipped the
// drive mount would otherwise fill an ephemeral folder with wheels.
func CheckDriveMount(mountPoint string) Result {
	const name = "Drive mount"

	mountPoint = strings.TrimSpace(mountPoint)
	if mountPoint == "" {
		return Result{Name: name, Detail: "mount point not configured"}
	}
	mounted, err := isMountPoint(mountPoint)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: not mounted; mount the drive first)", mountPoint)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", mountPoint, err)}
	}
	if !mounted {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory exists but is not a mount point)", mountPoint)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (mounted)", mountPoint)}
}

func isMountPoint(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	var self unix.Stat_t
	if err := unix.Stat(abs, &self); err != nil {
		if err == unix.ENOENT {
			return false, os.ErrNotExist
		}
		return false, err
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return true, nil
	}
	var up unix.Stat_t
	if err := unix.Stat(parent, &up); err != nil {
		return false, err
	}
	return self.Dev != up.Dev, nil
}

// CheckIndex verifies that a package index answers HTTP requests.
func CheckIndex(ctx context.Context, indexURL string) Result {
	const name = "Package index"

	base := strings.TrimSpace(indexURL)
	if base == "" {
		return Result{Name: name, Passed: true, Detail: "default (pypi.org)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", base, err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (unreachable: %v)", base, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", base)}
	}
	return Result{Name: name, Detail: fmt.Sprintf("%s (status %d)", base, resp.StatusCode)}
}
