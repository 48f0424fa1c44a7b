package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wheelhouse/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDriveMount_Missing(t *testing.T) {
	result := CheckDriveMount(filepath.Join(t.TempDir(), "drive"))
	if result.Passed {
		t.Fatal("expected failure for missing mount point")
	}
	if !strings.Contains(result.Detail, "not mounted") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDriveMount_Root(t *testing.T) {
	result := CheckDriveMount("/")
	if !result.Passed {
		t.Fatalf("expected filesystem root to count as mounted, got: %s", result.Detail)
	}
}

func TestCheckDriveMount_Unconfigured(t *testing.T) {
	if result := CheckDriveMount(" "); result.Passed {
		t.Fatal("expected failure for empty mount point")
	}
}

func TestCheckIndex_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckIndex(context.Background(), srv.URL+"/simple")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckIndex_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	result := CheckIndex(context.Background(), srv.URL)
	if result.Passed {
		t.Fatal("expected failure for 503")
	}
}

func TestCheckIndex_Default(t *testing.T) {
	if result := CheckIndex(context.Background(), ""); !result.Passed {
		t.Fatalf("expected default index to pass without a request, got: %s", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results for nil config, got %v", results)
	}
}

func TestRunAll_CacheAndState(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.CacheDir = t.TempDir()

	results := RunAll(context.Background(), &cfg)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %s", Summary(results))
	}
}

func TestRunAll_RequireMount(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = base
	cfg.Drive.RequireMount = true
	cfg.Drive.MountPoint = filepath.Join(base, "drive")
	cfg.Paths.CacheDir = filepath.Join(base, "drive", "MyDrive", "wheels")

	results := RunAll(context.Background(), &cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected drive and cache checks to fail, got %v", failed)
	}
	if !strings.Contains(Summary(results), "Drive mount") {
		t.Fatalf("summary missing drive failure: %s", Summary(results))
	}
}

func TestRunAll_CancelledContext(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.CacheDir = t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := RunAll(ctx, &cfg)
	if len(results) != 1 {
		t.Fatalf("expected a single interrupted result, got %v", results)
	}
	if results[0].Passed || !strings.Contains(results[0].Detail, "interrupted") {
		t.Fatalf("expected interrupted failure, got %+v", results[0])
	}
}
