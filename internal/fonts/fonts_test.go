package fonts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fakeRoot(t *testing.T, releaseFile string) string {
	t.Helper()
	root := t.TempDir()
	if releaseFile == "" {
		return root
	}
	path := filepath.Join(root, "etc", releaseFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("12.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestPlanDebian(t *testing.T) {
	var got []string
	inst := New(WithRoot(fakeRoot(t, "debian_version")), WithRunner(func(_ context.Context, name string, args ...string) error {
		got = append([]string{name}, args...)
		return nil
	}))

	plan, err := inst.Install(context.Background())
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if plan.Manager != "apt-get" {
		t.Fatalf("expected apt-get, got %q", plan.Manager)
	}
	if strings.Join(got, " ") != "sudo apt-get install -y fonts-noto" {
		t.Fatalf("unexpected command: %v", got)
	}
}

func TestPlanRedHat(t *testing.T) {
	inst := New(WithRoot(fakeRoot(t, "redhat-release")))
	plan, err := inst.Plan()
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if plan.Manager != "yum" || plan.Command[len(plan.Command)-1] != "google-noto*" {
		t.Fatalf("unexpected plan: %#v", plan)
	}
}

func TestPlanUnknownDistro(t *testing.T) {
	inst := New(WithRoot(fakeRoot(t, "")))
	if _, err := inst.Install(context.Background()); !errors.Is(err, ErrUnknownDistro) {
		t.Fatalf("expected ErrUnknownDistro, got %v", err)
	}
}

func TestInstallFailureIsWrapped(t *testing.T) {
	boom := errors.New("exit status 100")
	inst := New(WithRoot(fakeRoot(t, "debian_version")), WithRunner(func(context.Context, string, ...string) error {
		return boom
	}))
	plan, err := inst.Install(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped runner error, got %v", err)
	}
	if plan.Manager != "apt-get" {
		t.Fatalf("expected plan to be returned on failure, got %#v", plan)
	}
}

func TestApplies(t *testing.T) {
	if !New(WithGOOS("linux")).Applies() {
		t.Fatal("expected fonts to apply on linux")
	}
	if New(WithGOOS("darwin")).Applies() {
		t.Fatal("expected fonts to be skipped on macOS")
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine([]byte("Reading package lists...\nE: Unable to locate package\n\n")); got != "E: Unable to locate package" {
		t.Fatalf("unexpected last line: %q", got)
	}
	if got := lastLine(nil); got != "" {
		t.Fatalf("expected empty last line, got %q", got)
	}
}
