package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wheelhouse/internal/config"
	"wheelhouse/internal/testsupport"
)

// pythonStub answers `-c "import pip"`, refuses every other import, and turns
// `pip download rich` into a wheel file so the cache tiers can be exercised.
const pythonStub = `echo "$@" >> "$WHEELHOUSE_STUB_LOG"
if [ "$1" = "-c" ]; then
  [ "$2" = "import pip" ] && exit 0
  exit 1
fi
if [ "$3" = "download" ]; then
  dest="$5"
  for last; do :; done
  case "$last" in
    rich) : > "$dest/rich-13.7.1-py3-none-any.whl" ;;
  esac
fi
exit 0
`

const cliManifest = `
[[group]]
name = "bootstrap"
  [[group.artifact]]
  requirement = "rich"
[[group]]
name = "torch-cuda"
index_url = "https://download.pytorch.org/whl/cu118"
import_check = "torch"
  [[group.artifact]]
  requirement = "torch==2.0.0"
[[group]]
name = "torch-cpu"
import_check = "torch"
  [[group.artifact]]
  requirement = "torch==2.1.2"
[[group]]
name = "requirements"
  [[group.artifact]]
  requirement = "jieba"
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	stubLog    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("WHEELHOUSE_PYTHON", "")
	t.Setenv("WHEELHOUSE_CACHE_DIR", "")
	t.Setenv("PIP_INDEX_URL", "")

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg"), testsupport.WithTorchVariant("cpu"))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	testsupport.WriteStub(t, testsupport.StubDir(cfg), "python3", pythonStub)
	stubLog := filepath.Join(base, "python-calls.log")
	t.Setenv("WHEELHOUSE_STUB_LOG", stubLog)

	cfg.Paths.Manifest = testsupport.WriteText(t, filepath.Join(base, "manifest.toml"), cliManifest)
	configPath := filepath.Join(base, "wheelhouse.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, stubLog: stubLog}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
cache_dir = %q
state_dir = %q
log_dir = %q
kv_store = %q
manifest = %q

[python]
interpreter = "python3"

[torch]
variant = %q

[fonts]
enabled = false

[display]
language = "en"

[logging]
level = "error"
`,
		cfg.Paths.CacheDir,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Paths.KVStore,
		cfg.Paths.Manifest,
		cfg.Torch.Variant,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func (e *cliTestEnv) stubCalls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(e.stubLog)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read stub log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func (e *cliTestEnv) resetStubCalls(t *testing.T) {
	t.Helper()
	if err := os.Remove(e.stubLog); err != nil && !os.IsNotExist(err) {
		t.Fatalf("reset stub log: %v", err)
	}
}

func countCalls(calls []string, substr string) int {
	n := 0
	for _, call := range calls {
		if strings.Contains(call, substr) {
			n++
		}
	}
	return n
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
