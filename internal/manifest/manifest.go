package manifest

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"wheelhouse/internal/artifact"
)

//go:embed manifest.toml
var builtinManifest []byte

// Well-known group names the bootstrap sequence installs.
const (
	GroupBootstrap    = "bootstrap"
	GroupTorchCUDA    = "torch-cuda"
	GroupTorchCPU     = "torch-cpu"
	GroupRequirements = "requirements"
)

var requiredGroups = []string{GroupBootstrap, GroupTorchCUDA, GroupTorchCPU, GroupRequirements}

// Entry is one artifact line of a group.
type Entry struct {
	Requirement string `toml:"requirement" json:"requirement"`
	// Import is the module probed before installing; empty skips the probe.
	Import   string `toml:"import,omitempty" json:"import,omitempty"`
	IndexURL string `toml:"index_url,omitempty" json:"index_url,omitempty"`
}

// Group is an ordered list of artifacts installed together.
type Group struct {
	Name        string  `toml:"name" json:"name"`
	Description string  `toml:"description,omitempty" json:"description,omitempty"`
	IndexURL    string  `toml:"index_url,omitempty" json:"index_url,omitempty"`
	ImportCheck string  `toml:"import_check,omitempty" json:"import_check,omitempty"`
	Entries     []Entry `toml:"artifact" json:"artifacts"`
}

// Item pairs a parsed artifact with its import probe.
type Item struct {
	Artifact artifact.Artifact
	Import   string
}

// Manifest lists every group the bootstrap can install.
type Manifest struct {
	Groups []Group `toml:"group" json:"groups"`
	// Source is the file the manifest was read from, or "builtin".
	Source string `toml:"-" json:"source"`
}

// Builtin returns the embedded manifest.
func Builtin() (*Manifest, error) {
	return parse(builtinManifest, "builtin")
}

// Load reads a manifest file. An empty path returns the builtin manifest.
func Load(path string) (*Manifest, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return parse(data, path)
}

func parse(data []byte, source string) (*Manifest, error) {
	var m Manifest
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", source, err)
	}
	m.Source = source
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", source, err)
	}
	return &m, nil
}

// Validate checks group names and requirement syntax.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Groups))
	for _, g := range m.Groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return errors.New("group name required")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("group %q defined twice", name)
		}
		seen[name] = struct{}{}
		if len(g.Entries) == 0 {
			return fmt.Errorf("group %q has no artifacts", name)
		}
		if _, err := g.Items(); err != nil {
			return err
		}
	}
	for _, name := range requiredGroups {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf("required group %q missing", name)
		}
	}
	return nil
}

// Group returns the named group.
func (m *Manifest) Group(name string) (Group, bool) {
	for _, g := range m.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// TorchGroup returns the PyTorch group for the GPU decision.
func (m *Manifest) TorchGroup(cuda bool) (Group, bool) {
	if cuda {
		return m.Group(GroupTorchCUDA)
	}
	return m.Group(GroupTorchCPU)
}

// Items parses the group's requirements. Entry indexes override the group
// index.
func (g Group) Items() ([]Item, error) {
	items := make([]Item, 0, len(g.Entries))
	for _, entry := range g.Entries {
		art, err := artifact.Parse(entry.Requirement)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		index := entry.IndexURL
		if strings.TrimSpace(index) == "" {
			index = g.IndexURL
		}
		items = append(items, Item{Artifact: art.WithIndex(index), Import: strings.TrimSpace(entry.Import)})
	}
	return items, nil
}

// Sample returns the builtin manifest text for scaffolding.
func Sample() []byte {
	return append([]byte(nil), builtinManifest...)
}

// WriteSample writes the builtin manifest to path, refusing to overwrite.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("manifest already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, builtinManifest, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
