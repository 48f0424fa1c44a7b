package kvstore

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound reports a key missing from the store.
var ErrNotFound = errors.New("key not found")

// Store reads and writes dotted keys ("whisper.language") in the
// application's YAML config file. Comments and key order outside the edited
// value are preserved.
type Store struct {
	path string
}

// Open returns a store backed by path. The file need not exist yet.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("kv store path required")
	}
	return &Store{path: path}, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Get decodes the value at key into a string. Mappings and sequences are
// returned as inline YAML.
func (s *Store) Get(key string) (string, error) {
	segments, err := splitKey(key)
	if err != nil {
		return "", err
	}
	doc, err := s.load()
	if err != nil {
		return "", err
	}
	node := lookup(doc, segments)
	if node == nil {
		return "", fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, nil
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Set writes value at key, creating intermediate mappings as needed.
func (s *Store) Set(key string, value any) error {
	segments, err := splitKey(key)
	if err != nil {
		return err
	}
	doc, err := s.load()
	if err != nil {
		return err
	}

	var valueNode yaml.Node
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("encode value for %s: %w", key, err)
	}

	mapping := doc.Content[0]
	for i, segment := range segments {
		if mapping.Kind != yaml.MappingNode {
			return fmt.Errorf("%s: %q is not a mapping", key, strings.Join(segments[:i], "."))
		}
		child := mappingValue(mapping, segment)
		last := i == len(segments)-1
		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			if last {
				child = &valueNode
			}
			mapping.Content = append(mapping.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: segment},
				child)
		} else if last {
			// Keep the existing node so its comments survive.
			child.Kind = valueNode.Kind
			child.Tag = valueNode.Tag
			child.Value = valueNode.Value
			child.Style = valueNode.Style
			child.Content = valueNode.Content
		}
		mapping = child
	}
	return s.save(doc)
}

func (s *Store) load() (*yaml.Node, error) {
	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read kv store: %w", err)
	}
	var doc yaml.Node
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse kv store %s: %w", s.path, err)
		}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}},
		}
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("kv store %s: top level is not a mapping", s.path)
	}
	return &doc, nil
}

func (s *Store) save(doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode kv store: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode kv store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create kv store directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write kv store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace kv store: %w", err)
	}
	return nil
}

func splitKey(key string) ([]string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("key required")
	}
	segments := strings.Split(key, ".")
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return nil, fmt.Errorf("invalid key %q: empty segment", key)
		}
	}
	return segments, nil
}

func lookup(doc *yaml.Node, segments []string) *yaml.Node {
	node := doc.Content[0]
	for _, segment := range segments {
		if node.Kind != yaml.MappingNode {
			return nil
		}
		node = mappingValue(node, segment)
		if node == nil {
			return nil
		}
	}
	return node
}

func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
