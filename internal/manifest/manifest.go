package manifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	strTag  = "!!str"
	nullTag = "!!null"
)

var (
	// ErrNotMapping indicates the manifest document is not a key/value mapping at the top level.
	ErrNotMapping = errors.New("manifest must be a mapping of string keys")
)

// Kind identifies the shape of a manifest value.
type Kind int

const (
	// KindOther covers numbers, booleans, nulls and sequences.
	KindOther Kind = iota
	// KindString is a string scalar.
	KindString
	// KindGroup is a nested mapping.
	KindGroup
)

// Value is a single manifest entry: a string, a nested group, or something else.
type Value struct {
	kind  Kind
	text  string
	group Group
}

// Kind reports the shape of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// String returns the scalar text when the value is a string.
func (v Value) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

// Group returns the nested mapping when the value is a group.
func (v Value) Group() (Group, bool) {
	if v.kind != KindGroup {
		return nil, false
	}
	return v.group, true
}

// Group is a read-only mapping of keys to values.
type Group map[string]Value

// Lookup returns the value stored under key.
func (g Group) Lookup(key string) (Value, bool) {
	v, ok := g[key]
	return v, ok
}

// Store is the immutable in-memory form of a metadata manifest.
// It is never modified after construction, so concurrent reads are safe.
type Store struct {
	root Group
}

// Lookup returns the top-level value stored under key.
func (s *Store) Lookup(key string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	return s.root.Lookup(key)
}

// Len returns the number of top-level entries.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.root)
}

// Empty returns a store without entries.
func Empty() *Store {
	return &Store{root: Group{}}
}

// Parse decodes a YAML or JSON manifest. An empty document yields an empty store.
func Parse(data []byte) (*Store, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Empty(), nil
	}

	top := resolveAlias(doc.Content[0])
	if top.Kind == yaml.ScalarNode && top.ShortTag() == nullTag {
		return Empty(), nil
	}
	if top.Kind != yaml.MappingNode {
		return nil, ErrNotMapping
	}

	return &Store{root: convertMapping(top)}, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Open loads the manifest at path, or returns the bundled manifest when path is empty.
func Open(path string) (*Store, error) {
	if path == "" {
		return Bundled(), nil
	}
	return Load(path)
}

func convertMapping(node *yaml.Node) Group {
	group := make(Group, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := resolveAlias(node.Content[i])
		group[key.Value] = convertValue(node.Content[i+1])
	}
	return group
}

func convertValue(node *yaml.Node) Value {
	node = resolveAlias(node)
	switch {
	case node.Kind == yaml.MappingNode:
		return Value{kind: KindGroup, group: convertMapping(node)}
	case node.Kind == yaml.ScalarNode && node.ShortTag() == strTag:
		return Value{kind: KindString, text: node.Value}
	default:
		return Value{kind: KindOther}
	}
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	for node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}
