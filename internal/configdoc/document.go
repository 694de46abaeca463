// Package configdoc owns the miner's YAML configuration document: loading,
// field edits, and deterministic re-serialization.
//
// The document is kept as a yaml.Node tree rather than a map so that a
// load/edit/save round trip preserves the operator's key order; maps would
// re-sort unrelated keys on every save.
package configdoc

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the in-memory miner configuration: an ordered mapping from
// option names to scalar or nested values.
type Document struct {
	// root is a yaml mapping node. Never nil.
	root *yaml.Node
}

// New returns an empty document.
func New() *Document {
	return &Document{root: emptyMapping()}
}

// Load reads and parses the config document at path. On failure the caller's
// previous document is untouched; Load only ever returns a fresh one.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return doc, nil
}

// Parse builds a document from raw YAML text. An empty input yields an
// empty document, matching a freshly created config file.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	mapping := &root
	if mapping.Kind == yaml.DocumentNode {
		if len(mapping.Content) == 0 {
			return New(), nil
		}
		mapping = mapping.Content[0]
	}
	if mapping.Kind == 0 {
		return New(), nil
	}
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping, got %s", nodeKindName(mapping.Kind))
	}
	return &Document{root: mapping}, nil
}

// Save serializes the document and writes it atomically: key order is kept
// exactly as loaded/edited, and a crash mid-write cannot corrupt the file.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data, 0644)
}

// Marshal serializes the document to YAML with stable key ordering.
func (d *Document) Marshal() ([]byte, error) {
	if len(d.root.Content) == 0 {
		// yaml encodes an empty mapping as "{}"; an empty file reads better.
		return []byte{}, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return buf.Bytes(), nil
}

// Keys returns the top-level option names in document order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, len(d.root.Content)/2)
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		keys = append(keys, d.root.Content[i].Value)
	}
	return keys
}

// Len returns the number of top-level options.
func (d *Document) Len() int {
	return len(d.root.Content) / 2
}

// Get returns the value for a top-level option.
func (d *Document) Get(key string) (Value, bool) {
	if n := d.valueNode(key); n != nil {
		return Value{node: n}, true
	}
	return Value{}, false
}

// Set applies an operator edit to a top-level option. The raw string is
// parsed against the existing value's kind; when that parse fails the raw
// string is stored as a string value and a *ParseError describes the
// downgrade. The edit is applied either way: losing a malformed operator
// edit is worse than a silent type change.
//
// Unknown keys are appended; their raw text is parsed as a YAML fragment so
// "42" becomes an int and "true" a bool, with the same string fallback.
func (d *Document) Set(key, raw string) error {
	existing := d.valueNode(key)
	if existing == nil {
		node, err := parseFragment(raw)
		if err != nil {
			node = stringNode(raw)
		}
		d.append(key, node)
		if err != nil {
			return &ParseError{Key: key, Err: err}
		}
		return nil
	}

	node, err := parseTyped(raw, kindOf(existing))
	if err != nil {
		*existing = *stringNode(raw)
		return &ParseError{Key: key, Err: err}
	}
	*existing = *node
	return nil
}

// Delete removes a top-level option. It reports whether the key existed.
func (d *Document) Delete(key string) bool {
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			d.root.Content = append(d.root.Content[:i], d.root.Content[i+2:]...)
			return true
		}
	}
	return false
}

func (d *Document) valueNode(key string) *yaml.Node {
	for i := 0; i+1 < len(d.root.Content); i += 2 {
		if d.root.Content[i].Value == key {
			return d.root.Content[i+1]
		}
	}
	return nil
}

func (d *Document) append(key string, value *yaml.Node) {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	d.root.Content = append(d.root.Content, keyNode, value)
}

// parseTyped converts an operator-typed string into a node of the expected
// kind. The error return signals the permissive string fallback.
func parseTyped(raw string, kind Kind) (*yaml.Node, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("not a bool: %q", raw)
		}
		return encodeNode(b)
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", raw)
		}
		return encodeNode(n)
	case KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", raw)
		}
		return encodeNode(f)
	case KindNested:
		node, err := parseFragment(raw)
		if err != nil {
			return nil, fmt.Errorf("not valid YAML: %w", err)
		}
		return node, nil
	default:
		return stringNode(raw), nil
	}
}

// parseFragment parses raw as a standalone YAML value.
func parseFragment(raw string) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &root); err != nil {
		return nil, err
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return stringNode(raw), nil
	}
	return root.Content[0], nil
}

func encodeNode(v any) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(v); err != nil {
		return nil, err
	}
	return &node, nil
}

func stringNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func emptyMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func nodeKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
