package configdoc

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind classifies the values an option can hold.
type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindFloat
	KindNested // mapping or sequence
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindNested:
		return "nested"
	case KindNull:
		return "null"
	default:
		return "string"
	}
}

// Value is a read-only view over a single option's YAML node.
type Value struct {
	node *yaml.Node
}

// Kind reports the value's YAML kind.
func (v Value) Kind() Kind {
	return kindOf(v.node)
}

// Render returns the value as the operator would type it: the raw scalar
// text for scalars, a YAML fragment for nested structures.
func (v Value) Render() string {
	if v.node == nil {
		return ""
	}
	if v.node.Kind == yaml.ScalarNode {
		return v.node.Value
	}
	out, err := yaml.Marshal(v.node)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(out), "\n")
}

// Bool returns the value as a bool. ok is false for other kinds.
func (v Value) Bool() (val, ok bool) {
	if kindOf(v.node) != KindBool {
		return false, false
	}
	var b bool
	if err := v.node.Decode(&b); err != nil {
		return false, false
	}
	return b, true
}

func kindOf(n *yaml.Node) Kind {
	if n == nil {
		return KindNull
	}
	switch n.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		return KindNested
	case yaml.AliasNode:
		return kindOf(n.Alias)
	}
	switch n.Tag {
	case "!!bool":
		return KindBool
	case "!!int":
		return KindInt
	case "!!float":
		return KindFloat
	case "!!null":
		return KindNull
	default:
		return KindString
	}
}
