package hammer

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Option is a single form-factor parameter assignment. Value is kept as the
// literal text of the source table so numbers reach the engine unchanged.
type Option struct {
	Param string
	Value string
}

// For renders o as an engine option string for the named form-factor scheme.
func (o Option) For(scheme string) string {
	return scheme + ": {" + o.Param + ": " + o.Value + "}"
}

// Options is an ordered list of parameter assignments.
type Options []Option

// UnmarshalYAML decodes a mapping while keeping key order and literal values.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: options must be a mapping", node.Line)
	}

	out := make(Options, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		text, err := literal(val)
		if err != nil {
			return fmt.Errorf("option %q: %w", key.Value, err)
		}
		out = append(out, Option{Param: key.Value, Value: text})
	}
	*o = out
	return nil
}

func literal(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			s, err := literal(c)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	default:
		return "", fmt.Errorf("line %d: unsupported value kind", n.Line)
	}
}
