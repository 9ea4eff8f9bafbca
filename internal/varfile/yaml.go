package varfile

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// positionLimit bounds lines×entries for computing key positions.
const positionLimit = 200

// LoadYAML returns the top-level keys of a YAML mapping in document order.
// A document whose root is not a mapping, or an empty document, has no
// entries. Scalar values are kept as written; sequences and mappings are
// rendered in flow style. Key lines are reported only when the number of
// lines times the number of keys is at most 200; otherwise Line is 0.
func LoadYAML(src []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("varfile: parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nil
	}

	n := len(root.Content) / 2
	withLines := bytes.Count(src, []byte("\n"))*n <= positionLimit

	entries := make([]Entry, 0, n)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		value, err := renderValue(val)
		if err != nil {
			return nil, fmt.Errorf("varfile: render %q: %w", key.Value, err)
		}
		e := Entry{Name: key.Value, Value: value}
		if withLines {
			e.Line = key.Line - 1
			e.Col = key.Column - 1
			e.EndCol = e.Col + len(key.Value)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func renderValue(n *yaml.Node) (string, error) {
	if n.Kind == yaml.ScalarNode {
		return n.Value, nil
	}
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		return renderValue(n.Alias)
	}
	flow := *n
	flow.Style = yaml.FlowStyle
	out, err := yaml.Marshal(&flow)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
