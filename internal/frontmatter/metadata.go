package frontmatter

import (
	"fmt"
	"html"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata is a frontmatter mapping that remembers the order its keys were
// written in. The zero value is an empty mapping ready to use.
type Metadata struct {
	keys   []string
	values map[string]any
}

// Len returns the number of keys.
func (m Metadata) Len() int {
	return len(m.keys)
}

// Keys returns the keys in source order.
func (m Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the value stored under key.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// String returns the value under key when it is a non-empty string.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m.values[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Set stores value under key. A repeated key keeps its first position.
func (m *Metadata) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Marshal encodes the mapping back to YAML, keys in source order.
func (m Metadata) Marshal() ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range m.keys {
		value := new(yaml.Node)
		if err := value.Encode(m.values[k]); err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, value)
	}
	return yaml.Marshal(root)
}

// MetaTags renders one HTML meta element per key, in source order.
func (m Metadata) MetaTags() []string {
	tags := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		tags = append(tags, fmt.Sprintf(`<meta name="%s" content="%s">`,
			html.EscapeString(k), html.EscapeString(FormatValue(m.values[k]))))
	}
	return tags
}

// FormatValue flattens a frontmatter value to text. Lists are joined with
// ", " and nested mappings are written back out as YAML.
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ", ")
	case time.Time:
		if v.Equal(v.Truncate(24 * time.Hour)) {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.RFC3339)
	case map[string]any:
		out, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimRight(string(out), "\n")
	default:
		return fmt.Sprint(v)
	}
}
