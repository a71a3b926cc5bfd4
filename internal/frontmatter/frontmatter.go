// Package frontmatter splits a YAML metadata block off the top of a Markdown
// source and exposes it as an ordered mapping.
package frontmatter

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Error reports a frontmatter block that could not be used: either the
// closing delimiter is missing or the YAML between the delimiters is invalid.
type Error struct {
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frontmatter: %s: %v", e.Reason, e.Err)
	}
	return "frontmatter: " + e.Reason
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Extract separates raw into its metadata and the Markdown body that follows.
//
// A block is recognized only when the very first line is a delimiter line.
// Without one, the metadata is empty and body is raw unchanged.
func Extract(raw []byte) (Metadata, []byte, error) {
	first, n := nextLine(raw)
	if !isDelimiter(first) {
		return Metadata{}, raw, nil
	}

	block := raw[n:]
	for pos := 0; pos < len(block); {
		line, m := nextLine(block[pos:])
		if isDelimiter(line) {
			meta, err := decode(block[:pos])
			if err != nil {
				return Metadata{}, nil, err
			}
			return meta, block[pos+m:], nil
		}
		pos += m
	}

	return Metadata{}, nil, &Error{Reason: "unterminated block, missing closing " + delimiter}
}

func decode(block []byte) (Metadata, error) {
	var meta Metadata

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return meta, &Error{Reason: "invalid yaml", Err: err}
	}
	if len(doc.Content) == 0 {
		return meta, nil
	}

	root := doc.Content[0]
	switch {
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
		return meta, nil
	case root.Kind != yaml.MappingNode:
		return meta, &Error{Reason: fmt.Sprintf("expected a mapping at line %d", root.Line)}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, node := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return Metadata{}, &Error{Reason: fmt.Sprintf("non-scalar key at line %d", key.Line)}
		}
		var value any
		if err := node.Decode(&value); err != nil {
			return Metadata{}, &Error{Reason: "decode " + key.Value, Err: err}
		}
		meta.Set(key.Value, value)
	}
	return meta, nil
}

// nextLine returns the first line of b without its terminator and the number
// of bytes consumed, terminator included.
func nextLine(b []byte) ([]byte, int) {
	i := bytes.IndexByte(b, '\n')
	if i < 0 {
		return b, len(b)
	}
	return b[:i], i + 1
}

func isDelimiter(line []byte) bool {
	return string(bytes.TrimRight(line, " \t\r")) == delimiter
}
