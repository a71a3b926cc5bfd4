package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/andresfelipemendez/md2html/internal/frontmatter"
)

// Priority ranks where a template was found. Higher values win.
type Priority int

const (
	PriorityBuiltin Priority = iota
	PriorityRoot
	PriorityAncestor
	PriorityColocated
	PriorityExplicit
)

func (p Priority) String() string {
	switch p {
	case PriorityRoot:
		return "root"
	case PriorityAncestor:
		return "ancestor"
	case PriorityColocated:
		return "colocated"
	case PriorityExplicit:
		return "explicit"
	default:
		return "builtin"
	}
}

// Candidate is the outcome of resolution. Path is empty for the built-in
// template.
type Candidate struct {
	Path     string
	Priority Priority
}

// IsBuiltin reports whether c refers to DefaultTemplate.
func (c Candidate) IsBuiltin() bool {
	return c.Path == ""
}

func (c Candidate) String() string {
	if c.IsBuiltin() {
		return "<builtin>"
	}
	return c.Path
}

// Load reads the template source.
func (c Candidate) Load() (string, error) {
	if c.IsBuiltin() {
		return DefaultTemplate, nil
	}
	src, err := os.ReadFile(c.Path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(src), nil
}

// NotFoundError is returned when frontmatter names a template that does not
// exist. Resolution never falls back past an explicit reference.
type NotFoundError struct {
	Name string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found at %s", e.Name, e.Path)
}

// Resolver picks the template for Markdown files below a fixed input root.
type Resolver struct {
	root string
	ext  string
}

// NewResolver returns a Resolver for files below root.
func NewResolver(root string, c Classifier) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve input root: %w", err)
	}
	ext := c.TemplateExt()
	if ext == "" {
		ext = DefaultTemplateExt
	}
	return &Resolver{root: abs, ext: ext}, nil
}

// Resolve returns the template for the Markdown file at path. Candidates are
// tried in order:
//
//  1. the "template" frontmatter key, relative to the file's directory
//  2. <stem><ext> next to the file
//  3. for each directory D from the file's directory up to (not including)
//     the root: D/<name(D)><ext>, then parent(D)/<name(D)><ext>
//  4. <root>/<name(root)><ext>
//  5. DefaultTemplate
//
// Only existence is checked. Nothing is read.
func (r *Resolver) Resolve(path string, meta frontmatter.Metadata) (Candidate, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Candidate{}, fmt.Errorf("resolve %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	if v, ok := meta.Get("template"); ok {
		return r.explicit(dir, frontmatter.FormatValue(v))
	}

	stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	if p := filepath.Join(dir, stem+r.ext); isFile(p) {
		return Candidate{Path: p, Priority: PriorityColocated}, nil
	}

	for d := dir; d != r.root && inside(r.root, d); d = filepath.Dir(d) {
		name := filepath.Base(d) + r.ext
		for _, p := range []string{filepath.Join(d, name), filepath.Join(filepath.Dir(d), name)} {
			if isFile(p) {
				return Candidate{Path: p, Priority: PriorityAncestor}, nil
			}
		}
	}

	if p := filepath.Join(r.root, filepath.Base(r.root)+r.ext); isFile(p) {
		return Candidate{Path: p, Priority: PriorityRoot}, nil
	}

	return Candidate{Priority: PriorityBuiltin}, nil
}

func (r *Resolver) explicit(dir, name string) (Candidate, error) {
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(dir, name)
	}
	if name != "" && isFile(p) {
		return Candidate{Path: p, Priority: PriorityExplicit}, nil
	}
	if name != "" && filepath.Ext(name) == "" && isFile(p+r.ext) {
		return Candidate{Path: p + r.ext, Priority: PriorityExplicit}, nil
	}
	return Candidate{}, &NotFoundError{Name: name, Path: p}
}

func inside(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
