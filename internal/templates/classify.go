// Package templates decides which files in a source tree are templates and
// which template a given Markdown file is rendered with.
package templates

import (
	"path/filepath"
	"strings"
)

// Kind is the role a source tree entry plays in a build.
type Kind int

const (
	KindAsset Kind = iota
	KindDirectory
	KindMarkdown
	KindTemplate
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindMarkdown:
		return "markdown"
	case KindTemplate:
		return "template"
	default:
		return "asset"
	}
}

// DefaultMarkdownExts and DefaultTemplateExt are the suffixes used when none
// are configured.
var DefaultMarkdownExts = []string{".md", ".markdown"}

const DefaultTemplateExt = ".jinja"

// Classifier sorts paths by extension alone. Comparison is case-insensitive.
type Classifier struct {
	markdown    []string
	templateExt string
}

// NewClassifier returns a Classifier for the given suffixes. Empty arguments
// fall back to the defaults.
func NewClassifier(markdownExts []string, templateExt string) Classifier {
	if len(markdownExts) == 0 {
		markdownExts = DefaultMarkdownExts
	}
	if templateExt == "" {
		templateExt = DefaultTemplateExt
	}

	c := Classifier{templateExt: normalizeExt(templateExt)}
	for _, ext := range markdownExts {
		c.markdown = append(c.markdown, normalizeExt(ext))
	}
	return c
}

// Classify reports the kind of the entry at path.
func (c Classifier) Classify(path string, isDir bool) Kind {
	if isDir {
		return KindDirectory
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return KindAsset
	}
	if ext == c.templateExt {
		return KindTemplate
	}
	for _, md := range c.markdown {
		if ext == md {
			return KindMarkdown
		}
	}
	return KindAsset
}

// TemplateExt returns the normalized template suffix, leading dot included.
func (c Classifier) TemplateExt() string {
	return c.templateExt
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
