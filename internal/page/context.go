package page

import (
	"regexp"

	"github.com/flosch/pongo2/v6"
	"go.abhg.dev/goldmark/wikilink"
)

// Keys the pipeline always sets. Frontmatter and globals cannot override them.
const (
	KeyContent  = "content"
	KeyMetaTags = "meta_tags"
)

// KeyBacklinks is reserved only when the document carries backlinks.
const KeyBacklinks = "backlinks"

// KeyTitle falls back to the first level-1 heading when neither globals nor
// frontmatter set it.
const KeyTitle = "title"

// pongo2 rejects a context whose keys are not plain identifiers.
var identifier = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidKey reports whether key can be used as a template variable.
func ValidKey(key string) bool {
	return identifier.MatchString(key) && key != "pongo2"
}

// NewContext builds the variables a page template sees. In increasing
// precedence: the document title taken from the first level-1 heading,
// globals, frontmatter, then content, meta_tags and backlinks. Keys that are
// not valid identifiers are left out of the context; frontmatter keys still
// produce meta tags.
func NewContext(globals map[string]string, doc Document, result *ParseResult) pongo2.Context {
	meta := doc.Meta

	ctx := pongo2.Context{}

	if result.Title != "" {
		ctx[KeyTitle] = result.Title
	}
	for k, v := range globals {
		if ValidKey(k) {
			ctx[k] = v
		}
	}
	for _, k := range meta.Keys() {
		if !ValidKey(k) {
			continue
		}
		v, _ := meta.Get(k)
		ctx[k] = v
	}

	ctx[KeyContent] = string(result.HTML)
	ctx[KeyMetaTags] = meta.MetaTags()
	if doc.Backlinks != nil {
		ctx[KeyBacklinks] = doc.Backlinks
	}
	return ctx
}

// wikiResolver links [[Name]] to Name.html, keeping any #fragment. The
// target is used as written, spaces included.
type wikiResolver struct{}

func (wikiResolver) ResolveWikilink(n *wikilink.Node) ([]byte, error) {
	dest := make([]byte, 0, len(n.Target)+len(".html")+1+len(n.Fragment))
	if len(n.Target) > 0 {
		dest = append(dest, n.Target...)
		dest = append(dest, ".html"...)
	}
	if len(n.Fragment) > 0 {
		dest = append(dest, '#')
		dest = append(dest, n.Fragment...)
	}
	return dest, nil
}
