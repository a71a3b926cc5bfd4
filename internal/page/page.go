package page

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/flosch/pongo2/v6"
	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/wikilink"

	"github.com/andresfelipemendez/md2html/internal/backlinks"
	"github.com/andresfelipemendez/md2html/internal/frontmatter"
	"github.com/andresfelipemendez/md2html/internal/templates"
)

// Templates are written Jinja-style, where output is not escaped unless a
// filter asks for it. content is already HTML.
func init() {
	pongo2.SetAutoescape(false)
}

const DefaultHighlightStyle = "github"

type ParseResult struct {
	Title string
	HTML  []byte
	Links []string
}

// Document is a Markdown source split into frontmatter and body.
// Backlinks is nil unless the caller indexed the site.
type Document struct {
	Meta      frontmatter.Metadata
	Body      []byte
	Backlinks []backlinks.Link
}

// ParseDocument splits raw into a Document.
func ParseDocument(raw []byte) (Document, error) {
	meta, body, err := frontmatter.Extract(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{Meta: meta, Body: body}, nil
}

type Options struct {
	// HighlightStyle is a chroma style name. Unknown names fall back to
	// DefaultHighlightStyle.
	HighlightStyle string
	// HighlightClasses emits CSS classes instead of inline styles.
	HighlightClasses bool
	// Emoji turns :shortcodes: into emoji.
	Emoji bool
}

// Renderer turns Markdown documents into finished pages. Compiled templates
// are cached by path for the lifetime of the Renderer; it is not safe for
// concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
}

func NewRenderer(opts Options) *Renderer {
	style := opts.HighlightStyle
	if !ValidStyle(style) {
		style = DefaultHighlightStyle
	}

	extensions := []goldmark.Extender{
		extension.Table,
		extension.Footnote,
		&wikilink.Extender{Resolver: wikiResolver{}},
		highlighting.NewHighlighting(
			highlighting.WithStyle(style),
			highlighting.WithFormatOptions(chromahtml.WithClasses(opts.HighlightClasses)),
		),
	}
	if opts.Emoji {
		extensions = append(extensions, emoji.Emoji)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(),
		),
	)

	return &Renderer{
		md:        md,
		set:       pongo2.NewSet("md2html", pongo2.MustNewLocalFileSystemLoader("")),
		templates: make(map[string]*pongo2.Template),
	}
}

// ValidStyle reports whether name is a registered chroma style.
func ValidStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

// Parse renders markdown to HTML and collects the first level-1 heading and
// every wiki-link target along the way.
func (r *Renderer) Parse(markdown []byte) (*ParseResult, error) {
	reader := text.NewReader(markdown)
	doc := r.md.Parser().Parse(reader)

	var title string
	var links []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if wl, ok := n.(*wikilink.Node); ok {
			links = append(links, string(wl.Target))
			return ast.WalkContinue, nil
		}

		if title == "" {
			if heading, ok := n.(*ast.Heading); ok && heading.Level == 1 {
				var buf bytes.Buffer
				for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
					if txt, ok := child.(*ast.Text); ok {
						buf.Write(txt.Value(markdown))
					}
				}
				title = buf.String()
				return ast.WalkSkipChildren, nil
			}
		}

		return ast.WalkContinue, nil
	})

	var out bytes.Buffer
	if err := r.md.Renderer().Render(&out, markdown, doc); err != nil {
		return nil, err
	}

	return &ParseResult{
		Title: title,
		HTML:  out.Bytes(),
		Links: links,
	}, nil
}

// ConvertSource is Convert for an unsplit Markdown source.
func (r *Renderer) ConvertSource(raw []byte, cand templates.Candidate, globals map[string]string) ([]byte, error) {
	doc, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}
	return r.Convert(doc, cand, globals)
}

// Convert renders doc's body and applies the candidate template to it.
func (r *Renderer) Convert(doc Document, cand templates.Candidate, globals map[string]string) ([]byte, error) {
	result, err := r.Parse(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	tpl, err := r.template(cand)
	if err != nil {
		return nil, err
	}

	out, err := tpl.ExecuteBytes(NewContext(globals, doc, result))
	if err != nil {
		return nil, fmt.Errorf("render template %s: %w", cand, err)
	}
	return out, nil
}

func (r *Renderer) template(cand templates.Candidate) (*pongo2.Template, error) {
	if tpl, ok := r.templates[cand.Path]; ok {
		return tpl, nil
	}

	var tpl *pongo2.Template
	var err error
	if cand.IsBuiltin() {
		var src string
		if src, err = cand.Load(); err != nil {
			return nil, err
		}
		tpl, err = r.set.FromString(src)
	} else {
		// Loading by path lets include and extends tags resolve relative to
		// the template file.
		tpl, err = r.set.FromFile(cand.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("compile template %s: %w", cand, err)
	}
	r.templates[cand.Path] = tpl
	return tpl, nil
}
