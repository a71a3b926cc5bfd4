// Package mirror walks an input tree and rebuilds it under an output root,
// converting Markdown pages and copying everything else.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andresfelipemendez/md2html/internal/backlinks"
	"github.com/andresfelipemendez/md2html/internal/logger"
	"github.com/andresfelipemendez/md2html/internal/page"
	"github.com/andresfelipemendez/md2html/internal/policy"
	"github.com/andresfelipemendez/md2html/internal/templates"
)

type Options struct {
	Input  string
	Output string
	// Copy enables verbatim copying of assets.
	Copy    bool
	Clean   policy.CleanMode
	Mode    policy.Mode
	Confirm policy.Confirmer
	// Globals are template variables shared by every page.
	Globals    map[string]string
	Classifier templates.Classifier
	Renderer   *page.Renderer
	Logger     *logger.Logger
	// Backlinks indexes wiki-links across the tree before converting, so
	// each page gets a backlinks variable.
	Backlinks bool
}

// Summary counts what a run did. Failed lists the input paths that could not
// be processed.
type Summary struct {
	Converted int
	Copied    int
	Skipped   int
	Templates int
	Failed    []string
}

// Entry is one file or directory found under the input root.
type Entry struct {
	Path string
	Rel  string
	Kind templates.Kind
}

type walker struct {
	opts      Options
	layout    Layout
	resolver  *templates.Resolver
	overwrite *policy.Gate
	log       *logger.Logger
	site      *backlinks.Site
	summary   Summary
}

// Run mirrors opts.Input into opts.Output. Layout errors and an aborted clean
// prompt stop the run before anything is written. Per-file failures are
// logged and collected in the summary while the walk goes on.
func Run(ctx context.Context, opts Options) (Summary, error) {
	layout, err := CheckLayout(opts.Input, opts.Output)
	if err != nil {
		return Summary{}, err
	}

	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Renderer == nil {
		opts.Renderer = page.NewRenderer(page.Options{HighlightStyle: page.DefaultHighlightStyle})
	}
	if opts.Classifier.TemplateExt() == "" {
		opts.Classifier = templates.NewClassifier(nil, "")
	}

	if opts.Clean != policy.CleanNo && contains(layout.Output, layout.Input) {
		return Summary{}, &InvalidLayoutError{
			Input:  opts.Input,
			Output: opts.Output,
			Reason: "input is inside output; refusing to clean",
		}
	}

	if err := policy.PrepareOutput(layout.Output, opts.Clean, opts.Confirm); err != nil {
		return Summary{}, err
	}

	resolver, err := templates.NewResolver(layout.Input, opts.Classifier)
	if err != nil {
		return Summary{}, err
	}

	w := &walker{
		opts:      opts,
		layout:    layout,
		resolver:  resolver,
		overwrite: policy.NewGate(opts.Mode, opts.Confirm),
		log:       opts.Logger,
	}

	if opts.Backlinks {
		if w.site, err = w.index(ctx); err != nil {
			return Summary{}, err
		}
	}

	entries, err := w.collect(ctx)
	if err == nil {
		for _, e := range entries {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = w.visit(e); err != nil {
				break
			}
		}
	}

	w.log.Info("done",
		"converted", w.summary.Converted,
		"copied", w.summary.Copied,
		"skipped", w.summary.Skipped,
		"templates", w.summary.Templates,
		"failed", len(w.summary.Failed))

	return w.summary, err
}

// collect lists the input tree sorted by slash-separated relative path, so
// "a-b" comes before "a/x". A parent always sorts before its children.
// Unreadable directories are recorded as failures and left out.
func (w *walker) collect(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(w.layout.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.layout.Input {
				return err
			}
			w.fail(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				w.log.Skipped(path, "symlinked directory")
				return nil
			}
		}

		rel, err := filepath.Rel(w.layout.Input, path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{
			Path: path,
			Rel:  rel,
			Kind: w.opts.Classifier.Classify(path, d.IsDir()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].Rel, entries[j].Rel
		if a == "." || b == "." {
			return a == "." && b != "."
		}
		return filepath.ToSlash(a) < filepath.ToSlash(b)
	})
	return entries, nil
}

func (w *walker) visit(e Entry) error {
	switch e.Kind {
	case templates.KindDirectory:
		if err := os.MkdirAll(w.target(e.Rel), 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
		w.log.Debug("directory", "path", e.Rel)
	case templates.KindTemplate:
		w.summary.Templates++
		w.log.Debug("template", "path", e.Rel)
	case templates.KindMarkdown:
		if err := w.convert(e); err != nil {
			w.fail(e.Path, err)
		}
	default:
		if err := w.copy(e); err != nil {
			w.fail(e.Path, err)
		}
	}
	return nil
}

func (w *walker) target(rel string) string {
	return filepath.Join(w.layout.Output, rel)
}

// HTMLPath maps a Markdown path to its page path.
func HTMLPath(rel string) string {
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
}

// gate applies the overwrite policy and records skips. It reports whether
// dest may be written.
func (w *walker) gate(source, dest string) bool {
	switch w.overwrite.Decide(dest) {
	case policy.Write, policy.Overwrite:
		return true
	}
	w.summary.Skipped++
	w.log.Skipped(source, "output exists")
	return false
}

func (w *walker) convert(e Entry) error {
	dest := w.target(HTMLPath(e.Rel))
	if !w.gate(e.Path, dest) {
		return nil
	}

	raw, err := os.ReadFile(e.Path)
	if err != nil {
		return err
	}
	doc, err := page.ParseDocument(raw)
	if err != nil {
		return err
	}
	for _, k := range doc.Meta.Keys() {
		if !page.ValidKey(k) {
			w.log.Debug("frontmatter key is not a template variable", "file", e.Rel, "key", k)
		}
	}
	if w.site != nil {
		doc.Backlinks = w.site.For(filepath.ToSlash(HTMLPath(e.Rel)))
		if doc.Backlinks == nil {
			doc.Backlinks = []backlinks.Link{}
		}
	}
	cand, err := w.resolver.Resolve(e.Path, doc.Meta)
	if err != nil {
		return err
	}
	out, err := w.opts.Renderer.Convert(doc, cand, w.opts.Globals)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return err
	}

	w.summary.Converted++
	w.log.Converted(e.Rel, dest, cand.String())
	return nil
}

func (w *walker) copy(e Entry) error {
	if !w.opts.Copy {
		w.summary.Skipped++
		w.log.Skipped(e.Path, "copy disabled")
		return nil
	}

	dest := w.target(e.Rel)
	if info, err := os.Stat(dest); err == nil {
		src, err := os.Stat(e.Path)
		if err == nil && os.SameFile(src, info) {
			w.summary.Skipped++
			w.log.Skipped(e.Path, "same file")
			return nil
		}
	}
	if !w.gate(e.Path, dest) {
		return nil
	}

	if err := copyFile(e.Path, dest); err != nil {
		return err
	}
	w.summary.Copied++
	w.log.Copied(e.Rel, dest)
	return nil
}

// index reads every Markdown page once to collect titles and wiki-links.
// Unreadable pages are left out; the conversion pass reports them.
func (w *walker) index(ctx context.Context) (*backlinks.Site, error) {
	site := backlinks.NewSite()
	err := filepath.WalkDir(w.layout.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.opts.Classifier.Classify(path, false) != templates.KindMarkdown {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		doc, err := page.ParseDocument(raw)
		if err != nil {
			return nil
		}
		result, err := w.opts.Renderer.Parse(doc.Body)
		if err != nil {
			return nil
		}

		rel, err := filepath.Rel(w.layout.Input, path)
		if err != nil {
			return err
		}
		title, _ := doc.Meta.String(page.KeyTitle)
		if title == "" {
			title = result.Title
		}
		if title == "" {
			title = strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
		}
		site.Add(filepath.ToSlash(HTMLPath(rel)), title, result.Links)
		return nil
	})
	if err != nil {
		return nil, err
	}

	site.Build()
	w.log.Debug("indexed backlinks", "pages", len(site.Notes))
	return site, nil
}

func (w *walker) fail(path string, err error) {
	w.summary.Failed = append(w.summary.Failed, path)
	w.log.FileError(path, err)
}

// copyFile copies src to dest byte for byte, keeping its permission bits and
// modification time.
func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Chmod(info.Mode().Perm()); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil && !errors.Is(err, fs.ErrPermission) {
		return err
	}
	return nil
}
