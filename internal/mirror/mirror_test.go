package mirror

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andresfelipemendez/md2html/internal/policy"
	"github.com/andresfelipemendez/md2html/internal/templates"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func newOptions(in, out string) Options {
	return Options{
		Input:  in,
		Output: out,
		Copy:   true,
		Mode:   policy.ModeSkip,
	}
}

type answer bool

func (a answer) Confirm(string, bool) (bool, error) { return bool(a), nil }

func TestRunConvertsWithDefaultTemplate(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "site")
	writeFiles(t, in, map[string]string{"doc.md": "---\ntitle: Hello\n---\n# Hi\n"})

	summary, err := Run(context.Background(), newOptions(in, out))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Converted != 1 {
		t.Errorf("Converted = %d, want 1", summary.Converted)
	}

	html := readFile(t, filepath.Join(out, "doc.html"))
	for _, want := range []string{`<meta name="title" content="Hello">`, "<h1>Hi</h1>"} {
		if !strings.Contains(html, want) {
			t.Errorf("doc.html missing %q:\n%s", want, html)
		}
	}
}

func TestRunMirrorsTree(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"index.md":            "# Home\n",
		"notes/a/deep.md":     "# Deep\n",
		"notes/a/a.jinja":     "A:{{ content }}",
		"notes/long.markdown": "# Long\n",
		"img/logo.png":        "png",
		"empty/.keep":         "",
	})

	summary, err := Run(context.Background(), newOptions(in, out))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, want := range []string{"index.html", "notes/a/deep.html", "notes/long.html", "img/logo.png", "empty/.keep"} {
		if !exists(filepath.Join(out, filepath.FromSlash(want))) {
			t.Errorf("output missing %s", want)
		}
	}
	for _, unwanted := range []string{"notes/a/a.jinja", "index.md", "notes/a/deep.md"} {
		if exists(filepath.Join(out, filepath.FromSlash(unwanted))) {
			t.Errorf("output should not contain %s", unwanted)
		}
	}

	if got := readFile(t, filepath.Join(out, "notes", "a", "deep.html")); got != "A:<h1>Deep</h1>\n" {
		t.Errorf("deep.html = %q, want the a.jinja rendering", got)
	}
	if summary.Converted != 3 || summary.Copied != 2 || summary.Templates != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunSelectsFolderTemplate(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"a/doc.md":  "# Doc\n",
		"a/a.jinja": "folder template",
	})

	if _, err := Run(context.Background(), newOptions(in, out)); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(out, "a", "doc.html")); got != "folder template" {
		t.Errorf("doc.html = %q, want a.jinja output", got)
	}
}

func TestRunNoCopy(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"doc.md": "# Doc\n", "image.png": "png"})

	opts := newOptions(in, out)
	opts.Copy = false
	summary, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if exists(filepath.Join(out, "image.png")) {
		t.Error("image.png copied with copy disabled")
	}
	if !exists(filepath.Join(out, "doc.html")) {
		t.Error("doc.html missing")
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", summary.Skipped)
	}
}

func TestRunSkipModeKeepsExisting(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"doc.md": "# New\n", "logo.png": "new"})
	writeFiles(t, out, map[string]string{"doc.html": "old page", "logo.png": "old"})

	summary, err := Run(context.Background(), newOptions(in, out))
	if err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(out, "doc.html")); got != "old page" {
		t.Errorf("doc.html = %q, want untouched", got)
	}
	if got := readFile(t, filepath.Join(out, "logo.png")); got != "old" {
		t.Errorf("logo.png = %q, want untouched", got)
	}
	if summary.Skipped != 2 || summary.Converted != 0 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunOverwriteMode(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"doc.md": "# New\n"})
	writeFiles(t, out, map[string]string{"doc.html": "old page"})

	opts := newOptions(in, out)
	opts.Mode = policy.ModeOverwrite
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(out, "doc.html")); !strings.Contains(got, "<h1>New</h1>") {
		t.Errorf("doc.html = %q, want overwritten", got)
	}
}

func TestRunInteractiveMode(t *testing.T) {
	for _, tt := range []struct {
		answer answer
		want   string
	}{
		{false, "old page"},
		{true, "<h1>New</h1>"},
	} {
		in, out := t.TempDir(), t.TempDir()
		writeFiles(t, in, map[string]string{"doc.md": "# New\n"})
		writeFiles(t, out, map[string]string{"doc.html": "old page"})

		opts := newOptions(in, out)
		opts.Mode = policy.ModeInteractive
		opts.Confirm = tt.answer
		if _, err := Run(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
		if got := readFile(t, filepath.Join(out, "doc.html")); !strings.Contains(got, tt.want) {
			t.Errorf("answer %v: doc.html = %q, want %q", tt.answer, got, tt.want)
		}
	}
}

func TestRunOutputInsideInput(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"doc.md": "# Doc\n"})

	for _, out := range []string{
		in,
		filepath.Join(in, "public"),
		filepath.Join(in, "a", "..", "public", "deep"),
	} {
		_, err := Run(context.Background(), newOptions(in, out))

		var layoutErr *InvalidLayoutError
		if !errors.As(err, &layoutErr) {
			t.Fatalf("Run(%s) error = %v, want *InvalidLayoutError", out, err)
		}
	}

	if exists(filepath.Join(in, "public")) || exists(filepath.Join(in, "doc.html")) {
		t.Error("files written despite invalid layout")
	}
}

func TestRunOutputInsideInputThroughSymlink(t *testing.T) {
	in, other := t.TempDir(), t.TempDir()
	link := filepath.Join(other, "link")
	if err := os.Symlink(in, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	_, err := Run(context.Background(), newOptions(in, filepath.Join(link, "public")))

	var layoutErr *InvalidLayoutError
	if !errors.As(err, &layoutErr) {
		t.Fatalf("error = %v, want *InvalidLayoutError", err)
	}
}

func TestRunRefusesToCleanOutputHoldingInput(t *testing.T) {
	for _, clean := range []policy.CleanMode{policy.CleanYes, policy.CleanAsk} {
		t.Run(clean.String(), func(t *testing.T) {
			out := t.TempDir()
			in := filepath.Join(out, "notes")
			writeFiles(t, in, map[string]string{"doc.md": "# Doc\n"})

			opts := newOptions(in, out)
			opts.Clean = clean
			opts.Confirm = answer(true)
			_, err := Run(context.Background(), opts)

			var layoutErr *InvalidLayoutError
			if !errors.As(err, &layoutErr) {
				t.Fatalf("error = %v, want *InvalidLayoutError", err)
			}
			if !exists(filepath.Join(in, "doc.md")) {
				t.Fatal("input tree removed")
			}
			if exists(filepath.Join(out, "doc.html")) {
				t.Error("doc.html written despite invalid layout")
			}
		})
	}
}

func TestRunInputInsideOutputWithoutClean(t *testing.T) {
	out := t.TempDir()
	in := filepath.Join(out, "notes")
	writeFiles(t, in, map[string]string{"doc.md": "# Doc\n"})

	if _, err := Run(context.Background(), newOptions(in, out)); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !exists(filepath.Join(out, "doc.html")) || !exists(filepath.Join(in, "doc.md")) {
		t.Error("expected doc.html beside the untouched input")
	}
}

type recorder struct {
	asked []string
}

func (r *recorder) Confirm(question string, _ bool) (bool, error) {
	r.asked = append(r.asked, question)
	return false, nil
}

func TestRunVisitsInRelativePathOrder(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"a/x.md": "# X\n", "a-b.md": "# AB\n", "b.md": "# B\n"})
	writeFiles(t, out, map[string]string{"a/x.html": "old", "a-b.html": "old", "b.html": "old"})

	r := &recorder{}
	opts := newOptions(in, out)
	opts.Mode = policy.ModeInteractive
	opts.Confirm = r
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	want := []string{"a-b.html", filepath.Join("a", "x.html"), "b.html"}
	if len(r.asked) != len(want) {
		t.Fatalf("asked = %v, want %d prompts", r.asked, len(want))
	}
	for i, name := range want {
		if !strings.Contains(r.asked[i], string(filepath.Separator)+name+" ") {
			t.Errorf("prompt %d = %q, want it about %s", i, r.asked[i], name)
		}
	}
}

func TestRunSiblingWithSharedPrefixIsValid(t *testing.T) {
	base := t.TempDir()
	in := filepath.Join(base, "site")
	writeFiles(t, in, map[string]string{"doc.md": "# Doc\n"})

	if _, err := Run(context.Background(), newOptions(in, filepath.Join(base, "site-out"))); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestRunInputMissing(t *testing.T) {
	_, err := Run(context.Background(), newOptions(filepath.Join(t.TempDir(), "nope"), t.TempDir()))

	var layoutErr *InvalidLayoutError
	if !errors.As(err, &layoutErr) {
		t.Fatalf("error = %v, want *InvalidLayoutError", err)
	}
}

func TestRunPerFileErrorsContinue(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"a.md": "---\ntitle: [unclosed\n---\nbody\n",
		"b.md": "---\ntemplate: missing.jinja\n---\nbody\n",
		"c.md": "# Fine\n",
	})

	summary, err := Run(context.Background(), newOptions(in, out))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(summary.Failed) != 2 {
		t.Errorf("Failed = %v, want a.md and b.md", summary.Failed)
	}
	if summary.Converted != 1 || !exists(filepath.Join(out, "c.html")) {
		t.Errorf("c.md not converted: %+v", summary)
	}
	if exists(filepath.Join(out, "a.html")) || exists(filepath.Join(out, "b.html")) {
		t.Error("failed pages should not be written")
	}
}

func TestRunCleanOutput(t *testing.T) {
	in := t.TempDir()
	writeFiles(t, in, map[string]string{"doc.md": "# Doc\n"})

	t.Run("yes", func(t *testing.T) {
		out := t.TempDir()
		writeFiles(t, out, map[string]string{"stale.html": "x"})
		opts := newOptions(in, out)
		opts.Clean = policy.CleanYes
		if _, err := Run(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
		if exists(filepath.Join(out, "stale.html")) {
			t.Error("stale.html survived clean")
		}
	})

	t.Run("ask declined", func(t *testing.T) {
		out := t.TempDir()
		writeFiles(t, out, map[string]string{"stale.html": "x"})
		opts := newOptions(in, out)
		opts.Clean = policy.CleanAsk
		opts.Confirm = answer(false)

		_, err := Run(context.Background(), opts)
		if !errors.Is(err, policy.ErrAborted) {
			t.Fatalf("error = %v, want ErrAborted", err)
		}
		if exists(filepath.Join(out, "doc.html")) || !exists(filepath.Join(out, "stale.html")) {
			t.Error("output changed after abort")
		}
	})
}

func TestRunCustomSuffixes(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"doc.txt":    "# Doc\n",
		"doc.tmpl":   "T:{{ content }}",
		"page.jinja": "copied as asset",
	})

	opts := newOptions(in, out)
	opts.Classifier = templates.NewClassifier([]string{".txt"}, ".tmpl")
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(out, "doc.html")); got != "T:<h1>Doc</h1>\n" {
		t.Errorf("doc.html = %q", got)
	}
	if !exists(filepath.Join(out, "page.jinja")) || exists(filepath.Join(out, "doc.tmpl")) {
		t.Error("suffixes not honored")
	}
}

func TestRunGlobals(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{
		"doc.md":    "---\nauthor: Ana\n---\n",
		"doc.jinja": "{{ site }} by {{ author }}",
	})

	opts := newOptions(in, out)
	opts.Globals = map[string]string{"site": "Garden", "author": "nobody"}
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, filepath.Join(out, "doc.html")); got != "Garden by Ana" {
		t.Errorf("doc.html = %q", got)
	}
}

func TestRunPreservesAssetMode(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"run.sh": "#!/bin/sh\n"})
	if err := os.Chmod(filepath.Join(in, "run.sh"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := Run(context.Background(), newOptions(in, out)); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(out, "run.sh"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o755 {
		t.Errorf("mode = %v, want 0755", info.Mode().Perm())
	}
}

func TestRunCancelled(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFiles(t, in, map[string]string{"doc.md": "# Doc\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, newOptions(in, out))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if exists(filepath.Join(out, "doc.html")) {
		t.Error("doc.html written after cancel")
	}
}

func TestRunBacklinks(t *testing.T) {
	in, out := filepath.Join(t.TempDir(), "site"), t.TempDir()
	writeFiles(t, in, map[string]string{
		"index.md":       "# Home\n\nSee [[notes/idea]].\n",
		"notes/idea.md":  "---\ntitle: Idea\n---\nBack to [[../index]] and [[other]].\n",
		"notes/other.md": "[[idea]]\n",
		"site.jinja":     "{{ title }}:{% for l in backlinks %}[{{ l.Href }}|{{ l.Title }}]{% endfor %}",
	})

	opts := newOptions(in, out)
	opts.Backlinks = true
	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	tests := map[string]string{
		"index.html":       "Home:[notes/idea.html|Idea]",
		"notes/idea.html":  "Idea:[../index.html|Home][other.html|other]",
		"notes/other.html": ":[idea.html|Idea]",
	}
	for name, want := range tests {
		if got := readFile(t, filepath.Join(out, filepath.FromSlash(name))); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
}

func TestHTMLPath(t *testing.T) {
	tests := map[string]string{
		"doc.md":            "doc.html",
		"a/b/long.markdown": "a/b/long.html",
		"v1.2.md":           "v1.2.html",
	}
	for in, want := range tests {
		if got := HTMLPath(filepath.FromSlash(in)); got != filepath.FromSlash(want) {
			t.Errorf("HTMLPath(%q) = %q, want %q", in, got, want)
		}
	}
}
