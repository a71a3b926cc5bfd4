// Package backlinks records which pages wiki-link to which, so a page can
// list the pages that point at it.
package backlinks

import (
	"path"
	"sort"
	"strings"
)

// Link is one incoming link as a template sees it. Href is relative to the
// page that displays it.
type Link struct {
	Href  string
	Title string
}

// Note is a page in the index, keyed by its output path relative to the
// output root, slash-separated.
type Note struct {
	Page      string
	Title     string
	Links     []string
	Backlinks []string
}

type Site struct {
	Notes    map[string]*Note
	Forward  map[string][]string
	Backward map[string][]string
}

func NewSite() *Site {
	return &Site{
		Notes:    make(map[string]*Note),
		Forward:  make(map[string][]string),
		Backward: make(map[string][]string),
	}
}

// Add records a page and the wiki-link targets found in it. Targets resolve
// the way the rendered links do: Target.html next to the linking page.
func (s *Site) Add(page, title string, targets []string) {
	note := &Note{Page: page, Title: title}
	seen := make(map[string]bool)
	for _, target := range targets {
		dest := Resolve(page, target)
		if dest == "" || dest == page || seen[dest] {
			continue
		}
		seen[dest] = true
		note.Links = append(note.Links, dest)
	}
	s.Notes[page] = note
	s.Forward[page] = note.Links
}

// Build inverts the forward links. It must run after every page is added.
func (s *Site) Build() {
	for src, dests := range s.Forward {
		for _, dest := range dests {
			s.Backward[dest] = append(s.Backward[dest], src)
		}
	}
	for page, srcs := range s.Backward {
		sort.Strings(srcs)
		if note, ok := s.Notes[page]; ok {
			note.Backlinks = srcs
		}
	}
}

// For returns the pages linking to page, with hrefs relative to it. Links
// from pages outside the index are dropped.
func (s *Site) For(page string) []Link {
	var result []Link
	for _, src := range s.Backward[page] {
		note, ok := s.Notes[src]
		if !ok {
			continue
		}
		result = append(result, Link{
			Href:  relative(page, src),
			Title: note.Title,
		})
	}
	return result
}

// Resolve maps a wiki-link target written in page to the page it points at.
// Fragment-only links resolve to "".
func Resolve(page, target string) string {
	target, _, _ = strings.Cut(target, "#")
	if target == "" {
		return ""
	}
	return path.Join(path.Dir(page), target+".html")
}

// relative returns the href of to as seen from the directory of from.
func relative(from, to string) string {
	fromDir := strings.Split(path.Dir(from), "/")
	toParts := strings.Split(to, "/")
	if fromDir[0] == "." {
		fromDir = nil
	}

	i := 0
	for i < len(fromDir) && i < len(toParts)-1 && fromDir[i] == toParts[i] {
		i++
	}

	parts := make([]string, 0, len(fromDir)-i+len(toParts)-i)
	for range fromDir[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[i:]...)
	return strings.Join(parts, "/")
}
