package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// referenceAttrs lists the attributes that may point at sibling files of an
// HTML or Markdown source.
var referenceAttrs = map[atom.Atom]string{
	atom.Img:  "src",
	atom.A:    "href",
	atom.Link: "href", // stylesheets
}

// ResolveLocalReferences rewrites relative image, link and stylesheet paths
// to absolute file:// URLs rooted at sourceDir. The document is later loaded
// from a temp file in another directory, so relative paths would break.
// An empty sourceDir returns the HTML unchanged.
//
// Left untouched: URLs, anchors, absolute paths, and any path that would
// escape sourceDir.
func ResolveLocalReferences(htmlContent, sourceDir string) (string, error) {
	if sourceDir == "" {
		return htmlContent, nil
	}

	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}
	rewriteNode(doc, absSourceDir)
	return renderHTML(doc, isFragment)
}

// parseHTML parses a full document or a body fragment.
func parseHTML(content string) (*html.Node, bool, error) {
	lower := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML serializes doc. Fragments render their children only so no
// <html><body> wrapper is added.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder
	if !isFragment {
		err := html.Render(&buf, doc)
		return buf.String(), err
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteNode(n *html.Node, sourceDir string) {
	if n.Type == html.ElementNode {
		if attr, ok := referenceAttrs[n.DataAtom]; ok {
			rewriteAttr(n, attr, sourceDir)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		rewriteNode(c, sourceDir)
	}
}

func rewriteAttr(n *html.Node, attrName, sourceDir string) {
	for i, attr := range n.Attr {
		if attr.Key != attrName || !isRelativePath(attr.Val) {
			continue
		}
		absPath := filepath.Join(sourceDir, attr.Val)
		if !isPathUnderDir(absPath, sourceDir) {
			continue
		}
		n.Attr[i].Val = pathToFileURL(absPath)
	}
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	switch {
	case path == "",
		strings.HasPrefix(path, "#"),
		strings.HasPrefix(path, "//"),
		filepath.IsAbs(path):
		return false
	}
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		// http, https, file, data, mailto
		return len(u.Scheme) == 1 // Windows drive letter, e.g. "c:"
	}
	return true
}

// isPathUnderDir checks if absPath is inside dir.
func isPathUnderDir(absPath, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(absPath))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows: C:/x -> /C:/x
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}
