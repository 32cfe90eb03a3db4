// Package pipeline turns text sources (Markdown, HTML) into self-contained
// HTML documents ready for the headless browser.
//
// Stages:
//   - Markdown to HTML via Goldmark, with GFM tables, footnotes and
//     monochrome syntax highlighting
//   - relative image, link and stylesheet references rewritten to file://
//     URLs so the browser can load them from a temp file
//
// Rendering the HTML to PDF happens in the root package. The resulting PDF is
// then rasterized like any other source, so styling here targets legibility
// in grayscale rather than visual fidelity.
package pipeline
