// Package report renders scan results.
//
// Three formats are available:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter and FullJSONWriter: structured output for other tools
//   - MarkdownWriter: GitHub-flavored markdown with a classification chart
//
// Every writer implements Writer, so several can be combined with
// MultiWriter (for example terminal text plus a markdown file).
package report
