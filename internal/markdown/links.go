package markdown

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	uriRe         = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s<>"]+`)
	windowsPathRe = regexp.MustCompile(`^[a-zA-Z]:\\`)
)

const linkTrailingPunct = ".,;:!?)]}'\""

// findLinks extracts URIs and absolute file paths from one title word.
func findLinks(w word, line int) []Link {
	var links []Link
	for _, loc := range uriRe.FindAllStringIndex(w.text, -1) {
		value := strings.TrimRight(w.text[loc[0]:loc[1]], linkTrailingPunct)
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" {
			continue
		}
		start := w.start + loc[0]
		links = append(links, Link{
			Value:  value,
			Scheme: strings.ToLower(u.Scheme),
			Range:  Range{Line: line, Start: start, End: start + len(value)},
		})
	}
	if len(links) > 0 {
		return links
	}

	if isAbsolutePath(w.text) {
		value := strings.TrimRight(w.text, linkTrailingPunct)
		links = append(links, Link{
			Value:  value,
			Scheme: "file",
			Range:  Range{Line: line, Start: w.start, End: w.start + len(value)},
		})
	}
	return links
}

func isAbsolutePath(s string) bool {
	switch {
	case len(s) > 1 && s[0] == '/' && s[1] != '/':
		return true
	case strings.HasPrefix(s, "~/") && len(s) > 2:
		return true
	default:
		return windowsPathRe.MatchString(s) && len(s) > 3
	}
}
