// Package directive parses the action tags an assistant reply may embed:
// [[NAVIGATE:/path]], [[THEME:dark|light|toggle]], [[OPEN:key]], [[FEEDBACK]].
// Tags are stripped from the visible text; a reply carries at most one
// directive category.
package directive

import (
	"regexp"
	"strings"
)

type Kind int

const (
	None Kind = iota
	Navigate
	Theme
	OpenURLs
	Feedback
)

// Directive is a tagged variant: Kind selects which payload field is set.
type Directive struct {
	Kind Kind
	Path string   // Navigate
	Mode string   // Theme: "dark", "light" or "toggle"
	URLs []string // OpenURLs
}

// ValidPaths is the navigation allow-list. A NAVIGATE tag pointing anywhere
// else is left in the text untouched.
var ValidPaths = map[string]bool{
	"/":         true,
	"/about":    true,
	"/projects": true,
	"/resume":   true,
	"/chat":     true,
}

// Links resolves OPEN keys to destinations.
var Links = map[string]string{
	"github":   "https://github.com/scribble-dev",
	"linkedin": "https://www.linkedin.com/in/scribble-dev",
	"email":    "mailto:hello@scribble.dev",
}

var (
	navRe      = regexp.MustCompile(`(?i)\[\[NAVIGATE:(/[a-z-]*)\]\]`)
	themeRe    = regexp.MustCompile(`(?i)\[\[THEME:(dark|light|toggle)\]\]`)
	openRe     = regexp.MustCompile(`(?i)\[\[OPEN:([a-z-]+)\]\]`)
	feedbackRe = regexp.MustCompile(`(?i)\[\[FEEDBACK\]\]`)
)

// StripNavigation removes well-formed, allow-listed NAVIGATE tags from s.
// Used on every streamed fragment so the tag never flashes up mid-typing.
// Tags with paths outside the allow-list stay visible.
func StripNavigation(s string) string {
	out := navRe.ReplaceAllStringFunc(s, func(m string) string {
		path := strings.ToLower(navRe.FindStringSubmatch(m)[1])
		if ValidPaths[path] {
			return ""
		}
		return m
	})
	return strings.TrimSpace(out)
}

// Parse splits a finished reply into visible text and at most one directive.
// Categories are checked in a fixed order (navigate, theme, open, feedback);
// the first hit wins and later tags of other categories are left as text.
func Parse(s string) (string, Directive) {
	for _, m := range navRe.FindAllStringSubmatch(s, -1) {
		path := strings.ToLower(m[1])
		if ValidPaths[path] {
			// strips allow-listed tags only; unknown paths stay visible
			return StripNavigation(s), Directive{Kind: Navigate, Path: path}
		}
	}
	if m := themeRe.FindStringSubmatch(s); m != nil {
		clean := strings.TrimSpace(themeRe.ReplaceAllString(s, ""))
		return clean, Directive{Kind: Theme, Mode: strings.ToLower(m[1])}
	}
	if ms := openRe.FindAllStringSubmatch(s, -1); ms != nil {
		var urls []string
		for _, m := range ms {
			if url, ok := Links[strings.ToLower(m[1])]; ok {
				urls = append(urls, url)
			}
		}
		if len(urls) > 0 {
			clean := strings.TrimSpace(openRe.ReplaceAllStringFunc(s, func(m string) string {
				key := strings.ToLower(openRe.FindStringSubmatch(m)[1])
				if _, ok := Links[key]; ok {
					return ""
				}
				return m
			}))
			return clean, Directive{Kind: OpenURLs, URLs: urls}
		}
	}
	if feedbackRe.MatchString(s) {
		clean := strings.TrimSpace(feedbackRe.ReplaceAllString(s, ""))
		return clean, Directive{Kind: Feedback}
	}
	return s, Directive{Kind: None}
}
