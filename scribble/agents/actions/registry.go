// Package actions holds the static table of triggerable actions and resolves
// free-text input against it, so common requests ("show me your projects")
// get an instant local answer instead of a round trip to the model.
package actions

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"scribble/scribble/utils/directive"
)

//go:embed registry.yaml
var registryYAML []byte

// ActionDef is one entry of the table. At most one of Navigate/Theme/Open/
// Feedback is set per entry; Directive() collapses them into the tagged form.
type ActionDef struct {
	Label    string   `yaml:"label"`
	Verbs    []string `yaml:"verbs"`
	Keywords []string `yaml:"keywords"`
	Response string   `yaml:"response"`
	Navigate string   `yaml:"navigate"`
	Theme    string   `yaml:"theme"`
	Open     []string `yaml:"open"`
	Feedback bool     `yaml:"feedback"`
	ShowWhen string   `yaml:"showWhen"` // "dark" or "light": only offer in that theme
}

// Directive converts the entry's side-effect fields to the tagged variant.
func (a *ActionDef) Directive() directive.Directive {
	switch {
	case a.Navigate != "":
		return directive.Directive{Kind: directive.Navigate, Path: a.Navigate}
	case a.Theme != "":
		return directive.Directive{Kind: directive.Theme, Mode: a.Theme}
	case len(a.Open) > 0:
		var urls []string
		for _, key := range a.Open {
			if url, ok := directive.Links[key]; ok {
				urls = append(urls, url)
			}
		}
		return directive.Directive{Kind: directive.OpenURLs, URLs: urls}
	case a.Feedback:
		return directive.Directive{Kind: directive.Feedback}
	}
	return directive.Directive{Kind: directive.None}
}

// Registry is the compiled table. Entry order is load-bearing: fuzzy
// resolution returns the first matching entry, so earlier entries shadow
// later ones on ambiguous input.
type Registry struct {
	defs    []ActionDef
	byLabel map[string]*ActionDef
	fuzzy   []*regexp.Regexp
}

// Load parses the embedded table and compiles one matcher per entry.
func Load() (*Registry, error) {
	var defs []ActionDef
	if err := yaml.Unmarshal(registryYAML, &defs); err != nil {
		return nil, fmt.Errorf("failed to parse action registry: %w", err)
	}
	return build(defs)
}

func build(defs []ActionDef) (*Registry, error) {
	r := &Registry{
		defs:    defs,
		byLabel: make(map[string]*ActionDef, len(defs)),
		fuzzy:   make([]*regexp.Regexp, len(defs)),
	}
	for i := range defs {
		def := &r.defs[i]
		key := strings.ToLower(def.Label)
		if _, dup := r.byLabel[key]; dup {
			return nil, fmt.Errorf("duplicate action label %q", def.Label)
		}
		r.byLabel[key] = def

		re, err := compileMatcher(def.Verbs, def.Keywords)
		if err != nil {
			return nil, fmt.Errorf("action %q: %w", def.Label, err)
		}
		r.fuzzy[i] = re
	}
	return r, nil
}

// compileMatcher builds `\b(verb...)\b.*\b(keyword...)\b`, case-insensitive.
func compileMatcher(verbs, keywords []string) (*regexp.Regexp, error) {
	if len(verbs) == 0 || len(keywords) == 0 {
		return nil, fmt.Errorf("needs at least one verb and one keyword")
	}
	pattern := fmt.Sprintf(`(?i)\b(%s)\b.*\b(%s)\b`, alternation(verbs), alternation(keywords))
	return regexp.Compile(pattern)
}

func alternation(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(quoted, "|")
}

// Resolve maps input to an action: exact label match first, then the first
// entry whose verb×keyword pattern matches. Returns nil when nothing fits.
func (r *Registry) Resolve(text string) *ActionDef {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if def, ok := r.byLabel[strings.ToLower(text)]; ok {
		return def
	}
	for i := range r.defs {
		if r.fuzzy[i].MatchString(text) {
			return &r.defs[i]
		}
	}
	return nil
}

// Followups returns the labels worth offering under the current theme,
// skipping entries whose ShowWhen names a different theme.
func (r *Registry) Followups(currentTheme string) []string {
	var labels []string
	for i := range r.defs {
		def := &r.defs[i]
		if def.ShowWhen != "" && def.ShowWhen != currentTheme {
			continue
		}
		labels = append(labels, def.Label)
	}
	return labels
}
