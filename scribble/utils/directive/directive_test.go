package directive

import (
	"strings"
	"testing"
)

func TestStripNavigationNoTag(t *testing.T) {
	in := "Sure, the projects page has all of that."
	if got := StripNavigation(in); got != in {
		t.Errorf("expected unchanged string, got %q", got)
	}
	// idempotent on already-stripped text
	if got := StripNavigation(StripNavigation(in)); got != in {
		t.Errorf("double strip changed string: %q", got)
	}
}

func TestStripNavigationWellFormed(t *testing.T) {
	in := "Taking you there now! [[NAVIGATE:/projects]]"
	got := StripNavigation(in)
	if got != "Taking you there now!" {
		t.Errorf("got %q", got)
	}
}

func TestStripNavigationCaseInsensitive(t *testing.T) {
	got := StripNavigation("Off we go [[navigate:/about]]")
	if got != "Off we go" {
		t.Errorf("got %q", got)
	}
}

func TestStripNavigationInvalidPathKept(t *testing.T) {
	in := "Hmm [[NAVIGATE:/totally-invalid]]"
	if got := StripNavigation(in); got != in {
		t.Errorf("invalid path should stay visible, got %q", got)
	}
}

func TestParseNavigate(t *testing.T) {
	clean, d := Parse("Here you go [[NAVIGATE:/resume]]")
	if d.Kind != Navigate || d.Path != "/resume" {
		t.Fatalf("unexpected directive %+v", d)
	}
	if clean != "Here you go" {
		t.Errorf("clean text %q", clean)
	}
}

func TestParseInvalidNavigateIsPlainText(t *testing.T) {
	in := "try [[NAVIGATE:/totally-invalid]]"
	clean, d := Parse(in)
	if d.Kind != None {
		t.Fatalf("expected no directive, got %+v", d)
	}
	if clean != in {
		t.Errorf("text should be untouched, got %q", clean)
	}
}

func TestParseKeepsInvalidNavigateVisible(t *testing.T) {
	clean, d := Parse("Go here [[NAVIGATE:/projects]] not there [[NAVIGATE:/totally-invalid]]")
	if d.Kind != Navigate || d.Path != "/projects" {
		t.Fatalf("unexpected directive %+v", d)
	}
	if !strings.Contains(clean, "[[NAVIGATE:/totally-invalid]]") {
		t.Errorf("unknown path must stay visible, got %q", clean)
	}
	if strings.Contains(clean, "/projects]]") {
		t.Errorf("valid tag must be stripped, got %q", clean)
	}
}

func TestParseSkipsInvalidNavigateForLaterValid(t *testing.T) {
	clean, d := Parse("Maybe [[NAVIGATE:/nope]] or [[NAVIGATE:/about]]")
	if d.Kind != Navigate || d.Path != "/about" {
		t.Fatalf("unexpected directive %+v", d)
	}
	if !strings.Contains(clean, "[[NAVIGATE:/nope]]") {
		t.Errorf("unknown path must stay visible, got %q", clean)
	}
}

func TestParseTheme(t *testing.T) {
	for _, mode := range []string{"dark", "light", "toggle"} {
		clean, d := Parse("Done! [[THEME:" + mode + "]]")
		if d.Kind != Theme || d.Mode != mode {
			t.Errorf("mode %s: got %+v", mode, d)
		}
		if clean != "Done!" {
			t.Errorf("mode %s: clean %q", mode, clean)
		}
	}
}

func TestParseOpenKnownKey(t *testing.T) {
	clean, d := Parse("My code lives here [[OPEN:github]]")
	if d.Kind != OpenURLs || len(d.URLs) != 1 {
		t.Fatalf("got %+v", d)
	}
	if !strings.Contains(d.URLs[0], "github.com") {
		t.Errorf("url %q", d.URLs[0])
	}
	if clean != "My code lives here" {
		t.Errorf("clean %q", clean)
	}
}

func TestParseOpenUnknownKey(t *testing.T) {
	in := "see [[OPEN:myspace]]"
	clean, d := Parse(in)
	if d.Kind != None || clean != in {
		t.Errorf("unknown key should be plain text, got %q %+v", clean, d)
	}
}

func TestParseFeedback(t *testing.T) {
	clean, d := Parse("I'd love to hear it [[FEEDBACK]]")
	if d.Kind != Feedback {
		t.Fatalf("got %+v", d)
	}
	if clean != "I'd love to hear it" {
		t.Errorf("clean %q", clean)
	}
}

func TestParseFirstCategoryWins(t *testing.T) {
	clean, d := Parse("go [[NAVIGATE:/about]] and [[THEME:dark]]")
	if d.Kind != Navigate {
		t.Fatalf("navigate should win, got %+v", d)
	}
	// the losing category's tag stays in the text
	if !strings.Contains(clean, "[[THEME:dark]]") {
		t.Errorf("theme tag should remain, clean %q", clean)
	}
}
