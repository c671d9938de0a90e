package theme

import (
	"sort"
	"strings"
	"testing"
)

func TestTokensOrderedAndComplete(t *testing.T) {
	tokens := Tokens()
	if len(tokens) != len(colours)+len(spacing)+len(typography) {
		t.Fatalf("Tokens() returned %d entries", len(tokens))
	}

	ordered := sort.SliceIsSorted(tokens, func(i, j int) bool {
		if tokens[i].Group != tokens[j].Group {
			return tokens[i].Group < tokens[j].Group
		}
		return tokens[i].Name < tokens[j].Name
	})
	if !ordered {
		t.Error("tokens not ordered by group then name")
	}
}

func TestColourLookup(t *testing.T) {
	if got := Colour("accent"); got != "#4f9cf9" {
		t.Errorf("Colour(accent) = %q", got)
	}
	if got := Colour("does-not-exist"); got != colours["event-default"] {
		t.Errorf("unknown colour = %q, want default", got)
	}
}

func TestCSS(t *testing.T) {
	css := CSS()

	if !strings.HasPrefix(css, ":root {\n") || !strings.HasSuffix(css, "}\n") {
		t.Fatalf("malformed stylesheet:\n%s", css)
	}
	for _, want := range []string{
		"--colour-background: #000000;",
		"--spacing-event-gap: 80px;",
		"--typography-font-size: 48px;",
	} {
		if !strings.Contains(css, want) {
			t.Errorf("stylesheet missing %q", want)
		}
	}
}
