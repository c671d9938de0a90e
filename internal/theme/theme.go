// Package theme holds the shared design tokens (colour, spacing,
// typography) used by the ticker UI and its documentation page. The tables
// are static; nothing in the refresh pipeline depends on them.
package theme

import (
	"fmt"
	"sort"
	"strings"
)

// Token is one named design value.
type Token struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	// Group is "colour", "spacing" or "typography".
	Group string `json:"group"`
}

// Colour tokens. Tuned for an OLED TV: true black background so unlit
// pixels stay off.
var colours = map[string]string{
	"background":    "#000000",
	"surface":       "#121212",
	"text-primary":  "#f5f5f5",
	"text-muted":    "#9e9e9e",
	"accent":        "#4f9cf9",
	"important":     "#ffb300",
	"disconnected":  "#616161",
	"event-default": "#9e9e9e",
}

// Spacing tokens, in pixels.
var spacing = map[string]string{
	"ticker-padding": "24px",
	"event-gap":      "80px",
	"clock-margin":   "32px",
	"colour-bar":     "6px",
}

// Typography tokens.
var typography = map[string]string{
	"font-family":   `"Inter", "Helvetica Neue", sans-serif`,
	"font-size":     "48px",
	"clock-size":    "36px",
	"weight-normal": "400",
	"weight-bold":   "700",
}

// Tokens returns every token, ordered by group then name.
func Tokens() []Token {
	out := make([]Token, 0, len(colours)+len(spacing)+len(typography))
	for _, g := range []struct {
		name   string
		values map[string]string
	}{
		{"colour", colours},
		{"spacing", spacing},
		{"typography", typography},
	} {
		for name, value := range g.values {
			out = append(out, Token{Name: name, Value: value, Group: g.name})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Colour looks up a colour token, returning the default event colour for
// unknown names.
func Colour(name string) string {
	if c, ok := colours[name]; ok {
		return c
	}
	return colours["event-default"]
}

// CSS renders all tokens as custom properties on :root, prefixed by group
// (--colour-accent, --spacing-event-gap, ...), for the ticker stylesheet
// and the documentation viewer.
func CSS() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, t := range Tokens() {
		fmt.Fprintf(&b, "  --%s-%s: %s;\n", t.Group, t.Name, t.Value)
	}
	b.WriteString("}\n")
	return b.String()
}
