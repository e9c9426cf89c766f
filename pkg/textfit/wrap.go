package textfit

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
)

// charRef matches an HTML character reference, which must never be split.
var charRef = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[A-Za-z][A-Za-z0-9]*);`)

// atoms splits s into the smallest units a line may break between:
// grapheme clusters, with character references kept whole.
func atoms(s string) []string {
	var out []string
	pushGraphemes := func(part string) {
		g := uniseg.NewGraphemes(part)
		for g.Next() {
			out = append(out, g.Str())
		}
	}
	last := 0
	for _, loc := range charRef.FindAllStringIndex(s, -1) {
		pushGraphemes(s[last:loc[0]])
		out = append(out, s[loc[0]:loc[1]])
		last = loc[1]
	}
	pushGraphemes(s[last:])
	return out
}

// wrap packs the whitespace-separated words of s onto lines no longer than
// limit. A word longer than limit on its own is split between atoms. It
// fails only when a single atom exceeds limit.
func wrap(s string, limit, scale float64, m Measurer) ([]string, bool) {
	fits := func(t string) bool { return m.Width(t, scale) <= limit }

	var lines []string
	cur := ""
	for _, word := range strings.Fields(s) {
		cand := word
		if cur != "" {
			cand = cur + " " + word
		}
		if fits(cand) {
			cur = cand
			continue
		}
		if cur != "" {
			lines = append(lines, cur)
			cur = ""
		}
		if fits(word) {
			cur = word
			continue
		}
		for _, a := range atoms(word) {
			if fits(cur + a) {
				cur += a
				continue
			}
			if cur == "" {
				return nil, false
			}
			lines = append(lines, cur)
			cur = a
			if !fits(cur) {
				return nil, false
			}
		}
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines, true
}
