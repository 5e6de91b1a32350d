package behavior_encoder

import (
	"regexp"
	"sort"
	"strings"
)

var contentGroup = regexp.MustCompile(`\([^)]+\)`)

// splitKeep cuts s at every occurrence of a delimiter and keeps the delimiters
// as their own tokens. The longest delimiter wins at a position.
func splitKeep(s string, delimiters []string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); {
		match := ""
		for _, d := range delimiters {
			if d != "" && len(d) > len(match) && strings.HasPrefix(s[i:], d) {
				match = d
			}
		}
		if match == "" {
			i++
			continue
		}
		if start < i {
			out = append(out, s[start:i])
		}
		out = append(out, match)
		i += len(match)
		start = i
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isOneOf(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// MoveContentBehindActions rewrites every pause-delimited run so that action
// glyphs come first and the run's content groups follow as one group:
// T(Ht)p(t) becomes Tp(Htt).
func MoveContentBehindActions(s string, pauses, actions []string) string {
	var b strings.Builder
	for _, tok := range splitKeep(s, pauses) {
		if isOneOf(tok, pauses) {
			b.WriteString(tok)
			continue
		}
		b.WriteString(contentGroup.ReplaceAllString(tok, ""))

		content := strings.NewReplacer("(", "", ")", "").Replace(tok)
		for _, a := range actions {
			content = strings.ReplaceAll(content, a, "")
		}
		if content != "" {
			b.WriteString("(" + content + ")")
		}
	}
	return b.String()
}

// SortActionWords sorts the glyphs of every run that starts with an action glyph.
// Runs are delimited by pause glyphs and parentheses.
func SortActionWords(s string, pauses, actions []string) string {
	delims := append([]string{"(", ")"}, pauses...)
	var b strings.Builder
	for _, tok := range splitKeep(s, delims) {
		if isOneOf(tok, delims) || !startsWithAny(tok, actions) {
			b.WriteString(tok)
			continue
		}
		runes := []rune(tok)
		sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
		b.WriteString(string(runes))
	}
	return b.String()
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
