package bloc_analysis

import (
	"strings"

	"github.com/jtomasevic/bloc/pkg/behavior_encoder"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

type FingerprintType string

const (
	B3Type    FingerprintType = "b3_type"
	B3Content FingerprintType = "b3_content"
	B6Content FingerprintType = "b6_content"
)

// SocialFingerprint is a BLOC string reduced to a coarse alphabet.
type SocialFingerprint struct {
	Type FingerprintType `json:"type"`
	Text string          `json:"text"`
}

// Fingerprinter reduces BLOC strings using the glyphs of one catalog.
type Fingerprinter struct {
	b3Type    map[rune]rune
	b6Content map[rune]rune
	textGlyph string
}

func NewFingerprinter(cat *symbols.Catalog) *Fingerprinter {
	f := &Fingerprinter{
		b3Type:    make(map[rune]rune),
		b6Content: make(map[rune]rune),
		textGlyph: cat.Glyph(symbols.SectionContentSyntactic, symbols.Text),
	}
	set := func(m map[rune]rune, section symbols.Section, key string, to rune) {
		g := []rune(cat.Glyph(section, key))
		if len(g) == 1 {
			m[g[0]] = to
		}
	}
	set(f.b3Type, symbols.SectionAction, symbols.Post, 'A')
	set(f.b3Type, symbols.SectionAction, symbols.NonFriendReply, 'C')
	set(f.b3Type, symbols.SectionAction, symbols.NonFriendReshare, 'T')

	set(f.b6Content, symbols.SectionContentSyntactic, symbols.Text, 'N')
	set(f.b6Content, symbols.SectionContentSyntactic, symbols.URL, 'U')
	set(f.b6Content, symbols.SectionContentSyntactic, symbols.Hashtag, 'H')
	set(f.b6Content, symbols.SectionContentSyntactic, symbols.NonFriendMention, 'M')
	set(f.b6Content, symbols.SectionContentSyntactic, symbols.FriendMention, 'M')
	set(f.b6Content, symbols.SectionContentSyntactic, symbols.Media, 'D')
	return f
}

// Fingerprints reduces an action string to b3_type, or a content-syntactic
// string to b3_content and b6_content. Other dimensions have no fingerprint.
func (f *Fingerprinter) Fingerprints(bloc string, dim behavior_encoder.Dimension) []SocialFingerprint {
	switch dim {
	case behavior_encoder.DimensionAction:
		var b strings.Builder
		for _, r := range bloc {
			if to, ok := f.b3Type[r]; ok {
				b.WriteRune(to)
			}
		}
		return []SocialFingerprint{{Type: B3Type, Text: b.String()}}

	case behavior_encoder.DimensionContentSyntactic:
		cleaned := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '(', '|', '*':
				return -1
			}
			return r
		}, bloc)

		var b3, b6 strings.Builder
		for _, group := range strings.Split(cleaned, ")") {
			if group == "" {
				continue
			}
			b3.WriteString(f.b3(group))
			b6.WriteString(f.b6(group))
		}
		return []SocialFingerprint{
			{Type: B3Content, Text: b3.String()},
			{Type: B6Content, Text: b6.String()},
		}
	}
	return nil
}

// b3 is N for plain text, E for one entity kind, X for mixed kinds.
func (f *Fingerprinter) b3(group string) string {
	switch {
	case group == f.textGlyph:
		return "N"
	case len(distinct(group)) == 1:
		return "E"
	default:
		return "X"
	}
}

// b6 names the single kind a group holds, X when mixed, nothing when unmapped.
func (f *Fingerprinter) b6(group string) string {
	kinds := distinct(group)
	if len(kinds) > 1 {
		return "X"
	}
	if to, ok := f.b6Content[kinds[0]]; ok {
		return string(to)
	}
	return ""
}

func distinct(s string) []rune {
	seen := make(map[rune]struct{})
	var out []rune
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
