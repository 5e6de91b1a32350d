package behavior_encoder

import (
	"errors"
	"net/url"
	"strings"

	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

var ErrMissingEntities = errors.New("event has no entities")

var statusHosts = map[string]bool{
	"twitter.com": true,
	"x.com":       true,
}

// StatusHandle extracts the account handle from a status permalink such as
// https://twitter.com/<handle>/status/<id>. Other URLs yield "".
func StatusHandle(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	host := strings.TrimPrefix(strings.TrimPrefix(strings.ToLower(u.Host), "www."), "mobile.")
	if !statusHosts[host] || !strings.Contains(u.Path, "/status/") {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	return parts[0]
}

// ExclusiveText blanks every entity span out of text and trims the rest.
// Spans are rune offsets; out-of-range spans are clipped.
func ExclusiveText(text string, entities *activity.Entities) string {
	return strings.TrimSpace(blankEntities(text, entities))
}

// blankEntities replaces every entity span of text with spaces, keeping its length.
func blankEntities(text string, entities *activity.Entities) string {
	runes := []rune(text)
	for _, s := range entities.Spans() {
		start, end := s.Start, s.End
		if start < 0 {
			start = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		for i := start; i < end; i++ {
			runes[i] = ' '
		}
	}
	return string(runes)
}

// contentSource is the event whose content is encoded: the reshared post for a
// reshare, the event itself otherwise. It reports false when reshare content is off.
func contentSource(ev *activity.Event, reshareContent bool) (*activity.Event, bool) {
	if ev.Reshared == nil {
		return ev, true
	}
	if !reshareContent {
		return nil, false
	}
	src := ev.Reshared.Promoted()
	return &src, true
}

// ContentSyntacticCategories lists the content-syntactic categories of src in
// emission order: media, hashtags, cashtags, mentions, urls, then residual text.
func ContentSyntacticCategories(src *activity.Event, textGlyph bool) ([]string, error) {
	ents := src.Entities
	if ents == nil {
		return nil, ErrMissingEntities
	}

	var out []string
	for range ents.Media {
		out = append(out, symbols.Media)
	}
	for range ents.Hashtags {
		out = append(out, symbols.Hashtag)
	}
	for range ents.Cashtags {
		out = append(out, symbols.Cashtag)
	}
	out = append(out, mentionCategories(src)...)

	for _, link := range ents.URLs {
		handle := StatusHandle(link.ExpandedURL)
		switch {
		case handle != "" && strings.Contains(link.ExpandedURL, "/photo/"):
			// attached photo links are counted as media already
			continue
		case handle == "":
			out = append(out, symbols.URL)
		case strings.EqualFold(handle, src.Handle()):
			out = append(out, symbols.SelfQuote)
		default:
			out = append(out, symbols.QuoteURL)
		}
	}

	if textGlyph && ExclusiveText(src.Text, ents) != "" {
		out = append(out, symbols.Text)
	}
	return out, nil
}

// A reply's first mention is the reply target and is skipped, so a reply with a
// single mention emits none.
func mentionCategories(src *activity.Event) []string {
	mentions := src.Entities.Mentions
	from := 0
	if src.ReplyTo != nil {
		if len(mentions) < 2 {
			return nil
		}
		from = 1
	}
	out := make([]string, 0, len(mentions)-from)
	for _, m := range mentions[from:] {
		if m.Friend {
			out = append(out, symbols.FriendMention)
		} else {
			out = append(out, symbols.NonFriendMention)
		}
	}
	return out
}

var entityTypes = map[string]string{
	"Person":       symbols.Person,
	"Place":        symbols.Place,
	"Organization": symbols.Organization,
	"Product":      symbols.Product,
	"Other":        symbols.Other,
}

// SemanticEntityCategories maps the annotations of src to entity categories.
// Unknown annotation types are ignored.
func SemanticEntityCategories(src *activity.Event) ([]string, error) {
	if src.Entities == nil {
		return nil, ErrMissingEntities
	}
	var out []string
	for _, a := range src.Entities.Annotations {
		if cat, ok := entityTypes[a.Type]; ok {
			out = append(out, cat)
		}
	}
	return out, nil
}

func (e *BlocEncoder) group(section symbols.Section, categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('(')
	for _, cat := range categories {
		b.WriteString(e.catalog.Glyph(section, cat))
	}
	b.WriteByte(')')
	return b.String()
}
