package behavior_encoder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jtomasevic/bloc/pkg/activity"
	"github.com/jtomasevic/bloc/pkg/symbols"
)

// Change is one detected difference between two consecutive account snapshots.
// Count is how many glyphs it contributes before folding.
type Change struct {
	Category string
	Count    int
	Previous string
	Current  string
}

// ChangeCheck compares the previous and current event. Both events carry a
// non-nil Account when a check runs.
type ChangeCheck struct {
	Name   string
	Detect func(prev, cur *activity.Event) []Change
}

// ChangeChecks is the ordered list of checks the encoder composes. The order is
// the emission order inside a change group.
var ChangeChecks = []ChangeCheck{
	{Name: "handle", Detect: fieldChange(symbols.HandleChange, func(a *activity.Account) string { return a.Handle })},
	{Name: "name", Detect: fieldChange(symbols.NameChange, func(a *activity.Account) string { return a.Name })},
	{Name: "location", Detect: fieldChange(symbols.ProfileLocationChange, func(a *activity.Account) string { return a.Location })},
	{Name: "geo", Detect: geoChange},
	{Name: "profile_appearance", Detect: profileAppearanceChange},
	{Name: "url", Detect: fieldChange(symbols.ProfileURLChange, func(a *activity.Account) string { return a.URL })},
	{Name: "description", Detect: fieldChange(symbols.DescriptionChange, func(a *activity.Account) string { return a.Description })},
	{Name: "source", Detect: eventFieldChange(symbols.SourceChange, func(e *activity.Event) string { return e.Source })},
	{Name: "lang", Detect: eventFieldChange(symbols.LanguageChange, func(e *activity.Event) string { return e.Language })},
	{Name: "delete", Detect: deletionChange},
	{Name: "following", Detect: countChange(symbols.FollowSomeone, symbols.UnfollowSomeone, func(a *activity.Account) *int { return a.FollowingCount })},
	{Name: "favorites", Detect: countChange(symbols.LikePost, symbols.UnlikePost, func(a *activity.Account) *int { return a.FavoritesCount })},
	{Name: "followers", Detect: countChange(symbols.FollowerGain, symbols.FollowerLoss, func(a *activity.Account) *int { return a.FollowersCount })},
}

// DetectChanges runs every check in order. It returns nil when either snapshot is missing.
func DetectChanges(prev, cur *activity.Event) []Change {
	if prev == nil || cur == nil || prev.Account == nil || cur.Account == nil {
		return nil
	}
	var out []Change
	for _, check := range ChangeChecks {
		out = append(out, check.Detect(prev, cur)...)
	}
	return out
}

func fieldChange(category string, field func(*activity.Account) string) func(prev, cur *activity.Event) []Change {
	return func(prev, cur *activity.Event) []Change {
		p, c := field(prev.Account), field(cur.Account)
		if p == c {
			return nil
		}
		return []Change{{Category: category, Count: 1, Previous: p, Current: c}}
	}
}

func eventFieldChange(category string, field func(*activity.Event) string) func(prev, cur *activity.Event) []Change {
	return func(prev, cur *activity.Event) []Change {
		p, c := field(prev), field(cur)
		if p == c {
			return nil
		}
		return []Change{{Category: category, Count: 1, Previous: p, Current: c}}
	}
}

// geoChange compares tagged places first and falls back to coordinates
// when the places agree.
func geoChange(prev, cur *activity.Event) []Change {
	switch {
	case prev.Place == nil && cur.Place == nil:
	case prev.Place == nil || cur.Place == nil || prev.Place.ID != cur.Place.ID:
		return []Change{{Category: symbols.GeoLocationChange, Count: 1, Previous: placeID(prev.Place), Current: placeID(cur.Place)}}
	}

	p, c := prev.Coordinates, cur.Coordinates
	switch {
	case p == nil && c == nil:
		return nil
	case p == nil || c == nil || *p != *c:
		return []Change{{Category: symbols.GeoLocationChange, Count: 1, Previous: coords(p), Current: coords(c)}}
	}
	return nil
}

func placeID(p *activity.Place) string {
	if p == nil {
		return ""
	}
	return p.ID
}

func coords(c *activity.Coordinates) string {
	if c == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g", c.Longitude, c.Latitude)
}

// profileAppearanceChange emits at most one glyph however many profile_* fields
// changed, reporting the first changed field in key order. Fields missing from
// either snapshot are ignored.
func profileAppearanceChange(prev, cur *activity.Event) []Change {
	keys := make([]string, 0, len(prev.Account.Profile))
	for key := range prev.Account.Profile {
		if strings.HasPrefix(key, "profile_") {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		p := prev.Account.Profile[key]
		c, ok := cur.Account.Profile[key]
		if ok && c != p {
			return []Change{{Category: symbols.ProfileAppearanceChange, Count: 1, Previous: p, Current: c}}
		}
	}
	return nil
}

// deletionChange infers deleted posts from a drop in the statuses count.
func deletionChange(prev, cur *activity.Event) []Change {
	p, c := prev.Account.StatusesCount, cur.Account.StatusesCount
	if p == nil || c == nil || *c >= *p {
		return nil
	}
	return []Change{{Category: symbols.DeletePost, Count: *p - *c, Previous: fmt.Sprint(*p), Current: fmt.Sprint(*c)}}
}

func countChange(gain, loss string, field func(*activity.Account) *int) func(prev, cur *activity.Event) []Change {
	return func(prev, cur *activity.Event) []Change {
		p, c := field(prev.Account), field(cur.Account)
		if p == nil || c == nil || *p == *c {
			return nil
		}
		ch := Change{Category: gain, Count: *c - *p, Previous: fmt.Sprint(*p), Current: fmt.Sprint(*c)}
		if ch.Count < 0 {
			ch.Category = loss
			ch.Count = -ch.Count
		}
		return []Change{ch}
	}
}

// Fold renders a change as its glyph repeated Count times, capped at threshold
// repetitions when threshold is positive.
func Fold(glyph string, count, threshold int) string {
	if threshold > 0 && count > threshold {
		count = threshold
	}
	if count <= 0 {
		return ""
	}
	return strings.Repeat(glyph, count)
}

func (e *BlocEncoder) changeGroup(changes []Change) string {
	if len(changes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteByte('(')
	for _, ch := range changes {
		b.WriteString(Fold(e.catalog.Glyph(symbols.SectionChange, ch.Category), ch.Count, e.cfg.FoldThreshold))
	}
	b.WriteByte(')')
	return b.String()
}
