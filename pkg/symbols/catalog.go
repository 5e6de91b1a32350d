package symbols

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

type Section = string

const (
	SectionAction                   Section = "action"
	SectionTime                     Section = "time"
	SectionContentSyntactic         Section = "content_syntactic"
	SectionChange                   Section = "change"
	SectionContentSemanticEntities  Section = "content_semantic_entities"
	SectionContentSemanticSentiment Section = "content_semantic_sentiment"
)

// Action categories.
const (
	SelfReply        = "self_reply"
	FriendReply      = "friend_reply"
	NonFriendReply   = "non_friend_reply"
	SelfReshare      = "self_rt"
	FriendReshare    = "friend_rt"
	NonFriendReshare = "non_friend_rt"
	Post             = "tweet"
)

// Time categories, in bucket order.
const (
	BlankMark       = "blank_mark"
	UnderMinuteMark = "under_minute_mark"
	UnderHourMark   = "under_hour_mark"
	UnderDayMark    = "under_day_mark"
	UnderWeekMark   = "under_week_mark"
	UnderMonthMark  = "under_month_mark"
	UnderYearMark   = "under_year_mark"
	OverYearMark    = "over_year_mark"
)

// Content-syntactic categories.
const (
	Media            = "media"
	Hashtag          = "hashtag"
	Cashtag          = "cashtag"
	FriendMention    = "friend_mention"
	NonFriendMention = "non_friend_mention"
	QuoteURL         = "quote_url"
	SelfQuote        = "self_quote"
	Text             = "text"
	URL              = "url"
)

// Change categories.
const (
	ProfileAppearanceChange = "profile_appearance_change"
	DeletePost              = "delete_tweet"
	DescriptionChange       = "description_change"
	FollowSomeone           = "follow_someone"
	UnfollowSomeone         = "unfollow_someone"
	ProfileLocationChange   = "profile_location_change"
	GeoLocationChange       = "geo_location_change"
	LanguageChange          = "language_change"
	LikePost                = "like_tweet"
	UnlikePost              = "unlike_tweet"
	NameChange              = "name_change"
	HandleChange            = "handle_change"
	SourceChange            = "source_change"
	ProfileURLChange        = "profile_url_change"
	FollowerGain            = "follower_gain"
	FollowerLoss            = "follower_loss"
)

// Semantic entity and sentiment categories.
const (
	Person       = "person"
	Place        = "place"
	Organization = "organization"
	Product      = "product"
	Other        = "other"

	Positive = "positive"
	Neutral  = "neutral"
	Negative = "negative"
)

var (
	ErrMissingSection  = errors.New("symbol catalog: missing section")
	ErrEmptySection    = errors.New("symbol catalog: empty section")
	ErrMissingCategory = errors.New("symbol catalog: missing category")
	ErrEmptyGlyph      = errors.New("symbol catalog: empty glyph")
)

// TimeBuckets lists the time categories from shortest to longest pause.
var TimeBuckets = []string{
	BlankMark, UnderMinuteMark, UnderHourMark, UnderDayMark,
	UnderWeekMark, UnderMonthMark, UnderYearMark, OverYearMark,
}

// Required lists, per section, the categories the encoder reads.
var Required = map[Section][]string{
	SectionAction:                   {SelfReply, FriendReply, NonFriendReply, SelfReshare, FriendReshare, NonFriendReshare, Post},
	SectionTime:                     TimeBuckets,
	SectionContentSyntactic:         {Media, Hashtag, Cashtag, FriendMention, NonFriendMention, QuoteURL, SelfQuote, Text, URL},
	SectionChange:                   {ProfileAppearanceChange, DeletePost, DescriptionChange, FollowSomeone, UnfollowSomeone, ProfileLocationChange, GeoLocationChange, LanguageChange, LikePost, UnlikePost, NameChange, HandleChange, SourceChange, ProfileURLChange, FollowerGain, FollowerLoss},
	SectionContentSemanticEntities:  {Person, Place, Organization, Product, Other},
	SectionContentSemanticSentiment: {Positive, Neutral, Negative},
}

var sectionOrder = []Section{
	SectionAction, SectionTime, SectionContentSyntactic, SectionChange,
	SectionContentSemanticEntities, SectionContentSemanticSentiment,
}

//go:embed symbols.yaml
var defaultCatalog []byte

// Symbol is one glyph with its human description.
type Symbol struct {
	Glyph       string `yaml:"symbol" json:"symbol"`
	Description string `yaml:"description" json:"description"`
}

// Alphabet maps a category key to its symbol.
type Alphabet map[string]Symbol

// Catalog is the full symbol table, one alphabet per section.
type Catalog struct {
	Alphabets map[Section]Alphabet `yaml:"bloc_alphabets" json:"bloc_alphabets"`
}

// Default returns a fresh copy of the packaged catalog. Callers own the result.
func Default() *Catalog {
	c, err := Load(bytes.NewReader(defaultCatalog))
	if err != nil {
		panic(fmt.Sprintf("symbols: packaged catalog is broken: %v", err))
	}
	return c
}

// Load decodes a YAML or JSON catalog. Glyphs are NFC-normalised so that
// composed and decomposed forms compare equal during encoding.
// Load does not validate; call Validate before handing the catalog to an encoder.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode symbol catalog: %w", err)
	}
	if c.Alphabets == nil {
		c.Alphabets = map[Section]Alphabet{}
	}
	for _, alphabet := range c.Alphabets {
		for key, sym := range alphabet {
			sym.Glyph = norm.NFC.String(sym.Glyph)
			alphabet[key] = sym
		}
	}
	return &c, nil
}

// LoadFile reads a catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbol catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks every required section and category. All problems are reported
// together. The blank time mark is the only glyph allowed to be empty.
func (c *Catalog) Validate() error {
	if c == nil || len(c.Alphabets) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrMissingSection)
	}

	var errs []error
	for _, section := range sectionOrder {
		alphabet, ok := c.Alphabets[section]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingSection, section))
			continue
		}
		if len(alphabet) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s", ErrEmptySection, section))
			continue
		}
		for _, key := range Required[section] {
			sym, ok := alphabet[key]
			if !ok {
				errs = append(errs, fmt.Errorf("%w: %s.%s", ErrMissingCategory, section, key))
				continue
			}
			if sym.Glyph == "" && !(section == SectionTime && key == BlankMark) {
				errs = append(errs, fmt.Errorf("%w: %s.%s", ErrEmptyGlyph, section, key))
			}
		}
	}
	return errors.Join(errs...)
}

// Glyph returns the glyph for section/key, or "" if it is not present.
func (c *Catalog) Glyph(section Section, key string) string {
	return c.Alphabets[section][key].Glyph
}

// Describe returns the description for section/key.
func (c *Catalog) Describe(section Section, key string) string {
	return c.Alphabets[section][key].Description
}

// PauseGlyphs returns the non-blank time glyphs in bucket order, deduplicated.
func (c *Catalog) PauseGlyphs() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(TimeBuckets))
	for _, key := range TimeBuckets[1:] {
		g := c.Glyph(SectionTime, key)
		if g == "" {
			continue
		}
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// ActionGlyphs returns the glyphs of the action alphabet, sorted.
func (c *Catalog) ActionGlyphs() []string {
	out := make([]string, 0, len(c.Alphabets[SectionAction]))
	for _, sym := range c.Alphabets[SectionAction] {
		if sym.Glyph != "" {
			out = append(out, sym.Glyph)
		}
	}
	sort.Strings(out)
	return out
}

// Clone deep-copies the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{Alphabets: make(map[Section]Alphabet, len(c.Alphabets))}
	for section, alphabet := range c.Alphabets {
		cp := make(Alphabet, len(alphabet))
		for k, v := range alphabet {
			cp[k] = v
		}
		out.Alphabets[section] = cp
	}
	return out
}

// CoarsePauses returns a copy whose non-blank pause glyphs are all ".", which
// keeps the fact that a pause happened while dropping its length.
func (c *Catalog) CoarsePauses() *Catalog {
	out := c.Clone()
	pauses := out.Alphabets[SectionTime]
	for key, sym := range pauses {
		if key == BlankMark {
			continue
		}
		sym.Glyph = "."
		pauses[key] = sym
	}
	return out
}
