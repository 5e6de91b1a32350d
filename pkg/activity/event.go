package activity

import (
	"time"
)

type EventID = string
type AccountID = string

// Kind is the action an event represents.
type Kind string

const (
	KindPost    Kind = "post"
	KindReply   Kind = "reply"
	KindReshare Kind = "reshare"
)

// Relationship is the follow relationship between the acting account and the
// target of a reply or reshare. It is resolved outside this package and attached
// before encoding.
type Relationship string

const (
	RelationshipUnknown   Relationship = ""
	RelationshipFriend    Relationship = "friend"
	RelationshipNonFriend Relationship = "non_friend"
	RelationshipSelf      Relationship = "self"
)

// Account is a snapshot of the acting account at the time of an event.
// Counts are pointers because a snapshot may not carry them; a nil count never
// produces a change glyph.
type Account struct {
	ID          AccountID `json:"id"`
	Handle      string    `json:"handle"`
	Name        string    `json:"name"`
	Location    string    `json:"location,omitempty"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`

	FollowersCount *int `json:"followers_count,omitempty"`
	FollowingCount *int `json:"following_count,omitempty"`
	StatusesCount  *int `json:"statuses_count,omitempty"`
	FavoritesCount *int `json:"favorites_count,omitempty"`

	// Profile holds appearance fields keyed by their profile_* name
	// (profile_image_url, profile_banner_url, profile_link_color, ...).
	Profile map[string]string `json:"profile,omitempty"`
}

// Span is a [Start, End) range of rune offsets into an event's text.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Tag is a hashtag or cashtag occurrence.
type Tag struct {
	Text string `json:"text"`
	Span *Span  `json:"span,omitempty"`
}

// Mention references another account inside the text. Friend is resolved externally.
type Mention struct {
	Handle    string    `json:"handle"`
	AccountID AccountID `json:"account_id,omitempty"`
	Friend    bool      `json:"friend,omitempty"`
	Span      *Span     `json:"span,omitempty"`
}

// Link is a URL occurrence, already expanded.
type Link struct {
	ExpandedURL string `json:"expanded_url"`
	Span        *Span  `json:"span,omitempty"`
}

// MediaItem is an attached photo, video or animation.
type MediaItem struct {
	Type string `json:"type,omitempty"`
	Span *Span  `json:"span,omitempty"`
}

// SemanticEntity is a named-entity annotation over the text.
type SemanticEntity struct {
	Type           string  `json:"type"` // Person, Place, Organization, Product, Other
	NormalizedText string  `json:"normalized_text,omitempty"`
	Probability    float64 `json:"probability,omitempty"`
}

// Entities groups the structured content extracted from an event's text.
type Entities struct {
	Hashtags    []Tag            `json:"hashtags,omitempty"`
	Cashtags    []Tag            `json:"cashtags,omitempty"`
	Mentions    []Mention        `json:"mentions,omitempty"`
	URLs        []Link           `json:"urls,omitempty"`
	Media       []MediaItem      `json:"media,omitempty"`
	Annotations []SemanticEntity `json:"annotations,omitempty"`
}

// Spans returns every span carried by the entities, in no particular order.
func (e *Entities) Spans() []Span {
	if e == nil {
		return nil
	}
	var out []Span
	add := func(s *Span) {
		if s != nil {
			out = append(out, *s)
		}
	}
	for i := range e.Hashtags {
		add(e.Hashtags[i].Span)
	}
	for i := range e.Cashtags {
		add(e.Cashtags[i].Span)
	}
	for i := range e.Mentions {
		add(e.Mentions[i].Span)
	}
	for i := range e.URLs {
		add(e.URLs[i].Span)
	}
	for i := range e.Media {
		add(e.Media[i].Span)
	}
	return out
}

// Reference points at the event being replied to.
// CreatedAt is zero when the target's time was not resolved.
type Reference struct {
	EventID   EventID   `json:"event_id"`
	AccountID AccountID `json:"account_id,omitempty"`
	Handle    string    `json:"handle,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Place is a tagged place.
type Place struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Coordinates is a point location.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Extended carries the full payload of a truncated stream status.
type Extended struct {
	Text     string    `json:"text,omitempty"`
	Entities *Entities `json:"entities,omitempty"`
}

// Event is one timestamped account action. Once constructed an Event MUST NOT be
// modified; encoders keep their derived state in a separate Annotation.
type Event struct {
	ID        EventID   `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Account   *Account  `json:"account,omitempty"`

	Text     string    `json:"text,omitempty"`
	Entities *Entities `json:"entities,omitempty"`
	Source   string    `json:"source,omitempty"`
	Language string    `json:"lang,omitempty"`

	Place       *Place       `json:"place,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`

	ReplyTo      *Reference   `json:"reply_to,omitempty"`
	Reshared     *Event       `json:"reshared,omitempty"`
	Relationship Relationship `json:"relationship,omitempty"`

	Extended *Extended `json:"extended,omitempty"`
}

// Kind classifies the event. A reply that also carries a reshare is a reply.
func (e *Event) Kind() Kind {
	switch {
	case e.ReplyTo != nil:
		return KindReply
	case e.Reshared != nil:
		return KindReshare
	default:
		return KindPost
	}
}

// AccountID returns the acting account id, or "" if no snapshot is attached.
func (e *Event) AccountID() AccountID {
	if e.Account == nil {
		return ""
	}
	return e.Account.ID
}

// Handle returns the acting account handle, or "".
func (e *Event) Handle() string {
	if e.Account == nil {
		return ""
	}
	return e.Account.Handle
}

// TargetAccountID is the account replied to or reshared, or "" for posts.
func (e *Event) TargetAccountID() AccountID {
	switch e.Kind() {
	case KindReply:
		return e.ReplyTo.AccountID
	case KindReshare:
		return e.Reshared.AccountID()
	default:
		return ""
	}
}

// IsSelfTargeted reports whether a reply or reshare targets the acting account.
func (e *Event) IsSelfTargeted() bool {
	if e.Relationship == RelationshipSelf {
		return true
	}
	if e.Kind() == KindPost {
		return false
	}
	own := e.AccountID()
	return own != "" && own == e.TargetAccountID()
}

// Promoted returns a shallow copy with the Extended payload folded into the
// top-level text and entities. Events without an Extended payload come back as is.
func (e Event) Promoted() Event {
	if e.Extended == nil {
		return e
	}
	if e.Extended.Text != "" {
		e.Text = e.Extended.Text
	}
	if e.Extended.Entities != nil {
		e.Entities = e.Extended.Entities
	}
	e.Extended = nil
	return e
}
