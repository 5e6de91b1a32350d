package symbols

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	require.Equal(t, "T", c.Glyph(SectionAction, Post))
	require.Equal(t, "⚂", c.Glyph(SectionTime, UnderWeekMark))
	require.Equal(t, "", c.Glyph(SectionTime, BlankMark))
}

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	b := Default()
	a.Alphabets[SectionAction][Post] = Symbol{Glyph: "Z"}
	require.Equal(t, "T", b.Glyph(SectionAction, Post))
}

func TestValidate_ReportsMissingSection(t *testing.T) {
	c := Default()
	delete(c.Alphabets, SectionChange)

	err := c.Validate()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMissingSection))
	require.Contains(t, err.Error(), "change")
}

func TestValidate_ReportsEmptySectionAndGlyph(t *testing.T) {
	c := Default()
	c.Alphabets[SectionContentSemanticSentiment] = Alphabet{}
	c.Alphabets[SectionAction][Post] = Symbol{Glyph: ""}

	err := c.Validate()
	require.True(t, errors.Is(err, ErrEmptySection))
	require.True(t, errors.Is(err, ErrEmptyGlyph))
}

func TestValidate_ReportsMissingCategory(t *testing.T) {
	c := Default()
	delete(c.Alphabets[SectionTime], UnderHourMark)

	err := c.Validate()
	require.True(t, errors.Is(err, ErrMissingCategory))
	require.Contains(t, err.Error(), "time.under_hour_mark")
}

func TestValidate_EmptyCatalog(t *testing.T) {
	var c *Catalog
	require.ErrorIs(t, c.Validate(), ErrMissingSection)
	require.ErrorIs(t, (&Catalog{}).Validate(), ErrMissingSection)
}

func TestLoad_JSON(t *testing.T) {
	doc := `{"bloc_alphabets": {"action": {"tweet": {"symbol": "T", "description": "Post"}}}}`
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "T", c.Glyph(SectionAction, Post))
	require.Equal(t, "Post", c.Describe(SectionAction, Post))
	require.Error(t, c.Validate())
}

func TestLoad_NormalisesGlyphs(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	doc := "bloc_alphabets:\n  action:\n    tweet: {symbol: \"e\u0301\", description: x}\n"
	c, err := Load(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, "\u00e9", c.Glyph(SectionAction, Post))
}

func TestPauseGlyphs(t *testing.T) {
	c := Default()
	require.Equal(t, []string{"□", "⚀", "⚁", "⚂", "⚃", "⚄", "⚅"}, c.PauseGlyphs())
	require.Equal(t, []string{"."}, c.CoarsePauses().PauseGlyphs())
	// original untouched
	require.Len(t, c.PauseGlyphs(), 7)
}

func TestActionGlyphs(t *testing.T) {
	c := Default()
	require.ElementsMatch(t, []string{"P", "p", "π", "R", "r", "ρ", "T"}, c.ActionGlyphs())
}
