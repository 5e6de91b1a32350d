package behavior_encoder

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/jtomasevic/bloc/pkg/symbols"
)

// SentimentAnalyzer scores the polarity of a text in [-1, 1].
type SentimentAnalyzer interface {
	Polarity(text string) (float64, error)
}

// SentimentCategory maps a polarity to positive, neutral or negative by strict sign.
func SentimentCategory(polarity float64) string {
	switch {
	case polarity > 0:
		return symbols.Positive
	case polarity == 0:
		return symbols.Neutral
	default:
		return symbols.Negative
	}
}

// LexiconAnalyzer is a word-list polarity scorer. A negator flips the next
// scored word. The score is the mean of matched word scores.
type LexiconAnalyzer struct {
	words     map[string]float64
	negations map[string]bool
}

var defaultLexicon = map[string]float64{
	"good": 0.7, "great": 0.8, "excellent": 1, "amazing": 0.6, "awesome": 1,
	"love": 0.5, "loved": 0.7, "like": 0.2, "happy": 0.8, "glad": 0.5,
	"nice": 0.6, "best": 1, "better": 0.5, "beautiful": 0.85, "wonderful": 1,
	"fantastic": 0.4, "thanks": 0.2, "thank": 0.2, "win": 0.8, "congratulations": 0.6,
	"fun": 0.3, "cool": 0.35, "perfect": 1, "proud": 0.8, "enjoy": 0.4,
	"bad": -0.7, "worse": -0.4, "worst": -1, "terrible": -1, "awful": -1,
	"hate": -0.8, "sad": -0.5, "angry": -0.5, "poor": -0.4, "wrong": -0.5,
	"ugly": -0.7, "horrible": -1, "fail": -0.5, "failed": -0.5, "lose": -0.5,
	"disgusting": -1, "stupid": -0.8, "fake": -0.5, "annoying": -0.8, "sick": -0.7,
}

var defaultNegations = map[string]bool{
	"not": true, "no": true, "never": true, "don't": true, "dont": true,
	"isn't": true, "isnt": true, "can't": true, "cant": true, "won't": true,
}

func NewLexiconAnalyzer() *LexiconAnalyzer {
	return NewLexiconAnalyzerWithWords(defaultLexicon)
}

// NewLexiconAnalyzerWithWords builds an analyzer over a custom word list.
// Keys are matched lower-cased.
func NewLexiconAnalyzerWithWords(words map[string]float64) *LexiconAnalyzer {
	lex := make(map[string]float64, len(words))
	for w, s := range words {
		lex[strings.ToLower(w)] = s
	}
	return &LexiconAnalyzer{words: lex, negations: defaultNegations}
}

func (a *LexiconAnalyzer) Polarity(text string) (float64, error) {
	tokens := strings.FieldsFunc(strings.ToLower(norm.NFC.String(text)), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})

	var sum float64
	var matched int
	negate := false
	for _, tok := range tokens {
		if a.negations[tok] {
			negate = true
			continue
		}
		score, ok := a.words[tok]
		if !ok {
			continue
		}
		if negate {
			score = -score
			negate = false
		}
		sum += score
		matched++
	}
	if matched == 0 {
		return 0, nil
	}
	polarity := sum / float64(matched)
	if polarity > 1 {
		polarity = 1
	} else if polarity < -1 {
		polarity = -1
	}
	return polarity, nil
}
