// Package extract holds the cheap keyword and regex detectors that run on a
// raw utterance before the conversation state machine sees it.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// LookupQuery is the typed result of a name detector.
type LookupQuery struct {
	Found bool
	Name  string
}

// NegotiationKind classifies deal replies.
type NegotiationKind int

const (
	NegotiationNone NegotiationKind = iota
	NegotiationAccept
	NegotiationCounter
)

// Negotiation is the result of DetectNegotiation. Amount is nil when a
// counter offer was made without a number.
type Negotiation struct {
	Kind   NegotiationKind
	Amount *int64
}

// Extractor is the set of detectors consumed by the dialogue orchestrator.
type Extractor interface {
	IsGreeting(utterance string) bool
	DetectContact(utterance string) LookupQuery
	DetectLookup(utterance string) LookupQuery
	DetectNiche(utterance string) (string, bool)
	DetectNegotiation(utterance string) Negotiation
}

// Keywords is the default Extractor built from fixed keyword sets.
type Keywords struct{}

var _ Extractor = Keywords{}

var greetings = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"good morning":   {},
	"good afternoon": {},
}

const (
	lookupKeywords = `followers|following|stats|audience|about`
	lookupFiller   = `does|do|did|of|for|on|is|has|from`
	// A name starts with a letter so numeric answers like "5000 followers"
	// are left to the state machine.
	nameToken    = `\p{L}[\p{L}\p{N}_.'’-]*`
	nameBoundary = `(?:^|[^\p{L}\p{N}_.'’-])`
)

var (
	// "followers does Alex", "about Alex", "stats for Alex"
	keywordThenName = regexp.MustCompile(`(?i)\b(?:` + lookupKeywords + `)\s+(?:(?:` + lookupFiller + `)\s+)?(` + nameToken + `)`)
	// "Alex stats", "Alex's followers"
	nameThenKeyword = regexp.MustCompile(`(?i)` + nameBoundary + `(` + nameToken + `)\s+(?:` + lookupKeywords + `)\b`)
	hasLookupWord   = regexp.MustCompile(`(?i)\b(?:` + lookupKeywords + `)\b`)

	contactPattern = regexp.MustCompile(`(?i)^\s*contact\s+(.+?)[\s.!?]*$`)
	counterPattern = regexp.MustCompile(`(?i)^\s*counter\b(?:\s+(?:with\s+)?\$?(\d+))?`)
	acceptPattern  = regexp.MustCompile(`(?i)^\s*accept\b`)
)

// nicheKeywords is checked in order; the first substring hit wins.
var nicheKeywords = []struct {
	substr string
	niche  string
}{
	{"fitness", "Fitness"},
	{"beauty", "Beauty"},
	{"technology", "Tech"},
	{"tech", "Tech"},
	{"fashion", "Fashion"},
}

// Normalize trims and case-folds an utterance.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsGreeting implements Extractor.
func (Keywords) IsGreeting(utterance string) bool {
	return IsGreeting(utterance)
}

// IsGreeting reports whether the utterance is one of the reset greetings.
// Trailing punctuation is ignored so "Hello!" counts.
func IsGreeting(utterance string) bool {
	n := strings.TrimRight(Normalize(utterance), "!.,? ")
	_, ok := greetings[n]
	return ok
}

// DetectLookup implements Extractor.
func (Keywords) DetectLookup(utterance string) LookupQuery {
	return DetectLookup(utterance)
}

// DetectLookup finds a candidate influencer name next to a stats keyword,
// trying "keyword [filler] NAME" before "NAME keyword".
func DetectLookup(utterance string) LookupQuery {
	if !hasLookupWord.MatchString(utterance) {
		return LookupQuery{}
	}
	for _, re := range []*regexp.Regexp{keywordThenName, nameThenKeyword} {
		if m := re.FindStringSubmatch(utterance); m != nil {
			name := trimName(m[1])
			if name == "" || isFiller(name) {
				continue
			}
			return LookupQuery{Found: true, Name: name}
		}
	}
	return LookupQuery{}
}

// trimName drops a possessive suffix and trailing punctuation.
func trimName(name string) string {
	for _, suffix := range []string{"'s", "’s", "'S", "’S"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.TrimRight(name, ".'’-")
}

func isFiller(word string) bool {
	for _, f := range strings.Split(lookupFiller, "|") {
		if strings.EqualFold(word, f) {
			return true
		}
	}
	return false
}

// DetectContact implements Extractor.
func (Keywords) DetectContact(utterance string) LookupQuery {
	return DetectContact(utterance)
}

// DetectContact recognizes "contact NAME". The name may span several words.
func DetectContact(utterance string) LookupQuery {
	m := contactPattern.FindStringSubmatch(utterance)
	if m == nil {
		return LookupQuery{}
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return LookupQuery{}
	}
	return LookupQuery{Found: true, Name: name}
}

// DetectNiche implements Extractor.
func (Keywords) DetectNiche(utterance string) (string, bool) {
	return DetectNiche(utterance)
}

// DetectNiche maps the first niche keyword found in the utterance to its
// canonical label.
func DetectNiche(utterance string) (string, bool) {
	n := Normalize(utterance)
	for _, kw := range nicheKeywords {
		if strings.Contains(n, kw.substr) {
			return kw.niche, true
		}
	}
	return "", false
}

// DetectNegotiation implements Extractor.
func (Keywords) DetectNegotiation(utterance string) Negotiation {
	return DetectNegotiation(utterance)
}

// DetectNegotiation recognizes "accept" and "counter [amount]" replies to a
// proposed deal.
func DetectNegotiation(utterance string) Negotiation {
	if acceptPattern.MatchString(utterance) {
		return Negotiation{Kind: NegotiationAccept}
	}
	m := counterPattern.FindStringSubmatch(utterance)
	if m == nil {
		return Negotiation{}
	}
	out := Negotiation{Kind: NegotiationCounter}
	if m[1] != "" {
		if amount, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			out.Amount = &amount
		}
	}
	return out
}
