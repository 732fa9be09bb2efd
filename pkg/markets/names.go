package markets

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/polypulse/polymarket-pulse/pkg/gamma"
)

// Upstream multi-outcome events frequently label every child market's binary
// pair as literal "Yes"/"No" with no per-row identity; the actual subject
// ("Candidate X") has to be recovered from the surrounding question, ticker,
// or slug text. The derivation is an ordered chain of pure strategies; the
// first non-empty, non-generic result wins.

// genericOutcomeNames are labels that carry no subject identity.
var genericOutcomeNames = map[string]bool{
	"yes":   true,
	"no":    true,
	"y":     true,
	"n":     true,
	"buy":   true,
	"sell":  true,
	"long":  true,
	"short": true,
}

// isGenericName reports whether name is empty or a generic side label.
func isGenericName(name string) bool {
	return name == "" || genericOutcomeNames[strings.ToLower(strings.TrimSpace(name))]
}

// nameInput is the material a strategy may draw from.
type nameInput struct {
	market   *gamma.Market
	event    *gamma.Event
	outcomes []string // parsed outcome names, raw order
	// siblings is true when this market is one of several in its event;
	// only then may strategies reach into question/ticker/slug/event text.
	siblings bool
}

// nameStrategy derives a candidate primary-outcome name, or "" to pass.
type nameStrategy func(in nameInput) string

// nameStrategies is evaluated in priority order.
var nameStrategies = []nameStrategy{
	nameFromGroupItemTitle,
	nameFromTokenOutcome,
	nameFromSecondOutcome,
	nameFromAnyOutcome,
	nameFromQuestion,
	nameFromMarketTicker,
	nameFromSlug,
	nameFromEventTitle,
	nameFromEventTicker,
}

// derivePrimaryName runs the strategy chain. Empty result means no
// meaningful name could be recovered.
func derivePrimaryName(in nameInput) string {
	for _, strategy := range nameStrategies {
		if name := strings.TrimSpace(strategy(in)); name != "" {
			return name
		}
	}
	return ""
}

func nameFromGroupItemTitle(in nameInput) string {
	return strings.TrimSpace(in.market.GroupItemTitle)
}

func nameFromTokenOutcome(in nameInput) string {
	for _, tok := range in.market.Tokens {
		if !isGenericName(tok.Outcome) {
			return tok.Outcome
		}
	}
	return ""
}

func nameFromSecondOutcome(in nameInput) string {
	if len(in.outcomes) >= 2 && !isGenericName(in.outcomes[1]) {
		return in.outcomes[1]
	}
	return ""
}

func nameFromAnyOutcome(in nameInput) string {
	limit := len(in.outcomes)
	if limit > 4 {
		limit = 4
	}
	for _, name := range in.outcomes[:limit] {
		if !isGenericName(name) {
			return name
		}
	}
	return ""
}

func nameFromQuestion(in nameInput) string {
	if !in.siblings {
		return ""
	}
	return extractSubject(in.market.Question)
}

func nameFromMarketTicker(in nameInput) string {
	if !in.siblings || isGenericName(in.market.Ticker) {
		return ""
	}
	return in.market.Ticker
}

func nameFromSlug(in nameInput) string {
	if !in.siblings || in.market.Slug == "" {
		return ""
	}
	return titleCaseSlug(in.market.Slug)
}

func nameFromEventTitle(in nameInput) string {
	if !in.siblings || in.event == nil {
		return ""
	}
	return extractSubject(in.event.Title)
}

func nameFromEventTicker(in nameInput) string {
	if !in.siblings || in.event == nil || isGenericName(in.event.Ticker) {
		return ""
	}
	return in.event.Ticker
}

var (
	// "Will X win/be/happen/... ?" -> X
	willPattern = regexp.MustCompile(`(?i)^will\s+(.+?)\s+(?:win|be|become|happen|occur|reach|hit|pass|get|make|beat|finish|lead)\b`)
	// "X to win/be/... ?" -> X
	toPattern = regexp.MustCompile(`(?i)^(.+?)\s+to\s+(?:win|be|become|happen|occur|reach|hit|finish|lead)\b`)
)

const maxSubjectLen = 80

// extractSubject recovers a display subject from free-text question or
// title copy.
func extractSubject(question string) string {
	q := cleanQuestion(question)
	if q == "" {
		return ""
	}

	if m := willPattern.FindStringSubmatch(q); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := toPattern.FindStringSubmatch(q); m != nil {
		return strings.TrimSpace(m[1])
	}

	// First comma-delimited clause.
	if idx := strings.Index(q, ","); idx > 0 {
		if clause := strings.TrimSpace(q[:idx]); clause != "" {
			return clause
		}
	}

	if len(q) <= maxSubjectLen {
		return q
	}
	return ""
}

func cleanQuestion(q string) string {
	q = strings.TrimSpace(q)
	q = strings.TrimRight(q, "?!. ")
	return strings.TrimSpace(q)
}

var slugTitleCaser = cases.Title(language.English)

// titleCaseSlug turns "kamala-harris" into "Kamala Harris".
func titleCaseSlug(slug string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return slugTitleCaser.String(s)
}
