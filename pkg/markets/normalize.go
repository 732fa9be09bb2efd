package markets

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polypulse/polymarket-pulse/pkg/gamma"
)

// Options carries the event-relative context for normalizing one market.
type Options struct {
	EventID       string
	OutcomeIndex  int
	TotalOutcomes int
	// Event is the enclosing raw event, needed for the sibling name
	// derivation strategies.
	Event *gamma.Event
}

// NormalizeMarket converts one raw market record into a NormalizedMarket.
// It never fails: malformed array fields log a warning and normalize to
// empty, invalid numerics are clamped or dropped. The worst case is a
// market with no outcomes and the title "Untitled".
func NormalizeMarket(m *gamma.Market, opts Options) *NormalizedMarket {
	now := time.Now().UnixMilli()

	names := parsedStrings("outcomes", m, m.Outcomes)
	tokenIDs := parsedStrings("clobTokenIds", m, m.ClobTokenIDs)
	prices := parsedPrices(m, len(names))

	yesTokenID, noTokenID := resolveSideTokens(m, tokenIDs)

	outcomes := make([]Outcome, 0, len(names))
	for i, name := range names {
		var price float64
		if i < len(prices) {
			price = prices[i]
		}
		out := Outcome{
			Name:        name,
			Price:       price,
			Probability: price,
			TokenID:     resolveOutcomeToken(m, name, i, tokenIDs),
			LastUpdated: now,
		}
		if tok := matchToken(m, name); tok != nil {
			out.Volume = sanitizeNumber(tok.Volume.Float64())
			out.Liquidity = sanitizeNumber(tok.Liquidity.Float64())
			out.Change24h = sanitizeNumber(tok.Change24h.Float64())
		}
		outcomes = append(outcomes, out)
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Price > outcomes[j].Price
	})

	marketType := MarketTypeBinary
	if len(outcomes) >= 3 {
		marketType = MarketTypeMulti
	}

	primary := buildPrimaryOutcome(m, opts, names, outcomes, yesTokenID, noTokenID)
	if primary != nil {
		relabelYesOutcome(outcomes, primary.Name)
	}

	title := strings.TrimSpace(m.Question)
	if title == "" {
		title = "Untitled"
	}

	displayName := title
	if primary != nil {
		displayName = primary.Name
	}

	return &NormalizedMarket{
		ID:          resolveMarketID(m),
		Slug:        m.Slug,
		ConditionID: m.ConditionID,

		Title:       title,
		Description: m.Description,
		Type:        marketType,

		Outcomes:       outcomes,
		ClobTokenIDs:   tokenIDs,
		YesTokenID:     yesTokenID,
		NoTokenID:      noTokenID,
		PrimaryOutcome: primary,
		DisplayName:    displayName,

		Volume:       sanitizeNumber(m.Volume.Float64()),
		Liquidity:    sanitizeNumber(m.Liquidity.Float64()),
		OpenInterest: sanitizeNumber(m.OpenInterest.Float64()),
		CommentCount: int(sanitizeNumber(m.CommentCount.Float64())),

		StartDate:   m.StartDate,
		EndDate:     m.EndDate,
		LastUpdated: now,
		Active:      m.Active,
		Closed:      m.Closed,

		NegRisk:         m.NegRiskFlag(),
		NegRiskMarketID: m.NegRiskMarket(),

		EventID:       opts.EventID,
		OutcomeIndex:  opts.OutcomeIndex,
		TotalOutcomes: opts.TotalOutcomes,
	}
}

// resolveMarketID falls back through the identity spellings, minting a
// random id only when the record carries none.
func resolveMarketID(m *gamma.Market) string {
	for _, id := range []string{m.ID, m.ConditionID, m.Slug, m.MarketID, m.MarketKey} {
		if id != "" {
			return id
		}
	}
	return uuid.NewString()
}

func parsedStrings(field string, m *gamma.Market, f gamma.FlexStrings) []string {
	if f.Err != nil {
		warnf("market %s: unparseable %s field: %v", marketLabel(m), field, f.Err)
		return nil
	}
	return f.Values
}

func parsedPrices(m *gamma.Market, nOutcomes int) []float64 {
	if m.OutcomePrices.Err != nil {
		warnf("market %s: unparseable outcomePrices field: %v", marketLabel(m), m.OutcomePrices.Err)
		return nil
	}
	raw := m.OutcomePrices.Floats()
	prices := make([]float64, len(raw))
	for i, v := range raw {
		if math.IsNaN(v) {
			warnf("market %s: outcome price %d is not numeric", marketLabel(m), i)
		}
		prices[i] = ClampProbability(v)
	}
	if nOutcomes > 0 && len(prices) > 0 && len(prices) != nOutcomes {
		warnf("market %s: %d outcomes but %d prices", marketLabel(m), nOutcomes, len(prices))
	}
	return prices
}

func marketLabel(m *gamma.Market) string {
	if m.ID != "" {
		return m.ID
	}
	if m.Slug != "" {
		return m.Slug
	}
	return "<unknown>"
}

// resolveSideTokens resolves the yes/no token ids, preferring the richer
// tokens[] shape, then positional clobTokenIds pairing (index 0 = "No",
// index 1 = "Yes").
func resolveSideTokens(m *gamma.Market, tokenIDs []string) (yes, no string) {
	for _, tok := range m.Tokens {
		switch strings.ToLower(strings.TrimSpace(tok.Outcome)) {
		case "yes":
			yes = tok.TokenID
		case "no":
			no = tok.TokenID
		}
	}
	if yes == "" && no == "" && len(tokenIDs) >= 2 {
		no = tokenIDs[0]
		yes = tokenIDs[1]
	}
	return yes, no
}

// resolveOutcomeToken picks the token id for one outcome by name, falling
// back to the binary yes/no convention and then to position.
func resolveOutcomeToken(m *gamma.Market, name string, idx int, tokenIDs []string) string {
	if tok := matchToken(m, name); tok != nil {
		return tok.TokenID
	}
	if len(tokenIDs) >= 2 {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "yes":
			return tokenIDs[1]
		case "no":
			return tokenIDs[0]
		}
	}
	if idx < len(tokenIDs) {
		return tokenIDs[idx]
	}
	return ""
}

func matchToken(m *gamma.Market, name string) *gamma.Token {
	for i := range m.Tokens {
		if strings.EqualFold(strings.TrimSpace(m.Tokens[i].Outcome), strings.TrimSpace(name)) {
			return &m.Tokens[i]
		}
	}
	return nil
}

// buildPrimaryOutcome derives the market's "Yes side" label and probability.
// rawNames is the outcome list in raw order (before sorting/relabeling).
func buildPrimaryOutcome(m *gamma.Market, opts Options, rawNames []string, outcomes []Outcome, yesTokenID, noTokenID string) *PrimaryOutcome {
	name := derivePrimaryName(nameInput{
		market:   m,
		event:    opts.Event,
		outcomes: rawNames,
		siblings: opts.TotalOutcomes > 1,
	})
	if name == "" {
		if yesTokenID == "" && noTokenID == "" {
			return nil
		}
		name = "Yes"
	}

	return &PrimaryOutcome{
		Name:        name,
		Probability: yesProbability(outcomes),
		YesTokenID:  yesTokenID,
		NoTokenID:   noTokenID,
	}
}

// yesProbability returns the probability of the outcome literally named
// "Yes", or the best outcome when no literal Yes row exists.
func yesProbability(outcomes []Outcome) float64 {
	for _, o := range outcomes {
		if strings.EqualFold(strings.TrimSpace(o.Name), "yes") {
			return o.Probability
		}
	}
	if len(outcomes) > 0 {
		return outcomes[0].Probability
	}
	return 0
}

// relabelYesOutcome renames the literal "Yes" row to the derived subject so
// the outcome list is human-readable too.
func relabelYesOutcome(outcomes []Outcome, name string) {
	for i := range outcomes {
		if strings.EqualFold(strings.TrimSpace(outcomes[i].Name), "yes") {
			outcomes[i].Name = name
			return
		}
	}
}
