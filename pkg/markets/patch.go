package markets

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ApplyTokenPrice applies a live price for one token to a normalized
// market. The price is the probability of the token's side: a trade on
// the No token at p implies a Yes probability of 1-p, and both sides are
// kept consistent. Outcomes are re-sorted so rank order stays valid.
// Returns false when the token belongs to no side or outcome of m.
func ApplyTokenPrice(m *NormalizedMarket, tokenID string, price float64, now int64) bool {
	if m == nil || tokenID == "" {
		return false
	}
	price = ClampProbability(price)

	applied := setOutcomePrice(m, tokenID, price, now)

	switch tokenID {
	case m.YesTokenID:
		if m.YesTokenID == "" {
			break
		}
		if m.PrimaryOutcome != nil {
			m.PrimaryOutcome.Probability = price
		}
		applied = true
	case m.NoTokenID:
		if m.NoTokenID == "" {
			break
		}
		yes := complement(price)
		if m.YesTokenID != "" {
			setOutcomePrice(m, m.YesTokenID, yes, now)
		}
		if m.PrimaryOutcome != nil {
			m.PrimaryOutcome.Probability = yes
		}
		applied = true
	}

	if applied {
		sort.SliceStable(m.Outcomes, func(i, j int) bool {
			return m.Outcomes[i].Price > m.Outcomes[j].Price
		})
		m.LastUpdated = now
	}
	return applied
}

// SyncPrimaryProbability re-derives the primary probability from the
// outcome list. Updaters that patch outcomes directly rather than through
// ApplyTokenPrice would otherwise leave the primary stale. The lookup
// mirrors normalization: the yes-token row wins, then the row carrying
// the primary's (possibly relabeled) name or a literal "Yes", then the
// highest-probability row.
func SyncPrimaryProbability(m *NormalizedMarket) {
	if m == nil || m.PrimaryOutcome == nil || len(m.Outcomes) == 0 {
		return
	}
	if m.YesTokenID != "" {
		for _, o := range m.Outcomes {
			if o.TokenID == m.YesTokenID {
				m.PrimaryOutcome.Probability = o.Probability
				return
			}
		}
	}
	for _, o := range m.Outcomes {
		name := strings.TrimSpace(o.Name)
		if name == m.PrimaryOutcome.Name || strings.EqualFold(name, "yes") {
			m.PrimaryOutcome.Probability = o.Probability
			return
		}
	}
	best := m.Outcomes[0].Probability
	for _, o := range m.Outcomes[1:] {
		if o.Probability > best {
			best = o.Probability
		}
	}
	m.PrimaryOutcome.Probability = best
}

// complement returns 1-p computed in decimal so round prices stay round:
// plain float subtraction turns 1-0.9 into 0.09999999999999998.
func complement(p float64) float64 {
	f, _ := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(p)).Float64()
	return ClampProbability(f)
}

func setOutcomePrice(m *NormalizedMarket, tokenID string, price float64, now int64) bool {
	found := false
	for i := range m.Outcomes {
		if m.Outcomes[i].TokenID == tokenID {
			m.Outcomes[i].Price = price
			m.Outcomes[i].Probability = price
			m.Outcomes[i].LastUpdated = now
			found = true
		}
	}
	return found
}
