package markets

import (
	"github.com/google/uuid"

	"github.com/polypulse/polymarket-pulse/pkg/gamma"
)

// NormalizeEventMarkets normalizes every child market of an event, tagging
// each with its position among its siblings.
func NormalizeEventMarkets(ev *gamma.Event) []*NormalizedMarket {
	if ev == nil || len(ev.Markets) == 0 {
		return nil
	}

	eventID := resolveEventID(ev)
	out := make([]*NormalizedMarket, 0, len(ev.Markets))
	for i := range ev.Markets {
		out = append(out, NormalizeMarket(&ev.Markets[i], Options{
			EventID:       eventID,
			OutcomeIndex:  i,
			TotalOutcomes: len(ev.Markets),
			Event:         ev,
		}))
	}
	return out
}

// BuildEventOutcomes bundles an event's normalized markets with aggregate
// totals. Events that produce zero markets are not representable; nil is
// returned and callers filter it out.
func BuildEventOutcomes(ev *gamma.Event) *EventOutcomes {
	markets := NormalizeEventMarkets(ev)
	if len(markets) == 0 {
		return nil
	}

	var totalVolume, totalLiquidity float64
	for _, m := range markets {
		totalVolume += m.Volume
		totalLiquidity += m.Liquidity
	}

	return &EventOutcomes{
		EventID:        markets[0].EventID,
		Slug:           ev.Slug,
		Title:          ev.Title,
		Markets:        markets,
		TotalVolume:    totalVolume,
		TotalLiquidity: totalLiquidity,
	}
}

// resolveEventID mirrors the market identity fallback chain.
func resolveEventID(ev *gamma.Event) string {
	if ev.ID != "" {
		return ev.ID
	}
	if ev.Slug != "" {
		return ev.Slug
	}
	for i := range ev.Markets {
		if ev.Markets[i].EventID != "" {
			return ev.Markets[i].EventID
		}
	}
	return uuid.NewString()
}
