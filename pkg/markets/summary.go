package markets

import (
	"fmt"
	"sort"
	"time"
)

// TierPolicy controls how ranked rows are partitioned into tiers. The
// upstream split is a UI policy, not a fixed contract, so it is carried
// as data and kept stable for tests.
type TierPolicy struct {
	// FavoriteRanks marks the top N ranks as favorites.
	FavoriteRanks int
	// ContenderMinProbability is the floor below which a non-favorite
	// row is a longshot.
	ContenderMinProbability float64
}

// DefaultTierPolicy is rank 1 = favorite, probability >= 0.05 = contender,
// else longshot.
func DefaultTierPolicy() TierPolicy {
	return TierPolicy{
		FavoriteRanks:           1,
		ContenderMinProbability: 0.05,
	}
}

func (p TierPolicy) tier(rank int, probability float64) Tier {
	if rank <= p.FavoriteRanks {
		return TierFavorite
	}
	if probability >= p.ContenderMinProbability {
		return TierContender
	}
	return TierLongshot
}

// BuildSummary produces the ranked, tiered view over one event's markets.
// Each market contributes one row from its primary outcome, or its best
// available outcome when no primary outcome resolved. Rows are sorted
// descending by probability; ties order by higher volume, then ascending
// market id, so ranks are deterministic.
func BuildSummary(eventID string, mkts []*NormalizedMarket, histories map[string][]HistoryPoint, tf Timeframe, policy TierPolicy, now time.Time) *EventOutcomeSummary {
	rows := make([]EventOutcomeRow, 0, len(mkts))
	priceless := 0

	for _, m := range mkts {
		row := EventOutcomeRow{
			MarketID: m.ID,
			Volume:   m.Volume,
		}
		switch {
		case m.PrimaryOutcome != nil:
			row.Name = m.PrimaryOutcome.Name
			row.Probability = m.PrimaryOutcome.Probability
			row.YesTokenID = m.PrimaryOutcome.YesTokenID
			row.NoTokenID = m.PrimaryOutcome.NoTokenID
		case len(m.Outcomes) > 0:
			row.Name = m.Outcomes[0].Name
			row.Probability = m.Outcomes[0].Probability
			row.YesTokenID = m.YesTokenID
			row.NoTokenID = m.NoTokenID
		default:
			row.Name = m.DisplayName
			priceless++
		}

		row.ChangeAbs, row.ChangePct = changeOverWindow(histories[m.ID], row.Probability, tf, now)
		row.OddsText = oddsText(row.Probability)
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Probability != rows[j].Probability {
			return rows[i].Probability > rows[j].Probability
		}
		if rows[i].Volume != rows[j].Volume {
			return rows[i].Volume > rows[j].Volume
		}
		return rows[i].MarketID < rows[j].MarketID
	})

	summary := &EventOutcomeSummary{
		EventID:     eventID,
		Timeframe:   tf,
		GeneratedAt: now.UnixMilli(),
	}

	for i := range rows {
		rows[i].Rank = i + 1
		rows[i].Tier = policy.tier(rows[i].Rank, rows[i].Probability)

		switch rows[i].Tier {
		case TierFavorite:
			summary.Favorites = append(summary.Favorites, rows[i])
		case TierContender:
			summary.Contenders = append(summary.Contenders, rows[i])
		default:
			summary.Longshots = append(summary.Longshots, rows[i])
		}
	}
	summary.RankedOutcomes = rows

	if len(rows) > 0 {
		top := rows[0]
		summary.TopOutcome = &top
	}
	if priceless > 0 {
		summary.InfoNote = fmt.Sprintf("%d of %d outcomes have no price data", priceless, len(rows))
	}

	return summary
}

// changeOverWindow compares the latest recorded probability against the
// baseline point: the oldest point inside the timeframe window, or the very
// first recorded point when the window is empty or the timeframe is ALL.
func changeOverWindow(history []HistoryPoint, current float64, tf Timeframe, now time.Time) (abs, pct float64) {
	if len(history) == 0 {
		return 0, 0
	}

	latest := history[len(history)-1].Probability
	if latest == 0 && current != 0 {
		latest = current
	}

	baseline := history[0]
	if window := tf.Duration(); window > 0 {
		cutoff := now.Add(-window).UnixMilli()
		for _, p := range history {
			if p.Timestamp >= cutoff {
				baseline = p
				break
			}
		}
	}

	abs = latest - baseline.Probability
	if baseline.Probability > 0 {
		pct = abs / baseline.Probability * 100
	}
	return abs, pct
}

// oddsText renders a probability for display.
func oddsText(p float64) string {
	p = ClampProbability(p)
	switch {
	case p > 0 && p < 0.01:
		return "<1%"
	case p > 0.99 && p < 1:
		return ">99%"
	default:
		return fmt.Sprintf("%.0f%%", p*100)
	}
}
