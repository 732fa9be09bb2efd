// Package markets converts heterogeneous Gamma market payloads into a
// uniform, rankable representation: normalized markets, per-event outcome
// bundles, and ranked summaries with change-over-time tracking.
package markets

import (
	"strings"
	"time"
)

// MarketType classifies a normalized market.
type MarketType string

const (
	MarketTypeBinary MarketType = "binary"
	MarketTypeMulti  MarketType = "multi"
)

// Tier is the ranking bucket assigned to an outcome row within its event.
type Tier string

const (
	TierFavorite  Tier = "favorite"
	TierContender Tier = "contender"
	TierLongshot  Tier = "longshot"
)

// Timeframe selects the baseline window for change computation.
type Timeframe string

const (
	Timeframe1H  Timeframe = "1H"
	Timeframe6H  Timeframe = "6H"
	Timeframe1D  Timeframe = "1D"
	Timeframe1W  Timeframe = "1W"
	Timeframe1M  Timeframe = "1M"
	TimeframeAll Timeframe = "ALL"
)

// ParseTimeframe maps a string spelling to a Timeframe, falling back to
// 1D for anything unrecognized.
func ParseTimeframe(s string) Timeframe {
	switch tf := Timeframe(strings.ToUpper(strings.TrimSpace(s))); tf {
	case Timeframe1H, Timeframe6H, Timeframe1D, Timeframe1W, Timeframe1M, TimeframeAll:
		return tf
	default:
		return Timeframe1D
	}
}

// Duration returns the window length, or 0 for ALL.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case Timeframe1H:
		return time.Hour
	case Timeframe6H:
		return 6 * time.Hour
	case Timeframe1D:
		return 24 * time.Hour
	case Timeframe1W:
		return 7 * 24 * time.Hour
	case Timeframe1M:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}

// Outcome is one tradable side of a market.
//
// Price and Probability are clamped to [0,1] on ingestion. Outcomes of a
// market are always sorted descending by price.
type Outcome struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Probability float64 `json:"probability"`
	TokenID     string  `json:"tokenId,omitempty"`
	Volume      float64 `json:"volume,omitempty"`
	Liquidity   float64 `json:"liquidity,omitempty"`
	Change24h   float64 `json:"change24h,omitempty"`
	LastUpdated int64   `json:"lastUpdated"` // epoch ms
}

// PrimaryOutcome is the outcome a multi-outcome event treats as a market's
// "Yes side" for display. Name is always non-empty when present.
type PrimaryOutcome struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	YesTokenID  string  `json:"yesTokenId,omitempty"`
	NoTokenID   string  `json:"noTokenId,omitempty"`
}

// NormalizedMarket is one market (a Yes/No pair, or one row of a
// multi-outcome event), fully resolved from a raw Gamma record.
//
// Instances are created fresh by NormalizeMarket and never mutated in
// place; callers clone before patching.
type NormalizedMarket struct {
	ID          string `json:"id"`
	Slug        string `json:"slug,omitempty"`
	ConditionID string `json:"conditionId,omitempty"`

	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Type        MarketType `json:"type"`

	Outcomes       []Outcome       `json:"outcomes"`
	ClobTokenIDs   []string        `json:"clobTokenIds,omitempty"`
	YesTokenID     string          `json:"yesTokenId,omitempty"`
	NoTokenID      string          `json:"noTokenId,omitempty"`
	PrimaryOutcome *PrimaryOutcome `json:"primaryOutcome,omitempty"`
	DisplayName    string          `json:"displayName,omitempty"`

	Volume       float64 `json:"volume"`
	Liquidity    float64 `json:"liquidity"`
	OpenInterest float64 `json:"openInterest,omitempty"`
	CommentCount int     `json:"commentCount,omitempty"`

	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	LastUpdated int64  `json:"lastUpdated"` // epoch ms
	Active      bool   `json:"active"`
	Closed      bool   `json:"closed"`

	NegRisk         bool   `json:"negRisk,omitempty"`
	NegRiskMarketID string `json:"negRiskMarketId,omitempty"`

	// Position of this market among its siblings in a multi-outcome event.
	EventID       string `json:"eventId,omitempty"`
	OutcomeIndex  int    `json:"outcomeIndex"`
	TotalOutcomes int    `json:"totalOutcomes"`
}

// EventOutcomes bundles an event's normalized markets and aggregate totals.
// Markets is never empty; BuildEventOutcomes returns nil instead.
type EventOutcomes struct {
	EventID        string               `json:"eventId"`
	Slug           string               `json:"slug,omitempty"`
	Title          string               `json:"title"`
	Markets        []*NormalizedMarket  `json:"markets"`
	TotalVolume    float64              `json:"totalVolume"`
	TotalLiquidity float64              `json:"totalLiquidity"`
	Summary        *EventOutcomeSummary `json:"summary,omitempty"`
}

// EventOutcomeRow is one ranked row of an event summary.
type EventOutcomeRow struct {
	MarketID    string  `json:"marketId"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
	Rank        int     `json:"rank"` // 1-based, descending probability
	Tier        Tier    `json:"tier"`
	OddsText    string  `json:"oddsText"`
	ChangeAbs   float64 `json:"changeAbs"`
	ChangePct   float64 `json:"changePct"`
	Volume      float64 `json:"volume,omitempty"`
	YesTokenID  string  `json:"yesTokenId,omitempty"`
	NoTokenID   string  `json:"noTokenId,omitempty"`
}

// EventOutcomeSummary is the ranked, tiered view over one event's markets.
// RankedOutcomes is sorted descending by probability with contiguous ranks
// from 1; Favorites, Contenders, and Longshots partition it.
type EventOutcomeSummary struct {
	EventID        string            `json:"eventId"`
	Timeframe      Timeframe         `json:"timeframe"`
	RankedOutcomes []EventOutcomeRow `json:"rankedOutcomes"`
	Favorites      []EventOutcomeRow `json:"favorites"`
	Contenders     []EventOutcomeRow `json:"contenders"`
	Longshots      []EventOutcomeRow `json:"longshots"`
	TopOutcome     *EventOutcomeRow  `json:"topOutcome,omitempty"`
	InfoNote       string            `json:"infoNote,omitempty"`
	GeneratedAt    int64             `json:"generatedAt"` // epoch ms
}

// HistoryPoint is one recorded probability observation for a market.
type HistoryPoint struct {
	Timestamp   int64   `json:"timestamp"` // epoch ms
	Probability float64 `json:"probability"`
}

// MaxHistoryPoints caps the per-market probability history; the oldest
// points are evicted first.
const MaxHistoryPoints = 720
