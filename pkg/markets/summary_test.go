package markets

import (
	"testing"
	"time"
)

func summaryMarket(id, name string, probability, volume float64) *NormalizedMarket {
	return &NormalizedMarket{
		ID:     id,
		Title:  name,
		Type:   MarketTypeBinary,
		Volume: volume,
		Outcomes: []Outcome{
			{Name: name, Price: probability, Probability: probability},
		},
		PrimaryOutcome: &PrimaryOutcome{Name: name, Probability: probability},
	}
}

func TestBuildSummaryRankingAndTiers(t *testing.T) {
	mkts := []*NormalizedMarket{
		summaryMarket("m-long", "Longshot", 0.01, 10),
		summaryMarket("m-fav", "Favorite", 0.70, 5000),
		summaryMarket("m-mid", "Contender", 0.20, 900),
	}

	s := BuildSummary("ev", mkts, nil, TimeframeAll, DefaultTierPolicy(), time.Now())

	if len(s.RankedOutcomes) != 3 {
		t.Fatalf("got %d rows", len(s.RankedOutcomes))
	}

	// Descending probability, contiguous ranks from 1.
	wantOrder := []string{"Favorite", "Contender", "Longshot"}
	for i, row := range s.RankedOutcomes {
		if row.Name != wantOrder[i] {
			t.Errorf("row %d = %s, want %s", i, row.Name, wantOrder[i])
		}
		if row.Rank != i+1 {
			t.Errorf("row %d rank = %d, want %d", i, row.Rank, i+1)
		}
	}
	for i := 0; i+1 < len(s.RankedOutcomes); i++ {
		if s.RankedOutcomes[i].Probability < s.RankedOutcomes[i+1].Probability {
			t.Fatal("rankedOutcomes not sorted descending by probability")
		}
	}

	if len(s.Favorites) != 1 || s.Favorites[0].Name != "Favorite" {
		t.Errorf("favorites = %+v", s.Favorites)
	}
	if len(s.Contenders) != 1 || s.Contenders[0].Name != "Contender" {
		t.Errorf("contenders = %+v", s.Contenders)
	}
	if len(s.Longshots) != 1 || s.Longshots[0].Name != "Longshot" {
		t.Errorf("longshots = %+v", s.Longshots)
	}

	// Partition: every row lands in exactly one tier.
	if len(s.Favorites)+len(s.Contenders)+len(s.Longshots) != len(s.RankedOutcomes) {
		t.Error("tiers do not partition rankedOutcomes")
	}

	if s.TopOutcome == nil || s.TopOutcome.Name != "Favorite" {
		t.Errorf("topOutcome = %+v", s.TopOutcome)
	}
}

func TestBuildSummaryTieBreak(t *testing.T) {
	mkts := []*NormalizedMarket{
		summaryMarket("zeta", "Zeta", 0.30, 100),
		summaryMarket("alpha", "Alpha", 0.30, 100),
		summaryMarket("big", "Big", 0.30, 500),
	}

	s := BuildSummary("ev", mkts, nil, TimeframeAll, DefaultTierPolicy(), time.Now())

	// Equal probability: higher volume first, then ascending market id.
	wantOrder := []string{"big", "alpha", "zeta"}
	for i, row := range s.RankedOutcomes {
		if row.MarketID != wantOrder[i] {
			t.Errorf("row %d = %s, want %s", i, row.MarketID, wantOrder[i])
		}
	}
}

func TestBuildSummaryFallsBackToBestOutcome(t *testing.T) {
	m := &NormalizedMarket{
		ID:    "m1",
		Title: "No primary",
		Outcomes: []Outcome{
			{Name: "Over", Price: 0.65, Probability: 0.65},
			{Name: "Under", Price: 0.35, Probability: 0.35},
		},
	}

	s := BuildSummary("ev", []*NormalizedMarket{m}, nil, TimeframeAll, DefaultTierPolicy(), time.Now())

	if s.RankedOutcomes[0].Name != "Over" || s.RankedOutcomes[0].Probability != 0.65 {
		t.Errorf("row = %+v", s.RankedOutcomes[0])
	}
}

func TestBuildSummaryInfoNote(t *testing.T) {
	mkts := []*NormalizedMarket{
		summaryMarket("m1", "Priced", 0.5, 0),
		{ID: "m2", Title: "Empty", DisplayName: "Empty"},
	}

	s := BuildSummary("ev", mkts, nil, TimeframeAll, DefaultTierPolicy(), time.Now())

	if s.InfoNote == "" {
		t.Error("expected an info note for priceless outcomes")
	}
}

func TestChangeOverWindow(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	hist := []HistoryPoint{
		{Timestamp: now.Add(-48 * time.Hour).UnixMilli(), Probability: 0.20},
		{Timestamp: now.Add(-5 * time.Hour).UnixMilli(), Probability: 0.40},
		{Timestamp: now.Add(-30 * time.Minute).UnixMilli(), Probability: 0.50},
	}

	tests := []struct {
		name    string
		tf      Timeframe
		wantAbs float64
	}{
		// 1H window: baseline is the 30m-old point, latest is the same.
		{"1H", Timeframe1H, 0},
		// 6H window: baseline is the 5h-old point.
		{"6H", Timeframe6H, 0.10},
		// 1D window has no point older inside it than 5h; same baseline.
		{"1D", Timeframe1D, 0.10},
		// 1W window reaches the 48h-old point.
		{"1W", Timeframe1W, 0.30},
		// ALL: first recorded point.
		{"ALL", TimeframeAll, 0.30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abs, pct := changeOverWindow(hist, 0.50, tt.tf, now)
			if diff := abs - tt.wantAbs; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("abs = %f, want %f", abs, tt.wantAbs)
			}
			if tt.wantAbs != 0 && pct == 0 {
				t.Errorf("pct = %f, want non-zero", pct)
			}
		})
	}

	abs, pct := changeOverWindow(nil, 0.5, Timeframe1H, now)
	if abs != 0 || pct != 0 {
		t.Errorf("empty history should yield zero change, got %f/%f", abs, pct)
	}
}

func TestOddsText(t *testing.T) {
	tests := []struct {
		p    float64
		want string
	}{
		{0.64, "64%"},
		{0.005, "<1%"},
		{0.995, ">99%"},
		{0, "0%"},
		{1, "100%"},
	}

	for _, tt := range tests {
		if got := oddsText(tt.p); got != tt.want {
			t.Errorf("oddsText(%f) = %s, want %s", tt.p, got, tt.want)
		}
	}
}
