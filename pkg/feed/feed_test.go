package feed

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/polypulse/polymarket-pulse/pkg/book"
	"github.com/polypulse/polymarket-pulse/pkg/gamma"
	"github.com/polypulse/polymarket-pulse/pkg/markets"
	"github.com/polypulse/polymarket-pulse/pkg/store"
)

func init() {
	Logger = log.New(io.Discard, "", 0)
	markets.Logger = log.New(io.Discard, "", 0)
}

func fixtureStore(t *testing.T) *store.Store {
	t.Helper()
	var ev gamma.Event
	err := json.Unmarshal([]byte(`{
		"id": "ev-1",
		"title": "Championship Winner",
		"markets": [
			{"id": "m1", "conditionId": "cond-1", "question": "Will Outcome A win?",
			 "outcomes": ["Yes","No"], "outcomePrices": [0.6, 0.4],
			 "clobTokenIds": ["a-no","a-yes"], "volume": 100},
			{"id": "m2", "conditionId": "cond-2", "question": "Will Outcome B win?",
			 "outcomes": ["Yes","No"], "outcomePrices": [0.3, 0.7],
			 "clobTokenIds": ["b-no","b-yes"], "volume": 50}
		]
	}`), &ev)
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	eo := markets.BuildEventOutcomes(&ev)
	if eo == nil {
		t.Fatal("nil fixture event")
	}
	s := store.New()
	s.HydrateEvent(eo)
	return s
}

func primaryProbability(t *testing.T, s *store.Store, marketID string) float64 {
	t.Helper()
	eo := s.Event("ev-1")
	if eo == nil {
		t.Fatal("event missing")
	}
	for _, m := range eo.Markets {
		if m.ID == marketID {
			if m.PrimaryOutcome == nil {
				t.Fatalf("market %s has no primary outcome", marketID)
			}
			return m.PrimaryOutcome.Probability
		}
	}
	t.Fatalf("market %s missing", marketID)
	return 0
}

func TestPriceChangePatchesStore(t *testing.T) {
	s := fixtureStore(t)
	f := New(Config{Store: s})

	f.handleMessage([]byte(`{
		"event_type": "price_change",
		"asset_id": "a-yes",
		"market": "cond-1",
		"price": "0.82"
	}`))

	if got := primaryProbability(t, s, "m1"); got != 0.82 {
		t.Errorf("m1 probability = %v, want 0.82", got)
	}
	// Other market untouched.
	if got := primaryProbability(t, s, "m2"); got != 0.3 {
		t.Errorf("m2 probability = %v, want 0.3", got)
	}
}

func TestNoTokenPriceMirrorsToYes(t *testing.T) {
	s := fixtureStore(t)
	f := New(Config{Store: s})

	// No token trading at 0.9 implies Yes at 0.1.
	f.handleMessage([]byte(`{
		"event_type": "price_change",
		"asset_id": "a-no",
		"price": "0.9"
	}`))

	if got := primaryProbability(t, s, "m1"); got != 0.1 {
		t.Errorf("m1 probability = %v, want 0.1", got)
	}
}

func TestBatchedPriceChanges(t *testing.T) {
	s := fixtureStore(t)
	f := New(Config{Store: s})

	f.handleMessage([]byte(`[
		{"event_type": "price_change", "market": "cond-1",
		 "changes": [{"asset_id": "a-yes", "price": "0.7"}]},
		{"event_type": "price_change", "asset_id": "b-yes", "price": "0.55"}
	]`))

	if got := primaryProbability(t, s, "m1"); got != 0.7 {
		t.Errorf("m1 probability = %v, want 0.7", got)
	}
	if got := primaryProbability(t, s, "m2"); got != 0.55 {
		t.Errorf("m2 probability = %v, want 0.55", got)
	}
}

func TestLastTradePricePatchesStore(t *testing.T) {
	s := fixtureStore(t)
	f := New(Config{Store: s})

	f.handleMessage([]byte(`{
		"event_type": "last_trade_price",
		"asset_id": "a-yes",
		"price": "0.64",
		"side": "BUY",
		"size": "25"
	}`))

	if got := primaryProbability(t, s, "m1"); got != 0.64 {
		t.Errorf("m1 probability = %v, want 0.64", got)
	}
}

func TestUnparseablePriceIgnored(t *testing.T) {
	s := fixtureStore(t)
	f := New(Config{Store: s})

	f.handleMessage([]byte(`{
		"event_type": "price_change",
		"asset_id": "a-yes",
		"price": "not-a-number"
	}`))

	if got := primaryProbability(t, s, "m1"); got != 0.6 {
		t.Errorf("m1 probability = %v, want untouched 0.6", got)
	}
}

func TestBookEventUpdatesMirror(t *testing.T) {
	s := fixtureStore(t)
	books := book.NewMirror()
	f := New(Config{Store: s, Books: books})

	f.handleMessage([]byte(`{
		"event_type": "book",
		"asset_id": "a-yes",
		"market": "cond-1",
		"timestamp": "1700000000000",
		"bids": [{"price": "0.60", "size": "100"}, {"price": "0.59", "size": "50"}],
		"asks": [{"price": "0.62", "size": "80"}]
	}`))

	b := books.Get("a-yes")
	if b == nil {
		t.Fatal("book not created")
	}
	bid, _ := b.BestBid()
	if bid.String() != "0.6" {
		t.Errorf("BestBid = %s, want 0.6", bid)
	}
	if got := b.Spread().String(); got != "0.02" {
		t.Errorf("Spread = %s, want 0.02", got)
	}
	if b.Snapshot(0).Timestamp != 1700000000000 {
		t.Errorf("Timestamp = %d, want 1700000000000", b.Snapshot(0).Timestamp)
	}
}

func TestSubscribePayload(t *testing.T) {
	f := New(Config{})

	if f.subscribePayload() != nil {
		t.Error("payload with no assets should be nil")
	}

	if err := f.Subscribe("tok-b", "tok-a", "", "tok-a"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	payload, ok := f.subscribePayload().(subscribeMsg)
	if !ok {
		t.Fatal("wrong payload type")
	}
	if payload.Type != "subscribe" || payload.Channel != "market" {
		t.Errorf("payload header = %s/%s", payload.Type, payload.Channel)
	}
	if len(payload.Assets) != 2 || payload.Assets[0] != "tok-a" || payload.Assets[1] != "tok-b" {
		t.Errorf("payload assets = %v, want [tok-a tok-b]", payload.Assets)
	}

	if err := f.Unsubscribe("tok-a"); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	if got := f.Assets(); len(got) != 1 || got[0] != "tok-b" {
		t.Errorf("Assets = %v, want [tok-b]", got)
	}
}
