// Package feed bridges the CLOB market-data WebSocket channel into the
// local store and book mirror. Price messages patch stored markets by
// token id; book messages refresh the display mirror.
package feed

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polypulse/polymarket-pulse/pkg/book"
	"github.com/polypulse/polymarket-pulse/pkg/markets"
	"github.com/polypulse/polymarket-pulse/pkg/metrics"
	"github.com/polypulse/polymarket-pulse/pkg/store"
	"github.com/polypulse/polymarket-pulse/pkg/wss"
)

// DefaultURL is the public CLOB market-channel endpoint.
const DefaultURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

// Logger is the package logger; tests may redirect it.
var Logger = log.Default()

// Config holds feed configuration.
type Config struct {
	// URL is the market-channel WebSocket endpoint.
	URL string

	// Store receives price patches. Required.
	Store *store.Store

	// Books receives book snapshots. Optional.
	Books *book.Mirror

	// Metrics receives feed counters. Optional.
	Metrics *metrics.PulseMetrics
}

// Feed is a reconnecting market-channel consumer.
type Feed struct {
	cfg    Config
	client *wss.Client

	mu     sync.RWMutex
	assets map[string]struct{}
}

// New creates a feed. Start must be called to connect.
func New(cfg Config) *Feed {
	f := &Feed{
		cfg:    cfg,
		assets: make(map[string]struct{}),
	}

	wsConfig := wss.DefaultConfig(cfg.URL)
	f.client = wss.NewClient(wsConfig, wss.Handlers{
		OnConnect: func() {
			Logger.Printf("[FEED] connected to %s", cfg.URL)
		},
		OnDisconnect: func(err error) {
			Logger.Printf("[FEED] disconnected: %v", err)
			if cfg.Metrics != nil {
				cfg.Metrics.FeedReconnects.Inc()
			}
		},
		OnMessage: f.handleMessage,
		OnError: func(err error) {
			Logger.Printf("[FEED] error: %v", err)
			if cfg.Metrics != nil {
				cfg.Metrics.FeedErrors.Inc()
			}
		},
	})
	f.client.SetSubscribeMessage(f.subscribePayload)

	return f
}

// Start connects to the feed. The subscription set is replayed on every
// reconnect.
func (f *Feed) Start(ctx context.Context) error {
	return f.client.Connect(ctx)
}

// Close shuts the feed down.
func (f *Feed) Close() error {
	return f.client.Close()
}

// IsConnected reports the connection state.
func (f *Feed) IsConnected() bool {
	return f.client.IsConnected()
}

// Subscribe adds asset ids to the subscription set and, when connected,
// pushes an incremental subscribe for them.
func (f *Feed) Subscribe(assetIDs ...string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	f.mu.Lock()
	fresh := make([]string, 0, len(assetIDs))
	for _, id := range assetIDs {
		if id == "" {
			continue
		}
		if _, ok := f.assets[id]; !ok {
			f.assets[id] = struct{}{}
			fresh = append(fresh, id)
		}
	}
	f.mu.Unlock()

	if len(fresh) == 0 || !f.client.IsConnected() {
		return nil
	}
	return f.client.SendJSON(subscribeMsg{Type: "subscribe", Channel: "market", Assets: fresh})
}

// Unsubscribe removes asset ids from the subscription set.
func (f *Feed) Unsubscribe(assetIDs ...string) error {
	if len(assetIDs) == 0 {
		return nil
	}

	f.mu.Lock()
	for _, id := range assetIDs {
		delete(f.assets, id)
	}
	f.mu.Unlock()

	if !f.client.IsConnected() {
		return nil
	}
	return f.client.SendJSON(subscribeMsg{Type: "unsubscribe", Channel: "market", Assets: assetIDs})
}

// Assets returns the current subscription set, sorted.
func (f *Feed) Assets() []string {
	f.mu.RLock()
	out := make([]string, 0, len(f.assets))
	for id := range f.assets {
		out = append(out, id)
	}
	f.mu.RUnlock()
	sort.Strings(out)
	return out
}

func (f *Feed) subscribePayload() interface{} {
	f.mu.RLock()
	assets := make([]string, 0, len(f.assets))
	for id := range f.assets {
		assets = append(assets, id)
	}
	f.mu.RUnlock()

	if len(assets) == 0 {
		return nil
	}
	sort.Strings(assets)
	return subscribeMsg{Type: "subscribe", Channel: "market", Assets: assets}
}

// --- Message handling ---

func (f *Feed) handleMessage(data []byte) {
	// Batched messages arrive as a JSON array.
	if len(data) > 0 && data[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(data, &batch); err == nil {
			for _, msg := range batch {
				f.handleSingleMessage(msg)
			}
			return
		}
	}
	f.handleSingleMessage(data)
}

func (f *Feed) handleSingleMessage(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	switch MessageType(strings.ToLower(env.EventType)) {
	case TypePriceChange:
		f.recordMessage(string(TypePriceChange))
		var event PriceChangeEvent
		if json.Unmarshal(data, &event) == nil {
			f.applyPriceChange(event)
		}

	case TypeBook:
		f.recordMessage(string(TypeBook))
		var event BookEvent
		if json.Unmarshal(data, &event) == nil {
			f.applyBook(event)
		}

	case TypeLastTradePrice:
		f.recordMessage(string(TypeLastTradePrice))
		var event LastTradeEvent
		if json.Unmarshal(data, &event) == nil {
			f.applyTokenPrice(event.AssetID, event.Price)
		}

	default:
		f.recordMessage("other")
	}
}

func (f *Feed) applyPriceChange(event PriceChangeEvent) {
	if len(event.Changes) > 0 {
		for _, ch := range event.Changes {
			f.applyTokenPrice(ch.AssetID, ch.Price)
		}
		return
	}
	f.applyTokenPrice(event.AssetID, event.Price)
}

// applyTokenPrice parses a decimal price string and patches every stored
// market holding the token.
func (f *Feed) applyTokenPrice(tokenID, rawPrice string) {
	if tokenID == "" || f.cfg.Store == nil {
		return
	}

	dec, err := decimal.NewFromString(rawPrice)
	if err != nil {
		Logger.Printf("[FEED] token %s: unparseable price %q", tokenID, rawPrice)
		return
	}
	price, _ := dec.Float64()
	now := time.Now().UnixMilli()

	applied := f.cfg.Store.UpdateByToken(tokenID, func(m *markets.NormalizedMarket) {
		markets.ApplyTokenPrice(m, tokenID, price, now)
	})
	if f.cfg.Metrics != nil {
		f.cfg.Metrics.RecordPatch("token", applied)
	}
}

func (f *Feed) applyBook(event BookEvent) {
	if f.cfg.Books == nil || event.AssetID == "" {
		return
	}

	bids := parseLevels(event.Bids)
	asks := parseLevels(event.Asks)
	f.cfg.Books.Apply(event.AssetID, event.Market, bids, asks, parseTimestamp(event.Timestamp))
}

func parseLevels(raw []RawLevel) []book.PriceLevel {
	out := make([]book.PriceLevel, 0, len(raw))
	for _, l := range raw {
		if level, ok := book.ParseLevel(l.Price, l.Size); ok {
			out = append(out, level)
		}
	}
	return out
}

func parseTimestamp(raw string) int64 {
	if ts, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return ts
	}
	return time.Now().UnixMilli()
}

func (f *Feed) recordMessage(msgType string) {
	if f.cfg.Metrics != nil {
		f.cfg.Metrics.RecordFeedMessage(msgType)
	}
}
