// Package book maintains display-oriented order book mirrors for tracked
// tokens. Books are replaced wholesale from feed snapshots and patched per
// level; there is no matching.
package book

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// PriceLevel is one aggregated price level.
type PriceLevel struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Book is the order book for one token. Bids are sorted by price
// descending, asks ascending.
type Book struct {
	TokenID   string
	Market    string
	Timestamp int64

	bids []PriceLevel
	asks []PriceLevel
	mu   sync.RWMutex
}

// NewBook creates an empty book for a token.
func NewBook(tokenID, market string) *Book {
	return &Book{TokenID: tokenID, Market: market}
}

// Snapshot is a point-in-time copy of a book, truncated to a depth limit.
type Snapshot struct {
	TokenID   string       `json:"tokenId"`
	Market    string       `json:"market"`
	Timestamp int64        `json:"timestamp"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
}

// SetBids replaces the bid side. Levels with non-positive size are
// dropped; the rest are sorted best-first.
func (b *Book) SetBids(levels []PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids = cleanLevels(levels)
	sort.Slice(b.bids, func(i, j int) bool {
		return b.bids[i].Price.GreaterThan(b.bids[j].Price)
	})
}

// SetAsks replaces the ask side.
func (b *Book) SetAsks(levels []PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.asks = cleanLevels(levels)
	sort.Slice(b.asks, func(i, j int) bool {
		return b.asks[i].Price.LessThan(b.asks[j].Price)
	})
}

// SetTimestamp records the time of the last applied update.
func (b *Book) SetTimestamp(ts int64) {
	b.mu.Lock()
	b.Timestamp = ts
	b.mu.Unlock()
}

func cleanLevels(levels []PriceLevel) []PriceLevel {
	out := make([]PriceLevel, 0, len(levels))
	for _, l := range levels {
		if l.Size.IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

// BestBid returns the highest bid, or zeros when the side is empty.
func (b *Book) BestBid() (price, size decimal.Decimal) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.bids) == 0 {
		return decimal.Zero, decimal.Zero
	}
	return b.bids[0].Price, b.bids[0].Size
}

// BestAsk returns the lowest ask, or zeros when the side is empty.
func (b *Book) BestAsk() (price, size decimal.Decimal) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.asks) == 0 {
		return decimal.Zero, decimal.Zero
	}
	return b.asks[0].Price, b.asks[0].Size
}

// Midpoint returns the mid price, or zero when either side is empty.
func (b *Book) Midpoint() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return decimal.Zero
	}
	return b.bids[0].Price.Add(b.asks[0].Price).Div(decimal.NewFromInt(2))
}

// Spread returns the bid-ask spread, or zero when either side is empty.
func (b *Book) Spread() decimal.Decimal {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.bids) == 0 || len(b.asks) == 0 {
		return decimal.Zero
	}
	return b.asks[0].Price.Sub(b.bids[0].Price)
}

// Snapshot copies the book, keeping at most depth levels per side.
// depth <= 0 keeps everything.
func (b *Book) Snapshot(depth int) Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	bids := b.bids
	asks := b.asks
	if depth > 0 {
		if len(bids) > depth {
			bids = bids[:depth]
		}
		if len(asks) > depth {
			asks = asks[:depth]
		}
	}

	snap := Snapshot{
		TokenID:   b.TokenID,
		Market:    b.Market,
		Timestamp: b.Timestamp,
		Bids:      make([]PriceLevel, len(bids)),
		Asks:      make([]PriceLevel, len(asks)),
	}
	copy(snap.Bids, bids)
	copy(snap.Asks, asks)
	return snap
}

// Mirror holds one book per tracked token.
type Mirror struct {
	mu    sync.RWMutex
	books map[string]*Book
}

// NewMirror creates an empty mirror.
func NewMirror() *Mirror {
	return &Mirror{books: make(map[string]*Book)}
}

// Apply replaces both sides of a token's book from a feed snapshot,
// creating the book on first sight.
func (m *Mirror) Apply(tokenID, market string, bids, asks []PriceLevel, ts int64) {
	if tokenID == "" {
		return
	}

	m.mu.Lock()
	b, ok := m.books[tokenID]
	if !ok {
		b = NewBook(tokenID, market)
		m.books[tokenID] = b
	}
	m.mu.Unlock()

	b.SetBids(bids)
	b.SetAsks(asks)
	b.SetTimestamp(ts)
}

// Get returns the book for a token, or nil when never seen.
func (m *Mirror) Get(tokenID string) *Book {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.books[tokenID]
}

// Len returns the number of tracked books.
func (m *Mirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.books)
}

// ParseLevel converts string price/size (the wire format) into a level.
// Unparseable values yield ok=false.
func ParseLevel(price, size string) (PriceLevel, bool) {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return PriceLevel{}, false
	}
	s, err := decimal.NewFromString(size)
	if err != nil {
		return PriceLevel{}, false
	}
	return PriceLevel{Price: p, Size: s}, true
}
