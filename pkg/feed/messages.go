package feed

// MessageType identifies a market-channel message.
type MessageType string

const (
	TypePriceChange    MessageType = "price_change"
	TypeBook           MessageType = "book"
	TypeLastTradePrice MessageType = "last_trade_price"
	TypeTickSizeChange MessageType = "tick_size_change"
)

// envelope carries the fields common to every market-channel message.
type envelope struct {
	EventType string `json:"event_type"`
	AssetID   string `json:"asset_id,omitempty"`
	Market    string `json:"market,omitempty"`
}

// PriceChangeEvent is emitted when a token's price moves. Older payloads
// carry a flat asset_id/price pair; newer ones batch per-asset changes.
type PriceChangeEvent struct {
	AssetID   string             `json:"asset_id"`
	Market    string             `json:"market"`
	Price     string             `json:"price"`
	Changes   []PriceChangeEntry `json:"changes,omitempty"`
	Timestamp string             `json:"timestamp,omitempty"`
}

// PriceChangeEntry is one change inside a batched price_change message.
type PriceChangeEntry struct {
	AssetID string `json:"asset_id"`
	Price   string `json:"price"`
	Side    string `json:"side,omitempty"`
	Size    string `json:"size,omitempty"`
}

// BookEvent is a full order book snapshot for one token.
type BookEvent struct {
	AssetID   string     `json:"asset_id"`
	Market    string     `json:"market"`
	Hash      string     `json:"hash"`
	Timestamp string     `json:"timestamp"`
	Bids      []RawLevel `json:"bids"`
	Asks      []RawLevel `json:"asks"`
}

// RawLevel is a price level in wire format (decimal strings).
type RawLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// LastTradeEvent is emitted when a trade prints on the market.
type LastTradeEvent struct {
	AssetID   string `json:"asset_id"`
	Market    string `json:"market"`
	Side      string `json:"side"`
	Price     string `json:"price"`
	Size      string `json:"size"`
	Timestamp string `json:"timestamp,omitempty"`
}

// subscribeMsg is the market-channel (un)subscribe payload.
type subscribeMsg struct {
	Type    string   `json:"type"`
	Channel string   `json:"channel,omitempty"`
	Assets  []string `json:"assets_ids,omitempty"`
}
