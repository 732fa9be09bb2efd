// Package gamma provides the raw data shapes and a read-only client for the
// Polymarket Gamma Markets API. Gamma payloads are loosely typed: array
// fields frequently arrive as JSON-string-encoded arrays and numeric fields
// as quoted strings, so the types here decode both forms and surface parse
// failures without ever failing the enclosing document.
package gamma

import (
	"encoding/json"
	"math"
	"strconv"
)

// FlexStrings is a string slice that decodes from either a native JSON array
// or a JSON string containing an encoded array (the form Gamma ships for
// outcomes, outcomePrices, and clobTokenIds).
type FlexStrings struct {
	Values []string
	Err    error
}

func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	f.Values = nil
	f.Err = nil

	if string(data) == "null" {
		return nil
	}

	// Native array first.
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		f.Values = arr
		return nil
	}

	// Mixed-type array (numbers among strings).
	var anyArr []interface{}
	if err := json.Unmarshal(data, &anyArr); err == nil {
		out := make([]string, 0, len(anyArr))
		for _, v := range anyArr {
			switch t := v.(type) {
			case string:
				out = append(out, t)
			case float64:
				out = append(out, strconv.FormatFloat(t, 'f', -1, 64))
			}
		}
		f.Values = out
		return nil
	}

	// String-encoded array.
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		f.Err = err
		return nil
	}
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), &arr); err != nil {
		f.Err = err
		return nil
	}
	f.Values = arr
	return nil
}

func (f FlexStrings) MarshalJSON() ([]byte, error) {
	if f.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.Values)
}

// Floats parses every value as a float64, keeping NaN for entries that do
// not parse. Callers are expected to clamp.
func (f FlexStrings) Floats() []float64 {
	out := make([]float64, len(f.Values))
	for i, s := range f.Values {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// FlexFloat decodes from a JSON number or a quoted numeric string.
// Missing, empty, or unparseable values leave the float unset.
type FlexFloat struct {
	Value float64
	Set   bool
}

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	f.Value = 0
	f.Set = false

	if string(data) == "null" {
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			f.Value = v
			f.Set = true
		}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	f.Value = v
	f.Set = true
	return nil
}

func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Float64 returns the parsed value, or 0 when unset.
func (f FlexFloat) Float64() float64 {
	return f.Value
}

// Ptr returns the value as a pointer, nil when unset.
func (f FlexFloat) Ptr() *float64 {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

// Token is the richer per-outcome shape some Gamma/CLOB payloads carry.
type Token struct {
	TokenID   string    `json:"tokenId"`
	Outcome   string    `json:"outcome"`
	Price     FlexFloat `json:"price"`
	Volume    FlexFloat `json:"volume"`
	Liquidity FlexFloat `json:"liquidity"`
	Change24h FlexFloat `json:"change24h"`
	Winner    bool      `json:"winner"`
}

// Tag is a category tag attached to events and markets.
type Tag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// Market is one raw market record. Identity and neg-risk fields carry every
// key spelling observed upstream; resolution helpers pick the first set one.
//
// Note: encoding/json matches object keys case-insensitively, so the
// "negRiskMarketID" tag also captures "negRiskMarketId".
type Market struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Question    string `json:"question"`
	Description string `json:"description"`
	ConditionID string `json:"conditionId"`
	Ticker      string `json:"ticker"`

	// Alternate identity spellings seen on CLOB-shaped payloads.
	MarketID  string `json:"marketId"`
	MarketKey string `json:"market"`

	GroupItemTitle string `json:"groupItemTitle"`

	Outcomes      FlexStrings `json:"outcomes"`
	OutcomePrices FlexStrings `json:"outcomePrices"`
	ClobTokenIDs  FlexStrings `json:"clobTokenIds"`
	Tokens        []Token     `json:"tokens,omitempty"`

	Volume       FlexFloat `json:"volume"`
	Liquidity    FlexFloat `json:"liquidity"`
	Volume24hr   FlexFloat `json:"volume24hr"`
	OpenInterest FlexFloat `json:"openInterest"`
	CommentCount FlexFloat `json:"commentCount"`

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Active    bool   `json:"active"`
	Closed    bool   `json:"closed"`
	Archived  bool   `json:"archived"`

	NegRisk       bool `json:"negRisk"`
	EnableNegRisk bool `json:"enableNegRisk"`
	NegRiskSnake  bool `json:"neg_risk"`

	NegRiskMarketID    string `json:"negRiskMarketID"`
	NegRiskMarketSnake string `json:"neg_risk_market_id"`

	EventID string `json:"eventId"`

	Tags []Tag `json:"tags,omitempty"`
}

// NegRiskFlag resolves the neg-risk flag across its key spellings.
func (m *Market) NegRiskFlag() bool {
	return m.NegRisk || m.EnableNegRisk || m.NegRiskSnake
}

// NegRiskMarket resolves the neg-risk market id across its key spellings.
func (m *Market) NegRiskMarket() string {
	if m.NegRiskMarketID != "" {
		return m.NegRiskMarketID
	}
	return m.NegRiskMarketSnake
}

// Event is one raw event record: a question bundling 1..N markets.
type Event struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Ticker      string `json:"ticker"`
	Title       string `json:"title"`
	Description string `json:"description"`

	Markets []Market `json:"markets,omitempty"`
	Tags    []Tag    `json:"tags,omitempty"`

	Volume       FlexFloat `json:"volume"`
	Liquidity    FlexFloat `json:"liquidity"`
	OpenInterest FlexFloat `json:"openInterest"`
	CommentCount FlexFloat `json:"commentCount"`

	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Active    bool   `json:"active"`
	Closed    bool   `json:"closed"`
	Archived  bool   `json:"archived"`
	Featured  bool   `json:"featured"`

	EnableNegRisk bool `json:"enableNegRisk"`

	Icon  string `json:"icon"`
	Image string `json:"image"`
}

// IsTradeable reports whether the event is live and open.
func (e *Event) IsTradeable() bool {
	return e.Active && !e.Closed && !e.Archived
}

// IsTradeable reports whether the market is live and open.
func (m *Market) IsTradeable() bool {
	return m.Active && !m.Closed && !m.Archived
}
