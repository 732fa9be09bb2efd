// Package store owns the normalized dashboard state: per-event outcome
// bundles and rolling probability histories, patched in place as hydration
// responses and live price ticks arrive.
package store

import (
	"sync"
	"time"

	"github.com/polypulse/polymarket-pulse/pkg/markets"
)

// Store holds every tracked event's outcomes keyed by event id, plus a
// rolling probability history per market. Every write replaces whole
// documents (clone-on-write), so readers never observe a partially
// updated event and concurrent writes resolve as last-write-wins.
type Store struct {
	mu        sync.RWMutex
	events    map[string]*markets.EventOutcomes
	histories map[string][]markets.HistoryPoint
	timeframe markets.Timeframe
	policy    markets.TierPolicy

	// onChange, when set, receives a clone of every event replaced by a
	// hydrate or patch. Called outside the lock.
	onChange func(*markets.EventOutcomes)

	// now is swappable for tests.
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTimeframe sets the initial change-computation timeframe.
func WithTimeframe(tf markets.Timeframe) Option {
	return func(s *Store) {
		s.timeframe = tf
	}
}

// WithTierPolicy overrides the ranking tier policy.
func WithTierPolicy(p markets.TierPolicy) Option {
	return func(s *Store) {
		s.policy = p
	}
}

// WithOnChange registers a callback invoked with a clone of every event
// written by a hydrate or patch.
func WithOnChange(fn func(*markets.EventOutcomes)) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		events:    make(map[string]*markets.EventOutcomes),
		histories: make(map[string][]markets.HistoryPoint),
		timeframe: markets.Timeframe1D,
		policy:    markets.DefaultTierPolicy(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HydrateEvent deep-clones eo, recomputes its summary, records a history
// point for every ranked row, and upserts it. The caller's object is never
// aliased.
func (s *Store) HydrateEvent(eo *markets.EventOutcomes) {
	if eo == nil || len(eo.Markets) == 0 {
		return
	}

	clone := markets.CloneEventOutcomes(eo)

	s.mu.Lock()
	s.refreshLocked(clone)
	s.events[clone.EventID] = clone
	s.mu.Unlock()

	s.notify(clone)
}

// HydrateEvents hydrates a batch of events, skipping nils.
func (s *Store) HydrateEvents(events []*markets.EventOutcomes) {
	for _, eo := range events {
		s.HydrateEvent(eo)
	}
}

// UpdateFunc mutates a cloned market in place. It runs while the store
// lock is held and must not call back into the store.
type UpdateFunc func(*markets.NormalizedMarket)

// UpdateByCondition applies fn to a clone of every stored market whose
// condition id (or market id) matches, then recomputes each touched
// event's summary and history. Unmatched ids are a silent no-op: live
// updates fan out across many subscribed events and most won't contain
// the market.
func (s *Store) UpdateByCondition(conditionID string, fn UpdateFunc) bool {
	return s.update(func(m *markets.NormalizedMarket) bool {
		return m.ConditionID == conditionID || m.ID == conditionID
	}, fn)
}

// UpdateByToken applies fn to a clone of every stored market holding the
// token on either side. Unmatched tokens are a silent no-op.
func (s *Store) UpdateByToken(tokenID string, fn UpdateFunc) bool {
	return s.update(func(m *markets.NormalizedMarket) bool {
		if m.YesTokenID == tokenID || m.NoTokenID == tokenID {
			return true
		}
		for _, o := range m.Outcomes {
			if o.TokenID == tokenID {
				return true
			}
		}
		return false
	}, fn)
}

func (s *Store) update(match func(*markets.NormalizedMarket) bool, fn UpdateFunc) bool {
	var changed []*markets.EventOutcomes

	s.mu.Lock()
	for id, eo := range s.events {
		touched := false
		for _, m := range eo.Markets {
			if match(m) {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}

		clone := markets.CloneEventOutcomes(eo)
		for _, m := range clone.Markets {
			if match(m) {
				fn(m)
				markets.SyncPrimaryProbability(m)
				m.LastUpdated = s.now().UnixMilli()
			}
		}

		s.refreshLocked(clone)
		s.events[id] = clone
		changed = append(changed, clone)
	}
	s.mu.Unlock()

	for _, eo := range changed {
		s.notify(eo)
	}
	return len(changed) > 0
}

// refreshLocked recomputes eo's summary from its current market list and
// appends a history point for every ranked row. Summaries are never
// patched independently of their markets.
func (s *Store) refreshLocked(eo *markets.EventOutcomes) {
	now := s.now()
	ts := now.UnixMilli()

	for _, m := range eo.Markets {
		p := rowProbability(m)
		hist := append(s.histories[m.ID], markets.HistoryPoint{Timestamp: ts, Probability: p})
		if len(hist) > markets.MaxHistoryPoints {
			hist = hist[len(hist)-markets.MaxHistoryPoints:]
		}
		s.histories[m.ID] = hist
	}

	eo.Summary = markets.BuildSummary(eo.EventID, eo.Markets, s.histories, s.timeframe, s.policy, now)
}

func rowProbability(m *markets.NormalizedMarket) float64 {
	if m.PrimaryOutcome != nil {
		return m.PrimaryOutcome.Probability
	}
	if len(m.Outcomes) > 0 {
		return m.Outcomes[0].Probability
	}
	return 0
}

func (s *Store) notify(eo *markets.EventOutcomes) {
	if s.onChange != nil {
		s.onChange(markets.CloneEventOutcomes(eo))
	}
}

// Clear resets both maps to empty.
func (s *Store) Clear() {
	s.mu.Lock()
	s.events = make(map[string]*markets.EventOutcomes)
	s.histories = make(map[string][]markets.HistoryPoint)
	s.mu.Unlock()
}

// SetTimeframe switches the change-computation window and recomputes every
// stored summary against it. History is left untouched.
func (s *Store) SetTimeframe(tf markets.Timeframe) {
	s.mu.Lock()
	s.timeframe = tf
	now := s.now()
	for id, eo := range s.events {
		clone := markets.CloneEventOutcomes(eo)
		clone.Summary = markets.BuildSummary(clone.EventID, clone.Markets, s.histories, tf, s.policy, now)
		s.events[id] = clone
	}
	s.mu.Unlock()
}

// Timeframe returns the current change-computation window.
func (s *Store) Timeframe() markets.Timeframe {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeframe
}

// Event returns a clone of one stored event, or nil.
func (s *Store) Event(eventID string) *markets.EventOutcomes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return markets.CloneEventOutcomes(s.events[eventID])
}

// Events returns clones of every stored event.
func (s *Store) Events() []*markets.EventOutcomes {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*markets.EventOutcomes, 0, len(s.events))
	for _, eo := range s.events {
		out = append(out, markets.CloneEventOutcomes(eo))
	}
	return out
}

// Summary returns a clone of one stored event's summary, or nil.
func (s *Store) Summary(eventID string) *markets.EventOutcomeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	eo := s.events[eventID]
	if eo == nil {
		return nil
	}
	return markets.CloneSummary(eo.Summary)
}

// History returns a copy of one market's probability history.
func (s *Store) History(marketID string) []markets.HistoryPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]markets.HistoryPoint(nil), s.histories[marketID]...)
}

// Len returns the number of tracked events.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// HistoryLen returns the number of tracked market histories.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories)
}

// TokenIDs returns every CLOB token id referenced by stored markets,
// deduplicated. The feed subscribes to these.
func (s *Store) TokenIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, eo := range s.events {
		for _, m := range eo.Markets {
			add(m.YesTokenID)
			add(m.NoTokenID)
			for _, o := range m.Outcomes {
				add(o.TokenID)
			}
		}
	}
	return out
}
