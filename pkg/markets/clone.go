package markets

// Deep-copy constructors. The store replaces whole documents on every
// write, and consumers must never observe a mutation of a previously
// returned object, so every nested slice and pointer is copied.

// CloneMarket returns a deep copy of m.
func CloneMarket(m *NormalizedMarket) *NormalizedMarket {
	if m == nil {
		return nil
	}

	c := *m

	c.Outcomes = make([]Outcome, len(m.Outcomes))
	copy(c.Outcomes, m.Outcomes)

	if m.ClobTokenIDs != nil {
		c.ClobTokenIDs = make([]string, len(m.ClobTokenIDs))
		copy(c.ClobTokenIDs, m.ClobTokenIDs)
	}

	if m.PrimaryOutcome != nil {
		p := *m.PrimaryOutcome
		c.PrimaryOutcome = &p
	}

	return &c
}

// CloneEventOutcomes returns a deep copy of eo, markets and summary
// included.
func CloneEventOutcomes(eo *EventOutcomes) *EventOutcomes {
	if eo == nil {
		return nil
	}

	c := *eo

	c.Markets = make([]*NormalizedMarket, len(eo.Markets))
	for i, m := range eo.Markets {
		c.Markets[i] = CloneMarket(m)
	}

	c.Summary = CloneSummary(eo.Summary)

	return &c
}

// CloneSummary returns a deep copy of s.
func CloneSummary(s *EventOutcomeSummary) *EventOutcomeSummary {
	if s == nil {
		return nil
	}

	c := *s
	c.RankedOutcomes = append([]EventOutcomeRow(nil), s.RankedOutcomes...)
	c.Favorites = append([]EventOutcomeRow(nil), s.Favorites...)
	c.Contenders = append([]EventOutcomeRow(nil), s.Contenders...)
	c.Longshots = append([]EventOutcomeRow(nil), s.Longshots...)

	if s.TopOutcome != nil {
		top := *s.TopOutcome
		c.TopOutcome = &top
	}

	return &c
}
