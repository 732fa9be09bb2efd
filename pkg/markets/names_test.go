package markets

import (
	"testing"

	"github.com/polypulse/polymarket-pulse/pkg/gamma"
)

func TestExtractSubject(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"will win", "Will Kamala Harris win the election?", "Kamala Harris"},
		{"will be", "Will Jerome Powell be replaced in 2025?", "Jerome Powell"},
		{"will happen", "Will a recession happen this year?", "a recession"},
		{"will reach", "Will Bitcoin reach $100k?", "Bitcoin"},
		{"to win", "Chiefs to win the Super Bowl?", "Chiefs"},
		{"to be", "Candidate X to be nominated", "Candidate X"},
		{"comma clause", "Taylor Swift, album of the year", "Taylor Swift"},
		{"short question", "GOP sweep", "GOP sweep"},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
		{
			"too long, no pattern",
			"a very long market description that does not match any of the known extraction patterns and just keeps going and going well past the cutoff",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractSubject(tt.question); got != tt.want {
				t.Errorf("extractSubject(%q) = %q, want %q", tt.question, got, tt.want)
			}
		})
	}
}

func TestTitleCaseSlug(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"kamala-harris", "Kamala Harris"},
		{"man_city_to_win", "Man City To Win"},
		{"nottingham-forest", "Nottingham Forest"},
		{"", ""},
		{"---", ""},
	}

	for _, tt := range tests {
		if got := titleCaseSlug(tt.slug); got != tt.want {
			t.Errorf("titleCaseSlug(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

func TestIsGenericName(t *testing.T) {
	generics := []string{"yes", "No", " YES ", "y", "n", "buy", "Sell", "long", "SHORT", ""}
	for _, g := range generics {
		if !isGenericName(g) {
			t.Errorf("isGenericName(%q) = false, want true", g)
		}
	}
	for _, s := range []string{"Kamala Harris", "Over 2.5", "Draw"} {
		if isGenericName(s) {
			t.Errorf("isGenericName(%q) = true, want false", s)
		}
	}
}

func TestDerivePrimaryNamePriority(t *testing.T) {
	event := &gamma.Event{Title: "Will the Lakers win the 2026 title?", Ticker: "LAKERS26"}

	tests := []struct {
		name string
		in   nameInput
		want string
	}{
		{
			"groupItemTitle wins over everything",
			nameInput{
				market:   &gamma.Market{GroupItemTitle: "Lakers", Question: "Will Celtics win?"},
				outcomes: []string{"Celtics", "No"},
				siblings: true,
			},
			"Lakers",
		},
		{
			"token outcome beats outcome list",
			nameInput{
				market: &gamma.Market{
					Tokens:   []gamma.Token{{TokenID: "t1", Outcome: "Yes"}, {TokenID: "t2", Outcome: "Nuggets"}},
					Question: "Will Celtics win?",
				},
				outcomes: []string{"Celtics", "No"},
				siblings: true,
			},
			"Nuggets",
		},
		{
			"second outcome name",
			nameInput{
				market:   &gamma.Market{},
				outcomes: []string{"Yes", "Warriors"},
			},
			"Warriors",
		},
		{
			"any of first four outcomes",
			nameInput{
				market:   &gamma.Market{},
				outcomes: []string{"Yes", "No", "Draw"},
			},
			"Draw",
		},
		{
			"question extraction needs siblings",
			nameInput{
				market:   &gamma.Market{Question: "Will Celtics win the finals?"},
				outcomes: []string{"Yes", "No"},
				siblings: false,
			},
			"",
		},
		{
			"question extraction with siblings",
			nameInput{
				market:   &gamma.Market{Question: "Will Celtics win the finals?"},
				outcomes: []string{"Yes", "No"},
				siblings: true,
			},
			"Celtics",
		},
		{
			"market ticker after question fails",
			nameInput{
				market:   &gamma.Market{Question: "", Ticker: "CELTICS"},
				outcomes: []string{"Yes", "No"},
				siblings: true,
			},
			"CELTICS",
		},
		{
			"slug after ticker fails",
			nameInput{
				market:   &gamma.Market{Ticker: "yes", Slug: "boston-celtics"},
				outcomes: []string{"Yes", "No"},
				siblings: true,
			},
			"Boston Celtics",
		},
		{
			"event title when market text is useless",
			nameInput{
				market:   &gamma.Market{},
				event:    event,
				outcomes: []string{"Yes", "No"},
				siblings: true,
			},
			"the Lakers",
		},
		{
			"event ticker as last resort",
			nameInput{
				market:   &gamma.Market{},
				event:    &gamma.Event{Ticker: "LAKERS26"},
				outcomes: []string{"Yes", "No"},
				siblings: true,
			},
			"LAKERS26",
		},
		{
			"nothing derivable",
			nameInput{
				market:   &gamma.Market{},
				outcomes: []string{"Yes", "No"},
				siblings: true,
			},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := derivePrimaryName(tt.in); got != tt.want {
				t.Errorf("derivePrimaryName() = %q, want %q", got, tt.want)
			}
		})
	}
}
