package transit_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"snowbasin-backend/internal/transit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a canned transit.Provider that counts calls so tests can
// assert the keyword gate prevents any fetching.
type fakeProvider struct {
	alerts       []transit.ServiceAlert
	alertsErr    error
	arrivals     map[string][]transit.Arrival
	arrivalsErr  error
	alertCalls   int
	arrivalCalls int
}

func (f *fakeProvider) ServiceAlerts(_ context.Context) ([]transit.ServiceAlert, error) {
	f.alertCalls++
	return f.alerts, f.alertsErr
}

func (f *fakeProvider) StopArrivals(_ context.Context, stopID string) ([]transit.Arrival, error) {
	f.arrivalCalls++
	if f.arrivalsErr != nil {
		return nil, f.arrivalsErr
	}
	return f.arrivals[stopID], nil
}

func TestTryEnrichSkipsNonTransitQueries(t *testing.T) {
	provider := &fakeProvider{}
	enricher := transit.NewEnricher(provider)

	for _, content := range []string{
		"What's 2+2?",
		"Best runs at Snowbird today?",
		"Tell me a joke",
	} {
		got := enricher.TryEnrich(context.Background(), content)
		assert.Empty(t, got, "content: %q", content)
	}
	assert.Zero(t, provider.alertCalls)
	assert.Zero(t, provider.arrivalCalls)
}

func TestTryEnrichSubstringMatch(t *testing.T) {
	// The gate is a plain substring check, so "Utah" matches the "uta"
	// keyword and triggers a fetch even without an explicit transit word.
	provider := &fakeProvider{}
	enricher := transit.NewEnricher(provider)

	enricher.TryEnrich(context.Background(), "Tell me about Utah's history")
	assert.Equal(t, 1, provider.alertCalls)
	assert.Equal(t, 5, provider.arrivalCalls)
}

func TestTryEnrichKeywordGate(t *testing.T) {
	for _, content := range []string{
		"When is the next bus?",
		"Is TRAX running on time?",
		"any delays on the frontrunner",
		"What's near Courthouse Station?",
	} {
		provider := &fakeProvider{}
		enricher := transit.NewEnricher(provider)
		enricher.TryEnrich(context.Background(), content)
		assert.Equal(t, 1, provider.alertCalls, "content: %q", content)
	}
}

func TestTryEnrichFormatsAlertsAndArrivals(t *testing.T) {
	provider := &fakeProvider{
		alerts: []transit.ServiceAlert{
			{Title: "Red Line delay", Description: "Track work near Daybreak", Routes: "701"},
			{Title: "Detour on Route 2"},
		},
		arrivals: map[string][]transit.Arrival{
			"21735": {
				{RouteName: "Blue Line", Headsign: "Draper", MinutesAway: 4},
				{RouteName: "Route 2", Headsign: "University", MinutesAway: 9},
			},
		},
	}
	enricher := transit.NewEnricher(provider)

	got := enricher.TryEnrich(context.Background(), "when is the next train?")

	assert.Contains(t, got, "**Current UTA Service Alerts:**")
	assert.Contains(t, got, "- Red Line delay - Track work near Daybreak (701)")
	assert.Contains(t, got, "- Detour on Route 2\n")
	assert.Contains(t, got, "**Popular UTA Stops:**")
	assert.Contains(t, got, "Salt Lake Central Station:")
	assert.Contains(t, got, "- Blue Line → Draper in 4 min")
	assert.Contains(t, got, "- Route 2 → University in 9 min")

	// Stops with no arrivals are omitted entirely.
	assert.NotContains(t, got, "Courthouse Station")
}

func TestTryEnrichCapsArrivalsPerStop(t *testing.T) {
	provider := &fakeProvider{
		arrivals: map[string][]transit.Arrival{
			"21735": {
				{RouteName: "A", Headsign: "North", MinutesAway: 1},
				{RouteName: "B", Headsign: "North", MinutesAway: 2},
				{RouteName: "C", Headsign: "North", MinutesAway: 3},
				{RouteName: "D", Headsign: "North", MinutesAway: 4},
			},
		},
	}
	enricher := transit.NewEnricher(provider)

	got := enricher.TryEnrich(context.Background(), "bus arrivals please")
	assert.Equal(t, 3, strings.Count(got, "→"))
	assert.NotContains(t, got, "- D →")
}

func TestTryEnrichQueriesOnlyFirstFiveStops(t *testing.T) {
	provider := &fakeProvider{}
	enricher := transit.NewEnricher(provider)

	enricher.TryEnrich(context.Background(), "uta schedule")
	assert.Equal(t, 5, provider.arrivalCalls)
}

func TestTryEnrichDegradesOnProviderErrors(t *testing.T) {
	provider := &fakeProvider{
		alertsErr:   errors.New("alerts unavailable"),
		arrivalsErr: errors.New("arrivals unavailable"),
	}
	enricher := transit.NewEnricher(provider)

	// Every fetch failing must degrade to an empty block, never an error
	// surfaced to the turn.
	got := enricher.TryEnrich(context.Background(), "is my bus delayed?")
	assert.Empty(t, got)
}

func TestTryEnrichPartialDegradation(t *testing.T) {
	provider := &fakeProvider{
		alertsErr: errors.New("alerts unavailable"),
		arrivals: map[string][]transit.Arrival{
			"13009": {{RouteName: "Green Line", Headsign: "Airport", MinutesAway: 6}},
		},
	}
	enricher := transit.NewEnricher(provider)

	got := enricher.TryEnrich(context.Background(), "next trax at courthouse")
	require.NotEmpty(t, got)
	assert.NotContains(t, got, "Service Alerts")
	assert.Contains(t, got, "Courthouse Station:")
	assert.Contains(t, got, "- Green Line → Airport in 6 min")
}
