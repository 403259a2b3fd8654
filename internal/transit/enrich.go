package transit

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// transitKeywords gates enrichment: no keyword match means no network calls.
var transitKeywords = []string{
	"bus", "trax", "train", "transit", "uta", "frontrunner",
	"stop", "station", "route", "schedule", "arrival", "delay", "alert",
}

// maxStops and maxArrivalsPerStop bound how much live data a single turn pulls in.
const (
	maxStops           = 5
	maxArrivalsPerStop = 3
)

// Enricher produces best-effort real-time context for transit-related
// queries. It can never fail its caller: every provider error degrades to
// partial or empty output and is logged at this boundary.
type Enricher struct {
	provider Provider
}

// NewEnricher creates an Enricher backed by the given provider.
func NewEnricher(provider Provider) *Enricher {
	return &Enricher{provider: provider}
}

// TryEnrich returns a text block of live transit data to inject into model
// context, or the empty string when the message is not transit-related or no
// data could be fetched.
func (e *Enricher) TryEnrich(ctx context.Context, content string) string {
	if !isTransitQuery(content) {
		return ""
	}

	var sb strings.Builder

	alerts, err := e.provider.ServiceAlerts(ctx)
	if err != nil {
		log.Printf("[Transit] Error fetching service alerts: %v", err)
	} else if len(alerts) > 0 {
		sb.WriteString(formatAlerts(alerts))
		sb.WriteString("\n\n")
	}

	var stops strings.Builder
	for _, stop := range PopularStops[:maxStops] {
		arrivals, err := e.provider.StopArrivals(ctx, stop.StopID)
		if err != nil {
			log.Printf("[Transit] Error fetching arrivals for stop %s: %v", stop.StopID, err)
			continue
		}
		if len(arrivals) == 0 {
			continue
		}
		fmt.Fprintf(&stops, "\n%s:\n", stop.StopName)
		if len(arrivals) > maxArrivalsPerStop {
			arrivals = arrivals[:maxArrivalsPerStop]
		}
		for _, arr := range arrivals {
			fmt.Fprintf(&stops, "- %s → %s in %d min\n", arr.RouteName, arr.Headsign, arr.MinutesAway)
		}
	}
	if stops.Len() > 0 {
		sb.WriteString("**Popular UTA Stops:**\n")
		sb.WriteString(stops.String())
	}

	return sb.String()
}

func isTransitQuery(content string) bool {
	lowered := strings.ToLower(content)
	for _, keyword := range transitKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

func formatAlerts(alerts []ServiceAlert) string {
	var sb strings.Builder
	sb.WriteString("**Current UTA Service Alerts:**\n")
	for _, alert := range alerts {
		line := alert.Title
		if alert.Description != "" {
			line += " - " + alert.Description
		}
		if alert.Routes != "" {
			line += " (" + alert.Routes + ")"
		}
		fmt.Fprintf(&sb, "- %s\n", line)
	}
	return strings.TrimRight(sb.String(), "\n")
}
