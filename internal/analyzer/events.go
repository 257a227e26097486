package analyzer

import (
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/moolen/triage/internal/models"
)

// eventWindow is the trailing recency window; older events are dropped.
const eventWindow = time.Hour

// eventKey deduplicates recurring events for one resource.
type eventKey struct {
	reason  string
	message string
}

// lastObserved returns the most recent observation time of an event. The
// API server populates lastTimestamp, eventTime and firstTimestamp
// inconsistently across event versions, so fall through in that order.
func lastObserved(ev corev1.Event) time.Time {
	if !ev.LastTimestamp.IsZero() {
		return ev.LastTimestamp.Time
	}
	if !ev.EventTime.IsZero() {
		return ev.EventTime.Time
	}
	return ev.FirstTimestamp.Time
}

// DedupeEvents collapses repeated event observations for a single resource
// into one issue per distinct (reason, message) pair.
//
// Only Warning and Error typed events within the trailing one-hour window
// relative to now participate. When multiple events share a key, the one
// with the latest observation time survives; the winner is tracked as a
// running max so input order does not matter.
//
// Severity derives from the event type (Error critical, Warning warning),
// not from text classification.
func DedupeEvents(kind, name, namespace string, events []corev1.Event, now time.Time) []models.Issue {
	cutoff := now.Add(-eventWindow)

	type candidate struct {
		event corev1.Event
		seen  time.Time
	}
	latest := make(map[eventKey]candidate)
	var keys []eventKey

	for _, ev := range events {
		if ev.Type != corev1.EventTypeWarning && ev.Type != "Error" {
			continue
		}
		seen := lastObserved(ev)
		if seen.Before(cutoff) {
			continue
		}
		key := eventKey{reason: ev.Reason, message: ev.Message}
		existing, ok := latest[key]
		if !ok {
			latest[key] = candidate{event: ev, seen: seen}
			keys = append(keys, key)
			continue
		}
		if seen.After(existing.seen) {
			existing.event = ev
			existing.seen = seen
			latest[key] = existing
		}
	}

	issues := make([]models.Issue, 0, len(keys))
	for _, key := range keys {
		c := latest[key]
		severity := models.SeverityWarning
		if c.event.Type == "Error" {
			severity = models.SeverityCritical
		}
		issues = append(issues, models.Issue{
			Kind:      kind,
			Name:      name,
			Namespace: namespace,
			Problem:   fmt.Sprintf("%s: %s", c.event.Reason, c.event.Message),
			Solution:  fallbackSolution,
			Severity:  severity,
		})
	}
	return issues
}
