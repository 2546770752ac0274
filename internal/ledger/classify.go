// Package ledger fetches a client's appointments, splits them into current
// and previous buckets and formats them for display.
package ledger

import (
	"time"

	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/selection"
)

// Buckets is one classified appointment set
type Buckets struct {
	ClientID    string
	ProviderRef string
	FetchedAt   time.Time

	// Current holds Upcoming and Pending appointments
	Current []internal.Appointment
	// Previous holds Completed and Cancelled appointments
	Previous []internal.Appointment
	// Unclassified holds records whose status is not recognised
	Unclassified []internal.Appointment
}

// Total returns the number of records across every bucket
func (b Buckets) Total() int {
	return len(b.Current) + len(b.Previous) + len(b.Unclassified)
}

// Classify partitions records by status. Every record lands in exactly one
// bucket and keeps its relative order.
func Classify(records []internal.Appointment) Buckets {
	b := Buckets{
		Current:  make([]internal.Appointment, 0, len(records)),
		Previous: make([]internal.Appointment, 0, len(records)),
	}
	for _, r := range records {
		status, ok := internal.ParseStatus(string(r.Status))
		if ok {
			r.Status = status
		}
		switch {
		case !ok:
			b.Unclassified = append(b.Unclassified, r)
		case status == internal.StatusUpcoming || status == internal.StatusPending:
			b.Current = append(b.Current, r)
		default:
			b.Previous = append(b.Previous, r)
		}
	}
	return b
}

// NextUpcoming returns the earliest current appointment with a start time
// not before now
func (b Buckets) NextUpcoming(now time.Time) (internal.Appointment, bool) {
	var best internal.Appointment
	found := false
	for _, a := range b.Current {
		if a.StartTime == nil || a.StartTime.Before(now) {
			continue
		}
		if !found || a.StartTime.Before(*best.StartTime) {
			best = a
			found = true
		}
	}
	return best, found
}

// BookAgain turns a past appointment into a hand-off to the same provider
func BookAgain(a internal.Appointment) (selection.HandOff, bool) {
	if a.Provider == nil || a.Provider.ID == "" {
		return selection.HandOff{}, false
	}
	return selection.HandOff{ProviderID: a.Provider.ID}, true
}
