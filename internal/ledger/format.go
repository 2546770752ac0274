package ledger

import (
	"time"

	"github.com/timebot/timebot-cli/internal"
)

const (
	// Placeholder stands in for a missing date, time or free-text field
	Placeholder = "-"
	// MissingProvider stands in for a missing provider name or specialty
	MissingProvider = "N/A"
	// RangeSeparator joins the start and end of a time range
	RangeSeparator = " – "
)

// Formatter renders dates and times for display
type Formatter interface {
	Date(t time.Time) string
	Time(t time.Time) string
}

// LayoutFormatter formats with fixed layouts in a fixed location, so output
// does not depend on the host locale.
type LayoutFormatter struct {
	DateLayout string
	TimeLayout string
	Location   *time.Location
}

// DefaultFormatter returns a LayoutFormatter for loc (UTC when nil)
func DefaultFormatter(loc *time.Location) LayoutFormatter {
	if loc == nil {
		loc = time.UTC
	}
	return LayoutFormatter{DateLayout: "Mon, 02 Jan 2006", TimeLayout: "03:04 PM", Location: loc}
}

func (f LayoutFormatter) in(t time.Time) time.Time {
	if f.Location == nil {
		return t.UTC()
	}
	return t.In(f.Location)
}

// Date implements Formatter
func (f LayoutFormatter) Date(t time.Time) string {
	return f.in(t).Format(f.DateLayout)
}

// Time implements Formatter
func (f LayoutFormatter) Time(t time.Time) string {
	return f.in(t).Format(f.TimeLayout)
}

// FormatSchedule returns the display date and time of an appointment.
// A missing start yields placeholders; a missing end yields a single time.
func FormatSchedule(f Formatter, start, end *time.Time) (date, clock string) {
	if start == nil {
		return Placeholder, Placeholder
	}
	date = f.Date(*start)
	clock = f.Time(*start)
	if end != nil {
		clock += RangeSeparator + f.Time(*end)
	}
	return date, clock
}

// Field is one labelled line of an appointment description
type Field struct {
	Label string
	Value string
}

// Describe lists the appointment's fields in display order, substituting
// placeholders for anything missing.
func Describe(f Formatter, a internal.Appointment) []Field {
	date, clock := FormatSchedule(f, a.StartTime, a.EndTime)

	client := ""
	if a.User != nil {
		client = a.User.Name
	}
	provider, specialty := "", ""
	if a.Provider != nil {
		provider = a.Provider.Name
		specialty = a.Provider.Specialty
	}

	return []Field{
		{"Client", orDefault(client, Placeholder)},
		{"Provider", orDefault(provider, MissingProvider)},
		{"Specialty", orDefault(specialty, MissingProvider)},
		{"Date", date},
		{"Time", clock},
		{"Status", orDefault(string(a.Status), Placeholder)},
		{"Purpose", orDefault(a.Purpose, Placeholder)},
		{"Payment ID", orDefault(a.PaymentID, Placeholder)},
		{"Appointment ID", orDefault(a.DisplayID(), Placeholder)},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
