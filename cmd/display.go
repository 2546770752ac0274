package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/timebot/timebot-cli/internal"
	"github.com/timebot/timebot-cli/internal/ledger"
	"github.com/timebot/timebot-cli/internal/selection"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Width(16)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(1, 2)
)

var statusColors = map[internal.Status]lipgloss.Color{
	internal.StatusUpcoming:  lipgloss.Color("39"),
	internal.StatusPending:   lipgloss.Color("214"),
	internal.StatusCompleted: lipgloss.Color("42"),
	internal.StatusCancelled: lipgloss.Color("196"),
}

func renderStatus(s internal.Status) string {
	color, ok := statusColors[s]
	if !ok {
		color = lipgloss.Color("243")
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(string(s))
}

func displayMessage(w io.Writer, index int, msg internal.Message, total int) {
	actorStyle := assistantMessageStyle
	actorLabel := "🤖 Assistant"
	if msg.Sender == internal.SenderUser {
		actorStyle = userMessageStyle
		actorLabel = "👤 You"
	}

	header := actorStyle.Render(actorLabel) + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04:05"))
	}
	fmt.Fprintln(w, header)

	content := strings.TrimSpace(msg.Text)
	if content == "" {
		fmt.Fprintln(w, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	} else {
		fmt.Fprintln(w, messageContentStyle.Render(wrapText(content, 80)))
	}
	fmt.Fprintln(w)
}

func displayConversation(w io.Writer, conv *internal.Conversation, limit int) {
	meta := []string{fmt.Sprintf("Messages: %d", len(conv.Messages))}
	if !conv.CreatedAt.IsZero() {
		meta = append(meta, "Started: "+conv.CreatedAt.Local().Format("Jan 02 15:04"))
	}
	if conv.ProviderRef != "" {
		meta = append(meta, "Provider: "+conv.ProviderRef)
	}
	fmt.Fprintln(w, headerStyle.Render("💬 Conversation"))
	fmt.Fprintln(w, dateStyle.Render(strings.Join(meta, " • ")))
	fmt.Fprintln(w)

	msgs := conv.Messages
	skipped := 0
	if limit > 0 && limit < len(msgs) {
		skipped = len(msgs) - limit
		msgs = msgs[skipped:]
	}
	if skipped > 0 {
		fmt.Fprintln(w, idStyle.Render(fmt.Sprintf("... (%d earlier message(s))", skipped)))
		fmt.Fprintln(w)
	}
	for i, msg := range msgs {
		displayMessage(w, skipped+i+1, msg, len(conv.Messages))
	}
}

func wrapText(text string, width int) string {
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		currentLine := ""
		for _, word := range strings.Fields(line) {
			switch {
			case currentLine == "":
				currentLine = word
			case len(currentLine)+len(word)+1 > width:
				wrapped = append(wrapped, currentLine)
				currentLine = word
			default:
				currentLine += " " + word
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func displayAppointmentTable(w io.Writer, f ledger.Formatter, title string, appts []internal.Appointment) {
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("%s (%d)", title, len(appts))))
	if len(appts) == 0 {
		fmt.Fprintln(w, dateStyle.Render("  No appointments"))
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Provider")+"\t"+titleStyle.Render("Date")+"\t"+titleStyle.Render("Time")+"\t"+titleStyle.Render("Status")+"\t")
	for _, a := range appts {
		fields := ledger.Describe(f, a)
		date, clock := ledger.FormatSchedule(f, a.StartTime, a.EndTime)
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(a.DisplayID()), fields[1].Value, dateStyle.Render(date), clock, renderStatus(a.Status))
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}

func displayBuckets(w io.Writer, f ledger.Formatter, b ledger.Buckets) {
	header := fmt.Sprintf("📅 %d appointment(s)", b.Total())
	if b.ProviderRef != "" {
		header += " with provider " + b.ProviderRef
	}
	fmt.Fprintln(w, headerStyle.Render(header))
	if !b.FetchedAt.IsZero() {
		fmt.Fprintln(w, dateStyle.Render("Fetched "+b.FetchedAt.Local().Format("Jan 02 15:04")))
	}
	fmt.Fprintln(w)

	displayAppointmentTable(w, f, "Current", b.Current)
	displayAppointmentTable(w, f, "Previous", b.Previous)
	if len(b.Unclassified) > 0 {
		displayAppointmentTable(w, f, "Other", b.Unclassified)
	}
}

func displayAppointmentDetail(w io.Writer, f ledger.Formatter, a internal.Appointment) {
	fmt.Fprintln(w, headerStyle.Render("📋 Appointment Details"))
	fmt.Fprintln(w)
	for _, field := range ledger.Describe(f, a) {
		value := field.Value
		if field.Label == "Status" {
			value = renderStatus(a.Status)
		}
		fmt.Fprintln(w, labelStyle.Render(field.Label+":")+" "+value)
	}
	fmt.Fprintln(w)
}

func displayProviders(w io.Writer, providers []internal.Provider) {
	if len(providers) == 0 {
		fmt.Fprintln(w, headerStyle.Render("🩺 No providers found"))
		return
	}

	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("🩺 Found %d provider(s)", len(providers))))
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(tw, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Specialty")+"\t"+titleStyle.Render("Experience")+"\t"+titleStyle.Render("Fee")+"\t")
	for _, p := range providers {
		experience := string(p.Experience)
		if experience == "" {
			experience = ledger.Placeholder
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(p.ID), p.Name, orPlaceholder(p.Specialty), experience, countStyle.Render(selection.FormatFee(p.Fee)))
	}
	_ = tw.Flush()
	fmt.Fprintln(w)
}

func displayProviderDetail(w io.Writer, p internal.Provider) {
	fmt.Fprintln(w, headerStyle.Render("🩺 "+p.Name))
	fmt.Fprintln(w)
	rows := []struct{ label, value string }{
		{"Specialty", orPlaceholder(p.Specialty)},
		{"Experience", orPlaceholder(string(p.Experience))},
		{"Famous for", orPlaceholder(p.FamousFor)},
		{"Fee", selection.FormatFee(p.Fee)},
	}
	for _, r := range rows {
		fmt.Fprintln(w, labelStyle.Render(r.label+":")+" "+r.value)
	}
	if p.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, messageContentStyle.Render(wrapText(p.Description, 80)))
	}
	fmt.Fprintln(w)
}

func displayRevealModal(w io.Writer, p internal.Provider) {
	body := fmt.Sprintf("✅ Payment confirmed\n\nProvider: %s\nProvider ID: %s", p.Name, p.ID)
	fmt.Fprintln(w, modalStyle.Render(body))
	fmt.Fprintln(w)
}

func displayUser(w io.Writer, u *internal.User) {
	initials := u.Initials()
	if initials == "" {
		initials = "?"
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("👤 %s (%s)", orPlaceholder(u.Name), initials)))
	fmt.Fprintln(w)
	rows := []struct{ label, value string }{
		{"Client ID", orPlaceholder(u.ClientID)},
		{"Email", orPlaceholder(u.Email)},
		{"Phone", orPlaceholder(u.Phone)},
		{"Address", orPlaceholder(u.Address)},
		{"Avatar", orPlaceholder(u.Avatar)},
	}
	for _, r := range rows {
		fmt.Fprintln(w, labelStyle.Render(r.label+":")+" "+r.value)
	}
	fmt.Fprintln(w)
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return ledger.Placeholder
	}
	return s
}

func relativeDay(t time.Time, now time.Time) string {
	d := t.Sub(now)
	switch {
	case d < 0:
		return "past"
	case d < 24*time.Hour:
		return "within a day"
	case d < 7*24*time.Hour:
		return fmt.Sprintf("in %d day(s)", int(d.Hours()/24))
	}
	return fmt.Sprintf("in %d week(s)", int(d.Hours()/(24*7)))
}
