package selection

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// HandOffPath is the route a hand-off navigates to
const HandOffPath = "/bot"

// HandOff carries the paid provider into the next conversation
type HandOff struct {
	ProviderID string `json:"providerId"`
}

// Route renders the navigation target for the hand-off
func (h HandOff) Route() string {
	return HandOffPath + "?" + url.Values{"adminId": {h.ProviderID}}.Encode()
}

// ParseRoute extracts a hand-off from a navigation target
func ParseRoute(route string) (HandOff, error) {
	u, err := url.Parse(route)
	if err != nil {
		return HandOff{}, fmt.Errorf("invalid route %q: %w", route, err)
	}
	if u.Path != HandOffPath {
		return HandOff{}, fmt.Errorf("invalid route %q: unexpected path", route)
	}
	id := strings.TrimSpace(u.Query().Get("adminId"))
	if id == "" {
		return HandOff{}, fmt.Errorf("invalid route %q: missing adminId", route)
	}
	return HandOff{ProviderID: id}, nil
}

var feePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatFee renders a consultation fee in rupees
func FormatFee(fee float64) string {
	return "₹" + feePrinter.Sprintf("%.2f", fee)
}
