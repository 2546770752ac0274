package conversation

import (
	"bytes"
	"encoding/json"

	"github.com/timebot/timebot-cli/internal"
)

func decodeConversation(data []byte) (*internal.Conversation, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var msgs []internal.Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, err
		}
		conv := &internal.Conversation{Messages: msgs}
		if len(msgs) > 0 {
			conv.CreatedAt = msgs[0].Timestamp
			conv.UpdatedAt = msgs[len(msgs)-1].Timestamp
		}
		return conv, nil
	}

	var conv internal.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// QuickAction is a canned request offered next to the input box
type QuickAction string

const (
	QuickBook         QuickAction = "book"
	QuickCancel       QuickAction = "cancel"
	QuickReschedule   QuickAction = "reschedule"
	QuickAvailability QuickAction = "availability"
)

var quickPrompts = map[QuickAction]string{
	QuickBook:         "I want to book an appointment",
	QuickCancel:       "I want to cancel an appointment",
	QuickReschedule:   "I want to reschedule an appointment",
	QuickAvailability: "Check VIP availability",
}

// QuickActions lists the available quick actions in display order
func QuickActions() []QuickAction {
	return []QuickAction{QuickBook, QuickCancel, QuickReschedule, QuickAvailability}
}

// Prompt returns the message text sent for the action
func (q QuickAction) Prompt() (string, bool) {
	p, ok := quickPrompts[q]
	return p, ok
}
