package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Sender identifies who authored a message
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "bot"
)

// UnmarshalJSON accepts both "bot" and "assistant" for assistant messages
func (s *Sender) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch strings.ToLower(raw) {
	case "user":
		*s = SenderUser
	case "bot", "assistant":
		*s = SenderAssistant
	default:
		return fmt.Errorf("unknown sender %q", raw)
	}
	return nil
}

// Label returns a display label for the sender
func (s Sender) Label() string {
	if s == SenderUser {
		return "user"
	}
	return "assistant"
}

// Message is a single entry of the conversation log
type Message struct {
	Sender    Sender    `json:"sender" yaml:"sender"`
	Text      string    `json:"text" yaml:"text"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Conversation is the ordered conversation log plus its session metadata
type Conversation struct {
	ID          string    `json:"id" yaml:"id"`
	ProviderRef string    `json:"provider_ref,omitempty" yaml:"provider_ref,omitempty"`
	Messages    []Message `json:"messages" yaml:"messages"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" yaml:"updated_at"`
}

// Status is the lifecycle state of an appointment
type Status string

const (
	StatusUpcoming  Status = "Upcoming"
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
)

// ParseStatus normalizes a status string case-insensitively
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "upcoming":
		return StatusUpcoming, true
	case "pending":
		return StatusPending, true
	case "completed":
		return StatusCompleted, true
	case "cancelled", "canceled":
		return StatusCancelled, true
	}
	return Status(s), false
}

// ProviderRef is the provider embedded in an appointment record
type ProviderRef struct {
	ID        string `json:"adminId,omitempty" yaml:"id,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Specialty string `json:"specialty,omitempty" yaml:"specialty,omitempty"`
}

// UserRef is the requester embedded in an appointment record
type UserRef struct {
	ClientID string `json:"clientId,omitempty" yaml:"client_id,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Appointment is a read-only record from the remote ledger
type Appointment struct {
	ID            string       `json:"_id,omitempty" yaml:"id,omitempty"`
	AppointmentID string       `json:"appointmentId,omitempty" yaml:"appointment_id,omitempty"`
	Status        Status       `json:"status" yaml:"status"`
	StartTime     *time.Time   `json:"startTime,omitempty" yaml:"start_time,omitempty"`
	EndTime       *time.Time   `json:"endTime,omitempty" yaml:"end_time,omitempty"`
	Provider      *ProviderRef `json:"admin,omitempty" yaml:"provider,omitempty"`
	User          *UserRef     `json:"user,omitempty" yaml:"user,omitempty"`
	Purpose       string       `json:"purpose,omitempty" yaml:"purpose,omitempty"`
	PaymentID     string       `json:"paymentId,omitempty" yaml:"payment_id,omitempty"`
}

// DisplayID returns the business identifier, falling back to the record id
func (a Appointment) DisplayID() string {
	if a.AppointmentID != "" {
		return a.AppointmentID
	}
	return a.ID
}

// FlexString decodes a JSON string or number into a string
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

// Provider is a bookable provider profile from the directory
type Provider struct {
	ID          string     `json:"adminId" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Specialty   string     `json:"specialty,omitempty" yaml:"specialty,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Fee         float64    `json:"fee,omitempty" yaml:"fee,omitempty"`
	Experience  FlexString `json:"experience,omitempty" yaml:"experience,omitempty"`
	FamousFor   string     `json:"famousFor,omitempty" yaml:"famous_for,omitempty"`
}

// User is the authenticated user's profile
type User struct {
	ClientID string `json:"clientId,omitempty" yaml:"client_id,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address  string `json:"address,omitempty" yaml:"address,omitempty"`
	Avatar   string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// Initials returns the uppercase initials of the user's name
func (u User) Initials() string {
	var b strings.Builder
	for _, part := range strings.Fields(u.Name) {
		r := []rune(part)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	return b.String()
}

// Identity is the authenticated client's identifier and bearer credential
type Identity struct {
	ClientID string
	Token    string
	User     *User
}
