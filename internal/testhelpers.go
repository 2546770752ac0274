package internal

import (
	"time"
)

// CreateTestConversation creates a test conversation with sample data
func CreateTestConversation(id string) *Conversation {
	ts := time.Date(2025, 10, 1, 9, 30, 0, 0, time.UTC)
	return &Conversation{
		ID: id,
		Messages: []Message{
			{Sender: SenderAssistant, Text: "Hello! How can I help you today?", Timestamp: ts},
			{Sender: SenderUser, Text: "I want to book an appointment", Timestamp: ts.Add(time.Minute)},
			{Sender: SenderAssistant, Text: "Sure, with whom?", Timestamp: ts.Add(2 * time.Minute)},
		},
		CreatedAt: ts,
		UpdatedAt: ts.Add(2 * time.Minute),
	}
}

// CreateTestConversationWithMessages creates a test conversation with custom messages
func CreateTestConversationWithMessages(id string, messages []Message) *Conversation {
	return &Conversation{
		ID:       id,
		Messages: messages,
	}
}

// CreateTestAppointment creates a test appointment with the given status
func CreateTestAppointment(id string, status Status) Appointment {
	start := time.Date(2025, 10, 20, 14, 30, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	return Appointment{
		ID:            "db-" + id,
		AppointmentID: id,
		Status:        status,
		StartTime:     &start,
		EndTime:       &end,
		Provider:      &ProviderRef{ID: "P1", Name: "Dr. Smith", Specialty: "Cardiology"},
		User:          &UserRef{ClientID: "C1", Name: "Asha Rao"},
		Purpose:       "Consultation",
		PaymentID:     "pay_" + id,
	}
}

// CreateTestProvider creates a test provider profile
func CreateTestProvider(id, name, specialty string) Provider {
	return Provider{
		ID:          id,
		Name:        name,
		Specialty:   specialty,
		Description: name + " practices " + specialty,
		Fee:         1500,
		Experience:  "10 years",
		FamousFor:   "Patient care",
	}
}
