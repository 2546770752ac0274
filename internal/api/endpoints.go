package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/timebot/timebot-cli/internal"
)

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, creds internal.Credentials) (*internal.AuthResult, error) {
	var res internal.AuthResult
	err := c.do(ctx, request{op: "login", method: http.MethodPost, path: "/api/auth/login", body: creds}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Signup registers a new account
func (c *Client) Signup(ctx context.Context, reg internal.Registration) (*internal.AuthResult, error) {
	var res internal.AuthResult
	err := c.do(ctx, request{op: "signup", method: http.MethodPost, path: "/api/auth/signup", body: reg}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ChatRequest is one user turn sent to the assistant
type ChatRequest struct {
	Message  string `json:"message"`
	ClientID string `json:"clientId"`
	// Provider selects the assistant backend model ("claude" or "openai")
	Provider string `json:"provider,omitempty"`
	// AdminID is the provider handed off from a paid selection
	AdminID string `json:"adminId,omitempty"`
}

// ChatResponse is the assistant's reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Chat sends one message to the assistant
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var res ChatResponse
	err := c.do(ctx, request{op: "chat", method: http.MethodPost, path: "/api/chat", body: req}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListAppointments fetches every appointment of a client, optionally narrowed to one provider.
// The backend answers either {appointments:[...]} or a bare array.
func (c *Client) ListAppointments(ctx context.Context, clientID, providerRef string) ([]internal.Appointment, error) {
	q := url.Values{}
	q.Set("clientId", clientID)
	if providerRef != "" {
		q.Set("adminId", providerRef)
	}

	var raw json.RawMessage
	err := c.do(ctx, request{op: "list appointments", method: http.MethodGet, path: "/api/appointments/byClient", query: q}, &raw)
	if err != nil {
		return nil, err
	}
	return decodeAppointments(raw)
}

func decodeAppointments(raw json.RawMessage) ([]internal.Appointment, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []internal.Appointment
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, &internal.ProtocolError{Op: "list appointments", Status: http.StatusOK, Message: err.Error()}
		}
		return list, nil
	}

	var wrapped struct {
		Appointments *[]internal.Appointment `json:"appointments"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, &internal.ProtocolError{Op: "list appointments", Status: http.StatusOK, Message: err.Error()}
	}
	if wrapped.Appointments == nil {
		return nil, &internal.ProtocolError{Op: "list appointments", Status: http.StatusOK, Message: "response has no appointments"}
	}
	return *wrapped.Appointments, nil
}

// ListProviders fetches the public provider directory
func (c *Client) ListProviders(ctx context.Context) ([]internal.Provider, error) {
	var res struct {
		Admins []internal.Provider `json:"admins"`
	}
	err := c.do(ctx, request{op: "list providers", method: http.MethodGet, path: "/api/admin/public/all"}, &res)
	if err != nil {
		return nil, err
	}
	return res.Admins, nil
}

type profileResponse struct {
	User *internal.User `json:"user"`
}

// GetProfile fetches the authenticated user's profile
func (c *Client) GetProfile(ctx context.Context, token string) (*internal.User, error) {
	if token == "" {
		return nil, &internal.IdentityMissingError{Op: "get profile"}
	}
	var res profileResponse
	err := c.do(ctx, request{op: "get profile", method: http.MethodGet, path: "/api/profile", token: token}, &res)
	if err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, &internal.DataAbsentError{Entity: "profile"}
	}
	return res.User, nil
}

// UpdateProfile replaces the authenticated user's profile
func (c *Client) UpdateProfile(ctx context.Context, token string, user internal.User) (*internal.User, error) {
	if token == "" {
		return nil, &internal.IdentityMissingError{Op: "update profile"}
	}
	var res profileResponse
	err := c.do(ctx, request{op: "update profile", method: http.MethodPut, path: "/api/profile", token: token, body: user}, &res)
	if err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, &internal.DataAbsentError{Entity: "profile"}
	}
	return res.User, nil
}
