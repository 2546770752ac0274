package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// Canned JSON bodies matching the backend contracts
const (
	LoginResponseJSON = `{"user":{"clientId":"C1","name":"Asha Rao","email":"asha@example.com"},"token":"tok-123"}`

	AppointmentsJSON = `{"appointments":[
		{"_id":"a1","appointmentId":"APT-1","status":"Upcoming","startTime":"2025-10-20T14:30:00Z","endTime":"2025-10-20T15:00:00Z",
		 "admin":{"adminId":"P1","name":"Dr. Smith","specialty":"Cardiology"},"user":{"name":"Asha Rao"},"purpose":"Checkup","paymentId":"pay_1"},
		{"_id":"a2","status":"Completed","startTime":"2025-09-01T10:00:00Z",
		 "admin":{"adminId":"P2","name":"Dr. Johnson","specialty":"Dermatology"}}
	]}`

	ProvidersJSON = `{"admins":[
		{"adminId":"P1","name":"Dr. Smith","specialty":"Cardiology","description":"Heart specialist","fee":1500,"experience":"12 years","famousFor":"Bypass surgery"},
		{"adminId":"P2","name":"Dr. Johnson","specialty":"Dermatology","description":"Skin care","fee":900,"experience":8,"famousFor":"Acne treatment"}
	]}`

	ProfileJSON = `{"user":{"clientId":"C1","name":"Asha Rao","email":"asha@example.com","phone":"+91 98765 43210","address":"Pune"}}`
)

// RecordedRequest is one request seen by a FakeBackend
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

type cannedResponse struct {
	status int
	body   string
}

// FakeBackend is an httptest server answering canned JSON per method and path
type FakeBackend struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]cannedResponse
	handlers  map[string]http.HandlerFunc
	requests  []RecordedRequest
}

// NewFakeBackend starts a FakeBackend that is closed when the test ends
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		responses: make(map[string]cannedResponse),
		handlers:  make(map[string]http.HandlerFunc),
	}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Close)
	return fb
}

func routeKey(method, path string) string {
	return method + " " + path
}

// Respond registers a canned response
func (fb *FakeBackend) Respond(method, path string, status int, body string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[routeKey(method, path)] = cannedResponse{status: status, body: body}
}

// HandleFunc registers a custom handler, taking precedence over canned responses
func (fb *FakeBackend) HandleFunc(method, path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[routeKey(method, path)] = h
}

// Requests returns a copy of the recorded requests
func (fb *FakeBackend) Requests() []RecordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]RecordedRequest, len(fb.requests))
	copy(out, fb.requests)
	return out
}

// RequestCount returns how many requests hit method and path
func (fb *FakeBackend) RequestCount(method, path string) int {
	n := 0
	for _, r := range fb.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := routeKey(r.Method, r.URL.Path)

	fb.mu.Lock()
	fb.requests = append(fb.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	h, hasHandler := fb.handlers[key]
	resp, hasResp := fb.responses[key]
	fb.mu.Unlock()

	if hasHandler {
		h(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if !hasResp {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, `{"message":"no route for %s"}`, key)
		return
	}
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}
