// Package selection implements provider browsing, the simulated payment step
// and the hand-off of the chosen provider to a new conversation.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/timebot/timebot-cli/internal"
)

// State is the main line of the selection flow
type State int

const (
	Browsing State = iota
	Detail
	Paying
	Revealed
	DirectoryFailed
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Detail:
		return "detail"
	case Paying:
		return "paying"
	case Revealed:
		return "revealed"
	case DirectoryFailed:
		return "directory-failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultPaymentDelay is the simulated confirmation latency
const DefaultPaymentDelay = 2 * time.Second

var (
	// ErrNoProviders is returned when the directory answered with an empty list
	ErrNoProviders = &internal.DataAbsentError{Entity: "providers"}
	// ErrInvalidTransition is returned when an action is not available in the current state
	ErrInvalidTransition = errors.New("action not available in current state")
)

// DirectoryError reports that the provider directory could not be fetched
type DirectoryError struct {
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("failed to load providers: %v", e.Err)
}

func (e *DirectoryError) Unwrap() error {
	return e.Err
}

// Directory is the remote provider directory
type Directory interface {
	ListProviders(ctx context.Context) ([]internal.Provider, error)
}

// Flow holds the per-visit selection state.
// The revealed flag only becomes true after payment and stays true until the
// provider is deselected.
type Flow struct {
	directory Directory
	delay     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	state     State
	providers []internal.Provider
	selected  *internal.Provider
	paid      bool
	revealed  bool
	modal     bool
	listeners []func(HandOff)
}

// Option configures a Flow
type Option func(*Flow)

// WithPaymentDelay sets the simulated payment latency
func WithPaymentDelay(d time.Duration) Option {
	return func(f *Flow) {
		f.delay = d
	}
}

// WithSleep replaces the wait used for the simulated payment
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(f *Flow) {
		f.sleep = sleep
	}
}

// NewFlow creates a Flow in the Browsing state
func NewFlow(directory Directory, opts ...Option) *Flow {
	f := &Flow{
		directory: directory,
		delay:     DefaultPaymentDelay,
		sleep:     sleepContext,
		state:     Browsing,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnHandOff registers a listener for confirmed hand-offs
func (f *Flow) OnHandOff(fn func(HandOff)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Fetch loads the provider directory. A failed fetch moves the flow to
// DirectoryFailed; an empty directory returns ErrNoProviders.
func (f *Flow) Fetch(ctx context.Context) error {
	providers, err := f.directory.ListProviders(ctx)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetSelectionLocked()
	if err != nil {
		f.providers = nil
		f.state = DirectoryFailed
		return &DirectoryError{Err: err}
	}
	f.providers = providers
	f.state = Browsing
	if len(providers) == 0 {
		return ErrNoProviders
	}
	return nil
}

// Providers returns the fetched directory
func (f *Flow) Providers() []internal.Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]internal.Provider, len(f.providers))
	copy(out, f.providers)
	return out
}

// Filter returns the providers whose name or specialty contains search,
// ignoring case. An empty search returns every provider.
func (f *Flow) Filter(search string) []internal.Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FilterProviders(f.providers, search)
}

// FilterProviders is the filtering rule used by Flow.Filter
func FilterProviders(providers []internal.Provider, search string) []internal.Provider {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]internal.Provider, 0, len(providers))
	for _, p := range providers {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Specialty), needle) {
			out = append(out, p)
		}
	}
	return out
}

// Find looks a provider up by id in the fetched directory
func (f *Flow) Find(id string) (internal.Provider, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.providers {
		if p.ID == id {
			return p, true
		}
	}
	return internal.Provider{}, false
}

// Select moves Browsing to Detail for the given provider
func (f *Flow) Select(p internal.Provider) error {
	if strings.TrimSpace(p.ID) == "" {
		return &internal.DataAbsentError{Entity: "provider id"}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Browsing {
		return fmt.Errorf("select in %s: %w", f.state, ErrInvalidTransition)
	}
	f.resetSelectionLocked()
	f.selected = &p
	f.state = Detail
	return nil
}

// Pay runs the simulated payment. It only acts from Detail while the
// identifier is not yet revealed, and reports whether it did anything.
// On completion the identifier is revealed and the confirmation modal opens.
func (f *Flow) Pay(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.state != Detail || f.revealed {
		f.mu.Unlock()
		return false, nil
	}
	f.state = Paying
	selected := f.selected
	f.mu.Unlock()

	internal.LogDebug("Simulating payment for provider %s", selected.ID)
	err := f.sleep(ctx, f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Paying || f.selected != selected {
		// deselected while paying
		return false, nil
	}
	if err != nil {
		f.state = Detail
		return false, err
	}
	f.paid = true
	f.revealed = true
	f.modal = true
	f.state = Revealed
	return true, nil
}

// ConfirmAndHandOff closes the modal and emits the hand-off for the selected provider
func (f *Flow) ConfirmAndHandOff() (HandOff, error) {
	f.mu.Lock()
	if !f.modal || !f.revealed || f.selected == nil {
		f.mu.Unlock()
		return HandOff{}, fmt.Errorf("confirm in %s: %w", f.state, ErrInvalidTransition)
	}
	f.modal = false
	h := HandOff{ProviderID: f.selected.ID}
	listeners := make([]func(HandOff), len(f.listeners))
	copy(listeners, f.listeners)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(h)
	}
	return h, nil
}

// CloseModal dismisses the confirmation overlay without handing off
func (f *Flow) CloseModal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modal = false
}

// Back returns to Browsing and discards the selection and payment state
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == DirectoryFailed {
		return
	}
	f.resetSelectionLocked()
	f.state = Browsing
}

func (f *Flow) resetSelectionLocked() {
	f.selected = nil
	f.paid = false
	f.revealed = false
	f.modal = false
}

// State returns the current main-line state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Selected returns the selected provider, or nil
func (f *Flow) Selected() *internal.Provider {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.selected == nil {
		return nil
	}
	p := *f.selected
	return &p
}

// Paid reports whether the payment was confirmed
func (f *Flow) Paid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paid
}

// Revealed reports whether the provider identifier is revealed
func (f *Flow) Revealed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revealed
}

// ModalOpen reports whether the confirmation overlay is open
func (f *Flow) ModalOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modal
}
