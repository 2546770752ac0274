package internal

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Typed errors below match them via errors.Is.
var (
	ErrIdentityMissing = errors.New("identity missing")
	ErrTransport       = errors.New("transport failure")
	ErrProtocol        = errors.New("protocol failure")
	ErrDataAbsent      = errors.New("data absent")
)

// IdentityMissingError is returned when an operation needs a session identity and none is present
type IdentityMissingError struct {
	Op string
}

func (e *IdentityMissingError) Error() string {
	return fmt.Sprintf("%s: client ID not found, please login again", e.Op)
}

func (e *IdentityMissingError) Is(target error) bool {
	return target == ErrIdentityMissing
}

// TransportError represents a network or connection failure talking to a collaborator
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error [%s] %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ProtocolError represents a collaborator that answered but signaled failure
type ProtocolError struct {
	Op      string
	Status  int
	Message string // server-provided message, may be empty
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s failed (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed (status %d)", e.Op, e.Status)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// DataAbsentError represents an expected entity that came back empty
type DataAbsentError struct {
	Entity string // "user", "profile", "providers"
}

func (e *DataAbsentError) Error() string {
	return fmt.Sprintf("no %s found", e.Entity)
}

func (e *DataAbsentError) Is(target error) bool {
	return target == ErrDataAbsent
}

// StorageError represents errors accessing local persisted state
type StorageError struct {
	Path string
	Op   string // "open", "get", "put", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // "store", "api"
	Key    string // storage key or endpoint
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// UserMessage converts an error into the text shown to the user
func UserMessage(err error) string {
	var protoErr *ProtocolError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrIdentityMissing):
		return "Client ID not found! Please login again."
	case errors.As(err, &protoErr) && protoErr.Message != "":
		return protoErr.Message
	case errors.Is(err, ErrProtocol):
		return "Something went wrong"
	case errors.Is(err, ErrTransport):
		return "An error occurred. Please try again."
	}
	return err.Error()
}

// FailureDetail describes a remote failure for display inside a conversation.
// The server's message wins; otherwise the underlying cause is kept.
func FailureDetail(err error) string {
	var protoErr *ProtocolError
	var transErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &protoErr):
		if protoErr.Message != "" {
			return protoErr.Message
		}
		return fmt.Sprintf("request failed with status %d", protoErr.Status)
	case errors.As(err, &transErr) && transErr.Err != nil:
		return transErr.Err.Error()
	}
	return err.Error()
}
