package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized covers missing, invalid, expired and revoked credentials
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned for both missing and non-owned resources
	ErrNotFound = errors.New("not found")
)

// ValidationError rejects a request before any side effect
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// SchemaParseError means generated text was not valid JSON after fence stripping.
// Raw keeps the original text for diagnosing prompt drift.
type SchemaParseError struct {
	Raw string
	Err error
}

func (e *SchemaParseError) Error() string {
	return fmt.Sprintf("generated output is not valid JSON: %v", e.Err)
}

func (e *SchemaParseError) Unwrap() error { return e.Err }

// SchemaIncompleteError means the JSON parsed but required fields were absent
type SchemaIncompleteError struct {
	Missing []string
}

func (e *SchemaIncompleteError) Error() string {
	return "generated output is missing required fields: " + strings.Join(e.Missing, ", ")
}

// UpstreamError wraps a failed storage or generator call. It is never retried here.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Upstream wraps err as an UpstreamError unless it is nil or already typed
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{Service: service, Err: err}
}
