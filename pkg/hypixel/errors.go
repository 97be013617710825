package hypixel

import (
	"errors"
	"fmt"
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrProfileNotFound     = errors.New("skyblock profile not found")
	ErrInvalidAuctionQuery = errors.New("invalid auction query")
)

// TransportError is returned when the request never produced a readable response
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("hypixel: %s: transport failure: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when the response body is not valid JSON
type MalformedResponseError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hypixel: %s: malformed response (status %d): %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("hypixel: %s: malformed response (status %d)", e.Endpoint, e.StatusCode)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// UpstreamRejectedError is returned when the envelope's success flag is not true.
// Cause holds the upstream message when one was supplied; it is untrusted text.
type UpstreamRejectedError struct {
	Endpoint   string
	StatusCode int
	Cause      string
}

func (e *UpstreamRejectedError) Error() string {
	if e.Cause == "" {
		return fmt.Sprintf("hypixel: %s: request rejected (status %d)", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("hypixel: %s: request rejected (status %d): %s", e.Endpoint, e.StatusCode, e.Cause)
}

// MappingError is returned when a payload field has a shape the mapper cannot interpret
type MappingError struct {
	Entity string
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("hypixel: cannot map %s.%s: %s", e.Entity, e.Field, e.Reason)
}
