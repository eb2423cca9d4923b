package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMissingInput     = errors.New("missing input")
	ErrNoModelSelected  = fmt.Errorf("%w: model not selected", ErrMissingInput)
	ErrNoTranscript     = fmt.Errorf("%w: chat log not loaded", ErrMissingInput)
	ErrNotAuthenticated = errors.New("api key not set")
	ErrBusy             = errors.New("analysis already running")
	ErrEmptyInput       = errors.New("no text provided")
	ErrEmptyResult      = errors.New("empty result")
)

// AuthError reports a credential the backend refused, or a blank one.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// FetchError represents a failed model catalog listing
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("model fetch error: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IOError represents errors reading or writing local files
type IOError struct {
	Op   string // "read", "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("io error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ExtractError represents a failed participant extraction
type ExtractError struct {
	Model string
	Err   error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("participant extraction error [%s]: %v", e.Model, e.Err)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// TranslateError represents a failed translation
type TranslateError struct {
	Language string
	Err      error
}

func (e *TranslateError) Error() string {
	return fmt.Sprintf("translation error [%s]: %v", e.Language, e.Err)
}

func (e *TranslateError) Unwrap() error {
	return e.Err
}

// RateLimitedError is a refusal, not a fault: the caller may retry after Wait.
type RateLimitedError struct {
	Model string
	Wait  time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit: wait %.1fs before calling %s again", e.Wait.Seconds(), e.Model)
}

// StreamError represents a backend failure while streaming generation
type StreamError struct {
	Model string
	Err   error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error [%s]: %v", e.Model, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
