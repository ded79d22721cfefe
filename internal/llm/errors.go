package llm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFatalAPI marks provider errors that retrying cannot fix, such as
	// billing, quota or authentication failures.
	ErrFatalAPI = errors.New("fatal LLM API error")

	// ErrStreamStalled is returned when a stream delivers no fragment
	// within the configured timeout.
	ErrStreamStalled = errors.New("stream stalled")

	// ErrEmptyResponse is returned when the provider sends no choices.
	ErrEmptyResponse = errors.New("no response choices")
)

var fatalMarkers = []string{
	"credit balance",
	"rate limit",
	"quota exceeded",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range fatalMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// wrapFatalError tags err with ErrFatalAPI when it looks unrecoverable.
func wrapFatalError(err error) error {
	if !isFatalAPIError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrFatalAPI, err)
}
