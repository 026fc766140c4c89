package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures so the orchestrator can pick a
// handling policy without matching on message text.
type ErrorKind string

const (
	ErrorKindNetwork     ErrorKind = "network"
	ErrorKindProvider    ErrorKind = "provider"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindMalformed   ErrorKind = "malformed"
	ErrorKindNotFound    ErrorKind = "not_found"
)

// ProviderError is any non-recoverable failure from the affiliate provider.
type ProviderError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("provider error (%s): %s: %s", e.Kind, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("provider error (%s): %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("provider error (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("provider error (%s)", e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether err is a provider rate-limit rejection.
func IsRateLimited(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr.Kind == ErrorKindRateLimited
}

// ErrRecipientUnreachable marks a delivery failure caused by the recipient
// (blocked the bot, deleted the chat). Broadcast treats it as an unsubscribe.
var ErrRecipientUnreachable = errors.New("recipient unreachable")
