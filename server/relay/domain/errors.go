package domain

import (
	"errors"
	"fmt"
)

// ErrorKind tags why an upload ended without a RelayResult.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindValidation
	KindSizeLimit
	KindUpstreamRejection
	KindTransport
	KindConfiguration
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSizeLimit:
		return "size_limit"
	case KindUpstreamRejection:
		return "upstream_rejection"
	case KindTransport:
		return "transport"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// RelayError is the failed outcome of an upload. Payload carries the serialized upstream
// response for upstream rejections and is empty otherwise.
type RelayError struct {
	Kind    ErrorKind
	Message string
	Payload string
	Err     error
}

func (e *RelayError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *RelayError {
	return &RelayError{Kind: KindValidation, Message: message}
}

func NewSizeLimitError(err error) *RelayError {
	return &RelayError{Kind: KindSizeLimit, Err: err}
}

func NewUpstreamRejection(description, payload string) *RelayError {
	return &RelayError{Kind: KindUpstreamRejection, Message: description, Payload: payload}
}

func NewTransportError(message string, err error) *RelayError {
	return &RelayError{Kind: KindTransport, Message: message, Err: err}
}

func NewConfigurationError(message string) *RelayError {
	return &RelayError{Kind: KindConfiguration, Message: message}
}

// KindOf reports the tag of err, or KindUnknown when err is not a RelayError.
func KindOf(err error) ErrorKind {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Kind
	}
	return KindUnknown
}
