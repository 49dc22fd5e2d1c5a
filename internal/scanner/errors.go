package scanner

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies why a source could not be read.
type FetchErrorKind string

const (
	// KindNetwork covers transport failures and timeouts.
	KindNetwork FetchErrorKind = "network"
	// KindStatus is an HTTP error status from the source.
	KindStatus FetchErrorKind = "status"
	// KindMalformed means the payload could not be parsed.
	KindMalformed FetchErrorKind = "malformed"
)

// FetchError is returned by scanners when a source cannot be read.
type FetchError struct {
	Kind       FetchErrorKind
	Source     string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("fetch %s: unexpected status %d", e.Source, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.Source, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("fetch %s: %s", e.Source, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// NetworkError wraps a transport failure.
func NetworkError(source string, cause error) error {
	return &FetchError{Kind: KindNetwork, Source: source, Cause: cause}
}

// StatusError reports an HTTP error status.
func StatusError(source string, code int) error {
	return &FetchError{Kind: KindStatus, Source: source, StatusCode: code}
}

// MalformedError wraps a parse failure.
func MalformedError(source string, cause error) error {
	return &FetchError{Kind: KindMalformed, Source: source, Cause: cause}
}

// KindOf returns the fetch error kind of err, or "" when err is not a FetchError.
func KindOf(err error) FetchErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
