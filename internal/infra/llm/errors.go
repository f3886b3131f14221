// Package llm — Task 2.2: uniform upstream error taxonomy.
// Every adapter maps its transport failures into *UpstreamError so the
// dispatcher can apply one retry policy across vendors.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// ErrorClass partitions upstream failures by how the caller should react.
type ErrorClass string

const (
	// ClassTransient — network hiccups, 429, 5xx. Worth a bounded retry.
	ClassTransient ErrorClass = "transient"
	// ClassAuth — invalid or missing credentials. Retrying cannot help.
	ClassAuth ErrorClass = "auth"
	// ClassQuota — vendor-side quota/billing exhausted. Not retryable here.
	ClassQuota ErrorClass = "quota"
	// ClassInvalid — the request itself was rejected (bad model, too large).
	ClassInvalid ErrorClass = "invalid"
)

// UpstreamError is the uniform failure type returned by every adapter.
type UpstreamError struct {
	Provider string
	Status   int // HTTP status, 0 for transport-level failures
	Class    ErrorClass
	Err      error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream: %v (class=%s status=%d)", e.Provider, e.Err, e.Class, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Transient reports whether err is an *UpstreamError of the transient class.
func Transient(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Class == ClassTransient
}

// classifyStatus maps an HTTP status code to an error class.
// 429 and all 5xx are transient; 401/403 are auth; 402 is quota;
// everything else that reached this point is an invalid request.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == 429 || status >= 500:
		return ClassTransient
	case status == 401 || status == 403:
		return ClassAuth
	case status == 402:
		return ClassQuota
	default:
		return ClassInvalid
	}
}

// wrapTransportErr converts a transport-level error (dial failure, timeout)
// into a transient UpstreamError. Context cancellation is passed through
// untouched so deadline handling stays visible to the dispatcher.
func wrapTransportErr(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &UpstreamError{Provider: provider, Class: ClassTransient, Err: err}
}
