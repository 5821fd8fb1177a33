// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fault defines the error variants produced by the evaluation
// pipeline. Callers switch on KindOf rather than matching error strings.
package fault

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/pdiddy/idea-engine/pkg/types"
)

// Kind classifies an error for retry and failure handling.
type Kind int

const (
	KindOther Kind = iota
	KindTransient
	KindProvider
	KindUnavailable
	KindQuality
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindProvider:
		return "provider"
	case KindUnavailable:
		return "research-unavailable"
	case KindQuality:
		return "quality"
	case KindValidation:
		return "validation"
	}
	return "other"
}

// ErrResearchUnavailable matches every UnavailableError via errors.Is.
var ErrResearchUnavailable = errors.New("research provider unavailable")

// ProviderError is a failed call to an AI provider.
type ProviderError struct {
	Provider   string
	StatusCode int
	Timeout    bool
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s: request timed out: %s", e.Provider, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the call may succeed if repeated.
func (e *ProviderError) Retryable() bool {
	if e.Timeout {
		return true
	}
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500 && e.StatusCode <= 599:
		return true
	case e.StatusCode != 0:
		return false
	}
	return networkTransient(e.Err) || messageTransient(e.Message)
}

// UnavailableError reports that research could not run under the degrade policy.
type UnavailableError struct {
	Domain types.Domain
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s research unavailable: %v", e.Domain, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrResearchUnavailable) hold.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrResearchUnavailable
}

// QualityError reports research judged too poor to synthesize from.
type QualityError struct {
	Domain types.Domain
	Issues []string
}

func (e *QualityError) Error() string {
	return fmt.Sprintf("%s research quality insufficient: %s", e.Domain, strings.Join(e.Issues, ", "))
}

// ValidationError reports model output that lacks a required structured value.
type ValidationError struct {
	Agent    string
	Field    string
	Reason   string
	Expected string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s: %s", e.Agent, e.Field, e.Reason)
	if e.Expected != "" {
		msg += fmt.Sprintf(" (expected %s)", e.Expected)
	}
	return msg
}

// KindOf classifies err. Wrapped errors are unwrapped.
func KindOf(err error) Kind {
	if err == nil {
		return KindOther
	}
	var unavailable *UnavailableError
	var quality *QualityError
	var validation *ValidationError
	var provider *ProviderError
	switch {
	case errors.As(err, &unavailable):
		return KindUnavailable
	case errors.As(err, &quality):
		return KindQuality
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &provider):
		if provider.Retryable() {
			return KindTransient
		}
		return KindProvider
	}
	if networkTransient(err) {
		return KindTransient
	}
	return KindOther
}

// IsRetryable reports whether err is a transient provider or network failure.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransient
}

// StatusCode returns the provider status code carried by err, or 0.
func StatusCode(err error) int {
	var provider *ProviderError
	if errors.As(err, &provider) {
		return provider.StatusCode
	}
	return 0
}

func networkTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return messageTransient(err.Error())
}

func messageTransient(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "econnreset") ||
		strings.Contains(msg, "etimedout") ||
		strings.Contains(msg, "connection reset")
}
