// ABOUTME: Typed errors returned by the API client
// ABOUTME: Classifies failures so callers can branch without string matching

package client

import (
	"errors"
	"net/http"
)

// Business codes returned in the response envelope
const (
	CodeSuccess            = 50000
	CodeInvalidParams      = 50001
	CodeUnauthorized       = 50401
	CodeForbidden          = 50403
	CodeUserNotExists      = 51002
	CodeUserPasswordError  = 51003
	CodeInvalidCaptcha     = 51004
	CodeRoleDisabled       = 51006
	CodeCaptchaTooFrequent = 51023
	CodeFailed             = 59999
)

// Kind classifies a client error
type Kind int

const (
	KindBusiness Kind = iota + 1
	KindUnauthorized
	KindHTTP
	KindNetwork
	KindRequest
	KindCanceled
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindBusiness:
		return "business"
	case KindUnauthorized:
		return "unauthorized"
	case KindHTTP:
		return "http"
	case KindNetwork:
		return "network"
	case KindRequest:
		return "request"
	case KindCanceled:
		return "canceled"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned for every failed call
type Error struct {
	Kind    Kind
	Code    int // envelope code, when one was present
	Status  int // HTTP status, when a response was received
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or 0 when err is not a client error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsUnauthorized reports a forced deauthentication (50401 or HTTP 401)
func IsUnauthorized(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == KindUnauthorized || (e.Kind == KindHTTP && e.Status == http.StatusUnauthorized)
}

// IsBusiness reports a non-success envelope code other than 50401
func IsBusiness(err error) bool {
	return KindOf(err) == KindBusiness
}

// IsNetwork reports that no response was received
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

// IsCanceled reports that the caller abandoned the request
func IsCanceled(err error) bool {
	return KindOf(err) == KindCanceled
}
