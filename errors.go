package agent

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Sentinel errors returned by the agent loop, the tool registry, the
// workspace and the model adapters. Match them with errors.Is.
var (
	// Input errors.
	ErrInvalidInput     = errors.New("agent: invalid input")
	ErrInvalidArguments = errors.New("agent: invalid tool arguments")

	// Capability errors, always delivered to the model as tool results.
	ErrNotFound    = errors.New("agent: not found")
	ErrNotReadable = errors.New("agent: not readable")
	ErrNotWritable = errors.New("agent: not writable")

	// Protocol errors.
	ErrUnknownTool       = errors.New("agent: unknown tool")
	ErrToolFailed        = errors.New("agent: tool failed")
	ErrMalformedResponse = errors.New("agent: malformed model response")

	// Transport and session errors, terminal for the current RunTurn.
	ErrTransport          = errors.New("agent: transport error")
	ErrAuth               = errors.New("agent: authentication error")
	ErrRateLimited        = errors.New("agent: rate limited")
	ErrRoundLimitExceeded = errors.New("agent: round limit exceeded")

	ErrDuplicateToolName = errors.New("agent: duplicate tool name")
)

// VendorError carries the HTTP metadata of a failed model call.
// Unwrap returns the taxonomy sentinel selected from the status code.
type VendorError struct {
	Vendor     string
	StatusCode int
	Message    string
	RetryAfter time.Duration
	Kind       error
}

// NewVendorError classifies a non-2xx status: 401/403 are ErrAuth, 429 is
// ErrRateLimited and anything else is ErrTransport.
func NewVendorError(vendor string, status int, message string) *VendorError {
	kind := ErrTransport
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = ErrAuth
	case http.StatusTooManyRequests:
		kind = ErrRateLimited
	}
	return &VendorError{Vendor: vendor, StatusCode: status, Message: message, Kind: kind}
}

func (e *VendorError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s: %v", e.Vendor, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s API error (%d): %s: %v", e.Vendor, e.StatusCode, e.Message, e.Kind)
}

func (e *VendorError) Unwrap() error { return e.Kind }

// RetryAfter returns the server-suggested delay carried by err, if any.
func RetryAfter(err error) time.Duration {
	var ve *VendorError
	if errors.As(err, &ve) {
		return ve.RetryAfter
	}
	return 0
}

// ParseRetryAfter reads a Retry-After header value given either as seconds
// or as an HTTP date. Unparseable or past values yield zero.
func ParseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// isTaxonomyError reports whether err already wraps one of the model client
// failure sentinels.
func isTaxonomyError(err error) bool {
	return errors.Is(err, ErrTransport) ||
		errors.Is(err, ErrAuth) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrMalformedResponse)
}
