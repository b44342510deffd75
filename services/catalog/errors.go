package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FetchError is returned for every failed catalog call: network failure,
// non-2xx status or a body that is not valid JSON.
type FetchError struct {
	Endpoint   string
	StatusCode int    // 0 when no response was received
	Message    string // human readable message from the response body, if any
	Err        error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("catalog fetch ")
	b.WriteString(e.Endpoint)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is (or wraps) a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// UserMessage returns the message to show for a failed section.
func UserMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Message != "" {
		return fe.Message
	}
	return "Could not load data. Please try again later."
}

// messageFromBody extracts "error" or "status_message" from a JSON error body.
func messageFromBody(body []byte) string {
	var payload struct {
		Error         string `json:"error"`
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.StatusMessage
}
