package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrCircuitOpen is returned without contacting the upstream while the
	// breaker is open.
	ErrCircuitOpen = errors.New("upstream circuit open")
	// ErrMissingClientSecret means the intent response carried no secret.
	ErrMissingClientSecret = errors.New("client secret is missing in the response")
	// ErrEmptyResponse means a call that must return a body returned none.
	ErrEmptyResponse = errors.New("upstream returned an empty response")
)

// StatusError is a non-2xx answer from the upstream store API.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

const maxErrorBody = 4 << 10

// newStatusError builds a StatusError from resp. The upstream reports
// failures as {"error": "..."} or {"message": "..."}; anything else is
// kept as trimmed text.
func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Message != "":
			msg = payload.Message
		}
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}
