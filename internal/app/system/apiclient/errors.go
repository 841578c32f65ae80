package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for every non-2xx API response.
type Error struct {
	Status  int    // HTTP status code
	Message string // Detail when the server sent one, otherwise a generic message
	Detail  string // the response body's "detail" field, "" if absent
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// newError builds an Error from a response status and body. FastAPI sends
// either {"detail": "text"} or, for validation failures,
// {"detail": [{"msg": "...", ...}, ...]}.
func newError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if json.Unmarshal(envelope.Detail, &s) == nil {
			e.Detail = strings.TrimSpace(s)
		} else {
			var items []struct {
				Msg string `json:"msg"`
			}
			if json.Unmarshal(envelope.Detail, &items) == nil {
				msgs := make([]string, 0, len(items))
				for _, it := range items {
					if m := strings.TrimSpace(it.Msg); m != "" {
						msgs = append(msgs, m)
					}
				}
				e.Detail = strings.Join(msgs, "; ")
			}
		}
	}

	if e.Detail != "" {
		e.Message = e.Detail
	} else {
		e.Message = fmt.Sprintf("request failed with status %d", status)
	}
	return e
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Status returns the HTTP status carried by err, or 0 for transport and
// decoding failures.
func Status(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// UserMessage picks the text shown to a person for err: the server's
// detail when it sent one, otherwise fallback. Transport failures and bare
// 5xx responses therefore always show the fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
