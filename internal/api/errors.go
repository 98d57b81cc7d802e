package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// CodeAlreadyJoined is the structured code the API may attach when a user
// joins an event twice.
const CodeAlreadyJoined = "ALREADY_JOINED"

// alreadyJoinedText is what the API says in its (French) message when no
// structured code is sent.
const alreadyJoinedText = "déjà inscrit"

// Error is a non-2xx answer from the REST API. Error() is the server's
// message, unmodified, so it can be shown to the user as is.
type Error struct {
	Status  int
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var env struct {
		Message string          `json:"message"`
		Code    string          `json:"code"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		e.Message = env.Message
		e.Code = env.Code
		if e.Message == "" && len(env.Error) > 0 {
			var s string
			if json.Unmarshal(env.Error, &s) == nil {
				e.Message = s
			} else {
				var nested struct {
					Message string `json:"message"`
					Code    string `json:"code"`
				}
				if json.Unmarshal(env.Error, &nested) == nil {
					e.Message = nested.Message
					if e.Code == "" {
						e.Code = nested.Code
					}
				}
			}
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	if e.Message == "" {
		e.Message = "request failed"
	}
	return e
}

// StatusOf returns the HTTP status of an *Error in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsAlreadyJoined reports whether err is the API telling the caller they
// are already a participant. A structured code wins; otherwise the
// message is matched.
func IsAlreadyJoined(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == CodeAlreadyJoined {
			return true
		}
		return strings.Contains(apiErr.Message, alreadyJoinedText)
	}
	return strings.Contains(err.Error(), alreadyJoinedText)
}

// IsUnauthorized reports a 401 from the API (expired or revoked token).
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
