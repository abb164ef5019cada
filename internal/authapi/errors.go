package authapi

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrTransport wraps every failure that is not an answer from the service: network errors,
// undecodable bodies, and bodies carrying neither a success field nor a detail.
var ErrTransport = errors.New("authapi: transport failure")

// DetailError is a business rejection carrying the service's human-readable detail text.
type DetailError struct {
	Detail string
}

func (e *DetailError) Error() string {
	return "authapi: " + e.Detail
}

// IsDetail reports whether err is a business rejection and returns its detail text.
func IsDetail(err error) (string, bool) {
	var de *DetailError
	if errors.As(err, &de) {
		return de.Detail, true
	}
	return "", false
}

// detailText renders a detail value. The service sends either a plain string or, for request
// validation failures, a list of {"loc": [...], "msg": "..."} objects whose messages are joined.
func detailText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, s != ""
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; "), true
		}
		return "", false
	}
	return string(raw), true
}
