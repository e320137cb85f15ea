// Package authz provides the static-token check for inbound webhooks.
package authz

import (
	"crypto/subtle"
	"errors"
	"strings"
)

// ErrUnauthorized is returned when a token is present but does not match.
var ErrUnauthorized = errors.New("unauthorized")

// ErrMissingToken is returned when no token was sent and tokens are required.
var ErrMissingToken = errors.New("missing token")

const bearerPrefix = "Bearer "

// HeaderLookup returns the value of a header key from a map, ignoring case.
func HeaderLookup(h map[string]string, key string) string {
	if len(h) == 0 {
		return ""
	}
	if v, ok := h[key]; ok {
		return v
	}
	lk := strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == lk {
			return v
		}
	}
	return ""
}

// Token returns the token carried by the request. A non-empty Authorization
// header wins, with a literal "Bearer " prefix stripped; otherwise the token
// field of the body is used.
func Token(headers map[string]string, bodyToken string) string {
	if auth := HeaderLookup(headers, "Authorization"); auth != "" {
		return strings.TrimPrefix(auth, bearerPrefix)
	}
	return bodyToken
}

// Check compares token against secret. An empty token passes unless
// required is set.
func Check(token, secret string, required bool) error {
	if token == "" {
		if required {
			return ErrMissingToken
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Redact returns a copy of headers with credential values masked, for logging.
func Redact(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "authorization", "cookie", "x-api-key":
			if v != "" {
				v = "[redacted]"
			}
		}
		out[k] = v
	}
	return out
}
