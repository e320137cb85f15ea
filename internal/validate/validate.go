// Package validate decodes and validates inbound submission payloads.
package validate

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/kylejryan/survey-sync/internal/models"
)

// ErrMissingPayload is returned for bodies that are empty, not JSON, not a
// JSON object, or an empty object.
var ErrMissingPayload = errors.New("missing JSON payload")

// ErrMissingWorkSite is returned when the work-site name is empty.
var ErrMissingWorkSite = errors.New("work site name required")

// Payload decodes body into a Submission.
func Payload(body []byte) (*models.Submission, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, ErrMissingPayload
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || len(fields) == 0 {
		return nil, ErrMissingPayload
	}
	var sub models.Submission
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, errors.Join(ErrMissingPayload, err)
	}
	return &sub, nil
}

// WorkSite checks that a work-site name was given. The name is not trimmed:
// work sites are matched on their exact title.
func WorkSite(name string) error {
	if name == "" {
		return ErrMissingWorkSite
	}
	return nil
}
