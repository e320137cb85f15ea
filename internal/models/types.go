// Package models defines the data models used in the application.
package models

import (
	"bytes"
	"encoding/json"
)

// Record property names in the records database. Work sites and submitters
// are matched on PropTitle as well.
const (
	PropTitle     = "Título"
	PropWorkSite  = "Obras"
	PropSubmitter = "Resp"
	PropLocation  = "Localização"
	PropNote      = "Apontamentos"
	PropStatus    = "Status"
	PropCreatedAt = "Data de Criação"
	PropUUID      = "UUID"
	PropPhotos    = "Fotos"
	PropDocs      = "Docs"
)

// Text is a scalar payload value. The survey platform sends most answers as
// strings but numbers and booleans show up too, so any JSON scalar is accepted
// and kept as its JSON text. null decodes to the empty string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	case b[0] == '{' || b[0] == '[':
		return &json.UnsupportedValueError{Str: "expected scalar, got " + string(b[:1])}
	default:
		*t = Text(b)
		return nil
	}
}

// String returns the text value.
func (t Text) String() string { return string(t) }

// Attachment is one entry of the submission's _attachments list.
type Attachment struct {
	Filename    Text `json:"filename"`
	DownloadURL Text `json:"download_url"`
	MimeType    Text `json:"mimetype"`
}

// Submission is the inbound webhook payload.
type Submission struct {
	WorkSite       Text         `json:"obra"`
	SubmittedBy    Text         `json:"_submitted_by"`
	Location       Text         `json:"localizacao"`
	Note           Text         `json:"apontamento"`
	Status         Text         `json:"status"`
	SubmissionTime Text         `json:"_submission_time"`
	UUID           Text         `json:"_uuid"`
	Attachments    []Attachment `json:"_attachments"`
	Token          Text         `json:"token"`
}

// Record is the property set written for one submission.
type Record struct {
	Title       string
	WorkSiteID  string
	SubmitterID string // empty when the submitter could not be resolved
	Location    string
	Note        string
	Status      string
	CreatedAt   string
	UUID        string
	PhotoLinks  []string
}
