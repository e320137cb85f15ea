package authz

import (
	"errors"
	"testing"
)

func TestToken(t *testing.T) {
	tests := []struct {
		name      string
		headers   map[string]string
		bodyToken string
		want      string
	}{
		{"bearer header", map[string]string{"Authorization": "Bearer s3cret"}, "", "s3cret"},
		{"lowercase header key", map[string]string{"authorization": "Bearer s3cret"}, "", "s3cret"},
		{"raw header", map[string]string{"Authorization": "s3cret"}, "", "s3cret"},
		{"header wins over body", map[string]string{"Authorization": "Bearer a"}, "b", "a"},
		{"body fallback", nil, "from-body", "from-body"},
		{"empty header falls back", map[string]string{"Authorization": ""}, "from-body", "from-body"},
		{"nothing", map[string]string{"Content-Type": "application/json"}, "", ""},
		{"bare bearer", map[string]string{"Authorization": "Bearer "}, "ignored", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Token(tt.headers, tt.bodyToken); got != tt.want {
				t.Errorf("Token() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check("s3cret", "s3cret", false); err != nil {
		t.Errorf("matching token: %v", err)
	}
	if err := Check("", "s3cret", false); err != nil {
		t.Errorf("absent token without requirement: %v", err)
	}
	if err := Check("", "s3cret", true); !errors.Is(err, ErrMissingToken) {
		t.Errorf("absent token with requirement = %v, want ErrMissingToken", err)
	}
	if err := Check("wrong", "s3cret", false); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("wrong token = %v, want ErrUnauthorized", err)
	}
}

func TestRedact(t *testing.T) {
	in := map[string]string{"Authorization": "Bearer s3cret", "Content-Type": "application/json"}
	out := Redact(in)
	if out["Authorization"] != "[redacted]" {
		t.Errorf("Authorization = %q", out["Authorization"])
	}
	if out["Content-Type"] != "application/json" {
		t.Errorf("Content-Type = %q", out["Content-Type"])
	}
	if in["Authorization"] != "Bearer s3cret" {
		t.Error("Redact modified its input")
	}
}
