package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kylejryan/survey-sync/internal/api"
)

func TestErrorUsesErroKey(t *testing.T) {
	resp, err := Error(http.StatusUnauthorized, api.MsgInvalidToken)
	if err != nil {
		t.Fatalf("Error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if got := resp.Headers["Content-Type"]; got != "application/json" {
		t.Errorf("content type = %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["erro"] != api.MsgInvalidToken {
		t.Errorf("erro = %q, want %q", body["erro"], api.MsgInvalidToken)
	}
}

func TestWrite(t *testing.T) {
	recorder := httptest.NewRecorder()
	Write(recorder, http.StatusOK, api.WebhookResponse{Status: api.StatusOK, NotionPage: "page-1"})

	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusOK)
	}
	want := `{"status":"OK","notion_page":"page-1"}`
	if got := recorder.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestWriteUnencodable(t *testing.T) {
	recorder := httptest.NewRecorder()
	Write(recorder, http.StatusOK, map[string]any{"bad": func() {}})

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", recorder.Code, http.StatusInternalServerError)
	}
}
