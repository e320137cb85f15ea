// Package httpx provides helper functions for creating HTTP responses, both
// as API Gateway proxy responses and on a plain http.ResponseWriter.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/kylejryan/survey-sync/internal/api"

	"github.com/aws/aws-lambda-go/events"
)

const contentTypeJSON = "application/json"

// JSON creates a JSON API Gateway response with the given status code and value.
func JSON(status int, v any) (events.APIGatewayV2HTTPResponse, error) {
	b, _ := json.Marshal(v)
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type": contentTypeJSON,
		},
		Body: string(b),
	}, nil
}

// Error creates a JSON API Gateway error response with the given status code and message.
func Error(status int, msg string) (events.APIGatewayV2HTTPResponse, error) {
	return JSON(status, api.ErrorResponse{Erro: msg})
}

// Write encodes v as JSON onto w with the given status code.
func Write(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(api.ErrorResponse{Erro: err.Error()})
	}
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

// WriteError writes a JSON error body onto w.
func WriteError(w http.ResponseWriter, status int, msg string) {
	Write(w, status, api.ErrorResponse{Erro: msg})
}
