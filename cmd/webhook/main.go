// Command webhook runs the survey submission pipeline as an AWS Lambda
// behind an API Gateway HTTP API.
package main

import (
	"context"
	"encoding/base64"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/kylejryan/survey-sync/internal/api"
	"github.com/kylejryan/survey-sync/internal/app"
	"github.com/kylejryan/survey-sync/internal/config"
	"github.com/kylejryan/survey-sync/internal/httpx"
	"github.com/kylejryan/survey-sync/internal/server"
)

// App holds the handler state.
type App struct {
	p server.Processor
}

func main() {
	env := config.MustLoad()
	logger := app.Logger(env, "survey-sync-webhook")
	a, err := app.Build(context.Background(), env, logger)
	if err != nil {
		logger.Error("startup failed", "err", err)
		panic(err)
	}
	h := &App{p: a.Pipeline}
	lambda.Start(h.handler)
}

// handler adapts an API Gateway request to the pipeline.
func (a *App) handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return httpx.Error(http.StatusBadRequest, api.MsgMissingPayload)
		}
		body = decoded
	}
	if len(body) > server.MaxBodyBytes {
		return httpx.Error(http.StatusRequestEntityTooLarge, "Payload excede o limite de 10 MiB")
	}
	headers := req.Headers
	if req.RequestContext.RequestID != "" {
		headers = withRequestID(headers, req.RequestContext.RequestID)
	}
	res := a.p.Process(ctx, headers, body)
	return httpx.JSON(res.Status, res.Body)
}

func withRequestID(h map[string]string, id string) map[string]string {
	out := make(map[string]string, len(h)+1)
	for k, v := range h {
		out[k] = v
	}
	if _, ok := out["x-request-id"]; !ok {
		out["X-Request-Id"] = id
	}
	return out
}
