package main

// Lambda entrypoint for the review API behind an API Gateway HTTP API.
// Cross-compile with GOOS=linux GOARCH=arm64 and name the binary "bootstrap".
// Use DB_DRIVER=postgres here; the sqlite driver requires CGO.

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"persona-review/internal/bootstrap"
	"persona-review/internal/shared/config"
)

var (
	setup    sync.Once
	setupErr error
	proxy    *ginadapter.GinLambdaV2
)

// buildProxy wires the app once per execution environment; warm invocations
// reuse the router and its database pool.
func buildProxy() {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		setupErr = err
		return
	}
	proxy = ginadapter.NewV2(app.Router)
}

func errorResponse(code, message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]any{"error": map[string]string{"code": code, "message": message}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	setup.Do(buildProxy)
	switch {
	case setupErr != nil:
		log.Printf("lambda: persona-review failed to start: %v", setupErr)
		return errorResponse("bootstrap_failed", "Review service failed to start"), setupErr
	case proxy == nil:
		return errorResponse("internal_error", "Review API is not ready"), nil
	}
	return proxy.ProxyWithContext(ctx, req)
}

func main() {
	lambda.Start(handle)
}
