package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/rafaelordanini/ANP-GRU/internal/config"
	"github.com/rafaelordanini/ANP-GRU/internal/service"
	"github.com/rafaelordanini/ANP-GRU/internal/survey"
)

// LambdaHandler serves the same contract as the HTTP server from behind API
// Gateway. One handler answers every route; the path decides between the
// municipality payload and the summary.
type LambdaHandler struct {
	source  PriceSource
	logger  *zap.Logger
	headers headerPolicy
}

// NewLambdaHandler builds the serverless adapter.
func NewLambdaHandler(source PriceSource, clock Clock, cfg config.Config, logger *zap.Logger) *LambdaHandler {
	return &LambdaHandler{
		source:  source,
		logger:  logger,
		headers: newHeaderPolicy(cfg, clock),
	}
}

// Handle answers one API Gateway invocation.
func (h *LambdaHandler) Handle(ctx context.Context, req *events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
	headers := corsHeaders()

	if req.HTTPMethod == http.MethodOptions {
		return &events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    headers,
		}, nil
	}
	if req.HTTPMethod != http.MethodGet {
		headers["Cache-Control"] = "no-store"
		return h.jsonResponse(http.StatusMethodNotAllowed, headers,
			survey.ErrorPayload{Success: false, Error: fmt.Sprintf("method %s not allowed", req.HTTPMethod)})
	}

	refresh := req.QueryStringParameters["refresh"] == "true"
	opts := service.Options{ForceRefresh: refresh}

	var (
		payload any
		err     error
	)
	if isSummaryPath(req.Path) {
		payload, err = h.source.Summary(ctx, opts)
	} else {
		payload, err = h.source.Latest(ctx, opts)
	}
	if err != nil {
		h.logger.Error("price lookup failed",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		headers["Cache-Control"] = "no-store"
		return h.jsonResponse(http.StatusInternalServerError, headers,
			survey.ErrorPayload{Success: false, Error: err.Error()})
	}

	headers["Cache-Control"] = h.headers.directive(refresh)
	return h.jsonResponse(http.StatusOK, headers, payload)
}

func (h *LambdaHandler) jsonResponse(status int, headers map[string]string, payload any) (*events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	headers["Content-Type"] = "application/json"
	return &events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    headers,
		Body:       string(body),
	}, nil
}

func isSummaryPath(path string) bool {
	return strings.HasSuffix(strings.TrimRight(path, "/"), "/summary")
}
