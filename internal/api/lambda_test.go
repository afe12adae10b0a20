package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rafaelordanini/ANP-GRU/internal/survey"
)

func TestLambdaGetPrices(t *testing.T) {
	t.Parallel()

	source := &fakeSource{payload: samplePayload()}
	handler := newTestLambdaHandler(source)

	resp, err := handler.Handle(context.Background(), &events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/v1/prices",
	})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	require.Equal(t, "public, s-maxage=79200, stale-while-revalidate=600", resp.Headers["Cache-Control"])

	var payload survey.Payload
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &payload))
	require.True(t, payload.Success)
	require.Equal(t, "2025-04-05", payload.PeriodEnd)

	require.Equal(t, 1, source.latestCalls)
	require.False(t, source.lastOpts.ForceRefresh)
}

func TestLambdaSummaryRouting(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/v1/prices/summary", "/v1/prices/summary/"} {
		source := &fakeSource{summary: sampleSummary()}
		handler := newTestLambdaHandler(source)

		resp, err := handler.Handle(context.Background(), &events.APIGatewayProxyRequest{
			HTTPMethod: http.MethodGet,
			Path:       path,
		})
		require.NoError(t, err, path)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, 1, source.summaryCalls, path)
		require.Zero(t, source.latestCalls, path)
	}
}

func TestLambdaForcedRefresh(t *testing.T) {
	t.Parallel()

	source := &fakeSource{payload: samplePayload()}
	handler := newTestLambdaHandler(source)

	resp, err := handler.Handle(context.Background(), &events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodGet,
		Path:                  "/v1/prices",
		QueryStringParameters: map[string]string{"refresh": "true"},
	})
	require.NoError(t, err)

	require.Equal(t, "no-store", resp.Headers["Cache-Control"])
	require.True(t, source.lastOpts.ForceRefresh)
}

func TestLambdaOptions(t *testing.T) {
	t.Parallel()

	handler := newTestLambdaHandler(&fakeSource{})

	resp, err := handler.Handle(context.Background(), &events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodOptions,
		Path:       "/v1/prices",
	})
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, resp.Body)
	require.Equal(t, "GET, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
}

func TestLambdaMethodNotAllowed(t *testing.T) {
	t.Parallel()

	source := &fakeSource{}
	handler := newTestLambdaHandler(source)

	resp, err := handler.Handle(context.Background(), &events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/v1/prices",
	})
	require.NoError(t, err)

	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	require.Equal(t, "no-store", resp.Headers["Cache-Control"])

	var body survey.ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "POST")
	require.Zero(t, source.latestCalls)
}

func TestLambdaFailure(t *testing.T) {
	t.Parallel()

	handler := newTestLambdaHandler(&fakeSource{err: errors.New("no data found for municipality GUARULHOS")})

	resp, err := handler.Handle(context.Background(), &events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/v1/prices",
	})
	require.NoError(t, err)

	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "no-store", resp.Headers["Cache-Control"])

	var body survey.ErrorPayload
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "GUARULHOS")
}

func newTestLambdaHandler(source PriceSource) *LambdaHandler {
	return NewLambdaHandler(source, fixedClock(), testAPIConfig(), zap.NewNop())
}
