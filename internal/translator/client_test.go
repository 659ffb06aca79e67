package translator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(url string) *OpenAIClient {
	return NewOpenAIClient(url, "test-key", Params{
		TargetLanguage: "de",
		Tone:           "neutral",
		Model:          "test-model",
	}, 5*time.Second)
}

func TestOpenAIClientTranslate(t *testing.T) {
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"translations": ["eins", "zwei"]}`}},
			},
		})
	}))
	defer srv.Close()

	got, err := newTestClient(srv.URL).Translate(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eins", "zwei"}, got)

	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Contains(t, gotReq.Messages[0].Content, "de")
	assert.Contains(t, gotReq.Messages[0].Content, "neutral")
	assert.Contains(t, gotReq.Messages[0].Content, NoTranslation)
	assert.Contains(t, gotReq.Messages[1].Content, "1. one")
	assert.Contains(t, gotReq.Messages[1].Content, "2. two")
	assert.Contains(t, gotReq.Messages[1].Content, "exactly 2 strings")
}

func TestOpenAIClientLengthMismatchIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"translations": ["only one"]}`}},
			},
		})
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Translate(context.Background(), []string{"one", "two"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, reqErr.Retryable)
}

func TestOpenAIClientStatusClassification(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		_, err := newTestClient(srv.URL).Translate(context.Background(), []string{"one"})
		require.Error(t, err, "status %d", tc.status)

		var reqErr *RequestError
		require.True(t, errors.As(err, &reqErr), "status %d", tc.status)
		assert.Equal(t, tc.retryable, reqErr.Retryable, "status %d", tc.status)
		assert.Equal(t, tc.status, reqErr.StatusCode)

		srv.Close()
	}
}

func TestOpenAIClientNetworkErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv.URL).Translate(context.Background(), []string{"one"})
	require.Error(t, err)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, reqErr.Retryable)
}
