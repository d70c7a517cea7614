package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", time.Second)
	c.httpClient.SetBaseURL(srv.URL)
	return c
}

func modelResponse(text string) string {
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	b, _ := json.Marshal(resp)
	return string(b)
}

func TestMatch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		_, _ = w.Write([]byte(modelResponse(`{"matches": [{"document_id": "INV-0042", "confidence": 0.9}]}`)))
	})

	matches, err := client.Match(context.Background(), "INV-0042x", []string{"INV-0042", "INV-0099"})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "INV-0042", matches[0].DocumentID)
	assert.InDelta(t, 0.9, matches[0].Confidence, 1e-9)
}

func TestMatch_StripsMarkdownFences(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(modelResponse("```json\n{\"matches\": [{\"document_id\": \"INV-0042\", \"confidence\": 0.7}]}\n```")))
	})

	matches, err := client.Match(context.Background(), "42", []string{"INV-0042"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "INV-0042", matches[0].DocumentID)
}

func TestMatch_DropsInventedIdentifiers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(modelResponse(`{"matches": [{"document_id": "INV-9999", "confidence": 0.9}, {"document_id": "INV-0042", "confidence": 0.6}]}`)))
	})

	matches, err := client.Match(context.Background(), "42", []string{"INV-0042"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "INV-0042", matches[0].DocumentID)
}

func TestMatch_EmptyCandidateSetSkipsCall(t *testing.T) {
	called := false
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) { called = true })

	matches, err := client.Match(context.Background(), "INV-0042", nil)
	require.NoError(t, err)
	assert.Nil(t, matches)
	assert.False(t, called)
}

func TestMatch_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "backend unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.Match(context.Background(), "42", []string{"INV-0042"})
	assert.Error(t, err)
}

func TestMatch_UnparseableResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(modelResponse("I could not find any matching documents.")))
	})

	_, err := client.Match(context.Background(), "42", []string{"INV-0042"})
	assert.Error(t, err)
}
