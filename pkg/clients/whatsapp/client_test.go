package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/decapage/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.WhatsAppConfig{
		AccessToken:   "secret",
		PhoneNumberID: "12345",
		BaseURL:       srv.URL + "/",
		APIVersion:    "v20.0",
	})
}

func TestSendText(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v20.0/12345/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	})

	id, err := client.SendText(context.Background(), "224600000000", " Rapport hebdo ")
	require.NoError(t, err)

	assert.Equal(t, "wamid.1", id)
	assert.Equal(t, "224600000000", got["to"])
	assert.Equal(t, "text", got["type"])
	assert.Equal(t, "Rapport hebdo", got["text"].(map[string]any)["body"])
}

func TestSendTextAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid recipient","code":131030}}`))
	})

	_, err := client.SendText(context.Background(), "bad", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "131030")
	assert.Contains(t, err.Error(), "invalid recipient")
}

func TestSendTextDoesNotResendAfterInternalError(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"unknown error","code":1}}`))
	})

	_, err := client.SendText(context.Background(), "224600000000", "hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSendTextRetriesGatewayErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"try later","code":2}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.2"}]}`))
	})

	id, err := client.SendText(context.Background(), "224600000000", "hello")
	require.NoError(t, err)
	assert.Equal(t, "wamid.2", id)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendTextTruncatesLongBody(t *testing.T) {
	var body string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text struct {
				Body string `json:"body"`
			} `json:"text"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		body = payload.Text.Body

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[]}`))
	})

	_, err := client.SendText(context.Background(), "224600000000", strings.Repeat("é", maxBodyLength+10))
	require.NoError(t, err)
	assert.Equal(t, maxBodyLength, len([]rune(body)))
}

func TestSendTextEmptyBody(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{BaseURL: "http://127.0.0.1:0", APIVersion: "v20.0"})

	_, err := client.SendText(context.Background(), "224600000000", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}
