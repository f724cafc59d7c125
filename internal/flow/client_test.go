package flow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientBackendErrorFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{"error": "Минимальное количество звезд: 50"})
	}))
	defer server.Close()

	_, err := NewClient(server.URL).PurchaseStatus(context.Background(), "abc123")
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "Минимальное количество звезд: 50", backendErr.Message)
}

func TestClientBackendErrorFromStatusCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Statistics(context.Background())
	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
}

func TestClientTransportErrorOnMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).PurchaseStatus(context.Background(), "abc123")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestClientTransportErrorOnConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := NewClient(server.URL).Statistics(context.Background())
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}
