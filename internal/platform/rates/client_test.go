package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatesRUBFromCoinGecko(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "the-open-network,tether", r.URL.Query().Get("ids"))
		assert.Equal(t, "rub", r.URL.Query().Get("vs_currencies"))
		w.Write([]byte(`{"the-open-network":{"rub":301.5},"tether":{"rub":92.3}}`))
	}))
	defer server.Close()

	rates := NewClient(server.URL).RatesRUB(context.Background())
	assert.Equal(t, 301.5, rates["TON"])
	assert.Equal(t, 92.3, rates["USDT"])
}

func TestRatesRUBFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	rates := NewClient(server.URL).RatesRUB(context.Background())
	assert.Equal(t, fallbackRatesRUB, rates)
}

func TestRatesRUBFallsBackOnZeroRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"the-open-network":{"rub":0},"tether":{"rub":92.3}}`))
	}))
	defer server.Close()

	rates := NewClient(server.URL).RatesRUB(context.Background())
	assert.Equal(t, fallbackRatesRUB, rates)
}

func TestRatesRUBFallsBackWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	rates := NewClient(server.URL).RatesRUB(context.Background())
	assert.Equal(t, fallbackRatesRUB, rates)
}
