package httpverifier_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	logmocks "github.com/JulianoL13/tube-summary-engine/internal/logs/mocks"
	httpverifier "github.com/JulianoL13/tube-summary-engine/internal/verifier/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	url *url.URL
}

func (p probe) Address() string { return p.url.Host }
func (p probe) URL() *url.URL   { return p.url }

func TestChecker_Check(t *testing.T) {
	t.Run("alive proxy reports the egress ip", func(t *testing.T) {
		// Stands in for both the proxy and the egress endpoint: a
		// proxied plain-HTTP request lands here with an absolute URI.
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ip":"198.51.100.7","city":"Amsterdam","country":"NL"}`))
		}))
		defer proxy.Close()

		proxyURL, err := url.Parse(proxy.URL)
		require.NoError(t, err)

		checker := httpverifier.NewChecker("http://ipinfo.test/json", time.Second, logmocks.LoggerMock{})
		out := checker.Check(context.Background(), probe{proxyURL})

		assert.True(t, out.Alive)
		assert.NoError(t, out.Error)
		assert.Equal(t, "198.51.100.7", out.EgressIP)
		assert.Greater(t, out.Latency, time.Duration(0))
	})

	t.Run("bad status marks the proxy dead", func(t *testing.T) {
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer proxy.Close()

		proxyURL, err := url.Parse(proxy.URL)
		require.NoError(t, err)

		checker := httpverifier.NewChecker("http://ipinfo.test/json", time.Second, logmocks.LoggerMock{})
		out := checker.Check(context.Background(), probe{proxyURL})

		assert.False(t, out.Alive)
		assert.Error(t, out.Error)
	})

	t.Run("unreachable proxy marks the proxy dead", func(t *testing.T) {
		proxyURL := &url.URL{Scheme: "http", Host: "127.0.0.1:1"}

		checker := httpverifier.NewChecker("http://ipinfo.test/json", 500*time.Millisecond, logmocks.LoggerMock{})
		out := checker.Check(context.Background(), probe{proxyURL})

		assert.False(t, out.Alive)
		assert.Error(t, out.Error)
	})
}

func TestChecker_Lookup(t *testing.T) {
	t.Run("returns egress info from the endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			w.Write([]byte(`{"ip":"192.0.2.44","city":"Lisbon","region":"Lisbon","country":"PT","org":"AS64500 Example"}`))
		}))
		defer server.Close()

		checker := httpverifier.NewChecker(server.URL, time.Second, logmocks.LoggerMock{})
		info, err := checker.Lookup(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "192.0.2.44", info.IP)
		assert.Equal(t, "Lisbon", info.City)
		assert.Equal(t, "PT", info.Country)
	})

	t.Run("defaults the target url", func(t *testing.T) {
		checker := httpverifier.NewChecker("", time.Second, logmocks.LoggerMock{})
		assert.Equal(t, httpverifier.DefaultTargetURL, checker.TargetURL)
	})
}
