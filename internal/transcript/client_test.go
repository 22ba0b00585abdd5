package transcript_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

const timedTextBody = `<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.16" dur="2.5">never gonna give you up</text>
  <text start="2.66" dur="3.1">never gonna let you &amp;quot;down&amp;quot;</text>
  <text start="5.76" dur="1.0">  </text>
</transcript>`

func watchPage(captionsJSON string) string {
	if captionsJSON == "" {
		return `<html><body><script>var ytInitialPlayerResponse = {"videoDetails":{}};</script></body></html>`
	}
	return fmt.Sprintf(
		`<html><body><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":%s,"audioTracks":[]}}};</script></body></html>`,
		captionsJSON,
	)
}

func TestYouTubeClient_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches and parses captions", func(t *testing.T) {
		mux := http.NewServeMux()
		server := httptest.NewServer(mux)
		defer server.Close()

		mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "en-track", r.URL.Query().Get("track"))
			w.Write([]byte(timedTextBody))
		})
		mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "vid42", r.URL.Query().Get("v"))
			captions := fmt.Sprintf(
				`[{"baseUrl":"%s/api/timedtext?track=asr-track","languageCode":"en","kind":"asr"},{"baseUrl":"%s/api/timedtext?track=en-track","languageCode":"en"}]`,
				server.URL, server.URL,
			)
			w.Write([]byte(watchPage(captions)))
		})

		client := transcript.NewYouTubeClient(time.Second,
			transcript.WithWatchBase(server.URL+"/watch?v=%s"))

		got, err := client.Fetch(ctx, "vid42", nil)
		require.NoError(t, err)

		require.Len(t, got.Lines, 2)
		assert.Equal(t, "never gonna give you up", got.Lines[0].Text)
		assert.Equal(t, 160*time.Millisecond, got.Lines[0].Start)
		assert.Equal(t, `never gonna let you "down"`, got.Lines[1].Text)
		assert.Equal(t, `never gonna give you up never gonna let you "down"`, got.Text())
	})

	t.Run("no captionTracks marker means captions disabled", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(watchPage("")))
		}))
		defer server.Close()

		client := transcript.NewYouTubeClient(time.Second,
			transcript.WithWatchBase(server.URL+"/watch?v=%s"))

		_, err := client.Fetch(ctx, "vid42", nil)
		assert.ErrorIs(t, err, transcript.ErrNoTranscript)
	})

	t.Run("empty track list means no transcript", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(watchPage("[]")))
		}))
		defer server.Close()

		client := transcript.NewYouTubeClient(time.Second,
			transcript.WithWatchBase(server.URL+"/watch?v=%s"))

		_, err := client.Fetch(ctx, "vid42", nil)
		assert.ErrorIs(t, err, transcript.ErrNoTranscript)
	})

	t.Run("watch page failure is a connection error, not a verdict", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client := transcript.NewYouTubeClient(time.Second,
			transcript.WithWatchBase(server.URL+"/watch?v=%s"))

		_, err := client.Fetch(ctx, "vid42", nil)
		require.Error(t, err)
		assert.NotErrorIs(t, err, transcript.ErrNoTranscript)
	})

	t.Run("routes through the given proxy", func(t *testing.T) {
		var sawProxy bool
		// A proxied plain-HTTP request arrives with an absolute URI.
		proxyServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawProxy = true
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer proxyServer.Close()

		client := transcript.NewYouTubeClient(time.Second,
			transcript.WithWatchBase("http://youtube.invalid/watch?v=%s"))

		proxyURL := mustParse(t, proxyServer.URL)
		_, err := client.Fetch(ctx, "vid42", proxyURL)
		require.Error(t, err)
		assert.True(t, sawProxy)
	})
}
