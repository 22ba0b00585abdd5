package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	watchURLFormat  = "https://www.youtube.com/watch?v=%s"
	defaultLanguage = "en"
	userAgent       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// YouTubeClient pulls caption tracks straight from the watch page: one
// GET for the page, one GET for the chosen track's timedtext document.
// Both requests go through the same (optional) proxy.
type YouTubeClient struct {
	watchBase string
	language  string
	timeout   time.Duration
}

type YouTubeClientOption func(*YouTubeClient)

// WithWatchBase overrides the watch page URL format, used by tests.
func WithWatchBase(format string) YouTubeClientOption {
	return func(c *YouTubeClient) { c.watchBase = format }
}

func WithLanguage(lang string) YouTubeClientOption {
	return func(c *YouTubeClient) { c.language = lang }
}

func NewYouTubeClient(timeout time.Duration, opts ...YouTubeClientOption) *YouTubeClient {
	c := &YouTubeClient{
		watchBase: watchURLFormat,
		language:  defaultLanguage,
		timeout:   timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (c *YouTubeClient) Fetch(ctx context.Context, videoID string, proxyURL *url.URL) (*Transcript, error) {
	client := c.httpClient(proxyURL)

	page, err := c.get(ctx, client, fmt.Sprintf(c.watchBase, videoID))
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	tracks, err := extractCaptionTracks(page)
	if err != nil {
		return nil, err
	}

	track := pickTrack(tracks, c.language)
	body, err := c.get(ctx, client, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("caption track: %w", err)
	}

	lines, err := parseTimedText(body)
	if err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty caption track", ErrNoTranscript)
	}

	return &Transcript{VideoID: videoID, Lines: lines}, nil
}

func (c *YouTubeClient) httpClient(proxyURL *url.URL) *http.Client {
	transport := &http.Transport{
		DisableKeepAlives: true,
	}
	if proxyURL != nil {
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   c.timeout,
	}
}

func (c *YouTubeClient) get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", c.language)
	// Skip the EU consent interstitial, which hides player data.
	req.AddCookie(&http.Cookie{Name: "CONSENT", Value: "YES+1"})

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

const captionTracksMarker = `"captionTracks":`

// extractCaptionTracks locates the captionTracks array inside the
// player response embedded in the watch page. Absence of the marker is
// the upstream's way of saying captions are disabled.
func extractCaptionTracks(page []byte) ([]captionTrack, error) {
	idx := strings.Index(string(page), captionTracksMarker)
	if idx < 0 {
		return nil, fmt.Errorf("%w: captions disabled", ErrNoTranscript)
	}

	rest := string(page)[idx+len(captionTracksMarker):]
	var tracks []captionTrack
	if err := json.NewDecoder(strings.NewReader(rest)).Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %v", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no caption tracks", ErrNoTranscript)
	}
	return tracks, nil
}

// pickTrack prefers a manually-authored track in the wanted language,
// then any track in the language, then the first track.
func pickTrack(tracks []captionTrack, language string) captionTrack {
	var langMatch *captionTrack
	for i := range tracks {
		if tracks[i].LanguageCode != language {
			continue
		}
		if tracks[i].Kind != "asr" {
			return tracks[i]
		}
		if langMatch == nil {
			langMatch = &tracks[i]
		}
	}
	if langMatch != nil {
		return *langMatch
	}
	return tracks[0]
}

type timedText struct {
	XMLName xml.Name       `xml:"transcript"`
	Texts   []timedTextCue `xml:"text"`
}

type timedTextCue struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Body  string  `xml:",chardata"`
}

func parseTimedText(body []byte) ([]Line, error) {
	var doc timedText
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(doc.Texts))
	for _, cue := range doc.Texts {
		text := strings.TrimSpace(html.UnescapeString(cue.Body))
		if text == "" {
			continue
		}
		lines = append(lines, Line{
			Start:    time.Duration(cue.Start * float64(time.Second)),
			Duration: time.Duration(cue.Dur * float64(time.Second)),
			Text:     text,
		})
	}
	return lines, nil
}
