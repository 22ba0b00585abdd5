package geonode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
)

// ErrSourceUnavailable means the listing API could not produce usable
// candidates. Always recoverable: the pool manager keeps whatever it has.
var ErrSourceUnavailable = errors.New("proxy listing source unavailable")

const DefaultBaseURL = "https://proxylist.geonode.com/api/proxy-list"

// Client fetches ranked proxy candidates from a geonode-style listing
// API. One GET per refresh cycle; read-only.
type Client struct {
	baseURL string
	limit   int
	client  *http.Client
	logger  logs.Logger
}

func NewClient(baseURL string, limit int, timeout time.Duration, logger logs.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limit <= 0 {
		limit = proxy.DefaultMaxSize
	}
	return &Client{
		baseURL: baseURL,
		limit:   limit,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// listing entry as the remote service shapes it; only the consumed
// fields are mapped. Port arrives as a string.
type listingEntry struct {
	IP             string   `json:"ip"`
	Port           string   `json:"port"`
	Protocols      []string `json:"protocols"`
	UpTime         float64  `json:"upTime"`
	Latency        float64  `json:"latency"`
	AnonymityLevel string   `json:"anonymityLevel"`
	LastChecked    int64    `json:"lastChecked"`
}

type listingResponse struct {
	Data []listingEntry `json:"data"`
}

// FetchCandidates requests https-capable proxies in listing rank order.
// Malformed entries are dropped silently; a listing where nothing
// usable survives counts as a source failure, so a refresh never
// replaces a live pool with nothing.
func (c *Client) FetchCandidates(ctx context.Context) ([]*proxy.Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var body listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrSourceUnavailable, err)
	}
	if len(body.Data) == 0 {
		return nil, fmt.Errorf("%w: empty listing", ErrSourceUnavailable)
	}

	candidates := make([]*proxy.Candidate, 0, len(body.Data))
	dropped := 0
	for _, entry := range body.Data {
		candidate, err := mapEntry(entry)
		if err != nil {
			dropped++
			continue
		}
		candidates = append(candidates, candidate)
		if len(candidates) == c.limit {
			break
		}
	}

	if dropped > 0 {
		c.logger.Debug("dropped malformed listing entries", "count", dropped)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no usable entries in listing", ErrSourceUnavailable)
	}
	c.logger.Info("fetched proxy candidates", "count", len(candidates))

	return candidates, nil
}

func (c *Client) requestURL() string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.limit))
	q.Set("page", "1")
	q.Set("protocols", string(proxy.HTTPS))
	q.Set("sort_by", "lastChecked")
	q.Set("sort_type", "desc")
	return c.baseURL + "?" + q.Encode()
}

func mapEntry(entry listingEntry) (*proxy.Candidate, error) {
	port, err := strconv.Atoi(entry.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q", entry.Port)
	}

	protocol, err := pickProtocol(entry.Protocols)
	if err != nil {
		return nil, err
	}

	candidate, err := proxy.NewCandidate(entry.IP, port, protocol, proxy.SourceListingAPI)
	if err != nil {
		return nil, err
	}

	candidate.UptimePercent = entry.UpTime
	candidate.Latency = time.Duration(entry.Latency * float64(time.Millisecond))
	candidate.Anonymity = proxy.AnonymityLevelFromString(entry.AnonymityLevel)
	if entry.LastChecked > 0 {
		at := time.Unix(entry.LastChecked, 0).UTC()
		candidate.LastVerifiedAt = &at
	}

	return candidate, nil
}

func pickProtocol(protocols []string) (proxy.Protocol, error) {
	var fallback proxy.Protocol
	for _, p := range protocols {
		switch proxy.Protocol(p) {
		case proxy.HTTPS:
			return proxy.HTTPS, nil
		case proxy.HTTP:
			fallback = proxy.HTTP
		}
	}
	if fallback == "" {
		return "", errors.New("no supported protocol")
	}
	return fallback, nil
}
