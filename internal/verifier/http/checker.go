package httpverifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/logs"
	"github.com/JulianoL13/tube-summary-engine/internal/verifier"
)

const DefaultTargetURL = "https://ipinfo.io/json"

type EgressInfo struct {
	IP      string `json:"ip"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	Org     string `json:"org"`
}

// Checker probes a proxy by fetching the egress endpoint through it.
// The response tells us which IP the far side actually saw.
type Checker struct {
	TargetURL string
	Timeout   time.Duration
	logger    logs.Logger
}

func NewChecker(target string, timeout time.Duration, logger logs.Logger) *Checker {
	if target == "" {
		target = DefaultTargetURL
	}
	return &Checker{
		TargetURL: target,
		Timeout:   timeout,
		logger:    logger,
	}
}

func (c *Checker) Check(ctx context.Context, p verifier.Probe) verifier.Output {
	transport := &http.Transport{
		Proxy:             http.ProxyURL(p.URL()),
		DisableKeepAlives: true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   c.Timeout,
	}

	start := time.Now()

	info, err := c.fetchEgress(ctx, client)
	latency := time.Since(start)

	if err != nil {
		c.logger.Debug("proxy check failed", "address", p.Address(), "error", err)
		return verifier.Output{Latency: latency, Error: err}
	}

	return verifier.Output{
		Alive:    true,
		Latency:  latency,
		EgressIP: info.IP,
	}
}

// Lookup fetches the egress info without a proxy. Useful for showing
// which IP the process exposes when talking to the outside directly.
func (c *Checker) Lookup(ctx context.Context) (EgressInfo, error) {
	client := &http.Client{Timeout: c.Timeout}
	return c.fetchEgress(ctx, client)
}

func (c *Checker) fetchEgress(ctx context.Context, client *http.Client) (EgressInfo, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.TargetURL, nil)
	if err != nil {
		return EgressInfo{}, err
	}
	req.Header.Set("User-Agent", "TubeSummaryEngine/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return EgressInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return EgressInfo{}, fmt.Errorf("bad status code: %d", resp.StatusCode)
	}

	var info EgressInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return EgressInfo{}, fmt.Errorf("decode egress response: %w", err)
	}
	return info, nil
}
