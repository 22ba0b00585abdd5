package store

import (
	"errors"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
)

// ErrNotFound means no usable pool is persisted. Corrupt state maps to
// the same error: the manager treats both as an empty start.
var ErrNotFound = errors.New("no persisted proxy pool")

// document is the serialized shape shared by the file and redis stores.
type document struct {
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Proxies   []record  `json:"proxies"`
}

type record struct {
	Address        string     `json:"address"`
	Protocol       string     `json:"protocol"`
	UptimePercent  float64    `json:"uptime_percent"`
	LatencyMs      int64      `json:"latency_ms"`
	Anonymity      string     `json:"anonymity"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
}

func encode(pool *proxy.Pool) document {
	doc := document{
		FetchedAt: pool.FetchedAt,
		ExpiresAt: pool.ExpiresAt,
		Proxies:   make([]record, 0, pool.Size()),
	}
	for _, c := range pool.Candidates {
		doc.Proxies = append(doc.Proxies, record{
			Address:        c.Address(),
			Protocol:       string(c.Protocol),
			UptimePercent:  c.UptimePercent,
			LatencyMs:      c.Latency.Milliseconds(),
			Anonymity:      string(c.Anonymity),
			LastVerifiedAt: c.LastVerifiedAt,
		})
	}
	return doc
}

// decode rebuilds a pool from a document. Records with unparseable
// addresses are skipped; they must never re-enter a pool.
func decode(doc document) *proxy.Pool {
	candidates := make([]*proxy.Candidate, 0, len(doc.Proxies))
	for _, r := range doc.Proxies {
		host, port, err := proxy.ParseAddress(r.Address)
		if err != nil {
			continue
		}
		c, err := proxy.NewCandidate(host, port, proxy.Protocol(r.Protocol), proxy.SourceFallbackFile)
		if err != nil {
			continue
		}
		c.UptimePercent = r.UptimePercent
		c.Latency = time.Duration(r.LatencyMs) * time.Millisecond
		c.Anonymity = proxy.AnonymityLevelFromString(r.Anonymity)
		c.LastVerifiedAt = r.LastVerifiedAt
		candidates = append(candidates, c)
	}

	return &proxy.Pool{
		Candidates: candidates,
		FetchedAt:  doc.FetchedAt,
		ExpiresAt:  doc.ExpiresAt,
	}
}
