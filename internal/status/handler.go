package status

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/JulianoL13/tube-summary-engine/internal/bot"
	"github.com/JulianoL13/tube-summary-engine/internal/logs"
	"github.com/JulianoL13/tube-summary-engine/internal/proxy"
)

// PoolReader defines what the handler needs from the proxy pool
type PoolReader interface {
	State() proxy.State
	Snapshot() *proxy.Pool
}

// QueueReader defines what the handler needs from the bot
type QueueReader interface {
	QueueSnapshot() []bot.ChannelQueue
}

type Handler struct {
	pool   PoolReader
	queue  QueueReader
	logger logs.Logger
}

func NewHandler(pool PoolReader, queue QueueReader, logger logs.Logger) *Handler {
	return &Handler{
		pool:   pool,
		queue:  queue,
		logger: logger,
	}
}

// ProxyResponse is the JSON representation of a pooled proxy
type ProxyResponse struct {
	Address       string  `json:"address"`
	Protocol      string  `json:"protocol"`
	Anonymity     string  `json:"anonymity"`
	UptimePercent float64 `json:"uptime_percent"`
	Latency       int64   `json:"latency_ms"`
	Source        string  `json:"source"`
	FailCount     int     `json:"fail_count"`
}

func toResponse(c *proxy.Candidate) ProxyResponse {
	return ProxyResponse{
		Address:       c.Address(),
		Protocol:      string(c.Protocol),
		Anonymity:     string(c.Anonymity),
		UptimePercent: c.UptimePercent,
		Latency:       c.Latency.Milliseconds(),
		Source:        c.Source,
		FailCount:     c.FailCount,
	}
}

type poolResponse struct {
	State     string          `json:"state"`
	Size      int             `json:"size"`
	FetchedAt *time.Time      `json:"fetched_at,omitempty"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Proxies   []ProxyResponse `json:"proxies"`
}

// Health returns service health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// GetPool returns the current proxy pool generation
func (h *Handler) GetPool(w http.ResponseWriter, r *http.Request) {
	resp := poolResponse{
		State:   string(h.pool.State()),
		Proxies: []ProxyResponse{},
	}

	if pool := h.pool.Snapshot(); pool != nil {
		resp.Size = pool.Size()
		resp.FetchedAt = &pool.FetchedAt
		resp.ExpiresAt = &pool.ExpiresAt
		for _, c := range pool.Candidates {
			resp.Proxies = append(resp.Proxies, toResponse(c))
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetQueue returns the per-channel processing queues
func (h *Handler) GetQueue(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.queue.QueueSnapshot())
}
