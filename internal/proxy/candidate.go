package proxy

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Protocol string

const (
	HTTP  Protocol = "http"
	HTTPS Protocol = "https"
)

type AnonymityLevel string

const (
	Transparent AnonymityLevel = "transparent"
	Anonymous   AnonymityLevel = "anonymous"
	Elite       AnonymityLevel = "elite"
	Unknown     AnonymityLevel = "unknown"
)

func AnonymityLevelFromString(s string) AnonymityLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transparent":
		return Transparent
	case "anonymous":
		return Anonymous
	case "elite", "high anonymity":
		return Elite
	default:
		return Unknown
	}
}

// Candidate sources.
const (
	SourceListingAPI   = "listing-api"
	SourceFallbackFile = "fallback-file"
)

type ErrInvalidAddress struct {
	Address string
}

func (e *ErrInvalidAddress) Error() string {
	return fmt.Sprintf("invalid proxy address %q", e.Address)
}

// Candidate is one proxy entry in a pool generation. Identity is the
// host:port pair; the remaining fields are listing metadata plus the
// failure bookkeeping maintained by the Manager.
type Candidate struct {
	Host           string
	Port           int
	Protocol       Protocol
	UptimePercent  float64
	Latency        time.Duration
	Anonymity      AnonymityLevel
	Source         string
	LastVerifiedAt *time.Time
	FailCount      int
}

func NewCandidate(host string, port int, protocol Protocol, source string) (*Candidate, error) {
	if !validHost(host) || port < 1 || port > 65535 {
		return nil, &ErrInvalidAddress{Address: net.JoinHostPort(host, strconv.Itoa(port))}
	}
	return &Candidate{
		Host:      host,
		Port:      port,
		Protocol:  protocol,
		Anonymity: Unknown,
		Source:    source,
	}, nil
}

// ParseAddress splits and validates a host:port pair.
func ParseAddress(address string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return "", 0, &ErrInvalidAddress{Address: address}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 || !validHost(host) {
		return "", 0, &ErrInvalidAddress{Address: address}
	}
	return host, port, nil
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	if net.ParseIP(host) != nil {
		return true
	}
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return false
		}
	}
	return !strings.HasPrefix(host, "-") && !strings.HasSuffix(host, "-")
}

func (c *Candidate) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *Candidate) URL() *url.URL {
	return &url.URL{
		Scheme: string(c.Protocol),
		Host:   c.Address(),
	}
}

func (c *Candidate) MarkVerified(at time.Time, latency time.Duration) {
	c.FailCount = 0
	c.Latency = latency
	c.LastVerifiedAt = &at
}

// MarkFailure stales the verification timestamp and bumps the failure
// counter. Membership in the pool is untouched; removal only happens on
// the next refresh.
func (c *Candidate) MarkFailure() {
	c.FailCount++
	c.LastVerifiedAt = nil
}

// Clone returns an independent copy; mutating one side never shows on
// the other.
func (c *Candidate) Clone() *Candidate {
	out := *c
	if c.LastVerifiedAt != nil {
		at := *c.LastVerifiedAt
		out.LastVerifiedAt = &at
	}
	return &out
}
