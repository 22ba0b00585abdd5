package proxy

import "time"

// DefaultMaxSize caps how many candidates one pool generation holds.
const DefaultMaxSize = 25

// Pool is one immutable generation of candidates, ordered by listing
// rank. A refresh builds a new Pool; entries are never added or removed
// within a generation.
type Pool struct {
	Candidates []*Candidate
	FetchedAt  time.Time
	ExpiresAt  time.Time
}

// NewPool builds a generation from candidates, dropping duplicate
// addresses (first occurrence wins) and truncating at maxSize. A
// maxSize of zero or less falls back to DefaultMaxSize.
func NewPool(candidates []*Candidate, fetchedAt time.Time, ttl time.Duration, maxSize int) *Pool {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	seen := make(map[string]struct{}, len(candidates))
	kept := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		addr := c.Address()
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}
		kept = append(kept, c)
		if len(kept) == maxSize {
			break
		}
	}

	return &Pool{
		Candidates: kept,
		FetchedAt:  fetchedAt,
		ExpiresAt:  fetchedAt.Add(ttl),
	}
}

func (p *Pool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.Candidates)
}

func (p *Pool) Expired(now time.Time) bool {
	if p == nil {
		return true
	}
	return !now.Before(p.ExpiresAt)
}
