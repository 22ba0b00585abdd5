package proxy

import "sort"

type FilterPolicy string

const (
	// PolicyPassThrough keeps the listing ranking untouched. Used when
	// availability matters more than quality.
	PolicyPassThrough FilterPolicy = "passthrough"

	// PolicyQuality keeps only candidates with uptime above 70% that are
	// not transparent, ordered best-first by qualityScore. The sort is
	// stable so equal scores keep their listing order.
	PolicyQuality FilterPolicy = "quality"
)

func FilterPolicyFromString(s string) FilterPolicy {
	if s == string(PolicyQuality) {
		return PolicyQuality
	}
	return PolicyPassThrough
}

const minUptimePercent = 70

// Filter applies the given policy and returns a new slice; the input is
// never reordered in place.
func Filter(candidates []*Candidate, policy FilterPolicy) []*Candidate {
	out := make([]*Candidate, 0, len(candidates))
	if policy != PolicyQuality {
		return append(out, candidates...)
	}

	for _, c := range candidates {
		if c.UptimePercent <= minUptimePercent {
			continue
		}
		if c.Anonymity == Transparent {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return qualityScore(out[i]) > qualityScore(out[j])
	})

	return out
}

// qualityScore favors high uptime and low latency. Uptime dominates;
// latency contributes one point per second as a tie-breaking penalty.
func qualityScore(c *Candidate) float64 {
	return c.UptimePercent - c.Latency.Seconds()
}
