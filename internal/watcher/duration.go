package watcher

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func containsShortsTag(s string) bool {
	return strings.Contains(strings.ToLower(s), "#shorts")
}

// parseISODuration handles the ISO 8601 subset the videos API emits,
// e.g. "PT1H2M3S", "PT45S", "P1DT2H".
func parseISODuration(s string) (time.Duration, error) {
	if s == "" || s[0] != 'P' {
		return 0, fmt.Errorf("invalid iso duration %q", s)
	}

	var total time.Duration
	inTime := false
	num := ""

	for _, r := range s[1:] {
		switch {
		case r == 'T':
			inTime = true
		case r >= '0' && r <= '9':
			num += string(r)
		default:
			if num == "" {
				return 0, fmt.Errorf("invalid iso duration %q", s)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("invalid iso duration %q", s)
			}
			num = ""

			var unit time.Duration
			switch {
			case r == 'D' && !inTime:
				unit = 24 * time.Hour
			case r == 'H' && inTime:
				unit = time.Hour
			case r == 'M' && inTime:
				unit = time.Minute
			case r == 'S' && inTime:
				unit = time.Second
			default:
				return 0, fmt.Errorf("unsupported iso duration unit %q in %q", r, s)
			}
			total += time.Duration(n) * unit
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid iso duration %q", s)
	}
	return total, nil
}
