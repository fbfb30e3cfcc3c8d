package extractor

import (
	"strconv"
	"strings"
)

var metricSuffixes = []struct {
	suffix     string
	multiplier float64
}{
	{"K", 1e3},
	{"M", 1e6},
	{"B", 1e9},
}

// ParseMetric parses an engagement count rendered as text. A trailing
// K/M/B (case-insensitive) multiplies the numeric prefix by 1e3/1e6/1e9;
// otherwise digits are extracted directly. Unparseable text yields 0.
func ParseMetric(text string) int {
	if text == "" {
		return 0
	}

	text = strings.ToUpper(strings.TrimSpace(text))

	for _, m := range metricSuffixes {
		if strings.Contains(text, m.suffix) {
			number := strings.ReplaceAll(text, m.suffix, "")
			number = strings.ReplaceAll(number, ",", "")
			if f, err := strconv.ParseFloat(number, 64); err == nil {
				return int(f * m.multiplier)
			}
		}
	}

	var digits strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}
