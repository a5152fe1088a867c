package tally

import "fmt"

// Vote is a single option's label and current count.
type Vote struct {
	Label string
	Count uint64
}

// Share is a [Vote] with its computed portion of the total.
type Share struct {
	// Label is the option's display label.
	Label string

	// Count is the raw vote count.
	Count uint64

	// Percentage is Count / total * 100, or 0 when the total is 0.
	Percentage float64

	// Size is Percentage / 100, a fraction in [0, 1] for bar widths.
	Size float64

	// Text is Percentage with exactly one decimal place and a "%" suffix.
	Text string
}

// Total returns the sum of all counts.
//
// The sum is a float64 so counts near the uint64 limit cannot wrap around.
func Total(votes []Vote) float64 {
	var total float64
	for _, v := range votes {
		total += float64(v.Count)
	}
	return total
}

// Compute returns one [Share] per vote, in the same order.
//
// A zero total (including an empty slice) yields 0% for every option, never NaN.
func Compute(votes []Vote) []Share {
	total := Total(votes)

	shares := make([]Share, len(votes))
	for i, v := range votes {
		pct := Percentage(v.Count, total)
		shares[i] = Share{
			Label:      v.Label,
			Count:      v.Count,
			Percentage: pct,
			Size:       pct / 100,
			Text:       FormatPercent(pct),
		}
	}
	return shares
}

// Percentage returns count as a percentage of total.
func Percentage(count uint64, total float64) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / total * 100
}

// FormatPercent renders p with one decimal place, e.g. 75 → "75.0%".
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
