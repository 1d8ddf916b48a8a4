package scanner

import "sort"

// Select returns the symbols whose probability is at least threshold, in row order
func Select(rows []Row, threshold float64) []string {
	selected := make([]string, 0)
	for _, r := range rows {
		if r.WinProbability >= threshold {
			selected = append(selected, r.Symbol)
		}
	}
	return selected
}

// Bucket counts how many symbols share one probability value
type Bucket struct {
	Probability float64 `json:"probability"`
	Count       int     `json:"count"`
}

// Distribution returns the frequency of each distinct probability, ascending
func Distribution(rows []Row) []Bucket {
	counts := make(map[float64]int)
	for _, r := range rows {
		counts[r.WinProbability]++
	}

	buckets := make([]Bucket, 0, len(counts))
	for p, n := range counts {
		buckets = append(buckets, Bucket{Probability: p, Count: n})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Probability < buckets[j].Probability
	})
	return buckets
}
