// Package analytics computes read-only reports over a completed
// response collection. Nothing here mutates survey or response data.
package analytics

import (
	"math"
	"sort"
)

// NPSReport aggregates a 0-10 recommendation question.
type NPSReport struct {
	Total      int `json:"total"`
	Promoters  int `json:"promoters"`
	Passives   int `json:"passives"`
	Detractors int `json:"detractors"`

	PromoterPct  float64 `json:"promoterPct"`
	PassivePct   float64 `json:"passivePct"`
	DetractorPct float64 `json:"detractorPct"`

	// Score = round(100*promoters/total) - round(100*detractors/total),
	// 0 for an empty set. Always within [-100, 100].
	Score int `json:"score"`

	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Mode      int     `json:"mode"`
	Histogram [11]int `json:"histogram"`
}

// NPS partitions scores into promoters (>=9), passives (7-8) and
// detractors (<=6). Scores outside 0-10 are ignored.
func NPS(scores []int) (rep NPSReport) {
	valid := make([]int, 0, len(scores))
	for _, s := range scores {
		if s < 0 || s > 10 {
			continue
		}
		valid = append(valid, s)
		rep.Histogram[s]++
		switch {
		case s >= 9:
			rep.Promoters++
		case s >= 7:
			rep.Passives++
		default:
			rep.Detractors++
		}
	}

	rep.Total = len(valid)
	if rep.Total == 0 {
		return
	}

	total := float64(rep.Total)
	rep.PromoterPct = 100 * float64(rep.Promoters) / total
	rep.PassivePct = 100 * float64(rep.Passives) / total
	rep.DetractorPct = 100 * float64(rep.Detractors) / total
	rep.Score = int(math.Round(rep.PromoterPct)) - int(math.Round(rep.DetractorPct))

	rep.Mean = mean(valid)
	rep.Median = median(valid)
	rep.Mode = mode(valid)
	return
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func median(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int(nil), values...)
	sort.Ints(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return float64(sorted[mid-1]+sorted[mid]) / 2
	}
	return float64(sorted[mid])
}

// mode returns the most frequent value; ties break toward the lower one.
func mode(values []int) int {
	counts := map[int]int{}
	for _, v := range values {
		counts[v]++
	}
	best, bestCount := 0, -1
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}
