package analytics

import (
	"sort"
	"time"

	"github.com/pulsekit/pulse-survey/model"
)

type TrendDirection string

const (
	TrendStable    TrendDirection = "stable"
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
)

type DailyScore struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Score int    `json:"score"`
}

// Trend compares the first and last day of a time-ordered NPS series:
// a swing under 5 points is stable, otherwise the sign decides.
func Trend(series []DailyScore) TrendDirection {
	if len(series) < 2 {
		return TrendStable
	}
	delta := series[len(series)-1].Score - series[0].Score
	switch {
	case delta >= 5:
		return TrendImproving
	case delta <= -5:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// DailyNPS buckets responses by completion day and scores each bucket.
func DailyNPS(responses []model.Response, questionID string) []DailyScore {
	byDay := map[string][]int{}
	for _, r := range responses {
		score, ok := answerAsInt(r.Answers[questionID])
		if !ok {
			continue
		}
		day := r.EndedAt.UTC().Format(time.DateOnly)
		byDay[day] = append(byDay[day], score)
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	series := make([]DailyScore, 0, len(days))
	for _, d := range days {
		series = append(series, DailyScore{Day: d, Score: NPS(byDay[d]).Score})
	}
	return series
}
