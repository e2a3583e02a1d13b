package analytics

// LikertReport aggregates a 1-5 agreement question.
type LikertReport struct {
	Total     int     `json:"total"`
	Mean      float64 `json:"mean"`
	Histogram [5]int  `json:"histogram"` // index 0 holds the count of 1s
	Label     string  `json:"label"`
}

func Likert(values []int) (rep LikertReport) {
	valid := make([]int, 0, len(values))
	for _, v := range values {
		if v < 1 || v > 5 {
			continue
		}
		valid = append(valid, v)
		rep.Histogram[v-1]++
	}

	rep.Total = len(valid)
	if rep.Total == 0 {
		return
	}
	rep.Mean = mean(valid)
	rep.Label = satisfactionLabel(rep.Mean)
	return
}

func satisfactionLabel(mean float64) string {
	switch {
	case mean >= 4.5:
		return "very satisfied"
	case mean >= 3.5:
		return "satisfied"
	case mean >= 2.5:
		return "neutral"
	case mean >= 1.5:
		return "dissatisfied"
	default:
		return "very dissatisfied"
	}
}
