package analytics

import "sort"

type OptionCount struct {
	Option string `json:"option"`
	Count  int    `json:"count"`
}

type ChoiceReport struct {
	Total        int           `json:"total"`
	Frequencies  []OptionCount `json:"frequencies"` // descending
	MostPopular  string        `json:"mostPopular"`
	LeastPopular string        `json:"leastPopular"`
}

// Choice counts picks per option. Options never picked still appear
// with a zero count so the least popular one is meaningful.
func Choice(options []string, picks []string) (rep ChoiceReport) {
	counts := make(map[string]int, len(options))
	for _, o := range options {
		counts[o] = 0
	}
	for _, p := range picks {
		if _, known := counts[p]; !known {
			continue
		}
		counts[p]++
		rep.Total++
	}

	rep.Frequencies = make([]OptionCount, 0, len(counts))
	for o, n := range counts {
		rep.Frequencies = append(rep.Frequencies, OptionCount{Option: o, Count: n})
	}
	sort.Slice(rep.Frequencies, func(i, j int) bool {
		if rep.Frequencies[i].Count != rep.Frequencies[j].Count {
			return rep.Frequencies[i].Count > rep.Frequencies[j].Count
		}
		return rep.Frequencies[i].Option < rep.Frequencies[j].Option
	})

	if len(rep.Frequencies) > 0 {
		rep.MostPopular = rep.Frequencies[0].Option
		rep.LeastPopular = rep.Frequencies[len(rep.Frequencies)-1].Option
	}
	return
}
