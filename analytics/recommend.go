package analytics

// Recommendations maps score bands and response volume to advisory
// strings. A fixed table, purely derived from the report.
func Recommendations(nps NPSReport, trend TrendDirection) []string {
	var advice []string

	if nps.Total == 0 {
		return []string{"No responses yet: share the survey link or issue invitation tokens."}
	}
	if nps.Total < 10 {
		advice = append(advice, "Fewer than 10 responses: treat the score as indicative only.")
	}

	switch {
	case nps.Score < 0:
		advice = append(advice, "Negative NPS: detractors outnumber promoters. Read the free-text answers and follow up with recent detractors.")
	case nps.Score < 30:
		advice = append(advice, "NPS below 30: room to grow. Look at what passives are missing to become promoters.")
	case nps.Score < 70:
		advice = append(advice, "Healthy NPS. Keep monitoring the trend and double down on what promoters praise.")
	default:
		advice = append(advice, "Excellent NPS. Consider asking promoters for public reviews or referrals.")
	}

	if nps.DetractorPct >= 30 {
		advice = append(advice, "Over 30% detractors: prioritize the most common complaints in the keyword table.")
	}

	switch trend {
	case TrendDeclining:
		advice = append(advice, "Score is declining: compare recent responses against older ones for what changed.")
	case TrendImproving:
		advice = append(advice, "Score is improving: recent changes are landing well.")
	}

	return advice
}
