package analytics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pulsekit/pulse-survey/model"
)

// Flatten turns a response set into CSV rows: one header row with the
// fixed columns followed by one column per question, then one row per
// response in collection order.
func Flatten(survey *model.Survey, responses []model.Response) [][]string {
	header := []string{"response_id", "device_id", "token", "started_at", "ended_at", "duration_ms", "language"}
	for _, q := range survey.Questions {
		header = append(header, q.ID)
	}

	rows := [][]string{header}
	for _, r := range responses {
		row := []string{
			r.ID,
			r.DeviceID,
			r.Token,
			r.StartedAt.UTC().Format(time.RFC3339),
			r.EndedAt.UTC().Format(time.RFC3339),
			fmt.Sprint(r.DurationMs),
			r.Language,
		}
		for _, q := range survey.Questions {
			row = append(row, cellValue(r.Answers[q.ID]))
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV streams the flattened response set.
func WriteCSV(w io.Writer, survey *model.Survey, responses []model.Response) error {
	cw := csv.NewWriter(w)
	for _, row := range Flatten(survey, responses) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cellValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprint(int64(t))
		}
		return fmt.Sprint(t)
	}
	// multi-value and structured answers keep their JSON form
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
