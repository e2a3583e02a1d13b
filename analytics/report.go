package analytics

import (
	"strconv"
	"strings"

	"github.com/pulsekit/pulse-survey/model"
)

// QuestionReport holds whichever analysis applies to the question type.
type QuestionReport struct {
	QuestionID string             `json:"questionId"`
	Type       model.QuestionType `json:"type"`
	Label      string             `json:"label"`

	NPS    *NPSReport    `json:"nps,omitempty"`
	Likert *LikertReport `json:"likert,omitempty"`
	Text   *TextReport   `json:"text,omitempty"`
	Choice *ChoiceReport `json:"choice,omitempty"`
}

type SurveyReport struct {
	SurveyID        int              `json:"surveyId"`
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	Responses       int              `json:"responses"`
	Questions       []QuestionReport `json:"questions"`
	Trend           TrendDirection   `json:"trend"`
	Daily           []DailyScore     `json:"daily,omitempty"`
	Recommendations []string         `json:"recommendations"`
}

// Report runs every applicable analysis over the response set. The
// trend and recommendations derive from the first NPS question.
func Report(survey *model.Survey, responses []model.Response, classifier Sentiment) SurveyReport {
	rep := SurveyReport{
		SurveyID:  survey.ID,
		Slug:      survey.Slug,
		Title:     survey.Title,
		Responses: len(responses),
		Trend:     TrendStable,
	}

	var primary *NPSReport
	for _, q := range survey.Questions {
		qr := QuestionReport{QuestionID: q.ID, Type: q.Type, Label: q.Label}

		switch q.Type {
		case model.TypeNPS:
			nps := NPS(answersAsInts(responses, q.ID))
			qr.NPS = &nps
			if primary == nil {
				primary = &nps
				rep.Daily = DailyNPS(responses, q.ID)
				rep.Trend = Trend(rep.Daily)
			}
		case model.TypeLikert:
			likert := Likert(answersAsInts(responses, q.ID))
			qr.Likert = &likert
		case model.TypeText, model.TypeTextarea:
			text := Text(answersAsStrings(responses, q.ID), classifier)
			qr.Text = &text
		case model.TypeRadio, model.TypeSelect:
			choice := Choice(q.Options, answersAsStrings(responses, q.ID))
			qr.Choice = &choice
		}

		rep.Questions = append(rep.Questions, qr)
	}

	if primary != nil {
		rep.Recommendations = Recommendations(*primary, rep.Trend)
	}
	return rep
}

func answersAsInts(responses []model.Response, questionID string) []int {
	values := make([]int, 0, len(responses))
	for _, r := range responses {
		if v, ok := answerAsInt(r.Answers[questionID]); ok {
			values = append(values, v)
		}
	}
	return values
}

func answersAsStrings(responses []model.Response, questionID string) []string {
	values := make([]string, 0, len(responses))
	for _, r := range responses {
		switch v := r.Answers[questionID].(type) {
		case string:
			values = append(values, v)
		case []any:
			for _, e := range v {
				if s, ok := e.(string); ok {
					values = append(values, s)
				}
			}
		}
	}
	return values
}

func answerAsInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}
