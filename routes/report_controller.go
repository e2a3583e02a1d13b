package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/pulsekit/pulse-survey/analytics"
	"github.com/pulsekit/pulse-survey/httpx"
	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/model"
	"github.com/pulsekit/pulse-survey/store"
)

func loadSurveyAndResponses(deps Deps, w http.ResponseWriter, r *http.Request) (*model.Survey, []model.Response, bool) {
	surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
		return nil, nil, false
	}

	survey, err := deps.Surveys.GetByID(r.Context(), surveyId)
	if errors.Is(err, store.ErrNotFound) {
		httpx.LogNotFound(w, "report.get_survey", surveyId)
		return nil, nil, false
	}
	if err != nil {
		httpx.LogInternalError(w, "db.report.get_survey", err)
		return nil, nil, false
	}

	responses, err := deps.Responses.ListBySurvey(r.Context(), surveyId)
	if err != nil {
		httpx.LogInternalError(w, "db.report.get_responses", err)
		return nil, nil, false
	}
	return survey, responses, true
}

func GetSurveyReport(deps Deps) http.HandlerFunc {
	classifier := analytics.NewKeywordSentiment()

	return func(w http.ResponseWriter, r *http.Request) {
		survey, responses, ok := loadSurveyAndResponses(deps, w, r)
		if !ok {
			return
		}

		render.JSON(w, r, analytics.Report(survey, responses, classifier))
	}
}

func ExportResponsesCSV(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey, responses, ok := loadSurveyAndResponses(deps, w, r)
		if !ok {
			return
		}

		w.Header().Set("content-type", "text/csv; charset=utf-8")
		w.Header().Set("content-disposition",
			fmt.Sprintf("attachment; filename=%q", survey.Slug+"-responses.csv"))

		if err := analytics.WriteCSV(w, survey, responses); err != nil {
			// headers are out already; just log
			log.Errorf("report.export_csv: %s", err)
		}
	}
}
