package routes

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/pulsekit/pulse-survey/httpx"
	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/model"
	"github.com/pulsekit/pulse-survey/store"
)

func CreateSurvey(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		survey := model.Survey{}
		err := render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if survey.Status == "" {
			survey.Status = model.StatusDraft
		}

		id, err := deps.Surveys.Create(r.Context(), &survey)
		if err != nil {
			if verr := survey.Validate(); verr != nil {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "db.insert_survey.validate", "%s", verr)
				return
			}
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": id,
		})
	}
}

func ListSurveys(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveys, err := deps.Surveys.List(r.Context())
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey, err := deps.Surveys.GetByID(r.Context(), surveyId)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}

		render.JSON(w, r, survey)
	}
}

func UpdateSurvey(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		survey := model.Survey{}
		err = render.DecodeJSON(r.Body, &survey)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		survey.ID = surveyId

		err = deps.Surveys.Update(r.Context(), &survey)
		switch {
		case errors.Is(err, store.ErrConflict):
			// optimistic lock
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_survey.verify.conflict")
			return
		case err != nil:
			if verr := survey.Validate(); verr != nil {
				httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "db.update_survey.validate", "%s", verr)
				return
			}
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		err = deps.Surveys.Delete(r.Context(), surveyId)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type issueTokensRequest struct {
	Count int `json:"count"`
}

func IssueTokens(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		req := issueTokensRequest{}
		err = render.DecodeJSON(r.Body, &req)
		if err != nil || req.Count < 1 {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		tokens, err := deps.Surveys.IssueTokens(r.Context(), surveyId, req.Count)
		if err != nil {
			httpx.LogInternalError(w, "db.issue_tokens", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"tokens": tokens,
		})
	}
}

func GetSurveyResponses(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		responses, err := deps.Responses.ListBySurvey(r.Context(), surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}
