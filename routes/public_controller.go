package routes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/pulsekit/pulse-survey/engine"
	"github.com/pulsekit/pulse-survey/httpx"
	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/model"
	"github.com/pulsekit/pulse-survey/session"
	"github.com/pulsekit/pulse-survey/store"
)

// publicSurvey is the definition as the respondent sees it: no webhook
// target, no rules (the server drives navigation).
type publicSurvey struct {
	Slug         string           `json:"slug"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	BrandColor   string           `json:"brandColor,omitempty"`
	RequireToken bool             `json:"requireToken"`
	Questions    []model.Question `json:"questions"`
}

func PublicGetSurveyBySlug(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		survey, err := deps.Surveys.GetBySlug(r.Context(), slug)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "get_survey", slug)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey", err)
			return
		}
		if survey.Status != model.StatusActive {
			httpx.LogStatus(w, http.StatusGone, log.DebugLevel, "get_survey.not_active")
			return
		}

		render.JSON(w, r, publicSurvey{
			Slug:         survey.Slug,
			Title:        survey.Title,
			Description:  survey.Description,
			BrandColor:   survey.BrandColor,
			RequireToken: survey.RequireToken,
			Questions:    survey.Questions,
		})
	}
}

type startSessionRequest struct {
	Token    string `json:"token,omitempty"`
	DeviceID string `json:"deviceId"`
	Language string `json:"language"`
}

func StartSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		req := startSessionRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		survey, err := deps.Surveys.GetBySlug(r.Context(), slug)
		if errors.Is(err, store.ErrNotFound) {
			httpx.LogNotFound(w, "start_session.get_survey", slug)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.start_session.get_survey", err)
			return
		}

		identity := model.Identity{Token: req.Token, DeviceID: req.DeviceID}
		if survey.RequireToken && identity.Token == "" {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "start_session.identity", "this survey requires an invitation token")
			return
		}
		if !survey.RequireToken && identity.DeviceID == "" {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "start_session.identity")
			return
		}

		state, err := deps.Sessions.Start(r.Context(), survey, identity, req.Language, r.UserAgent())
		switch {
		case errors.Is(err, session.ErrNotActive):
			httpx.LogStatus(w, http.StatusGone, log.DebugLevel, "start_session.not_active")
			return
		case errors.Is(err, store.ErrUnknownToken):
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "start_session.token", "this invitation is not valid")
			return
		case errors.Is(err, store.ErrTokenUsed):
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "start_session.token", "this invitation was already used")
			return
		case errors.Is(err, store.ErrAlreadyAnswered):
			httpx.LogStatusMsg(w, http.StatusForbidden, log.DebugLevel, "start_session.device", "this survey was already answered from this device")
			return
		case err != nil:
			httpx.LogInternalError(w, "start_session", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, state)
	}
}

func GetSessionState(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := deps.Sessions.Get(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogNotFound(w, "get_session", chi.URLParam(r, "id"))
			return
		}
		render.JSON(w, r, state)
	}
}

type answerRequest struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

func SubmitAnswer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := answerRequest{}
		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		state, err := deps.Sessions.Answer(chi.URLParam(r, "id"), req.QuestionID, req.Value)
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			httpx.LogNotFound(w, "answer.session", chi.URLParam(r, "id"))
			return
		case errors.Is(err, engine.ErrFinished):
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "answer.finished")
			return
		case errors.Is(err, engine.ErrUnknownQuestion):
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "answer.unknown_question")
			return
		case err != nil:
			httpx.LogInternalError(w, "answer", err)
			return
		}

		render.JSON(w, r, state)
	}
}

func AdvanceSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := deps.Sessions.Advance(r.Context(), chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			httpx.LogNotFound(w, "advance.session", chi.URLParam(r, "id"))
			return
		case errors.Is(err, engine.ErrAnswerRequired):
			// recoverable: the client stays on the current question
			httpx.LogStatus(w, http.StatusUnprocessableEntity, log.DebugLevel, "advance.answer_required")
			return
		case errors.Is(err, engine.ErrFinished):
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "advance.finished")
			return
		case err != nil:
			httpx.LogInternalError(w, "advance.finalize", err)
			return
		}

		render.JSON(w, r, state)
	}
}

func RetreatSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := deps.Sessions.Retreat(chi.URLParam(r, "id"))
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			httpx.LogNotFound(w, "retreat.session", chi.URLParam(r, "id"))
			return
		case errors.Is(err, engine.ErrFinished):
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "retreat.finished")
			return
		case err != nil:
			httpx.LogInternalError(w, "retreat", err)
			return
		}

		render.JSON(w, r, state)
	}
}

func AbandonSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Sessions.Abandon(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogNotFound(w, "abandon.session", chi.URLParam(r, "id"))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
