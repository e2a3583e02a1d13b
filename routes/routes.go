package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/oauth"

	"github.com/pulsekit/pulse-survey/config"
	"github.com/pulsekit/pulse-survey/routes/middlewares"
	"github.com/pulsekit/pulse-survey/session"
	"github.com/pulsekit/pulse-survey/store"
)

// Deps bundles what the controllers need; Wire hands it out.
type Deps struct {
	Surveys   *store.SurveyStore
	Responses *store.ResponseStore
	Sessions  *session.Manager
	Bearer    *oauth.BearerServer
	Config    config.Config
}

func Wire(deps Deps) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(deps))

	admin := middlewares.Admin(deps.Config.TokenSecret)
	root.
		With(middlewares.CookieAuth(deps.Bearer), admin).
		Mount("/admin", servePrivateFiles("/admin"))
	root.Mount("/", servePublicFiles())

	return root
}

func apiRouter(deps Deps) http.Handler {
	api := chi.NewRouter()

	// respondent flow
	api.Get("/surveys/{slug}", PublicGetSurveyBySlug(deps))
	api.Post("/surveys/{slug}/sessions", StartSession(deps))
	api.Get("/sessions/{id}", GetSessionState(deps))
	api.Post("/sessions/{id}/answers", SubmitAnswer(deps))
	api.Post("/sessions/{id}/advance", AdvanceSession(deps))
	api.Post("/sessions/{id}/retreat", RetreatSession(deps))
	api.Delete("/sessions/{id}", AbandonSession(deps))

	api.Route("/admin", func(r chi.Router) {
		r.Use(middlewares.Admin(deps.Config.TokenSecret))

		// CRUD survey
		r.Post("/surveys", CreateSurvey(deps))
		r.Get("/surveys", ListSurveys(deps))
		r.Get(`/surveys/{id:^\d+$}`, GetSurveyById(deps))
		r.Put(`/surveys/{id:^\d+$}`, UpdateSurvey(deps))
		r.Delete(`/surveys/{id:^\d+$}`, DeleteSurvey(deps))

		r.Post(`/surveys/{id:^\d+$}/tokens`, IssueTokens(deps))
		r.Get(`/surveys/{id:^\d+$}/responses`, GetSurveyResponses(deps))
		r.Get(`/surveys/{id:^\d+$}/report`, GetSurveyReport(deps))
		r.Get(`/surveys/{id:^\d+$}/export.csv`, ExportResponsesCSV(deps))
	})

	api.Post("/login", Login(deps))
	api.Post("/refresh", Refresh(deps))

	return api
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}

func servePrivateFiles(path string) http.Handler {
	return http.StripPrefix(path, http.FileServer(http.Dir("private")))
}
