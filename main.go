package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/pulsekit/pulse-survey/config"
	"github.com/pulsekit/pulse-survey/database"
	"github.com/pulsekit/pulse-survey/httpx"
	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/routes"
	"github.com/pulsekit/pulse-survey/session"
	"github.com/pulsekit/pulse-survey/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	drafts := store.NewDraftStore(db)
	guard := store.NewDedupGuard(db)
	responses := store.NewResponseStore(db)
	notifier := session.NewNotifier(cfg.WebhookTimeout)

	deps := routes.Deps{
		Surveys:   store.NewSurveyStore(db),
		Responses: responses,
		Sessions:  session.NewManager(drafts, guard, responses, notifier, cfg.DraftInterval),
		Bearer:    httpx.NewBearerServer(db, cfg),
		Config:    cfg,
	}

	handler := routes.Wire(deps)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
