package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulsekit/pulse-survey/config"
	"github.com/pulsekit/pulse-survey/database"
	"github.com/pulsekit/pulse-survey/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(config.Config{
		DBUrl: filepath.Join(t.TempDir(), "test.sqlite"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createSurvey(t *testing.T, db *sql.DB, survey *model.Survey) *model.Survey {
	t.Helper()
	surveys := NewSurveyStore(db)
	id, err := surveys.Create(context.Background(), survey)
	require.NoError(t, err)
	created, err := surveys.GetByID(context.Background(), id)
	require.NoError(t, err)
	return created
}

func tokenSurvey() *model.Survey {
	return &model.Survey{
		Slug:         "vip-feedback",
		Title:        "VIP feedback",
		Status:       model.StatusActive,
		RequireToken: true,
		Questions: []model.Question{
			{ID: "nps", Type: model.TypeNPS, Label: "Recommend?", Required: true, Visible: true},
		},
	}
}

func deviceSurvey() *model.Survey {
	return &model.Survey{
		Slug:   "walk-in-feedback",
		Title:  "Walk-in feedback",
		Status: model.StatusActive,
		Questions: []model.Question{
			{ID: "nps", Type: model.TypeNPS, Label: "Recommend?", Required: true, Visible: true},
		},
	}
}
