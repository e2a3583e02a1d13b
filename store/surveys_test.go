package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/pulse-survey/model"
)

func TestSurveyCRUD(t *testing.T) {
	db := openTestDB(t)
	surveys := NewSurveyStore(db)
	ctx := context.Background()

	survey := deviceSurvey()
	survey.Rules = []model.Rule{{
		When: model.Condition{QuestionID: "nps", Operator: model.OpLess, Value: 7},
		Then: []model.Action{{Kind: model.ActionMakeRequired, Target: "nps"}},
	}}

	id, err := surveys.Create(ctx, survey)
	require.NoError(t, err)

	t.Run("get by id and slug agree", func(t *testing.T) {
		byID, err := surveys.GetByID(ctx, id)
		require.NoError(t, err)
		bySlug, err := surveys.GetBySlug(ctx, survey.Slug)
		require.NoError(t, err)
		assert.Equal(t, byID, bySlug)
		assert.Len(t, byID.Questions, 1)
		assert.Len(t, byID.Rules, 1)
		assert.Equal(t, model.StatusActive, byID.Status)
	})

	t.Run("missing survey", func(t *testing.T) {
		_, err := surveys.GetBySlug(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update bumps version with optimistic lock", func(t *testing.T) {
		current, err := surveys.GetByID(ctx, id)
		require.NoError(t, err)

		current.Title = "Walk-in feedback v2"
		require.NoError(t, surveys.Update(ctx, current))

		// stale version loses
		err = surveys.Update(ctx, current)
		assert.ErrorIs(t, err, ErrConflict)

		updated, err := surveys.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Walk-in feedback v2", updated.Title)
		assert.Equal(t, current.Version+1, updated.Version)
	})

	t.Run("list", func(t *testing.T) {
		all, err := surveys.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, surveys.Delete(ctx, id))
		_, err := surveys.GetByID(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, surveys.Delete(ctx, id), ErrNotFound)
	})
}

func TestSurveyValidationRejected(t *testing.T) {
	db := openTestDB(t)
	surveys := NewSurveyStore(db)

	bad := deviceSurvey()
	bad.Questions = append(bad.Questions, model.Question{
		ID: "fav", Type: model.TypeRadio, Label: "Favorite", Visible: true,
	})

	_, err := surveys.Create(context.Background(), bad)
	assert.Error(t, err)
}

func TestResponseAppendAndList(t *testing.T) {
	db := openTestDB(t)
	survey := createSurvey(t, db, deviceSurvey())
	responses := NewResponseStore(db)
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Second)
	r := model.Response{
		ID:         uuid.NewString(),
		SurveyID:   survey.ID,
		DeviceID:   "dev-1",
		Answers:    model.Answers{"nps": 9.0},
		StartedAt:  started,
		EndedAt:    started.Add(90 * time.Second),
		DurationMs: 90_000,
		Language:   "en",
	}
	require.NoError(t, responses.Append(ctx, r))

	list, err := responses.ListBySurvey(ctx, survey.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)
	assert.Equal(t, model.Answers{"nps": 9.0}, list[0].Answers)
	assert.Equal(t, int64(90_000), list[0].DurationMs)
}
