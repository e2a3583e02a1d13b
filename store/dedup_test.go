package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/pulse-survey/model"
)

func TestTokenPolicy(t *testing.T) {
	db := openTestDB(t)
	survey := createSurvey(t, db, tokenSurvey())
	guard := NewDedupGuard(db)
	surveys := NewSurveyStore(db)
	ctx := context.Background()

	tokens, err := surveys.IssueTokens(ctx, survey.ID, 2)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	identity := model.Identity{Token: tokens[0], DeviceID: "dev-1"}

	t.Run("unknown token rejected", func(t *testing.T) {
		err := guard.CanAttempt(ctx, survey, model.Identity{Token: "nope"})
		assert.ErrorIs(t, err, ErrUnknownToken)
	})

	t.Run("fresh token admitted then consumed", func(t *testing.T) {
		require.NoError(t, guard.CanAttempt(ctx, survey, identity))
		require.NoError(t, guard.Consume(ctx, survey, identity))

		err := guard.CanAttempt(ctx, survey, identity)
		assert.ErrorIs(t, err, ErrTokenUsed)
	})

	t.Run("double consume rejected", func(t *testing.T) {
		err := guard.Consume(ctx, survey, identity)
		assert.ErrorIs(t, err, ErrTokenUsed)
	})

	t.Run("other tokens unaffected", func(t *testing.T) {
		require.NoError(t, guard.CanAttempt(ctx, survey, model.Identity{Token: tokens[1]}))
	})
}

func TestDevicePolicy(t *testing.T) {
	db := openTestDB(t)
	survey := createSurvey(t, db, deviceSurvey())
	guard := NewDedupGuard(db)
	ctx := context.Background()

	identity := model.Identity{DeviceID: "dev-1"}

	require.NoError(t, guard.CanAttempt(ctx, survey, identity))
	require.NoError(t, guard.Consume(ctx, survey, identity))

	t.Run("same device rejected after completion", func(t *testing.T) {
		err := guard.CanAttempt(ctx, survey, identity)
		assert.ErrorIs(t, err, ErrAlreadyAnswered)
	})

	t.Run("consume is not repeatable", func(t *testing.T) {
		err := guard.Consume(ctx, survey, identity)
		assert.ErrorIs(t, err, ErrAlreadyAnswered)
	})

	t.Run("other devices unaffected", func(t *testing.T) {
		require.NoError(t, guard.CanAttempt(ctx, survey, model.Identity{DeviceID: "dev-2"}))
	})
}
