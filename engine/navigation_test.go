package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/pulse-survey/model"
)

func testSurvey(rules ...model.Rule) *model.Survey {
	return &model.Survey{
		ID:     1,
		Slug:   "team-pulse",
		Status: model.StatusActive,
		Questions: []model.Question{
			{ID: "q1", Type: model.TypeRadio, Label: "Branch", Required: true, Visible: true, Options: []string{"A", "B"}},
			{ID: "q2", Type: model.TypeText, Label: "Details", Visible: true},
			{ID: "q3", Type: model.TypeNPS, Label: "Recommend us?", Required: true, Visible: true},
		},
		Rules: rules,
	}
}

func start(t *testing.T, survey *model.Survey) *Session {
	t.Helper()
	return NewSession(survey, model.Identity{DeviceID: "dev-1"}, "en", time.Now())
}

func TestInitialStateIsFirstVisibleQuestion(t *testing.T) {
	s := start(t, testSurvey())
	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Len(t, s.Visible, 3)
}

func TestAdvanceRefusedWhileRequiredUnanswered(t *testing.T) {
	s := start(t, testSurvey())

	assert.False(t, s.CanAdvance())
	err := s.Advance()
	assert.ErrorIs(t, err, ErrAnswerRequired)
	assert.Equal(t, 0, s.CurrentIndex)

	require.NoError(t, s.SetAnswer("q1", "A"))
	require.NoError(t, s.Advance())
	assert.Equal(t, 1, s.CurrentIndex)
}

func TestAdvancePermittedOnOptionalQuestion(t *testing.T) {
	s := start(t, testSurvey())
	require.NoError(t, s.SetAnswer("q1", "A"))
	require.NoError(t, s.Advance())

	// q2 is optional and unanswered
	require.NoError(t, s.Advance())
	assert.Equal(t, 2, s.CurrentIndex)
}

func TestRetreatAlwaysPermitted(t *testing.T) {
	s := start(t, testSurvey())
	require.NoError(t, s.SetAnswer("q1", "A"))
	require.NoError(t, s.Advance())

	require.NoError(t, s.Retreat())
	assert.Equal(t, 0, s.CurrentIndex)

	// retreating at the first question stays put
	require.NoError(t, s.Retreat())
	assert.Equal(t, 0, s.CurrentIndex)
}

func TestMakeRequiredGatesAdvance(t *testing.T) {
	survey := testSurvey(model.Rule{
		When: model.Condition{QuestionID: "q1", Operator: model.OpEquals, Value: "B"},
		Then: []model.Action{{Kind: model.ActionMakeRequired, Target: "q2"}},
	})

	t.Run("branch A leaves q2 optional", func(t *testing.T) {
		s := start(t, survey)
		require.NoError(t, s.SetAnswer("q1", "A"))
		require.NoError(t, s.Advance())
		require.NoError(t, s.Advance())
		assert.Equal(t, 2, s.CurrentIndex)
	})

	t.Run("branch B forces q2", func(t *testing.T) {
		s := start(t, survey)
		require.NoError(t, s.SetAnswer("q1", "B"))
		require.NoError(t, s.Advance())

		err := s.Advance()
		assert.ErrorIs(t, err, ErrAnswerRequired)

		require.NoError(t, s.SetAnswer("q2", "because"))
		require.NoError(t, s.Advance())
		assert.Equal(t, 2, s.CurrentIndex)
	})
}

func TestHideRuleClampsIndex(t *testing.T) {
	survey := testSurvey(model.Rule{
		When: model.Condition{QuestionID: "q1", Operator: model.OpEquals, Value: "B"},
		Then: []model.Action{{Kind: model.ActionHide, Target: "q3"}},
	})
	s := start(t, survey)

	require.NoError(t, s.SetAnswer("q1", "A"))
	require.NoError(t, s.Advance())
	require.NoError(t, s.Advance())
	assert.Equal(t, 2, s.CurrentIndex) // on q3

	// changing the earlier answer hides q3 under the cursor
	require.NoError(t, s.SetAnswer("q1", "B"))
	assert.Len(t, s.Visible, 2)
	assert.Equal(t, 1, s.CurrentIndex)
	q, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "q2", q.ID)
}

func TestFinishedIsTerminal(t *testing.T) {
	s := start(t, testSurvey())
	require.NoError(t, s.SetAnswer("q1", "A"))
	require.NoError(t, s.Advance())
	require.NoError(t, s.Advance())
	require.NoError(t, s.SetAnswer("q3", 9.0))
	require.NoError(t, s.Advance())

	assert.True(t, s.Finished)
	assert.ErrorIs(t, s.SetAnswer("q2", "late"), ErrFinished)
	assert.ErrorIs(t, s.Advance(), ErrFinished)
	assert.ErrorIs(t, s.Retreat(), ErrFinished)
}

func TestAnswered(t *testing.T) {
	s := start(t, testSurvey())
	require.NoError(t, s.SetAnswer("q2", "   "))
	assert.False(t, s.Answered("q2"))

	require.NoError(t, s.SetAnswer("q2", "ok"))
	assert.True(t, s.Answered("q2"))

	require.NoError(t, s.SetAnswer("q3", 0.0))
	assert.True(t, s.Answered("q3"))
}

func TestResumeStaleDraftKeepsAnswersDropsPosition(t *testing.T) {
	now := time.Now()
	draft := model.Draft{
		Answers:      model.Answers{"q1": "A", "q2": "notes"},
		CurrentIndex: 2,
		Language:     "it",
		Timestamp:    now.Add(-25 * time.Hour),
	}

	s := NewSession(testSurvey(), model.Identity{DeviceID: "dev-1"}, "en", now)
	s.Resume(draft, now)

	assert.Equal(t, "A", s.Answers["q1"])
	assert.Equal(t, "notes", s.Answers["q2"])
	assert.Equal(t, 0, s.CurrentIndex)
	assert.Equal(t, "en", s.Language)
}

func TestResumeFreshDraftRestoresPosition(t *testing.T) {
	now := time.Now()
	draft := model.Draft{
		Answers:      model.Answers{"q1": "A"},
		CurrentIndex: 1,
		Language:     "it",
		Timestamp:    now.Add(-time.Hour),
	}

	s := NewSession(testSurvey(), model.Identity{DeviceID: "dev-1"}, "en", now)
	s.Resume(draft, now)

	assert.Equal(t, 1, s.CurrentIndex)
	assert.Equal(t, "it", s.Language)
}

func TestSnapshotCopiesAnswers(t *testing.T) {
	s := start(t, testSurvey())
	require.NoError(t, s.SetAnswer("q1", "A"))

	snap := s.Snapshot(time.Now())
	snap.Answers["q1"] = "B"
	assert.Equal(t, "A", s.Answers["q1"])
}
