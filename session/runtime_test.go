package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit/pulse-survey/engine"
	"github.com/pulsekit/pulse-survey/model"
)

type fakeDrafts struct {
	mu    sync.Mutex
	m     map[string]model.Draft
	loads int
}

func draftKey(surveyID int, scope string) string {
	return fmt.Sprintf("%d/%s", surveyID, scope)
}

func newFakeDrafts() *fakeDrafts {
	return &fakeDrafts{m: map[string]model.Draft{}}
}

func (f *fakeDrafts) Save(_ context.Context, surveyID int, scope string, d model.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[draftKey(surveyID, scope)] = d
	return nil
}

func (f *fakeDrafts) Load(_ context.Context, surveyID int, scope string) (*model.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	d, ok := f.m[draftKey(surveyID, scope)]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeDrafts) Clear(_ context.Context, surveyID int, scope string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.m, draftKey(surveyID, scope))
	return nil
}

func (f *fakeDrafts) has(surveyID int, scope string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.m[draftKey(surveyID, scope)]
	return ok
}

var errRejected = errors.New("identity rejected")

type fakeGuard struct {
	mu       sync.Mutex
	consumed map[string]bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{consumed: map[string]bool{}}
}

func (f *fakeGuard) CanAttempt(_ context.Context, survey *model.Survey, id model.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumed[survey.Scope(id)] {
		return errRejected
	}
	return nil
}

func (f *fakeGuard) Consume(_ context.Context, survey *model.Survey, id model.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumed[survey.Scope(id)] = true
	return nil
}

type fakeSink struct {
	mu        sync.Mutex
	responses []model.Response
	fail      bool
}

func (f *fakeSink) Append(_ context.Context, r model.Response) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("append failed")
	}
	f.responses = append(f.responses, r)
	return nil
}

func runtimeSurvey() *model.Survey {
	return &model.Survey{
		ID:     1,
		Slug:   "team-pulse",
		Title:  "Team Pulse",
		Status: model.StatusActive,
		Questions: []model.Question{
			{ID: "nps", Type: model.TypeNPS, Label: "Recommend?", Required: true, Visible: true},
			{ID: "why", Type: model.TypeTextarea, Label: "Why?", Visible: true},
		},
	}
}

type fixture struct {
	manager *Manager
	drafts  *fakeDrafts
	guard   *fakeGuard
	sink    *fakeSink
}

func newFixture() fixture {
	drafts := newFakeDrafts()
	guard := newFakeGuard()
	sink := &fakeSink{}
	return fixture{
		manager: NewManager(drafts, guard, sink, NewNotifier(time.Second), time.Hour),
		drafts:  drafts,
		guard:   guard,
		sink:    sink,
	}
}

func TestStartRejectsInactiveSurvey(t *testing.T) {
	f := newFixture()
	survey := runtimeSurvey()
	survey.Status = model.StatusClosed

	_, err := f.manager.Start(context.Background(), survey, model.Identity{DeviceID: "dev-1"}, "en", "")
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestStartRejectsConsumedIdentityBeforeDraftLookup(t *testing.T) {
	f := newFixture()
	survey := runtimeSurvey()
	identity := model.Identity{DeviceID: "dev-1"}
	require.NoError(t, f.guard.Consume(context.Background(), survey, identity))

	_, err := f.manager.Start(context.Background(), survey, identity, "en", "")
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, 0, f.drafts.loads, "rejection must happen before any draft lookup")
}

func TestFullAttemptLifecycle(t *testing.T) {
	f := newFixture()
	survey := runtimeSurvey()
	identity := model.Identity{DeviceID: "dev-1"}
	ctx := context.Background()

	state, err := f.manager.Start(ctx, survey, identity, "en", "test-agent")
	require.NoError(t, err)
	require.Len(t, state.Questions, 2)
	assert.False(t, state.CanAdvance, "nps is required and unanswered")

	_, err = f.manager.Advance(ctx, state.SessionID)
	assert.ErrorIs(t, err, engine.ErrAnswerRequired)

	state, err = f.manager.Answer(state.SessionID, "nps", 9.0)
	require.NoError(t, err)
	assert.True(t, state.CanAdvance)
	assert.Eventually(t, func() bool {
		return f.drafts.has(survey.ID, "dev-1")
	}, time.Second, 5*time.Millisecond, "answer triggers autosave")

	state, err = f.manager.Advance(ctx, state.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, state.CurrentIndex)

	// optional question skipped; this finalizes
	state, err = f.manager.Advance(ctx, state.SessionID)
	require.NoError(t, err)
	assert.True(t, state.Finished)
	assert.NotEmpty(t, state.ResponseID)

	require.Len(t, f.sink.responses, 1)
	r := f.sink.responses[0]
	assert.Equal(t, state.ResponseID, r.ID)
	assert.Equal(t, "dev-1", r.DeviceID)
	assert.Equal(t, "test-agent", r.ClientSignature)
	assert.Equal(t, model.Answers{"nps": 9.0}, r.Answers)
	assert.Equal(t, r.EndedAt.Sub(r.StartedAt).Milliseconds(), r.DurationMs)

	assert.True(t, f.guard.consumed["dev-1"], "finalization consumes the identity")
	assert.False(t, f.drafts.has(survey.ID, "dev-1"), "finalization clears the draft")

	_, err = f.manager.Get(state.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "finished session is evicted")

	_, err = f.manager.Start(ctx, survey, identity, "en", "")
	assert.ErrorIs(t, err, errRejected, "same device cannot attempt again")
}

func TestStartResumesDraft(t *testing.T) {
	f := newFixture()
	survey := runtimeSurvey()
	ctx := context.Background()

	require.NoError(t, f.drafts.Save(ctx, survey.ID, "dev-1", model.Draft{
		Answers:      model.Answers{"nps": 8.0},
		CurrentIndex: 1,
		Language:     "it",
		Timestamp:    time.Now(),
	}))

	state, err := f.manager.Start(ctx, survey, model.Identity{DeviceID: "dev-1"}, "en", "")
	require.NoError(t, err)
	assert.Equal(t, 8.0, state.Answers["nps"])
	assert.Equal(t, 1, state.CurrentIndex)
	assert.Equal(t, "it", state.Language)
}

func TestAbandonLeavesDraftAndIdentity(t *testing.T) {
	f := newFixture()
	survey := runtimeSurvey()
	ctx := context.Background()

	state, err := f.manager.Start(ctx, survey, model.Identity{DeviceID: "dev-1"}, "en", "")
	require.NoError(t, err)
	_, err = f.manager.Answer(state.SessionID, "nps", 7.0)
	require.NoError(t, err)

	require.NoError(t, f.manager.Abandon(state.SessionID))

	assert.True(t, f.drafts.has(survey.ID, "dev-1"), "draft survives abandonment")
	assert.False(t, f.guard.consumed["dev-1"], "abandonment never consumes")

	// the respondent can come back and resume
	state, err = f.manager.Start(ctx, survey, model.Identity{DeviceID: "dev-1"}, "en", "")
	require.NoError(t, err)
	assert.Equal(t, 7.0, state.Answers["nps"])
}

func TestAppendFailureBlocksFinalization(t *testing.T) {
	f := newFixture()
	f.sink.fail = true
	survey := runtimeSurvey()
	ctx := context.Background()

	state, err := f.manager.Start(ctx, survey, model.Identity{DeviceID: "dev-1"}, "en", "")
	require.NoError(t, err)
	_, err = f.manager.Answer(state.SessionID, "nps", 9.0)
	require.NoError(t, err)
	_, err = f.manager.Advance(ctx, state.SessionID)
	require.NoError(t, err)

	_, err = f.manager.Advance(ctx, state.SessionID)
	assert.Error(t, err)
	assert.False(t, f.guard.consumed["dev-1"], "identity not consumed when persistence fails")
}

func TestUnknownSession(t *testing.T) {
	f := newFixture()
	_, err := f.manager.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.manager.Answer("nope", "q", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
