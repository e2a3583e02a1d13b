package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/model"
)

// finalize runs the irreversible completion sequence: persist the
// response, consume the identity, clear the draft, notify the webhook.
// Persisting the response is the only step allowed to fail the call;
// everything after degrades gracefully. Called with the live session
// locked.
func (m *Manager) finalize(ctx context.Context, ls *liveSession) (State, error) {
	sess := ls.sess
	now := m.now()

	response := model.Response{
		ID:              uuid.NewString(),
		SurveyID:        sess.Survey.ID,
		DeviceID:        sess.Identity.DeviceID,
		Token:           sess.Identity.Token,
		Answers:         sess.Snapshot(now).Answers,
		StartedAt:       sess.StartedAt,
		EndedAt:         now,
		DurationMs:      now.Sub(sess.StartedAt).Milliseconds(),
		Language:        sess.Language,
		ClientSignature: ls.signature,
	}

	if err := m.responses.Append(ctx, response); err != nil {
		return State{}, err
	}

	if err := m.guard.Consume(ctx, sess.Survey, sess.Identity); err != nil {
		// the response is already the source of truth
		log.Warnf("session.finalize.consume: %s", err)
	}

	ls.saver.Stop()
	scope := sess.Survey.Scope(sess.Identity)
	if err := m.drafts.Clear(ctx, sess.Survey.ID, scope); err != nil {
		log.Warnf("session.finalize.clear_draft: %s", err)
	}

	m.notifier.Notify(sess.Survey, response)
	m.evict(ls.id)

	state := m.state(ls)
	state.ResponseID = response.ID
	return state, nil
}

// State is the read model handed to the rendering layer after every
// transition.
type State struct {
	SessionID    string         `json:"sessionId"`
	Finished     bool           `json:"finished"`
	CurrentIndex int            `json:"currentIndex"`
	Questions    []QuestionView `json:"questions"`
	Answers      model.Answers  `json:"answers"`
	CanAdvance   bool           `json:"canAdvance"`
	Language     string         `json:"language"`
	StartedAt    time.Time      `json:"startedAt"`
	ResponseID   string         `json:"responseId,omitempty"`
}

// QuestionView is a question with its effective required flag.
type QuestionView struct {
	ID       string             `json:"id"`
	Type     model.QuestionType `json:"type"`
	Label    string             `json:"label"`
	Required bool               `json:"required"`
	Options  []string           `json:"options,omitempty"`
}

func (m *Manager) state(ls *liveSession) State {
	sess := ls.sess
	questions := make([]QuestionView, len(sess.Visible))
	for i, q := range sess.Visible {
		questions[i] = QuestionView{
			ID:       q.ID,
			Type:     q.Type,
			Label:    q.Label,
			Required: sess.Outcome.Required(q),
			Options:  q.Options,
		}
	}
	return State{
		SessionID:    ls.id,
		Finished:     sess.Finished,
		CurrentIndex: sess.CurrentIndex,
		Questions:    questions,
		Answers:      sess.Answers,
		CanAdvance:   sess.CanAdvance(),
		Language:     sess.Language,
		StartedAt:    sess.StartedAt,
	}
}
