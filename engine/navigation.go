package engine

import (
	"errors"
	"strings"
	"time"

	"github.com/pulsekit/pulse-survey/model"
)

var (
	ErrFinished        = errors.New("session already finished")
	ErrAnswerRequired  = errors.New("current question requires an answer")
	ErrUnknownQuestion = errors.New("unknown question")
)

// DraftMaxAge is how long a persisted draft keeps its position and
// language. Answers never go stale.
const DraftMaxAge = 24 * time.Hour

// Session is one respondent attempt. It is a plain value: every
// mutation re-runs the rules and recomputes the visible question set,
// so callers can treat it as the single source of truth for rendering.
type Session struct {
	Survey   *model.Survey
	Identity model.Identity
	Language string

	Answers      model.Answers
	CurrentIndex int
	Outcome      Outcome
	Visible      []model.Question

	StartedAt time.Time
	Finished  bool
}

// NewSession runs one rule pass against empty answers and positions the
// respondent on the first visible question.
func NewSession(survey *model.Survey, identity model.Identity, language string, now time.Time) *Session {
	s := &Session{
		Survey:    survey,
		Identity:  identity,
		Language:  language,
		Answers:   model.Answers{},
		StartedAt: now,
	}
	s.refresh()
	return s
}

// Resume applies a stored draft. Answers restore unconditionally;
// position and language only while the draft is younger than
// DraftMaxAge. The asymmetry mirrors the original product behavior.
func (s *Session) Resume(d model.Draft, now time.Time) {
	for id, v := range d.Answers {
		s.Answers[id] = v
	}
	if now.Sub(d.Timestamp) < DraftMaxAge {
		s.CurrentIndex = d.CurrentIndex
		if d.Language != "" {
			s.Language = d.Language
		}
	}
	s.refresh()
}

// refresh re-evaluates rules, rebuilds the visible set in definition
// order, and clamps the index when the set shrank beneath it.
func (s *Session) refresh() {
	s.Outcome = Evaluate(s.Survey.Rules, s.Answers)

	s.Visible = s.Visible[:0]
	for _, q := range s.Survey.Questions {
		if s.Outcome.Visible(q) {
			s.Visible = append(s.Visible, q)
		}
	}

	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
	if len(s.Visible) > 0 && s.CurrentIndex >= len(s.Visible) && !s.Finished {
		s.CurrentIndex = len(s.Visible) - 1
	}
}

// Current returns the question under the cursor, if any.
func (s *Session) Current() (model.Question, bool) {
	if s.Finished || s.CurrentIndex >= len(s.Visible) {
		return model.Question{}, false
	}
	return s.Visible[s.CurrentIndex], true
}

// SetAnswer records an answer and re-renders. Changing an earlier
// answer may reshape the visible set ahead of the cursor.
func (s *Session) SetAnswer(questionID string, value any) error {
	if s.Finished {
		return ErrFinished
	}
	if _, ok := s.Survey.Question(questionID); !ok {
		return ErrUnknownQuestion
	}
	s.Answers[questionID] = value
	s.refresh()
	return nil
}

// Answered reports whether a question has a non-empty answer.
func (s *Session) Answered(questionID string) bool {
	v, ok := s.Answers[questionID]
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	}
	return true
}

// CanAdvance is the answer-before-advance gate: the current question
// must be answered or not effectively required.
func (s *Session) CanAdvance() bool {
	if s.Finished {
		return false
	}
	q, ok := s.Current()
	if !ok {
		return true
	}
	return s.Answered(q.ID) || !s.Outcome.Required(q)
}

// Advance moves to the next visible question. Stepping past the last
// one reaches the terminal finished state; the caller is expected to
// finalize at that point.
func (s *Session) Advance() error {
	if s.Finished {
		return ErrFinished
	}
	if !s.CanAdvance() {
		return ErrAnswerRequired
	}
	s.CurrentIndex++
	if s.CurrentIndex >= len(s.Visible) {
		s.Finished = true
	}
	s.refresh()
	return nil
}

// Retreat always succeeds: a respondent may go back without
// validation. At the first question it is a no-op.
func (s *Session) Retreat() error {
	if s.Finished {
		return ErrFinished
	}
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
	s.refresh()
	return nil
}

// Snapshot captures the draft persisted by autosave.
func (s *Session) Snapshot(now time.Time) model.Draft {
	answers := make(model.Answers, len(s.Answers))
	for id, v := range s.Answers {
		answers[id] = v
	}
	return model.Draft{
		Answers:      answers,
		CurrentIndex: s.CurrentIndex,
		Language:     s.Language,
		Timestamp:    now,
	}
}
