// Package session hosts live respondent attempts: it glues the pure
// engine to the draft store, the dedup guard, the response collection
// and the webhook notifier. Events on one session are serialized; no
// state is shared between sessions.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulsekit/pulse-survey/engine"
	"github.com/pulsekit/pulse-survey/log"
	"github.com/pulsekit/pulse-survey/model"
)

var (
	ErrNotActive       = errors.New("survey is not active")
	ErrSessionNotFound = errors.New("session not found")
)

type DraftStore interface {
	Save(ctx context.Context, surveyID int, scope string, d model.Draft) error
	Load(ctx context.Context, surveyID int, scope string) (*model.Draft, error)
	Clear(ctx context.Context, surveyID int, scope string) error
}

type Guard interface {
	CanAttempt(ctx context.Context, survey *model.Survey, id model.Identity) error
	Consume(ctx context.Context, survey *model.Survey, id model.Identity) error
}

type ResponseSink interface {
	Append(ctx context.Context, r model.Response) error
}

type Manager struct {
	drafts    DraftStore
	guard     Guard
	responses ResponseSink
	notifier  *Notifier
	interval  time.Duration
	now       func() time.Time

	mu   sync.Mutex
	live map[string]*liveSession
}

type liveSession struct {
	mu        sync.Mutex
	id        string
	sess      *engine.Session
	saver     *Saver
	signature string
}

func NewManager(drafts DraftStore, guard Guard, responses ResponseSink, notifier *Notifier, interval time.Duration) *Manager {
	return &Manager{
		drafts:    drafts,
		guard:     guard,
		responses: responses,
		notifier:  notifier,
		interval:  interval,
		now:       time.Now,
		live:      map[string]*liveSession{},
	}
}

// Start opens a new attempt. Identity errors from the guard reject the
// attempt before any draft is read or session created; a failing draft
// load only costs resumability.
func (m *Manager) Start(ctx context.Context, survey *model.Survey, identity model.Identity, language, signature string) (State, error) {
	if survey.Status != model.StatusActive {
		return State{}, ErrNotActive
	}
	if err := m.guard.CanAttempt(ctx, survey, identity); err != nil {
		return State{}, err
	}

	now := m.now()
	sess := engine.NewSession(survey, identity, language, now)

	scope := survey.Scope(identity)
	draft, err := m.drafts.Load(ctx, survey.ID, scope)
	if err != nil {
		log.Warnf("session.start.load_draft: %s", err)
	} else if draft != nil {
		sess.Resume(*draft, now)
	}

	ls := &liveSession{
		id:        uuid.NewString(),
		sess:      sess,
		signature: signature,
	}
	ls.saver = NewSaver(m.interval, func(d model.Draft) error {
		return m.drafts.Save(context.Background(), survey.ID, scope, d)
	})

	m.mu.Lock()
	m.live[ls.id] = ls
	m.mu.Unlock()

	return m.state(ls), nil
}

func (m *Manager) Get(id string) (State, error) {
	ls, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return m.state(ls), nil
}

// Answer records a value and triggers an immediate autosave.
func (m *Manager) Answer(id, questionID string, value any) (State, error) {
	ls, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.sess.SetAnswer(questionID, value); err != nil {
		return State{}, err
	}
	ls.saver.Put(ls.sess.Snapshot(m.now()))
	return m.state(ls), nil
}

// Advance moves forward; stepping past the last visible question
// finalizes the attempt.
func (m *Manager) Advance(ctx context.Context, id string) (State, error) {
	ls, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.sess.Advance(); err != nil {
		return State{}, err
	}
	if ls.sess.Finished {
		return m.finalize(ctx, ls)
	}
	ls.saver.Put(ls.sess.Snapshot(m.now()))
	return m.state(ls), nil
}

func (m *Manager) Retreat(id string) (State, error) {
	ls, err := m.lookup(id)
	if err != nil {
		return State{}, err
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if err := ls.sess.Retreat(); err != nil {
		return State{}, err
	}
	ls.saver.Put(ls.sess.Snapshot(m.now()))
	return m.state(ls), nil
}

// Abandon drops the live session. The draft stays behind for resuming
// and the identity is not consumed.
func (m *Manager) Abandon(id string) error {
	ls, err := m.lookup(id)
	if err != nil {
		return err
	}
	ls.saver.Stop()
	m.evict(id)
	return nil
}

func (m *Manager) lookup(id string) (*liveSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ls, ok := m.live[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

func (m *Manager) evict(id string) {
	m.mu.Lock()
	delete(m.live, id)
	m.mu.Unlock()
}
