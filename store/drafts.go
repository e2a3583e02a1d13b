package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/pulsekit/pulse-survey/engine"
	"github.com/pulsekit/pulse-survey/model"
)

// DraftStore keeps at most one in-progress snapshot per (survey, scope).
//
// Load keeps answers regardless of age but zeroes position and language
// once the draft is older than engine.DraftMaxAge. Restoring answers
// forever while dropping position is the original product behavior,
// kept as-is pending product confirmation.
type DraftStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewDraftStore(db *sql.DB) *DraftStore {
	return &DraftStore{db: db, now: time.Now}
}

func (s *DraftStore) Save(ctx context.Context, surveyID int, scope string, d model.Draft) error {
	answers, err := json.Marshal(d.Answers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO draft (survey_id, scope, answers, current_index, language, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (survey_id, scope) DO UPDATE SET
			answers = excluded.answers,
			current_index = excluded.current_index,
			language = excluded.language,
			updated_at = excluded.updated_at`,
		surveyID,
		scope,
		string(answers),
		d.CurrentIndex,
		d.Language,
		d.Timestamp,
	)
	return err
}

// Load returns nil without error when no draft exists.
func (s *DraftStore) Load(ctx context.Context, surveyID int, scope string) (*model.Draft, error) {
	d := model.Draft{}
	var answers string
	err := s.db.QueryRowContext(ctx, `
		SELECT answers, current_index, language, updated_at
		FROM draft
		WHERE survey_id = ? AND scope = ?`,
		surveyID,
		scope,
	).Scan(&answers, &d.CurrentIndex, &d.Language, &d.Timestamp)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err = json.Unmarshal([]byte(answers), &d.Answers); err != nil {
		return nil, err
	}

	if s.now().Sub(d.Timestamp) >= engine.DraftMaxAge {
		d.CurrentIndex = 0
		d.Language = ""
	}
	return &d, nil
}

// Clear is idempotent: clearing a missing draft is a no-op.
func (s *DraftStore) Clear(ctx context.Context, surveyID int, scope string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM draft WHERE survey_id = ? AND scope = ?`,
		surveyID,
		scope,
	)
	return err
}
