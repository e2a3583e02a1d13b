package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pulsekit/pulse-survey/model"
)

type ResponseStore struct {
	db *sql.DB
}

func NewResponseStore(db *sql.DB) *ResponseStore {
	return &ResponseStore{db}
}

// Append adds a finalized response. Responses are immutable: there is
// no update path.
func (s *ResponseStore) Append(ctx context.Context, r model.Response) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO response (id, survey_id, device_id, token, answers, started_at, ended_at, duration_ms, language, client_signature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.SurveyID,
		r.DeviceID,
		r.Token,
		string(answers),
		r.StartedAt,
		r.EndedAt,
		r.DurationMs,
		r.Language,
		r.ClientSignature,
	)
	return err
}

func (s *ResponseStore) ListBySurvey(ctx context.Context, surveyID int) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, survey_id, device_id, token, answers, started_at, ended_at, duration_ms, language, client_signature
		FROM response
		WHERE survey_id = ?
		ORDER BY ended_at`,
		surveyID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		r := model.Response{}
		var answers string
		err = rows.Scan(
			&r.ID, &r.SurveyID, &r.DeviceID, &r.Token, &answers,
			&r.StartedAt, &r.EndedAt, &r.DurationMs, &r.Language, &r.ClientSignature,
		)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}
