// Package store holds the SQLite-backed repositories: survey
// definitions, drafts, the dedup guard tables and the response
// collection.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/pulsekit/pulse-survey/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("version conflict")
)

type SurveyStore struct {
	db *sql.DB
}

func NewSurveyStore(db *sql.DB) *SurveyStore {
	return &SurveyStore{db}
}

const surveyColumns = `
	id, version, slug, title, description, status,
	require_token, webhook_url, brand_color, questions, rules`

func (s *SurveyStore) Create(ctx context.Context, survey *model.Survey) (int, error) {
	if err := survey.Validate(); err != nil {
		return 0, err
	}

	questions, rules, err := marshalDefinition(survey)
	if err != nil {
		return 0, err
	}

	var id int
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO survey (slug, title, description, status, require_token, webhook_url, brand_color, questions, rules)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		survey.Slug,
		survey.Title,
		survey.Description,
		survey.Status,
		survey.RequireToken,
		survey.WebhookURL,
		survey.BrandColor,
		questions,
		rules,
	).Scan(&id)
	return id, err
}

// Update rewrites the whole definition under an optimistic version
// check, the same scheme the admin UI relies on for concurrent edits.
func (s *SurveyStore) Update(ctx context.Context, survey *model.Survey) error {
	if err := survey.Validate(); err != nil {
		return err
	}

	questions, rules, err := marshalDefinition(survey)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE survey
		SET
			slug = ?,
			title = ?,
			description = ?,
			status = ?,
			require_token = ?,
			webhook_url = ?,
			brand_color = ?,
			questions = ?,
			rules = ?,
			version = version+1
		WHERE	id = ?
			AND version = ?`,
		survey.Slug,
		survey.Title,
		survey.Description,
		survey.Status,
		survey.RequireToken,
		survey.WebhookURL,
		survey.BrandColor,
		questions,
		rules,
		survey.ID,
		survey.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrConflict
	}
	return nil
}

func (s *SurveyStore) Delete(ctx context.Context, id int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"response", "draft", "device_registry", "survey_token"} {
		_, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE survey_id = ?", id)
		if err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM survey WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (s *SurveyStore) GetByID(ctx context.Context, id int) (*model.Survey, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT"+surveyColumns+" FROM survey WHERE id = ?", id)
	return scanSurvey(row)
}

func (s *SurveyStore) GetBySlug(ctx context.Context, slug string) (*model.Survey, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT"+surveyColumns+" FROM survey WHERE slug = ?", slug)
	return scanSurvey(row)
}

func (s *SurveyStore) List(ctx context.Context) ([]model.Survey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, slug, title, description, status, require_token
		FROM survey
		ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surveys := []model.Survey{}
	for rows.Next() {
		s := model.Survey{}
		err = rows.Scan(&s.ID, &s.Version, &s.Slug, &s.Title, &s.Description, &s.Status, &s.RequireToken)
		if err != nil {
			return nil, err
		}
		surveys = append(surveys, s)
	}
	return surveys, rows.Err()
}

// IssueTokens mints n invitation tokens for a token-required survey.
func (s *SurveyStore) IssueTokens(ctx context.Context, surveyID, n int) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO survey_token (survey_id, token) VALUES (?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	tokens := make([]string, 0, n)
	for i := 0; i < n; i++ {
		token := uuid.NewString()
		if _, err := stmt.ExecContext(ctx, surveyID, token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, tx.Commit()
}

func marshalDefinition(survey *model.Survey) (questions, rules string, err error) {
	q, err := json.Marshal(survey.Questions)
	if err != nil {
		return
	}
	r, err := json.Marshal(survey.Rules)
	if err != nil {
		return
	}
	return string(q), string(r), nil
}

func scanSurvey(row *sql.Row) (*model.Survey, error) {
	survey := model.Survey{}
	var questions, rules string
	err := row.Scan(
		&survey.ID, &survey.Version, &survey.Slug, &survey.Title, &survey.Description, &survey.Status,
		&survey.RequireToken, &survey.WebhookURL, &survey.BrandColor, &questions, &rules,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err = json.Unmarshal([]byte(questions), &survey.Questions); err != nil {
		return nil, err
	}
	if err = json.Unmarshal([]byte(rules), &survey.Rules); err != nil {
		return nil, err
	}
	return &survey, nil
}
