package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pulsekit/pulse-survey/model"
)

var (
	ErrUnknownToken    = errors.New("unknown token")
	ErrTokenUsed       = errors.New("token already used")
	ErrAlreadyAnswered = errors.New("device already answered")
)

// DedupGuard enforces one completed attempt per identity. Token-
// required surveys key on the invitation token, the rest on the device
// identifier. Consume happens only at finalization; an abandoned
// session never burns its identity.
type DedupGuard struct {
	db  *sql.DB
	now func() time.Time
}

func NewDedupGuard(db *sql.DB) *DedupGuard {
	return &DedupGuard{db: db, now: time.Now}
}

// CanAttempt returns one of the identity errors above when the attempt
// must be rejected, before any session or draft is touched.
func (g *DedupGuard) CanAttempt(ctx context.Context, survey *model.Survey, id model.Identity) error {
	if survey.RequireToken {
		var used bool
		err := g.db.QueryRowContext(ctx, `
			SELECT used FROM survey_token
			WHERE survey_id = ? AND token = ?`,
			survey.ID,
			id.Token,
		).Scan(&used)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUnknownToken
		}
		if err != nil {
			return err
		}
		if used {
			return ErrTokenUsed
		}
		return nil
	}

	var seen bool
	err := g.db.QueryRowContext(ctx, `
		SELECT 1 FROM device_registry
		WHERE survey_id = ? AND device_id = ?`,
		survey.ID,
		id.DeviceID,
	).Scan(&seen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return ErrAlreadyAnswered
}

// Consume marks the identity spent. Both branches are atomic
// check-then-set statements, so a concurrent double submit loses.
func (g *DedupGuard) Consume(ctx context.Context, survey *model.Survey, id model.Identity) error {
	if survey.RequireToken {
		res, err := g.db.ExecContext(ctx, `
			UPDATE survey_token
			SET used = 1, used_at = ?
			WHERE survey_id = ? AND token = ? AND used = 0`,
			g.now(),
			survey.ID,
			id.Token,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n < 1 {
			return ErrTokenUsed
		}
		return nil
	}

	res, err := g.db.ExecContext(ctx, `
		INSERT INTO device_registry (survey_id, device_id, completed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (survey_id, device_id) DO NOTHING`,
		survey.ID,
		id.DeviceID,
		g.now(),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrAlreadyAnswered
	}
	return nil
}
