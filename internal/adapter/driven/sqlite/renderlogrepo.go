package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/claimsdash/internal/domain/model"
	"github.com/ericfisherdev/claimsdash/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.RenderLogStore = (*RenderLogRepo)(nil)

// startedAtLayout is fixed-width so text ordering matches time ordering.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// RenderLogRepo is the SQLite implementation of the RenderLogStore port.
type RenderLogRepo struct {
	db *DB
}

// NewRenderLogRepo creates a new RenderLogRepo backed by the given DB.
func NewRenderLogRepo(db *DB) *RenderLogRepo {
	return &RenderLogRepo{db: db}
}

// Record inserts one render record. Times are stored as fixed-width UTC text.
func (r *RenderLogRepo) Record(ctx context.Context, rec model.RenderRecord) error {
	const query = `
		INSERT INTO render_log (id, started_at, duration_ms, outcome, error, credential_source)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID,
		rec.StartedAt.UTC().Format(startedAtLayout),
		rec.Duration.Milliseconds(),
		string(rec.Outcome),
		rec.Error,
		string(rec.CredentialSource),
	)
	if err != nil {
		return fmt.Errorf("record render %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *RenderLogRepo) ListRecent(ctx context.Context, limit int) ([]model.RenderRecord, error) {
	const query = `
		SELECT id, started_at, duration_ms, outcome, error, credential_source
		FROM render_log
		ORDER BY started_at DESC, id DESC
		LIMIT ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	records := []model.RenderRecord{}
	for rows.Next() {
		var rec model.RenderRecord
		var startedAt, outcome, source string
		var durationMS int64
		if err := rows.Scan(&rec.ID, &startedAt, &durationMS, &outcome, &rec.Error, &source); err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}

		rec.StartedAt, err = time.Parse(startedAtLayout, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse started_at for render %s: %w", rec.ID, err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.Outcome = model.RenderOutcome(outcome)
		rec.CredentialSource = model.CredentialSource(source)

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate renders: %w", err)
	}

	return records, nil
}

// Prune keeps the newest keep records and deletes the rest.
func (r *RenderLogRepo) Prune(ctx context.Context, keep int) (int64, error) {
	const query = `
		DELETE FROM render_log
		WHERE id NOT IN (
			SELECT id FROM render_log ORDER BY started_at DESC, id DESC LIMIT ?
		)`

	res, err := r.db.Writer.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("prune renders: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune renders rows affected: %w", err)
	}
	return n, nil
}
