package monitor

import (
	"context"
	"errors"
	"time"

	"pulsemon/pkg/apperror"
	"pulsemon/pkg/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const monitorColumns = `id, name, slug, token, interval_seconds, grace_seconds, last_ping, status, webhook_url, created_at, updated_at`

type Repository struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

func NewRepository(pool *pgxpool.Pool, logger *zerolog.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: logger,
	}
}

func (r *Repository) Create(ctx context.Context, cmd CreateMonitorCmd) (Monitor, error) {
	const op string = "repo.monitor.create"

	m := Monitor{
		ID:          uuid.New(),
		Name:        cmd.Name,
		Slug:        cmd.Slug,
		Token:       cmd.Token,
		IntervalSec: cmd.IntervalSec,
		GraceSec:    cmd.GraceSec,
		WebhookURL:  cmd.WebhookURL,
		Status:      StatusUnknown,
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO monitors (id, name, slug, token, interval_seconds, grace_seconds, status, webhook_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''))
		RETURNING created_at, updated_at`,
		m.ID, m.Name, m.Slug, m.Token, m.IntervalSec, m.GraceSec, m.Status, m.WebhookURL,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err == nil {
		return m, nil
	}

	// Unique constraint on slug -> conflict, reported before any write sticks
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Monitor{}, &apperror.Error{
			Kind:    apperror.Conflict,
			Op:      op,
			Message: "slug already exists",
		}
	}

	return Monitor{}, utils.WrapRepoError(op, err, false, r.logger)
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Monitor, error) {
	const op string = "repo.monitor.get_by_slug"

	m, err := scanMonitor(r.pool.QueryRow(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE slug = $1`, slug))
	if err != nil {
		return Monitor{}, utils.WrapRepoError(op, err, true, r.logger)
	}
	return m, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]Monitor, error) {
	const op string = "repo.monitor.list_all"

	rows, err := r.pool.Query(ctx,
		`SELECT `+monitorColumns+` FROM monitors ORDER BY created_at DESC`)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	monitors := make([]Monitor, 0)
	for rows.Next() {
		m, err := scanMonitor(rows)
		if err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		monitors = append(monitors, m)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return monitors, nil
}

// Delete removes a monitor and all of its history entries in one
// transaction.
func (r *Repository) Delete(ctx context.Context, slug string) error {
	const op string = "repo.monitor.delete"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM history WHERE slug = $1`, slug); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM monitors WHERE slug = $1`, slug)
	if err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	if tag.RowsAffected() == 0 {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "monitor not found",
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return utils.WrapRepoError(op, err, false, r.logger)
	}
	return nil
}

func (r *Repository) ListHistory(ctx context.Context, slug string, limit int32) ([]HistoryEntry, error) {
	const op string = "repo.monitor.list_history"

	rows, err := r.pool.Query(ctx, `
		SELECT id, slug, prev_status, new_status, COALESCE(note, ''), created_at
		FROM history WHERE slug = $1
		ORDER BY created_at DESC LIMIT $2`, slug, limit)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.Slug, &e.PrevStatus, &e.NewStatus, &e.Note, &e.CreatedAt); err != nil {
			return nil, utils.WrapRepoError(op, err, false, r.logger)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return entries, nil
}

// RecordHeartbeat applies an accepted check-in: last_ping advances to now
// and status becomes UP unconditionally. The row lock serializes the
// read-modify-write against the evaluator, and the history entry for a
// transition into UP commits in the same transaction. A wrong token is
// reported exactly like an unknown slug so slugs cannot be enumerated.
func (r *Repository) RecordHeartbeat(ctx context.Context, slug, token string, now time.Time) (Snapshot, *Transition, error) {
	const op string = "repo.monitor.record_heartbeat"

	notFound := &apperror.Error{
		Kind:    apperror.NotFound,
		Op:      op,
		Message: "monitor not found",
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Snapshot{}, nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	m, err := scanMonitor(tx.QueryRow(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE slug = $1 FOR UPDATE`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, nil, notFound
		}
		return Snapshot{}, nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	if m.Token != token {
		return Snapshot{}, nil, notFound
	}

	prev := m.Status
	if prev == "" {
		prev = StatusUnknown
	}

	if _, err := tx.Exec(ctx, `
		UPDATE monitors SET last_ping = $2, status = $3, updated_at = now()
		WHERE slug = $1`, slug, now, StatusUp); err != nil {
		return Snapshot{}, nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	if prev != StatusUp {
		if _, err := tx.Exec(ctx, `
			INSERT INTO history (slug, prev_status, new_status, note)
			VALUES ($1, $2, $3, $4)`, slug, prev, StatusUp, "heartbeat received"); err != nil {
			return Snapshot{}, nil, utils.WrapRepoError(op, err, false, r.logger)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	snap := Snapshot{
		Slug:        m.Slug,
		Name:        m.Name,
		Status:      StatusUp,
		OccurredAt:  now,
		IntervalSec: m.IntervalSec,
		GraceSec:    m.GraceSec,
		LastPing:    &now,
		WebhookURL:  m.WebhookURL,
	}

	if prev == StatusUp {
		return snap, nil, nil
	}

	return snap, &Transition{
		Prev:     prev,
		New:      StatusUp,
		Note:     "heartbeat received",
		Snapshot: snap,
	}, nil
}

// EvaluateAt re-runs the transition decision for one monitor under its row
// lock and commits status update plus history entry atomically. It returns
// nil when evaluation is a no-op, including when a concurrent writer
// already recorded the same transition or the monitor vanished between
// listing and locking.
func (r *Repository) EvaluateAt(ctx context.Context, slug string, now time.Time) (*Transition, error) {
	const op string = "repo.monitor.evaluate_at"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	m, err := scanMonitor(tx.QueryRow(ctx,
		`SELECT `+monitorColumns+` FROM monitors WHERE slug = $1 FOR UPDATE`, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	next, changed := Decide(m.Status, m.LastPing, m.IntervalSec, m.GraceSec, now)
	if !changed {
		return nil, nil
	}

	note := TimeoutNote(now.Sub(*m.LastPing), Threshold(m.IntervalSec, m.GraceSec))

	if _, err := tx.Exec(ctx, `
		UPDATE monitors SET status = $2, updated_at = now()
		WHERE slug = $1`, slug, next); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO history (slug, prev_status, new_status, note)
		VALUES ($1, $2, $3, $4)`, slug, m.Status, next, note); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, utils.WrapRepoError(op, err, false, r.logger)
	}

	return &Transition{
		Prev: m.Status,
		New:  next,
		Note: note,
		Snapshot: Snapshot{
			Slug:        m.Slug,
			Name:        m.Name,
			Status:      next,
			OccurredAt:  now,
			IntervalSec: m.IntervalSec,
			GraceSec:    m.GraceSec,
			LastPing:    m.LastPing,
			WebhookURL:  m.WebhookURL,
		},
	}, nil
}

func scanMonitor(row pgx.Row) (Monitor, error) {
	var (
		m       Monitor
		webhook *string
	)
	err := row.Scan(
		&m.ID, &m.Name, &m.Slug, &m.Token, &m.IntervalSec, &m.GraceSec,
		&m.LastPing, &m.Status, &webhook, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return Monitor{}, err
	}
	if webhook != nil {
		m.WebhookURL = *webhook
	}
	if m.Status == "" {
		m.Status = StatusUnknown
	}
	return m, nil
}
