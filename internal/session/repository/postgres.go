package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"session-token-service/internal/db"
	"session-token-service/internal/session/domain"
)

const sessionsTable = "sessions"

// sqlxSession is the sessions row.
type sqlxSession struct {
	ID        string    `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	ExpiresAt time.Time `db:"expires_at"`
	Payload   string    `db:"payload"`
}

// PostgresRepository persists sessions in the sessions table.
type PostgresRepository struct {
	db    *sqlx.DB
	clock Clock
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
// clock may be nil, in which case time.Now is used for the expiry predicate.
func NewPostgresRepository(conn *sql.DB, clock Clock) *PostgresRepository {
	return &PostgresRepository{db: db.Sqlx(conn), clock: clock}
}

// GetByID returns the unexpired session for id, or nil if not found or expired.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query, args, err := db.Psql.
		Select("id", "created_at", "updated_at", "expires_at", "payload").
		From(sessionsTable).
		Where(sq.Eq{"id": id}).
		Where(sq.Gt{"expires_at": r.clock.now()}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var row sqlxSession
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Session{
		ID:        row.ID,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
		Payload:   row.Payload,
	}, nil
}

// Save persists a new session. The session must have ID set; a duplicate id yields ErrSessionExists.
func (r *PostgresRepository) Save(ctx context.Context, s *domain.Session) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO sessions (id, created_at, updated_at, expires_at, payload)
VALUES (:id, :created_at, :updated_at, :expires_at, :payload)`,
		sqlxSession{ID: s.ID, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt, ExpiresAt: s.ExpiresAt, Payload: s.Payload},
	)
	if isUniqueViolation(err) {
		return ErrSessionExists
	}
	return err
}

// Update overwrites updated_at, expires_at and payload of an unexpired session.
// It returns false when no such row exists.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Session) (bool, error) {
	query, args, err := db.Psql.
		Update(sessionsTable).
		Set("updated_at", s.UpdatedAt).
		Set("expires_at", s.ExpiresAt).
		Set("payload", s.Payload).
		Where(sq.Eq{"id": s.ID}).
		Where(sq.Gt{"expires_at": r.clock.now()}).
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete removes the session with the given id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query, args, err := db.Psql.Delete(sessionsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

// DeleteExpired removes all sessions that expired at or before the given instant.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := db.Psql.Delete(sessionsTable).Where(sq.LtOrEq{"expires_at": before.UTC()}).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" // unique_violation
}
