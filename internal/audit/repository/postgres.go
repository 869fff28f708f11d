package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"session-token-service/internal/audit/domain"
	"session-token-service/internal/db"
)

const sysLogsTable = "sys_logs"

var sysLogColumns = []string{"id", "user_id", "action", "success", "detail", "ip", "created_at"}

// sqlxSysLog is the sys_logs row.
type sqlxSysLog struct {
	ID        string         `db:"id"`
	UserID    sql.NullString `db:"user_id"`
	Action    string         `db:"action"`
	Success   bool           `db:"success"`
	Detail    sql.NullString `db:"detail"`
	IP        string         `db:"ip"`
	CreatedAt time.Time      `db:"created_at"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db.Sqlx(conn)}
}

// GetByID returns the audit log for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.SysLog, error) {
	query, args, err := db.Psql.Select(sysLogColumns...).From(sysLogsTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var row sqlxSysLog
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// ListByUser returns audit logs for the given user, newest first, paginated by limit and offset.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit, offset int32) ([]*domain.SysLog, error) {
	query, args, err := db.Psql.
		Select(sysLogColumns...).
		From(sysLogsTable).
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(max(limit, 0))).
		Offset(uint64(max(offset, 0))).
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []sqlxSysLog
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*domain.SysLog, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

// Create persists the audit log. The entry must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, l *domain.SysLog) error {
	query, args, err := db.Psql.
		Insert(sysLogsTable).
		Columns(sysLogColumns...).
		Values(
			l.ID,
			sql.NullString{String: l.UserID, Valid: l.UserID != ""},
			l.Action,
			l.Success,
			sql.NullString{String: l.Detail, Valid: l.Detail != ""},
			l.IP,
			l.CreatedAt,
		).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r sqlxSysLog) toDomain() *domain.SysLog {
	return &domain.SysLog{
		ID:        r.ID,
		UserID:    r.UserID.String,
		Action:    r.Action,
		Success:   r.Success,
		Detail:    r.Detail.String,
		IP:        r.IP,
		CreatedAt: r.CreatedAt.UTC(),
	}
}
