package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"session-token-service/internal/db"
	identitydomain "session-token-service/internal/identity/domain"
	"session-token-service/internal/user/domain"
)

type sqlxUser struct {
	ID        string         `db:"id"`
	Username  string         `db:"username"`
	Nickname  sql.NullString `db:"nickname"`
	Email     sql.NullString `db:"email"`
	Phone     sql.NullString `db:"phone"`
	Status    string         `db:"status"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type sqlxPermission struct {
	ID         string         `db:"id"`
	ParentID   sql.NullString `db:"parent_id"`
	Name       string         `db:"name"`
	Permission sql.NullString `db:"permission"`
}

type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository returns a user repository that uses the given db.
func NewPostgresRepository(conn *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db.Sqlx(conn)}
}

// GetByUsername returns the user for username, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query, args, err := db.Psql.
		Select("id", "username", "nickname", "email", "phone", "status", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return nil, err
	}
	var row sqlxUser
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.User{
		ID:        row.ID,
		Username:  row.Username,
		Nickname:  row.Nickname.String,
		Email:     row.Email.String,
		Phone:     row.Phone.String,
		Status:    domain.UserStatus(row.Status),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}, nil
}

// ListPermissionsByUserID returns the permissions granted to userID. An unknown user yields an empty list.
func (r *PostgresRepository) ListPermissionsByUserID(ctx context.Context, userID string) ([]identitydomain.Permission, error) {
	query, args, err := db.Psql.
		Select("p.id", "p.parent_id", "p.name", "p.permission").
		From("permissions p").
		Join("user_permissions up ON up.permission_id = p.id").
		Where(sq.Eq{"up.user_id": userID}).
		OrderBy("p.id").
		ToSql()
	if err != nil {
		return nil, err
	}
	var rows []sqlxPermission
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]identitydomain.Permission, len(rows))
	for i, p := range rows {
		out[i] = identitydomain.Permission{
			ID:         p.ID,
			ParentID:   p.ParentID.String,
			Name:       p.Name,
			Permission: p.Permission.String,
		}
	}
	return out, nil
}
