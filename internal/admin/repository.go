package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workzen-hq/workzen/internal/shared"
)

var ErrUserNotFound = errors.New("admin: user not found")

// Repository is the persistence boundary for administrative reads and
// system settings.
type Repository interface {
	ListUsers(ctx context.Context, p shared.Pagination) ([]UserRecord, int, error)
	SetUserActive(ctx context.Context, id string, active bool) (UserRecord, error)
	ListSettings(ctx context.Context) ([]Setting, error)
	UpsertSetting(ctx context.Context, s Setting) error
	ListAuditLogs(ctx context.Context, entity string, p shared.Pagination) ([]AuditEntry, int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListUsers(ctx context.Context, p shared.Pagination) ([]UserRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("admin: count users: %w", err)
	}

	const q = `SELECT id, email, name, role, is_active, created_at
		FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, q, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("admin: list users: %w", err)
	}
	defer rows.Close()

	out := make([]UserRecord, 0)
	for rows.Next() {
		var u UserRecord
		var role string
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &role, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("admin: scan user: %w", err)
		}
		u.Role = shared.Role(role)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("admin: iterate users: %w", err)
	}
	return out, total, nil
}

func (r *PGRepository) SetUserActive(ctx context.Context, id string, active bool) (UserRecord, error) {
	const q = `UPDATE users SET is_active = $1, updated_at = NOW() WHERE id = $2
		RETURNING id, email, name, role, is_active, created_at`

	var u UserRecord
	var role string
	err := r.pool.QueryRow(ctx, q, active, id).Scan(
		&u.ID, &u.Email, &u.Name, &role, &u.IsActive, &u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserRecord{}, ErrUserNotFound
	}
	if err != nil {
		return UserRecord{}, fmt.Errorf("admin: set user active: %w", err)
	}
	u.Role = shared.Role(role)
	return u, nil
}

func (r *PGRepository) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT key, value, updated_by, updated_at FROM system_settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("admin: list settings: %w", err)
	}
	defer rows.Close()

	out := make([]Setting, 0)
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedBy, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("admin: scan setting: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("admin: iterate settings: %w", err)
	}
	return out, nil
}

func (r *PGRepository) UpsertSetting(ctx context.Context, s Setting) error {
	const q = `INSERT INTO system_settings (key, value, updated_by, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET value = $2, updated_by = $3, updated_at = $4`

	if _, err := r.pool.Exec(ctx, q, s.Key, s.Value, s.UpdatedBy, s.UpdatedAt); err != nil {
		return fmt.Errorf("admin: upsert setting: %w", err)
	}
	return nil
}

func (r *PGRepository) ListAuditLogs(ctx context.Context, entity string, p shared.Pagination) ([]AuditEntry, int, error) {
	where := ""
	args := []any{}
	if entity != "" {
		where = " WHERE entity = $1"
		args = append(args, entity)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("admin: count audit logs: %w", err)
	}

	q := fmt.Sprintf(
		`SELECT id, actor_id, action, entity, entity_id, meta, occurred_at
		 FROM audit_logs%s ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, p.Limit, p.Offset)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("admin: list audit logs: %w", err)
	}
	defer rows.Close()

	out := make([]AuditEntry, 0)
	for rows.Next() {
		var e AuditEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Entity, &e.EntityID, &meta, &e.OccurredAt); err != nil {
			return nil, 0, fmt.Errorf("admin: scan audit log: %w", err)
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &e.Meta)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("admin: iterate audit logs: %w", err)
	}
	return out, total, nil
}
