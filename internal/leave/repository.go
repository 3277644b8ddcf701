package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workzen-hq/workzen/internal/platform/db"
	"github.com/workzen-hq/workzen/internal/shared"
)

var (
	ErrRequestNotFound     = errors.New("leave: request not found")
	ErrBalanceNotFound     = errors.New("leave: balance not found")
	ErrAlreadyDecided      = errors.New("leave: request already decided")
	ErrInsufficientBalance = errors.New("leave: insufficient balance")
	ErrInvalidType         = errors.New("leave: invalid leave type")
)

// Repository is the persistence boundary for leave balances and requests.
type Repository interface {
	GetBalance(ctx context.Context, employeeID string) (Balance, error)
	CreateRequest(ctx context.Context, req Request) error
	GetRequest(ctx context.Context, id string) (Request, error)
	ListByEmployee(ctx context.Context, employeeID string, p shared.Pagination) ([]Request, int, error)
	ListPending(ctx context.Context, p shared.Pagination) ([]Request, int, error)
	// Decide flips a pending request to approved or rejected. Approval
	// debits the matching balance bucket in the same transaction and
	// fails with ErrInsufficientBalance when the bucket cannot cover it.
	Decide(ctx context.Context, requestID, decidedBy string, approve bool, decidedAt time.Time) (Request, error)
	AccrueAll(ctx context.Context, vacationDays, sickDays float64) (int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) GetBalance(ctx context.Context, employeeID string) (Balance, error) {
	const q = `SELECT employee_id, vacation_days, sick_days, personal_days, unpaid_days
		FROM leave_balances WHERE employee_id = $1`

	var b Balance
	err := r.pool.QueryRow(ctx, q, employeeID).Scan(
		&b.EmployeeID, &b.VacationDays, &b.SickDays, &b.PersonalDays, &b.UnpaidDays,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Balance{}, ErrBalanceNotFound
	}
	if err != nil {
		return Balance{}, fmt.Errorf("leave: get balance: %w", err)
	}
	return b, nil
}

func (r *PGRepository) CreateRequest(ctx context.Context, req Request) error {
	const q = `INSERT INTO leave_requests
		(id, employee_id, type, start_date, end_date, days, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, q,
		req.ID, req.EmployeeID, req.Type, req.StartDate, req.EndDate,
		req.Days, req.Reason, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("leave: create request: %w", err)
	}
	return nil
}

func (r *PGRepository) GetRequest(ctx context.Context, id string) (Request, error) {
	const q = `SELECT id, employee_id, type, start_date, end_date, days, reason,
		status, decided_by, decided_at, created_at
		FROM leave_requests WHERE id = $1`

	req, err := scanRequest(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrRequestNotFound
	}
	if err != nil {
		return Request{}, fmt.Errorf("leave: get request: %w", err)
	}
	return req, nil
}

func (r *PGRepository) ListByEmployee(ctx context.Context, employeeID string, p shared.Pagination) ([]Request, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE employee_id = $1`, employeeID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("leave: count requests: %w", err)
	}

	const q = `SELECT id, employee_id, type, start_date, end_date, days, reason,
		status, decided_by, decided_at, created_at
		FROM leave_requests WHERE employee_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, q, employeeID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("leave: list requests: %w", err)
	}
	defer rows.Close()

	out, err := collectRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PGRepository) ListPending(ctx context.Context, p shared.Pagination) ([]Request, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM leave_requests WHERE status = $1`, StatusPending,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("leave: count pending: %w", err)
	}

	const q = `SELECT id, employee_id, type, start_date, end_date, days, reason,
		status, decided_by, decided_at, created_at
		FROM leave_requests WHERE status = $1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, q, StatusPending, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("leave: list pending: %w", err)
	}
	defer rows.Close()

	out, err := collectRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PGRepository) Decide(ctx context.Context, requestID, decidedBy string, approve bool, decidedAt time.Time) (Request, error) {
	var out Request
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const lockQ = `SELECT id, employee_id, type, start_date, end_date, days, reason,
			status, decided_by, decided_at, created_at
			FROM leave_requests WHERE id = $1 FOR UPDATE`

		req, err := scanRequest(tx.QueryRow(ctx, lockQ, requestID))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("leave: lock request: %w", err)
		}
		if req.Status != StatusPending {
			return ErrAlreadyDecided
		}

		if approve && req.Type != TypeUnpaid {
			col, ok := balanceColumn(req.Type)
			if !ok {
				return ErrInvalidType
			}
			debit := fmt.Sprintf(
				`UPDATE leave_balances SET %s = %s - $1
				 WHERE employee_id = $2 AND %s >= $1`, col, col, col)
			tag, err := tx.Exec(ctx, debit, req.Days, req.EmployeeID)
			if err != nil {
				return fmt.Errorf("leave: debit balance: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return ErrInsufficientBalance
			}
		}

		status := StatusRejected
		if approve {
			status = StatusApproved
		}
		if _, err := tx.Exec(ctx,
			`UPDATE leave_requests SET status = $1, decided_by = $2, decided_at = $3 WHERE id = $4`,
			status, decidedBy, decidedAt, requestID,
		); err != nil {
			return fmt.Errorf("leave: update request: %w", err)
		}

		req.Status = status
		req.DecidedBy = &decidedBy
		req.DecidedAt = &decidedAt
		out = req
		return nil
	})
	if err != nil {
		return Request{}, err
	}
	return out, nil
}

// AccrueAll credits every balance row with the monthly accrual amounts
// and returns the number of rows touched.
func (r *PGRepository) AccrueAll(ctx context.Context, vacationDays, sickDays float64) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE leave_balances SET vacation_days = vacation_days + $1, sick_days = sick_days + $2`,
		vacationDays, sickDays,
	)
	if err != nil {
		return 0, fmt.Errorf("leave: accrue: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func balanceColumn(leaveType string) (string, bool) {
	switch leaveType {
	case TypeVacation:
		return "vacation_days", true
	case TypeSick:
		return "sick_days", true
	case TypePersonal:
		return "personal_days", true
	}
	return "", false
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	err := row.Scan(
		&req.ID, &req.EmployeeID, &req.Type, &req.StartDate, &req.EndDate,
		&req.Days, &req.Reason, &req.Status, &req.DecidedBy, &req.DecidedAt, &req.CreatedAt,
	)
	return req, err
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	out := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("leave: scan request: %w", err)
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leave: iterate requests: %w", err)
	}
	return out, nil
}
