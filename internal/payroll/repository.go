package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workzen-hq/workzen/internal/platform/db"
	"github.com/workzen-hq/workzen/internal/shared"
)

var (
	ErrRunNotFound     = errors.New("payroll: payrun not found")
	ErrPeriodExists    = errors.New("payroll: payrun already exists for period")
	ErrInvalidState    = errors.New("payroll: payrun not in required state")
	ErrPayslipNotFound = errors.New("payroll: payslip not found")
	ErrNoSalaries      = errors.New("payroll: no salary configuration found")
)

// deductionRate is the flat withholding applied to gross pay.
const deductionRate = 0.20

// Repository is the persistence boundary for payruns and payslips.
type Repository interface {
	ListRuns(ctx context.Context, p shared.Pagination) ([]Payrun, int, error)
	GetRun(ctx context.Context, id string) (Payrun, error)
	// CreateRun inserts a draft payrun and generates one payslip per
	// configured salary, all in one transaction.
	CreateRun(ctx context.Context, run Payrun, buildSlip func(Salary) Payslip) (Payrun, error)
	// Transition moves a payrun from one status to the next and fails
	// with ErrInvalidState when the run is not in the expected status.
	Transition(ctx context.Context, id, from, to, actorID string, at time.Time) (Payrun, error)
	ListSlipsByRun(ctx context.Context, runID string) ([]Payslip, error)
	ListSlipsByEmployee(ctx context.Context, employeeID string, p shared.Pagination) ([]Payslip, int, error)
	Summary(ctx context.Context, runID string) (RunSummary, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) ListRuns(ctx context.Context, p shared.Pagination) ([]Payrun, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payruns`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("payroll: count runs: %w", err)
	}

	const q = `SELECT id, period, status, gross_total, net_total, headcount,
		created_by, approved_by, created_at, updated_at, approved_at
		FROM payruns ORDER BY period DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, q, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("payroll: list runs: %w", err)
	}
	defer rows.Close()

	out := make([]Payrun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("payroll: scan run: %w", err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("payroll: iterate runs: %w", err)
	}
	return out, total, nil
}

func (r *PGRepository) GetRun(ctx context.Context, id string) (Payrun, error) {
	const q = `SELECT id, period, status, gross_total, net_total, headcount,
		created_by, approved_by, created_at, updated_at, approved_at
		FROM payruns WHERE id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payrun{}, ErrRunNotFound
	}
	if err != nil {
		return Payrun{}, fmt.Errorf("payroll: get run: %w", err)
	}
	return run, nil
}

func (r *PGRepository) CreateRun(ctx context.Context, run Payrun, buildSlip func(Salary) Payslip) (Payrun, error) {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return createRun(ctx, tx, &run, buildSlip)
	})
	if err != nil {
		return Payrun{}, err
	}
	return run, nil
}

// createRun stages the draft run row before its payslips: payslips.payrun_id
// references payruns(id) and the constraint is checked per statement, so the
// run must exist when the first slip is inserted. Totals are folded into the
// run afterwards. A period conflict surfaces on the very first statement.
func createRun(ctx context.Context, tx pgx.Tx, run *Payrun, buildSlip func(Salary) Payslip) error {
	if _, err := tx.Exec(ctx,
		`INSERT INTO payruns (id, period, status, gross_total, net_total, headcount, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, 0, 0, 0, $4, $5, $6)`,
		run.ID, run.Period, run.Status, run.CreatedBy, run.CreatedAt, run.UpdatedAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPeriodExists
		}
		return fmt.Errorf("payroll: insert run: %w", err)
	}

	const salQ = `SELECT s.employee_id, s.base_monthly, s.currency
		FROM employee_salaries s
		JOIN employees e ON e.id = s.employee_id
		WHERE e.status = 'active'`

	rows, err := tx.Query(ctx, salQ)
	if err != nil {
		return fmt.Errorf("payroll: load salaries: %w", err)
	}
	salaries := make([]Salary, 0)
	for rows.Next() {
		var s Salary
		if err := rows.Scan(&s.EmployeeID, &s.BaseMonthly, &s.Currency); err != nil {
			rows.Close()
			return fmt.Errorf("payroll: scan salary: %w", err)
		}
		salaries = append(salaries, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("payroll: iterate salaries: %w", err)
	}
	if len(salaries) == 0 {
		// Rolls the staged run back with the rest of the transaction.
		return ErrNoSalaries
	}

	for _, s := range salaries {
		slip := buildSlip(s)
		run.GrossTotal += slip.GrossPay
		run.NetTotal += slip.NetPay
		run.Headcount++

		if _, err := tx.Exec(ctx,
			`INSERT INTO payslips (id, payrun_id, employee_id, period, gross_pay, deductions, net_pay, currency, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			slip.ID, run.ID, slip.EmployeeID, run.Period,
			slip.GrossPay, slip.Deductions, slip.NetPay, slip.Currency, slip.CreatedAt,
		); err != nil {
			return fmt.Errorf("payroll: insert payslip: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE payruns SET gross_total = $2, net_total = $3, headcount = $4 WHERE id = $1`,
		run.ID, run.GrossTotal, run.NetTotal, run.Headcount,
	); err != nil {
		return fmt.Errorf("payroll: update run totals: %w", err)
	}
	return nil
}

func (r *PGRepository) Transition(ctx context.Context, id, from, to, actorID string, at time.Time) (Payrun, error) {
	var out Payrun
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const lockQ = `SELECT id, period, status, gross_total, net_total, headcount,
			created_by, approved_by, created_at, updated_at, approved_at
			FROM payruns WHERE id = $1 FOR UPDATE`

		run, err := scanRun(tx.QueryRow(ctx, lockQ, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRunNotFound
		}
		if err != nil {
			return fmt.Errorf("payroll: lock run: %w", err)
		}
		if run.Status != from {
			return fmt.Errorf("%w: have %s, need %s", ErrInvalidState, run.Status, from)
		}

		run.Status = to
		run.UpdatedAt = at
		if to == StatusApproved {
			run.ApprovedBy = &actorID
			run.ApprovedAt = &at
		}
		if _, err := tx.Exec(ctx,
			`UPDATE payruns SET status = $1, updated_at = $2, approved_by = $3, approved_at = $4 WHERE id = $5`,
			run.Status, run.UpdatedAt, run.ApprovedBy, run.ApprovedAt, id,
		); err != nil {
			return fmt.Errorf("payroll: update run: %w", err)
		}
		out = run
		return nil
	})
	if err != nil {
		return Payrun{}, err
	}
	return out, nil
}

func (r *PGRepository) ListSlipsByRun(ctx context.Context, runID string) ([]Payslip, error) {
	const q = `SELECT id, payrun_id, employee_id, period, gross_pay, deductions, net_pay, currency, created_at
		FROM payslips WHERE payrun_id = $1 ORDER BY employee_id`

	rows, err := r.pool.Query(ctx, q, runID)
	if err != nil {
		return nil, fmt.Errorf("payroll: list slips: %w", err)
	}
	defer rows.Close()
	return collectSlips(rows)
}

func (r *PGRepository) ListSlipsByEmployee(ctx context.Context, employeeID string, p shared.Pagination) ([]Payslip, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payslips WHERE employee_id = $1`, employeeID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("payroll: count slips: %w", err)
	}

	const q = `SELECT id, payrun_id, employee_id, period, gross_pay, deductions, net_pay, currency, created_at
		FROM payslips WHERE employee_id = $1
		ORDER BY period DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, q, employeeID, p.Limit, p.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("payroll: list slips: %w", err)
	}
	defer rows.Close()

	out, err := collectSlips(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PGRepository) Summary(ctx context.Context, runID string) (RunSummary, error) {
	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return RunSummary{}, err
	}

	const q = `SELECT COUNT(*), COALESCE(SUM(gross_pay), 0), COALESCE(SUM(deductions), 0), COALESCE(SUM(net_pay), 0)
		FROM payslips WHERE payrun_id = $1`

	var sum RunSummary
	if err := r.pool.QueryRow(ctx, q, runID).Scan(
		&sum.Headcount, &sum.GrossTotal, &sum.DeductionsTotal, &sum.NetTotal,
	); err != nil {
		return RunSummary{}, fmt.Errorf("payroll: summarize run: %w", err)
	}
	sum.PayrunID = run.ID
	sum.Period = run.Period
	sum.Status = run.Status
	if sum.Headcount > 0 {
		sum.AverageNet = sum.NetTotal / float64(sum.Headcount)
	}
	return sum, nil
}

func scanRun(row pgx.Row) (Payrun, error) {
	var run Payrun
	err := row.Scan(
		&run.ID, &run.Period, &run.Status, &run.GrossTotal, &run.NetTotal, &run.Headcount,
		&run.CreatedBy, &run.ApprovedBy, &run.CreatedAt, &run.UpdatedAt, &run.ApprovedAt,
	)
	return run, err
}

func collectSlips(rows pgx.Rows) ([]Payslip, error) {
	out := make([]Payslip, 0)
	for rows.Next() {
		var s Payslip
		if err := rows.Scan(
			&s.ID, &s.PayrunID, &s.EmployeeID, &s.Period,
			&s.GrossPay, &s.Deductions, &s.NetPay, &s.Currency, &s.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("payroll: scan slip: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payroll: iterate slips: %w", err)
	}
	return out, nil
}
