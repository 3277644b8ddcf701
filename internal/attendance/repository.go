package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("attendance record not found")
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrNotCheckedIn     = errors.New("no open check-in for today")
)

// Repository defines persistence operations for attendance.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	OpenRecord(ctx context.Context, employeeID string, day time.Time) (*Record, error)
	Close(ctx context.Context, rec *Record) error
	ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Record, error)
	CloseAllOpen(ctx context.Context, before time.Time) (int, error)
}

// PGRepository implements Repository using PostgreSQL. A unique index on
// (employee_id, work_date) makes the one-record-per-day rule atomic with the
// insert.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const recordColumns = `id, employee_id, work_date, check_in, check_out, hours_worked, status`

func (r *PGRepository) Create(ctx context.Context, rec *Record) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attendance_records (id, employee_id, work_date, check_in, check_out, hours_worked, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.EmployeeID, rec.WorkDate, rec.CheckIn, rec.CheckOut, rec.HoursWorked, rec.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyCheckedIn
		}
		return err
	}
	return nil
}

func (r *PGRepository) OpenRecord(ctx context.Context, employeeID string, day time.Time) (*Record, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM attendance_records
		 WHERE employee_id = $1 AND work_date = $2 AND check_out IS NULL`,
		employeeID, day)
	return scanRecord(row)
}

func (r *PGRepository) Close(ctx context.Context, rec *Record) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attendance_records SET check_out = $2, hours_worked = $3, status = $4
		 WHERE id = $1 AND check_out IS NULL`,
		rec.ID, rec.CheckOut, rec.HoursWorked, rec.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotCheckedIn
	}
	return nil
}

func (r *PGRepository) ListByEmployee(ctx context.Context, employeeID string, limit, offset int) ([]Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM attendance_records
		 WHERE employee_id = $1 ORDER BY work_date DESC LIMIT $2 OFFSET $3`,
		employeeID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	return result, rows.Err()
}

// CloseAllOpen force-closes records whose work date is before the cutoff,
// crediting zero hours. Used by the nightly auto-close job.
func (r *PGRepository) CloseAllOpen(ctx context.Context, before time.Time) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE attendance_records
		 SET check_out = check_in, hours_worked = 0, status = $2
		 WHERE check_out IS NULL AND work_date < $1`,
		before, StatusPresent)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.WorkDate, &rec.CheckIn,
		&rec.CheckOut, &rec.HoursWorked, &rec.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

var _ Repository = (*PGRepository)(nil)
