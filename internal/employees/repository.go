package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/workzen-hq/workzen/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("employee not found")
	ErrAlreadyExists = errors.New("employee already exists")
	ErrInvalidStatus = errors.New("invalid employee status")
)

// Repository defines persistence operations for employees.
type Repository interface {
	Get(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error)
	Create(ctx context.Context, emp *Employee) error
	Update(ctx context.Context, emp *Employee) error
	NextCode(ctx context.Context) (string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const employeeColumns = `id, code, first_name, last_name, email, department, position, status, hire_date, created_at, updated_at`

func (r *PGRepository) Get(ctx context.Context, id string) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
	return scanEmployee(row)
}

func (r *PGRepository) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	if req.Search != "" {
		args = append(args, "%"+strings.ToLower(req.Search)+"%")
		n := fmt.Sprintf("$%d", len(args))
		where = append(where, fmt.Sprintf(
			"(LOWER(first_name) LIKE %s OR LOWER(last_name) LIKE %s OR LOWER(email) LIKE %s OR LOWER(code) LIKE %s)",
			n, n, n, n))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM employees WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, req.Limit, req.Offset)
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE %s ORDER BY code LIMIT $%d OFFSET $%d`,
		employeeColumns, cond, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PGRepository) Create(ctx context.Context, emp *Employee) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO employees (id, code, first_name, last_name, email, department, position, status, hire_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		emp.ID, emp.Code, emp.FirstName, emp.LastName, emp.Email, emp.Department,
		emp.Position, emp.Status, emp.HireDate, emp.CreatedAt, emp.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, emp *Employee) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE employees
		 SET first_name = $2, last_name = $3, department = $4, position = $5, status = $6, updated_at = $7
		 WHERE id = $1`,
		emp.ID, emp.FirstName, emp.LastName, emp.Department, emp.Position, emp.Status, emp.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextCode allocates the next employee code from a dedicated sequence, so
// concurrent creates never hand out the same code.
func (r *PGRepository) NextCode(ctx context.Context) (string, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('employee_code_seq')`).Scan(&n)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("EMP-%04d", n), nil
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	err := row.Scan(&emp.ID, &emp.Code, &emp.FirstName, &emp.LastName, &emp.Email,
		&emp.Department, &emp.Position, &emp.Status, &emp.HireDate, &emp.CreatedAt, &emp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &emp, nil
}

var _ Repository = (*PGRepository)(nil)
