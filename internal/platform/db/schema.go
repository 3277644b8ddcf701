package db

import "context"

// Schema holds the DDL for every table the repositories query. Keeping it
// next to the Querier lets repository tests assert their column lists
// against the same statements the seed program executes.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email TEXT NOT NULL,
		name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (email)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		actor_id TEXT NOT NULL,
		action TEXT NOT NULL,
		entity TEXT NOT NULL,
		entity_id TEXT NOT NULL DEFAULT '',
		meta JSONB,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id UUID PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		department TEXT NOT NULL,
		position TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		hire_date DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE SEQUENCE IF NOT EXISTS employee_code_seq`,
	`CREATE TABLE IF NOT EXISTS attendance_records (
		id UUID PRIMARY KEY,
		employee_id UUID NOT NULL REFERENCES employees (id),
		work_date DATE NOT NULL,
		check_in TIMESTAMPTZ NOT NULL,
		check_out TIMESTAMPTZ,
		hours_worked DOUBLE PRECISION,
		status TEXT NOT NULL,
		UNIQUE (employee_id, work_date)
	)`,
	`CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id UUID PRIMARY KEY REFERENCES employees (id),
		vacation_days DOUBLE PRECISION NOT NULL DEFAULT 0,
		sick_days DOUBLE PRECISION NOT NULL DEFAULT 0,
		personal_days DOUBLE PRECISION NOT NULL DEFAULT 0,
		unpaid_days DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS leave_requests (
		id UUID PRIMARY KEY,
		employee_id UUID NOT NULL REFERENCES employees (id),
		type TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		days DOUBLE PRECISION NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		decided_by TEXT,
		decided_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS employee_salaries (
		employee_id UUID PRIMARY KEY REFERENCES employees (id),
		base_monthly DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD'
	)`,
	`CREATE TABLE IF NOT EXISTS payruns (
		id UUID PRIMARY KEY,
		period TEXT NOT NULL UNIQUE,
		status TEXT NOT NULL DEFAULT 'draft',
		gross_total DOUBLE PRECISION NOT NULL DEFAULT 0,
		net_total DOUBLE PRECISION NOT NULL DEFAULT 0,
		headcount INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		approved_by TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		approved_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS payslips (
		id UUID PRIMARY KEY,
		payrun_id UUID NOT NULL REFERENCES payruns (id),
		employee_id UUID NOT NULL REFERENCES employees (id),
		period TEXT NOT NULL,
		gross_pay DOUBLE PRECISION NOT NULL,
		deductions DOUBLE PRECISION NOT NULL,
		net_pay DOUBLE PRECISION NOT NULL,
		currency TEXT NOT NULL DEFAULT 'USD',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS payslips_employee_idx ON payslips (employee_id, period)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_by TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema applies every schema statement in order. All statements are
// idempotent, so running it against an existing database is safe.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, stmt := range Schema {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
