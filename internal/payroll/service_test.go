package payroll

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workzen-hq/workzen/internal/shared"
)

type memoryRepo struct {
	salaries []Salary
	runs     map[string]*Payrun
	slips    map[string][]Payslip
}

func newMemoryRepo(salaries ...Salary) *memoryRepo {
	return &memoryRepo{
		salaries: salaries,
		runs:     make(map[string]*Payrun),
		slips:    make(map[string][]Payslip),
	}
}

func (m *memoryRepo) ListRuns(_ context.Context, _ shared.Pagination) ([]Payrun, int, error) {
	out := make([]Payrun, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, *run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period > out[j].Period })
	return out, len(out), nil
}

func (m *memoryRepo) GetRun(_ context.Context, id string) (Payrun, error) {
	run, ok := m.runs[id]
	if !ok {
		return Payrun{}, ErrRunNotFound
	}
	return *run, nil
}

func (m *memoryRepo) CreateRun(_ context.Context, run Payrun, buildSlip func(Salary) Payslip) (Payrun, error) {
	for _, existing := range m.runs {
		if existing.Period == run.Period {
			return Payrun{}, ErrPeriodExists
		}
	}
	if len(m.salaries) == 0 {
		return Payrun{}, ErrNoSalaries
	}
	for _, sal := range m.salaries {
		slip := buildSlip(sal)
		slip.PayrunID = run.ID
		slip.Period = run.Period
		run.GrossTotal += slip.GrossPay
		run.NetTotal += slip.NetPay
		run.Headcount++
		m.slips[run.ID] = append(m.slips[run.ID], slip)
	}
	cp := run
	m.runs[run.ID] = &cp
	return run, nil
}

func (m *memoryRepo) Transition(_ context.Context, id, from, to, actorID string, at time.Time) (Payrun, error) {
	run, ok := m.runs[id]
	if !ok {
		return Payrun{}, ErrRunNotFound
	}
	if run.Status != from {
		return Payrun{}, ErrInvalidState
	}
	run.Status = to
	run.UpdatedAt = at
	if to == StatusApproved {
		run.ApprovedBy = &actorID
		run.ApprovedAt = &at
	}
	return *run, nil
}

func (m *memoryRepo) ListSlipsByRun(_ context.Context, runID string) ([]Payslip, error) {
	return m.slips[runID], nil
}

func (m *memoryRepo) ListSlipsByEmployee(_ context.Context, employeeID string, _ shared.Pagination) ([]Payslip, int, error) {
	var out []Payslip
	for _, slips := range m.slips {
		for _, s := range slips {
			if s.EmployeeID == employeeID {
				out = append(out, s)
			}
		}
	}
	return out, len(out), nil
}

func (m *memoryRepo) Summary(_ context.Context, runID string) (RunSummary, error) {
	run, ok := m.runs[runID]
	if !ok {
		return RunSummary{}, ErrRunNotFound
	}
	sum := RunSummary{PayrunID: run.ID, Period: run.Period, Status: run.Status}
	for _, s := range m.slips[runID] {
		sum.Headcount++
		sum.GrossTotal += s.GrossPay
		sum.DeductionsTotal += s.Deductions
		sum.NetTotal += s.NetPay
	}
	if sum.Headcount > 0 {
		sum.AverageNet = sum.NetTotal / float64(sum.Headcount)
	}
	return sum, nil
}

var (
	officer = shared.Principal{UserID: "po-1", Role: shared.RolePayrollOfficer}
	boss    = shared.Principal{UserID: "adm-1", Role: shared.RoleAdmin}
)

func TestCreateRunBuildsPayslips(t *testing.T) {
	repo := newMemoryRepo(
		Salary{EmployeeID: "emp-1", BaseMonthly: 5000, Currency: "USD"},
		Salary{EmployeeID: "emp-2", BaseMonthly: 3000, Currency: "USD"},
	)
	svc := NewService(repo, nil)

	run, err := svc.CreateRun(context.Background(), officer, "2026-08")
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, run.Status)
	assert.Equal(t, 2, run.Headcount)
	assert.Equal(t, 8000.0, run.GrossTotal)
	assert.Equal(t, 6400.0, run.NetTotal)

	slips, err := svc.RunSlips(context.Background(), run.ID)
	require.NoError(t, err)
	require.Len(t, slips, 2)
	for _, slip := range slips {
		assert.Equal(t, slip.GrossPay-slip.Deductions, slip.NetPay)
		assert.Contains(t, slip.NetDisplay, "$")
	}
}

func TestCreateRunRejectsBadPeriod(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	for _, period := range []string{"2026-13", "202608", "aug-2026", "2026-8"} {
		_, err := svc.CreateRun(context.Background(), officer, period)
		assert.ErrorIs(t, err, ErrInvalidPeriod, period)
	}
}

func TestCreateRunDuplicatePeriod(t *testing.T) {
	repo := newMemoryRepo(Salary{EmployeeID: "emp-1", BaseMonthly: 5000, Currency: "USD"})
	svc := NewService(repo, nil)

	_, err := svc.CreateRun(context.Background(), officer, "2026-08")
	require.NoError(t, err)

	_, err = svc.CreateRun(context.Background(), officer, "2026-08")
	assert.ErrorIs(t, err, ErrPeriodExists)
}

func TestRunLifecycle(t *testing.T) {
	repo := newMemoryRepo(Salary{EmployeeID: "emp-1", BaseMonthly: 5000, Currency: "USD"})
	svc := NewService(repo, nil)

	run, err := svc.CreateRun(context.Background(), officer, "2026-08")
	require.NoError(t, err)

	// Approval straight from draft is rejected.
	_, err = svc.ApproveRun(context.Background(), boss, run.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	submitted, err := svc.SubmitRun(context.Background(), officer, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, submitted.Status)

	// A second submit conflicts.
	_, err = svc.SubmitRun(context.Background(), officer, run.ID)
	assert.ErrorIs(t, err, ErrInvalidState)

	approved, err := svc.ApproveRun(context.Background(), boss, run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "adm-1", *approved.ApprovedBy)

	_, err = svc.ApproveRun(context.Background(), boss, run.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRunSummary(t *testing.T) {
	repo := newMemoryRepo(
		Salary{EmployeeID: "emp-1", BaseMonthly: 4000, Currency: "USD"},
		Salary{EmployeeID: "emp-2", BaseMonthly: 6000, Currency: "USD"},
	)
	svc := NewService(repo, nil)

	run, err := svc.CreateRun(context.Background(), officer, "2026-08")
	require.NoError(t, err)

	sum, err := svc.RunSummary(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Headcount)
	assert.Equal(t, 10000.0, sum.GrossTotal)
	assert.Equal(t, 2000.0, sum.DeductionsTotal)
	assert.Equal(t, 8000.0, sum.NetTotal)
	assert.Equal(t, 4000.0, sum.AverageNet)
}

func TestRunSummaryUnknownRun(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.RunSummary(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunSlipsUnknownRun(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.RunSlips(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestCreateRunNoSalaries(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateRun(context.Background(), officer, "2026-08")
	assert.ErrorIs(t, err, ErrNoSalaries)
}
