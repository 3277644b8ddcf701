package payroll

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/workzen-hq/workzen/internal/shared"
)

var (
	ErrInvalidPeriod = errors.New("payroll: period must be YYYY-MM")

	periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
)

type Service struct {
	repo  Repository
	audit shared.AuditRecorder
	// summaries collapses concurrent builds of the same run summary.
	summaries singleflight.Group
	now       func() time.Time
}

func NewService(repo Repository, audit shared.AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

func (s *Service) ListRuns(ctx context.Context, p shared.Pagination) ([]Payrun, int, error) {
	return s.repo.ListRuns(ctx, p)
}

func (s *Service) GetRun(ctx context.Context, id string) (Payrun, error) {
	return s.repo.GetRun(ctx, id)
}

// CreateRun opens a draft payrun for the period and generates a payslip
// for every active employee with a salary configuration.
func (s *Service) CreateRun(ctx context.Context, actor shared.Principal, period string) (Payrun, error) {
	if !periodPattern.MatchString(period) {
		return Payrun{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}

	now := s.now().UTC()
	run := Payrun{
		ID:        uuid.NewString(),
		Period:    period,
		Status:    StatusDraft,
		CreatedBy: actor.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := s.repo.CreateRun(ctx, run, func(sal Salary) Payslip {
		deductions := round2(sal.BaseMonthly * deductionRate)
		return Payslip{
			ID:         uuid.NewString(),
			EmployeeID: sal.EmployeeID,
			GrossPay:   sal.BaseMonthly,
			Deductions: deductions,
			NetPay:     round2(sal.BaseMonthly - deductions),
			Currency:   sal.Currency,
			CreatedAt:  now,
		}
	})
	if err != nil {
		return Payrun{}, err
	}
	s.recordAudit(ctx, actor, "payroll.run_created", created)
	return created, nil
}

// SubmitRun moves a draft payrun to submitted.
func (s *Service) SubmitRun(ctx context.Context, actor shared.Principal, id string) (Payrun, error) {
	run, err := s.repo.Transition(ctx, id, StatusDraft, StatusSubmitted, actor.UserID, s.now().UTC())
	if err != nil {
		return Payrun{}, err
	}
	s.recordAudit(ctx, actor, "payroll.run_submitted", run)
	return run, nil
}

// ApproveRun moves a submitted payrun to approved.
func (s *Service) ApproveRun(ctx context.Context, actor shared.Principal, id string) (Payrun, error) {
	run, err := s.repo.Transition(ctx, id, StatusSubmitted, StatusApproved, actor.UserID, s.now().UTC())
	if err != nil {
		return Payrun{}, err
	}
	s.recordAudit(ctx, actor, "payroll.run_approved", run)
	return run, nil
}

// RunSlips lists the payslips of one run. An unknown run is ErrRunNotFound
// rather than an empty list, matching the summary endpoint.
func (s *Service) RunSlips(ctx context.Context, runID string) ([]Payslip, error) {
	if _, err := s.repo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	slips, err := s.repo.ListSlipsByRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return displayed(slips), nil
}

func (s *Service) EmployeeSlips(ctx context.Context, employeeID string, p shared.Pagination) ([]Payslip, int, error) {
	slips, total, err := s.repo.ListSlipsByEmployee(ctx, employeeID, p)
	if err != nil {
		return nil, 0, err
	}
	return displayed(slips), total, nil
}

// RunSummary builds the aggregate report for a payrun. Concurrent
// requests for the same run share one repository round trip.
func (s *Service) RunSummary(ctx context.Context, runID string) (RunSummary, error) {
	v, err, _ := s.summaries.Do(runID, func() (any, error) {
		return s.repo.Summary(ctx, runID)
	})
	if err != nil {
		return RunSummary{}, err
	}
	return v.(RunSummary), nil
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Principal, action string, run Payrun) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "payrun",
		EntityID: run.ID,
		Meta:     map[string]any{"period": run.Period, "status": run.Status},
	})
}

func displayed(slips []Payslip) []Payslip {
	out := make([]Payslip, len(slips))
	for i, s := range slips {
		out[i] = s.withDisplay()
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
