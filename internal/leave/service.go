package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/workzen-hq/workzen/internal/shared"
	"github.com/workzen-hq/workzen/jobs"
)

var ErrInvalidRange = errors.New("leave: end date before start date")

// Notifier enqueues transactional email. Satisfied by jobs.Client.
type Notifier interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// EmailLookup resolves an employee id to a notification address.
type EmailLookup func(ctx context.Context, employeeID string) (string, error)

type Service struct {
	repo     Repository
	audit    shared.AuditRecorder
	notifier Notifier
	emails   EmailLookup
	now      func() time.Time
}

// NewService wires the leave workflow. notifier and emails may be nil,
// which turns decision emails off (the worker only needs Accrue).
func NewService(repo Repository, audit shared.AuditRecorder, notifier Notifier, emails EmailLookup) *Service {
	return &Service{repo: repo, audit: audit, notifier: notifier, emails: emails, now: time.Now}
}

func (s *Service) Balance(ctx context.Context, employeeID string) (Balance, error) {
	return s.repo.GetBalance(ctx, employeeID)
}

// Submit files a new pending request. Days defaults to the number of
// calendar days in the range when the caller does not supply it.
func (s *Service) Submit(ctx context.Context, employeeID, leaveType string, start, end time.Time, days float64, reason string) (Request, error) {
	if !ValidType(leaveType) {
		return Request{}, fmt.Errorf("%w: %q", ErrInvalidType, leaveType)
	}
	if end.Before(start) {
		return Request{}, ErrInvalidRange
	}
	if days <= 0 {
		days = end.Sub(start).Hours()/24 + 1
	}

	req := Request{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		Type:       leaveType,
		StartDate:  start,
		EndDate:    end,
		Days:       days,
		Reason:     reason,
		Status:     StatusPending,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (s *Service) ListRequests(ctx context.Context, employeeID string, p shared.Pagination) ([]Request, int, error) {
	return s.repo.ListByEmployee(ctx, employeeID, p)
}

func (s *Service) ListPending(ctx context.Context, p shared.Pagination) ([]Request, int, error) {
	return s.repo.ListPending(ctx, p)
}

// Decide approves or rejects a pending request on behalf of the actor.
// Approval debits the employee's balance bucket atomically.
func (s *Service) Decide(ctx context.Context, actor shared.Principal, requestID string, approve bool) (Request, error) {
	req, err := s.repo.Decide(ctx, requestID, actor.UserID, approve, s.now().UTC())
	if err != nil {
		return Request{}, err
	}
	s.recordAudit(ctx, actor, req)
	s.notifyDecision(ctx, req)
	return req, nil
}

// notifyDecision emails the employee about the outcome. Failures are
// dropped: the decision has already been committed and audited.
func (s *Service) notifyDecision(ctx context.Context, req Request) {
	if s.notifier == nil || s.emails == nil {
		return
	}
	to, err := s.emails(ctx, req.EmployeeID)
	if err != nil || to == "" {
		return
	}
	_, _ = s.notifier.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      to,
		Subject: fmt.Sprintf("Leave request %s", req.Status),
		Body: fmt.Sprintf("Your %s leave request for %s to %s has been %s.",
			req.Type, req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"), req.Status),
	})
}

// Accrue credits the monthly accrual to every balance row. Called from
// the scheduled accrual job.
func (s *Service) Accrue(ctx context.Context, vacationDays, sickDays float64) (int, error) {
	return s.repo.AccrueAll(ctx, vacationDays, sickDays)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Principal, req Request) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   "leave." + req.Status,
		Entity:   "leave_request",
		EntityID: req.ID,
		Meta:     map[string]any{"type": req.Type, "days": req.Days},
	})
}
