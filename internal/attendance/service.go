package attendance

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/workzen-hq/workzen/internal/shared"
)

// Service handles attendance business logic.
type Service struct {
	repo  Repository
	audit shared.AuditRecorder
	now   func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, audit shared.AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CheckIn opens today's attendance record for the employee. A second
// check-in on the same day fails with ErrAlreadyCheckedIn.
func (s *Service) CheckIn(ctx context.Context, employeeID string) (*Record, error) {
	now := s.now().UTC()
	rec := &Record{
		ID:         uuid.NewString(),
		EmployeeID: employeeID,
		WorkDate:   dayOf(now),
		CheckIn:    now,
		Status:     StatusOpen,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, employeeID, "attendance.check_in", rec.ID)
	return rec, nil
}

// CheckOut closes today's open record, computing worked hours from the stored
// check-in time.
func (s *Service) CheckOut(ctx context.Context, employeeID string) (*Record, error) {
	now := s.now().UTC()
	rec, err := s.repo.OpenRecord(ctx, employeeID, dayOf(now))
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNotCheckedIn
		}
		return nil, err
	}

	hours := math.Round(now.Sub(rec.CheckIn).Hours()*100) / 100
	rec.CheckOut = &now
	rec.HoursWorked = &hours
	rec.Status = StatusPresent
	if err := s.repo.Close(ctx, rec); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, employeeID, "attendance.check_out", rec.ID)
	return rec, nil
}

// List returns attendance records for an employee, newest first.
func (s *Service) List(ctx context.Context, employeeID string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 31
	}
	return s.repo.ListByEmployee(ctx, employeeID, limit, offset)
}

// AutoClose force-closes stale open records from previous days.
func (s *Service) AutoClose(ctx context.Context) (int, error) {
	return s.repo.CloseAllOpen(ctx, dayOf(s.now().UTC()))
}

func (s *Service) recordAudit(ctx context.Context, employeeID, action, entityID string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  employeeID,
		Action:   action,
		Entity:   "attendance",
		EntityID: entityID,
	})
}

func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
