package employees

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/workzen-hq/workzen/internal/shared"
)

// Service handles employee business logic.
type Service struct {
	repo  Repository
	audit shared.AuditRecorder
}

// NewService builds a Service instance.
func NewService(repo Repository, audit shared.AuditRecorder) *Service {
	return &Service{repo: repo, audit: audit}
}

// Get fetches one employee.
func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

// List returns employees matching the filter.
func (s *Service) List(ctx context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.List(ctx, req)
}

// Create registers a new employee with an allocated code.
func (s *Service) Create(ctx context.Context, actor shared.Principal, req CreateEmployeeRequest) (*Employee, error) {
	code, err := s.repo.NextCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("employees: allocate code: %w", err)
	}

	hireDate := time.Now().UTC().Truncate(24 * time.Hour)
	if req.HireDate != "" {
		parsed, err := time.Parse("2006-01-02", req.HireDate)
		if err != nil {
			return nil, fmt.Errorf("employees: parse hire date: %w", err)
		}
		hireDate = parsed
	}

	now := time.Now().UTC()
	emp := &Employee{
		ID:         uuid.NewString(),
		Code:       code,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Department: strings.TrimSpace(req.Department),
		Position:   strings.TrimSpace(req.Position),
		Status:     StatusActive,
		HireDate:   hireDate,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, emp); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "employee.create", emp.ID, map[string]any{"code": emp.Code})
	return emp, nil
}

// Update applies a partial update to an existing employee.
func (s *Service) Update(ctx context.Context, actor shared.Principal, id string, req UpdateEmployeeRequest) (*Employee, error) {
	emp, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		emp.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		emp.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Department != nil {
		emp.Department = strings.TrimSpace(*req.Department)
	}
	if req.Position != nil {
		emp.Position = strings.TrimSpace(*req.Position)
	}
	if req.Status != nil {
		if !ValidStatus(*req.Status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *req.Status)
		}
		emp.Status = *req.Status
	}
	emp.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, emp); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "employee.update", emp.ID, nil)
	return emp, nil
}

// Deactivate marks an employee terminated.
func (s *Service) Deactivate(ctx context.Context, actor shared.Principal, id string) (*Employee, error) {
	status := StatusTerminated
	return s.Update(ctx, actor, id, UpdateEmployeeRequest{Status: &status})
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Principal, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   "employee",
		EntityID: entityID,
		Meta:     meta,
	})
}
