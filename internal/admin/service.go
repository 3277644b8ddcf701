package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/shared"
	"github.com/workzen-hq/workzen/jobs"
)

// Notifier enqueues transactional email. Satisfied by jobs.Client.
type Notifier interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Service exposes administrative operations. User creation delegates to
// the auth service so credential handling stays in one place.
type Service struct {
	repo     Repository
	users    *auth.Service
	audit    shared.AuditRecorder
	notifier Notifier
	now      func() time.Time
}

func NewService(repo Repository, users *auth.Service, audit shared.AuditRecorder, notifier Notifier) *Service {
	return &Service{repo: repo, users: users, audit: audit, notifier: notifier, now: time.Now}
}

func (s *Service) ListUsers(ctx context.Context, p shared.Pagination) ([]UserRecord, int, error) {
	return s.repo.ListUsers(ctx, p)
}

// CreateUser provisions an account with the given role.
func (s *Service) CreateUser(ctx context.Context, actor shared.Principal, email, name, password string, role shared.Role) (UserRecord, error) {
	user, err := s.users.Register(ctx, email, password, name, string(role))
	if err != nil {
		return UserRecord{}, err
	}
	rec := UserRecord{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}
	s.recordAudit(ctx, actor, "admin.user_created", "user", rec.ID, map[string]any{"role": string(rec.Role)})
	s.sendWelcome(ctx, rec)
	return rec, nil
}

func (s *Service) sendWelcome(ctx context.Context, rec UserRecord) {
	if s.notifier == nil {
		return
	}
	_, _ = s.notifier.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      rec.Email,
		Subject: "Your WorkZen account",
		Body:    fmt.Sprintf("Hello %s, an account with the %s role has been created for you.", rec.Name, rec.Role),
	})
}

// SetUserActive enables or disables an account. Disabled accounts fail
// authentication on the next attempt.
func (s *Service) SetUserActive(ctx context.Context, actor shared.Principal, id string, active bool) (UserRecord, error) {
	rec, err := s.repo.SetUserActive(ctx, id, active)
	if err != nil {
		return UserRecord{}, err
	}
	action := "admin.user_disabled"
	if active {
		action = "admin.user_enabled"
	}
	s.recordAudit(ctx, actor, action, "user", id, nil)
	return rec, nil
}

func (s *Service) Settings(ctx context.Context) ([]Setting, error) {
	return s.repo.ListSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, actor shared.Principal, values map[string]string) ([]Setting, error) {
	now := s.now().UTC()
	for key, value := range values {
		err := s.repo.UpsertSetting(ctx, Setting{
			Key:       key,
			Value:     value,
			UpdatedBy: actor.UserID,
			UpdatedAt: now,
		})
		if err != nil {
			return nil, err
		}
		s.recordAudit(ctx, actor, "admin.setting_updated", "setting", key, nil)
	}
	return s.repo.ListSettings(ctx)
}

func (s *Service) AuditLogs(ctx context.Context, entity string, p shared.Pagination) ([]AuditEntry, int, error) {
	return s.repo.ListAuditLogs(ctx, entity, p)
}

func (s *Service) recordAudit(ctx context.Context, actor shared.Principal, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.UserID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	})
}
