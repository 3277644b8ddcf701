package admin

import (
	"context"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/shared"
	"github.com/workzen-hq/workzen/jobs"
)

type memoryRepo struct {
	users    map[string]*UserRecord
	settings map[string]Setting
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		users:    make(map[string]*UserRecord),
		settings: make(map[string]Setting),
	}
}

func (m *memoryRepo) ListUsers(_ context.Context, _ shared.Pagination) ([]UserRecord, int, error) {
	out := make([]UserRecord, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *memoryRepo) SetUserActive(_ context.Context, id string, active bool) (UserRecord, error) {
	u, ok := m.users[id]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	u.IsActive = active
	return *u, nil
}

func (m *memoryRepo) ListSettings(_ context.Context) ([]Setting, error) {
	out := make([]Setting, 0, len(m.settings))
	for _, s := range m.settings {
		out = append(out, s)
	}
	return out, nil
}

func (m *memoryRepo) UpsertSetting(_ context.Context, s Setting) error {
	m.settings[s.Key] = s
	return nil
}

func (m *memoryRepo) ListAuditLogs(_ context.Context, _ string, _ shared.Pagination) ([]AuditEntry, int, error) {
	return nil, 0, nil
}

type captureNotifier struct {
	sent []jobs.SendEmailPayload
}

func (c *captureNotifier) EnqueueSendEmail(_ context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	c.sent = append(c.sent, payload)
	return nil, nil
}

var rootActor = shared.Principal{UserID: "adm-1", Role: shared.RoleAdmin}

func newTestService() (*Service, *memoryRepo, *captureNotifier) {
	repo := newMemoryRepo()
	users := auth.NewService(auth.NewMemoryRepository(), nil)
	notifier := &captureNotifier{}
	svc := NewService(repo, users, nil, notifier)
	return svc, repo, notifier
}

func TestCreateUserSendsWelcomeEmail(t *testing.T) {
	svc, _, notifier := newTestService()

	rec, err := svc.CreateUser(context.Background(), rootActor,
		"new@workzen.test", "New Hire", "s3cret-pass", shared.RoleEmployee)
	require.NoError(t, err)
	assert.Equal(t, shared.RoleEmployee, rec.Role)
	assert.True(t, rec.IsActive)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "new@workzen.test", notifier.sent[0].To)
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	svc, _, notifier := newTestService()

	_, err := svc.CreateUser(context.Background(), rootActor,
		"new@workzen.test", "New Hire", "s3cret-pass", shared.Role("superuser"))
	assert.ErrorIs(t, err, shared.ErrInvalidRole)
	assert.Empty(t, notifier.sent)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateUser(context.Background(), rootActor,
		"dup@workzen.test", "One", "s3cret-pass", shared.RoleEmployee)
	require.NoError(t, err)

	_, err = svc.CreateUser(context.Background(), rootActor,
		"dup@workzen.test", "Two", "s3cret-pass", shared.RoleEmployee)
	assert.ErrorIs(t, err, auth.ErrEmailTaken)
}

func TestSetUserActive(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.users["u-1"] = &UserRecord{ID: "u-1", Email: "a@workzen.test", IsActive: true}

	rec, err := svc.SetUserActive(context.Background(), rootActor, "u-1", false)
	require.NoError(t, err)
	assert.False(t, rec.IsActive)

	_, err = svc.SetUserActive(context.Background(), rootActor, "missing", false)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateSettingsUpserts(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }

	settings, err := svc.UpdateSettings(context.Background(), rootActor, map[string]string{
		"company_name": "WorkZen Inc",
		"timezone":     "UTC",
	})
	require.NoError(t, err)
	assert.Len(t, settings, 2)
	assert.Equal(t, "WorkZen Inc", repo.settings["company_name"].Value)
	assert.Equal(t, "adm-1", repo.settings["timezone"].UpdatedBy)
}
