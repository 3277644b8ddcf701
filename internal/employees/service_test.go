package employees

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workzen-hq/workzen/internal/shared"
)

type memoryRepo struct {
	employees map[string]*Employee
	nextCode  int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{employees: make(map[string]*Employee), nextCode: 1}
}

func (m *memoryRepo) Get(_ context.Context, id string) (*Employee, error) {
	emp, ok := m.employees[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *emp
	return &cp, nil
}

func (m *memoryRepo) List(_ context.Context, req ListEmployeesRequest) ([]Employee, int, error) {
	var out []Employee
	for _, emp := range m.employees {
		if req.Status != "" && emp.Status != req.Status {
			continue
		}
		if req.Search != "" && !strings.Contains(strings.ToLower(emp.LastName), strings.ToLower(req.Search)) {
			continue
		}
		out = append(out, *emp)
	}
	return out, len(out), nil
}

func (m *memoryRepo) Create(_ context.Context, emp *Employee) error {
	for _, existing := range m.employees {
		if existing.Email == emp.Email {
			return ErrAlreadyExists
		}
	}
	cp := *emp
	m.employees[emp.ID] = &cp
	return nil
}

func (m *memoryRepo) Update(_ context.Context, emp *Employee) error {
	if _, ok := m.employees[emp.ID]; !ok {
		return ErrNotFound
	}
	cp := *emp
	m.employees[emp.ID] = &cp
	return nil
}

func (m *memoryRepo) NextCode(_ context.Context) (string, error) {
	code := fmt.Sprintf("EMP-%04d", m.nextCode)
	m.nextCode++
	return code, nil
}

var hrActor = shared.Principal{UserID: "hr-1", Role: shared.RoleHROfficer}

func validCreate(email string) CreateEmployeeRequest {
	return CreateEmployeeRequest{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      email,
		Department: "Engineering",
		Position:   "Engineer",
		HireDate:   "2026-01-15",
	}
}

func TestCreateAllocatesSequentialCodes(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	first, err := svc.Create(context.Background(), hrActor, validCreate("ada@workzen.test"))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), hrActor, validCreate("grace@workzen.test"))
	require.NoError(t, err)

	assert.Equal(t, "EMP-0001", first.Code)
	assert.Equal(t, "EMP-0002", second.Code)
	assert.Equal(t, StatusActive, first.Status)
	assert.Equal(t, "2026-01-15", first.HireDate.Format("2006-01-02"))
}

func TestCreateLowercasesEmail(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	emp, err := svc.Create(context.Background(), hrActor, validCreate("Ada@WorkZen.Test"))
	require.NoError(t, err)
	assert.Equal(t, "ada@workzen.test", emp.Email)
}

func TestCreateDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.Create(context.Background(), hrActor, validCreate("ada@workzen.test"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), hrActor, validCreate("ada@workzen.test"))
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestUpdatePartial(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	emp, err := svc.Create(context.Background(), hrActor, validCreate("ada@workzen.test"))
	require.NoError(t, err)

	position := "Staff Engineer"
	updated, err := svc.Update(context.Background(), hrActor, emp.ID, UpdateEmployeeRequest{Position: &position})
	require.NoError(t, err)
	assert.Equal(t, "Staff Engineer", updated.Position)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, emp.Code, updated.Code)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	emp, err := svc.Create(context.Background(), hrActor, validCreate("ada@workzen.test"))
	require.NoError(t, err)

	bogus := "retired"
	_, err = svc.Update(context.Background(), hrActor, emp.ID, UpdateEmployeeRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestUpdateMissingEmployee(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	name := "Grace"
	_, err := svc.Update(context.Background(), hrActor, "missing", UpdateEmployeeRequest{FirstName: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeactivate(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	emp, err := svc.Create(context.Background(), hrActor, validCreate("ada@workzen.test"))
	require.NoError(t, err)

	terminated, err := svc.Deactivate(context.Background(), hrActor, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusTerminated, terminated.Status)

	active, _, err := svc.List(context.Background(), ListEmployeesRequest{Status: StatusActive})
	require.NoError(t, err)
	assert.Empty(t, active)
}
