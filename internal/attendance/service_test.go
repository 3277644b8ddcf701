package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	records map[string]*Record
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{records: make(map[string]*Record)}
}

func (m *memoryRepo) key(employeeID string, day time.Time) string {
	return employeeID + "|" + day.Format("2006-01-02")
}

func (m *memoryRepo) Create(_ context.Context, rec *Record) error {
	k := m.key(rec.EmployeeID, rec.WorkDate)
	if _, exists := m.records[k]; exists {
		return ErrAlreadyCheckedIn
	}
	cp := *rec
	m.records[k] = &cp
	return nil
}

func (m *memoryRepo) OpenRecord(_ context.Context, employeeID string, day time.Time) (*Record, error) {
	rec, ok := m.records[m.key(employeeID, day)]
	if !ok || rec.CheckOut != nil {
		return nil, ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memoryRepo) Close(_ context.Context, rec *Record) error {
	stored, ok := m.records[m.key(rec.EmployeeID, rec.WorkDate)]
	if !ok || stored.CheckOut != nil {
		return ErrNotCheckedIn
	}
	*stored = *rec
	return nil
}

func (m *memoryRepo) ListByEmployee(_ context.Context, employeeID string, limit, offset int) ([]Record, error) {
	var out []Record
	for _, rec := range m.records {
		if rec.EmployeeID == employeeID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *memoryRepo) CloseAllOpen(_ context.Context, before time.Time) (int, error) {
	closed := 0
	for _, rec := range m.records {
		if rec.CheckOut == nil && rec.WorkDate.Before(before) {
			out := rec.CheckIn
			zero := 0.0
			rec.CheckOut = &out
			rec.HoursWorked = &zero
			rec.Status = StatusPresent
			closed++
		}
	}
	return closed, nil
}

func TestCheckInTwiceSameDay(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)

	_, err = svc.CheckIn(context.Background(), "emp-1")
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCheckOutComputesHours(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	rec, err := svc.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, rec.Status)
	assert.Nil(t, rec.CheckOut)

	svc.now = func() time.Time { return base.Add(8*time.Hour + 15*time.Minute) }

	closed, err := svc.CheckOut(context.Background(), "emp-1")
	require.NoError(t, err)
	require.NotNil(t, closed.HoursWorked)
	assert.InDelta(t, 8.25, *closed.HoursWorked, 0.001)
	assert.Equal(t, StatusPresent, closed.Status)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CheckOut(context.Background(), "emp-1")
	assert.ErrorIs(t, err, ErrNotCheckedIn)
}

func TestCheckOutTwice(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)
	_, err = svc.CheckOut(context.Background(), "emp-1")
	require.NoError(t, err)

	_, err = svc.CheckOut(context.Background(), "emp-1")
	assert.ErrorIs(t, err, ErrNotCheckedIn)
}

func TestAutoCloseLeavesTodayOpen(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	yesterday := time.Date(2026, 3, 9, 17, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return yesterday }
	_, err := svc.CheckIn(context.Background(), "emp-1")
	require.NoError(t, err)

	today := yesterday.Add(24 * time.Hour)
	svc.now = func() time.Time { return today }
	_, err = svc.CheckIn(context.Background(), "emp-2")
	require.NoError(t, err)

	closed, err := svc.AutoClose(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	// The stale record got zero hours credited.
	stale := repo.records[repo.key("emp-1", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC))]
	require.NotNil(t, stale.CheckOut)
	assert.Zero(t, *stale.HoursWorked)

	// Today's record is still open.
	open := repo.records[repo.key("emp-2", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))]
	assert.Nil(t, open.CheckOut)
}
