package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct {
	closed int
	err    error
}

func (f *fakeCloser) AutoClose(context.Context) (int, error) {
	return f.closed, f.err
}

type fakeAccruer struct {
	vacation float64
	sick     float64
	err      error
}

func (f *fakeAccruer) Accrue(_ context.Context, vacationDays, sickDays float64) (int, error) {
	f.vacation = vacationDays
	f.sick = sickDays
	return 3, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleAttendanceAutoClose(t *testing.T) {
	closer := &fakeCloser{closed: 4}
	handler := HandleAttendanceAutoClose(closer, nil, discardLogger())

	err := handler(context.Background(), NewAttendanceAutoCloseTask())
	assert.NoError(t, err)
}

func TestHandleAttendanceAutoClosePropagatesError(t *testing.T) {
	boom := errors.New("db down")
	handler := HandleAttendanceAutoClose(&fakeCloser{err: boom}, nil, discardLogger())

	err := handler(context.Background(), NewAttendanceAutoCloseTask())
	assert.ErrorIs(t, err, boom)
}

func TestHandleLeaveAccrualDecodesPayload(t *testing.T) {
	accruer := &fakeAccruer{}
	handler := HandleLeaveAccrual(accruer, nil, discardLogger())

	task, err := NewLeaveAccrualTask(LeaveAccrualPayload{VacationDays: 1.25, SickDays: 1})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, 1.25, accruer.vacation)
	assert.Equal(t, 1.0, accruer.sick)
}

func TestHandleLeaveAccrualBadPayload(t *testing.T) {
	handler := HandleLeaveAccrual(&fakeAccruer{}, nil, discardLogger())

	err := handler(context.Background(), asynq.NewTask(TaskTypeLeaveAccrual, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestMailerWithoutSMTPLogsOnly(t *testing.T) {
	mailer := &Mailer{Logger: discardLogger()}

	task, err := NewSendEmailTask(SendEmailPayload{To: "a@workzen.test", Subject: "hi"})
	require.NoError(t, err)

	assert.NoError(t, mailer.HandleSendEmail(context.Background(), task))
}
