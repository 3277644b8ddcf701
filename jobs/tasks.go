package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/workzen-hq/workzen/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskTypeSendEmail delivers a transactional email.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeAttendanceAutoClose closes attendance records left open
	// overnight.
	TaskTypeAttendanceAutoClose = "attendance:auto_close"
	// TaskTypeLeaveAccrual credits the monthly leave accrual to every
	// balance.
	TaskTypeLeaveAccrual = "leave:accrue"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewAttendanceAutoCloseTask constructs the nightly auto-close task.
func NewAttendanceAutoCloseTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAttendanceAutoClose, nil)
}

// LeaveAccrualPayload carries the per-cycle accrual amounts in days.
type LeaveAccrualPayload struct {
	VacationDays float64 `json:"vacation_days"`
	SickDays     float64 `json:"sick_days"`
}

// NewLeaveAccrualTask constructs the monthly accrual task.
func NewLeaveAccrualTask(payload LeaveAccrualPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeLeaveAccrual, data), nil
}

// Mailer sends transactional email over SMTP. An empty Addr turns the
// mailer into a logger, which is what dev environments run with.
type Mailer struct {
	Addr   string
	From   string
	Logger *slog.Logger
}

// HandleSendEmail processes TaskTypeSendEmail tasks.
func (m *Mailer) HandleSendEmail(ctx context.Context, t *asynq.Task) error {
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if m.Addr == "" {
		m.Logger.Info("email skipped, no smtp configured",
			slog.String("to", payload.To), slog.String("subject", payload.Subject))
		return nil
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		m.From, payload.To, payload.Subject, payload.Body)
	if err := smtp.SendMail(m.Addr, nil, m.From, []string{payload.To}, []byte(msg)); err != nil {
		return fmt.Errorf("jobs: send email: %w", err)
	}
	return nil
}

// AttendanceCloser closes all open attendance records. Implemented by the
// attendance service.
type AttendanceCloser interface {
	AutoClose(ctx context.Context) (int, error)
}

// HandleAttendanceAutoClose returns the handler for the nightly close.
func HandleAttendanceAutoClose(closer AttendanceCloser, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track(TaskTypeAttendanceAutoClose)
		closed, err := closer.AutoClose(ctx)
		if err == nil {
			logger.Info("attendance auto-close", slog.Int("closed", closed))
		}
		return tracker.End(err)
	}
}

// LeaveAccruer credits leave balances. Implemented by the leave service.
type LeaveAccruer interface {
	Accrue(ctx context.Context, vacationDays, sickDays float64) (int, error)
}

// HandleLeaveAccrual returns the handler for the monthly accrual.
func HandleLeaveAccrual(accruer LeaveAccruer, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LeaveAccrualPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskTypeLeaveAccrual)
		touched, err := accruer.Accrue(ctx, payload.VacationDays, payload.SickDays)
		if err == nil {
			logger.Info("leave accrual", slog.Int("balances", touched),
				slog.Float64("vacation_days", payload.VacationDays),
				slog.Float64("sick_days", payload.SickDays))
		}
		return tracker.End(err)
	}
}
