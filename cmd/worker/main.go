package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/workzen-hq/workzen/internal/app"
	"github.com/workzen-hq/workzen/internal/attendance"
	jobmetrics "github.com/workzen-hq/workzen/internal/jobs"
	"github.com/workzen-hq/workzen/internal/leave"
	"github.com/workzen-hq/workzen/internal/platform/db"
	"github.com/workzen-hq/workzen/internal/shared"
	"github.com/workzen-hq/workzen/jobs"
)

// Monthly accrual amounts in days. 1.25 vacation days a month works out
// to the statutory 15 a year.
const (
	accrualVacationDays = 1.25
	accrualSickDays     = 1.0
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)
	attendanceService := attendance.NewService(attendance.NewRepository(pool), auditLogger)
	leaveService := leave.NewService(leave.NewRepository(pool), auditLogger, nil, nil)

	metrics := jobmetrics.NewMetrics(nil)
	mailer := &jobs.Mailer{
		Addr:   fmt.Sprintf("%s:%d", cfg.SMTPHost, cfg.SMTPPort),
		From:   cfg.SMTPFrom,
		Logger: logger,
	}

	accrualTask, err := jobs.NewLeaveAccrualTask(jobs.LeaveAccrualPayload{
		VacationDays: accrualVacationDays,
		SickDays:     accrualSickDays,
	})
	if err != nil {
		logger.Error("build accrual task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailer.HandleSendEmail},
			{Type: jobs.TaskTypeAttendanceAutoClose, Handler: jobs.HandleAttendanceAutoClose(attendanceService, metrics, logger)},
			{Type: jobs.TaskTypeLeaveAccrual, Handler: jobs.HandleLeaveAccrual(leaveService, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "5 0 * * *", Task: jobs.NewAttendanceAutoCloseTask()},
			{Spec: "0 1 1 * *", Task: accrualTask},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
