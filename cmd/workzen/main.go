package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/workzen-hq/workzen/internal/admin"
	"github.com/workzen-hq/workzen/internal/app"
	"github.com/workzen-hq/workzen/internal/attendance"
	"github.com/workzen-hq/workzen/internal/auth"
	"github.com/workzen-hq/workzen/internal/employees"
	"github.com/workzen-hq/workzen/internal/leave"
	"github.com/workzen-hq/workzen/internal/observability"
	"github.com/workzen-hq/workzen/internal/payroll"
	"github.com/workzen-hq/workzen/internal/platform/cache"
	"github.com/workzen-hq/workzen/internal/platform/db"
	"github.com/workzen-hq/workzen/internal/shared"
	"github.com/workzen-hq/workzen/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenStore := auth.NewRedisTokenStore(redisClient)
	tokenService := auth.NewTokenService(tokenStore, cfg.TokenSecret, cfg.TokenTTL)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenService)
	authHandler := auth.NewHandler(logger, authService)
	guard := auth.Middleware{Tokens: tokenService, Logger: logger}

	auditLogger := shared.NewAuditLogger(pool)

	employeesRepo := employees.NewRepository(pool)
	employeesService := employees.NewService(employeesRepo, auditLogger)
	employeesHandler := employees.NewHandler(logger, employeesService, guard)

	attendanceRepo := attendance.NewRepository(pool)
	attendanceService := attendance.NewService(attendanceRepo, auditLogger)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, guard)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	employeeEmail := func(ctx context.Context, employeeID string) (string, error) {
		emp, err := employeesService.Get(ctx, employeeID)
		if err != nil {
			return "", err
		}
		return emp.Email, nil
	}

	leaveRepo := leave.NewRepository(pool)
	leaveService := leave.NewService(leaveRepo, auditLogger, jobClient, employeeEmail)
	leaveHandler := leave.NewHandler(logger, leaveService, guard)

	payrollRepo := payroll.NewRepository(pool)
	payrollService := payroll.NewService(payrollRepo, auditLogger)
	payrollHandler := payroll.NewHandler(logger, payrollService, guard)

	adminRepo := admin.NewRepository(pool)
	adminService := admin.NewService(adminRepo, authService, auditLogger, jobClient)
	adminHandler := admin.NewHandler(logger, adminService, guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AuthHandler:       authHandler,
		EmployeesHandler:  employeesHandler,
		AttendanceHandler: attendanceHandler,
		LeaveHandler:      leaveHandler,
		PayrollHandler:    payrollHandler,
		AdminHandler:      adminHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
