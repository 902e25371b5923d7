package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/config"
	"github.com/afraexpress/attendance-backend-go/internal/domain/attendance"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/fixtures"
	appHTTP "github.com/afraexpress/attendance-backend-go/internal/handler/http"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/clock"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/cron"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/database"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/gateway"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/jwt"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/sse"
	"github.com/afraexpress/attendance-backend-go/internal/repository/memory"
	"github.com/afraexpress/attendance-backend-go/internal/repository/postgresql"
	attendanceService "github.com/afraexpress/attendance-backend-go/internal/service/attendance"
	serviceAuth "github.com/afraexpress/attendance-backend-go/internal/service/auth"
	employeeService "github.com/afraexpress/attendance-backend-go/internal/service/employee"
)

type stores struct {
	employees  employee.EmployeeRepository
	attendance attendance.AttendanceRepository
	transactor database.Transactor
	close      func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.App.LogLevel),
	})))

	ctx := context.Background()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to open store: ", err)
	}
	defer st.close()

	var remote attendance.PersistenceGateway = gateway.Disabled{}
	if cfg.Gateway.BaseURL != "" {
		remote = gateway.NewClient(cfg.Gateway)
	} else {
		slog.Warn("GATEWAY_BASE_URL not set, attendance is stored locally only")
	}

	directory, err := employeeService.NewCachedDirectory(st.employees, 5*time.Minute)
	if err != nil {
		log.Fatal("Failed to initialize employee directory: ", err)
	}
	defer directory.Close()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	policy := attendance.StatusPolicy{
		WorkStart:            cfg.Attendance.WorkStartTime,
		WorkEnd:              cfg.Attendance.WorkEndTime,
		LateThresholdMinutes: cfg.Attendance.LateThresholdMinutes,
		LateDetection:        cfg.Attendance.LateDetection,
		HalfDayHours:         cfg.Attendance.HalfDayHours,
	}

	attendanceSvc := attendanceService.NewAttendanceService(
		st.attendance,
		directory,
		remote,
		clock.SystemClock{},
		cfg.Location(),
		policy,
		hub,
	)
	employeeSvc := employeeService.NewEmployeeService(st.employees, st.attendance, directory, st.transactor)
	authSvc := serviceAuth.NewAuthService(st.employees, JWTService)

	authHandler := appHTTP.NewAuthHandler(authSvc)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, employeeSvc, JWTService, hub)
	employeeHandler := appHTTP.NewEmployeeHandler(employeeSvc)

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		authHandler,
		attendanceHandler,
		employeeHandler,
	)

	scheduler := cron.NewScheduler()
	if cfg.Gateway.BaseURL != "" {
		cron.RegisterAttendanceSync(scheduler, attendanceSvc, cfg.Attendance.SyncInterval)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		slog.Info("Server running", "addr", server.Addr, "store", cfg.App.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	slog.Info("Shutting down server...")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	slog.Info("Server stopped gracefully")
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.App.StoreDriver {
	case "memory":
		employees := memory.NewEmployeeRepository()
		if _, err := fixtures.SeedEmployees(ctx, employees, employeeService.HashPassword); err != nil {
			return nil, err
		}
		return &stores{
			employees:  employees,
			attendance: memory.NewAttendanceRepository(),
			transactor: memory.NewTransactor(),
			close:      func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL())
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return &stores{
			employees:  postgresql.NewEmployeeRepository(db),
			attendance: postgresql.NewAttendanceRepository(db),
			transactor: postgresql.NewTransactor(db),
			close:      db.Close,
		}, nil
	}
}

func logLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
