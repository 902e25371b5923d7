package http

import (
	"log/slog"
	"os"

	"github.com/afraexpress/attendance-backend-go/internal/config"
	"github.com/afraexpress/attendance-backend-go/internal/handler/http/middleware"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(appConfig config.AppConfig, JWTService jwt.Service, authHandler AuthHandler, attendanceHandler AttendanceHandler, employeeHandler EmployeeHandler) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "afraexpress-attendance"),
		slog.String("version", "v1.0.0"),
		slog.String("env", appConfig.Env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appConfig.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	authenticated := func(r chi.Router) {
		r.Use(jwtauth.Verifier(JWTService.JWTAuth()))
		r.Use(middleware.AuthRequired(JWTService))
	}

	r.Route("/api/v1", func(r chi.Router) {

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Group(func(r chi.Router) {
				authenticated(r)
				r.Post("/logout", authHandler.Logout)
			})
		})

		r.Route("/attendance", func(r chi.Router) {
			// Authenticated by a stream token in the query string
			r.Get("/stream", attendanceHandler.Stream)

			r.Group(func(r chi.Router) {
				authenticated(r)

				r.Get("/", attendanceHandler.List)
				r.Post("/mark", attendanceHandler.Mark)
				r.Get("/status", attendanceHandler.Status)
				r.Get("/stream/token", attendanceHandler.StreamToken)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireManager)
					r.Post("/scan", attendanceHandler.Scan)
					r.Get("/summary/daily", attendanceHandler.DailySummary)
					r.Get("/summary/weekly", attendanceHandler.WeeklySummary)
					r.Get("/report/employees", attendanceHandler.EmployeeReport)
				})

				r.With(middleware.RequireAdmin).Post("/reconcile", attendanceHandler.Reconcile)
			})
		})

		r.Route("/employees", func(r chi.Router) {
			authenticated(r)

			r.Get("/", employeeHandler.ListEmployees)
			r.Get("/{id}", employeeHandler.GetEmployee)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/", employeeHandler.CreateEmployee)
				r.Delete("/{id}", employeeHandler.DeleteEmployee)
			})
		})
	})

	return r
}
