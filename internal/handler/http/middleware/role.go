package middleware

import (
	"net/http"

	"github.com/afraexpress/attendance-backend-go/internal/domain/auth"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/handler/http/response"
)

// RequireRole allows the request through only for the listed roles
func RequireRole(roles ...employee.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.HandleError(w, auth.ErrForbidden)
		})
	}
}

// RequireManager requires manager or admin role
func RequireManager(next http.Handler) http.Handler {
	return RequireRole(employee.RoleManager, employee.RoleAdmin)(next)
}

// RequireAdmin requires admin role
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(employee.RoleAdmin)(next)
}
