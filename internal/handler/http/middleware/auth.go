package middleware

import (
	"context"
	"net/http"

	"github.com/afraexpress/attendance-backend-go/internal/domain/auth"
	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/afraexpress/attendance-backend-go/internal/handler/http/response"
	"github.com/afraexpress/attendance-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired rejects requests without a verified, unrevoked access token.
// It must run after jwtauth.Verifier.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if jwtService.IsTokenRevoked(jwtauth.TokenFromHeader(r)) {
				response.Unauthorized(w, "Token has been revoked")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}

// EmployeeIDFromContext returns the employee_id claim of the verified token
func EmployeeIDFromContext(ctx context.Context) string {
	_, claims, _ := jwtauth.FromContext(ctx)
	employeeID, _ := claims["employee_id"].(string)
	return employeeID
}

// RoleFromContext returns the role claim of the verified token
func RoleFromContext(ctx context.Context) employee.Role {
	_, claims, _ := jwtauth.FromContext(ctx)
	role, _ := claims["role"].(string)
	return employee.Role(role)
}
