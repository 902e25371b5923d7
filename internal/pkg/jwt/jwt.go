package jwt

import (
	"fmt"
	"sync"
	"time"

	"github.com/afraexpress/attendance-backend-go/internal/domain/employee"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	tokenTypeAccess = "access"
	tokenTypeStream = "stream"

	streamTokenTTL = 5 * time.Minute
)

// StreamClaims identifies who opened a live attendance stream
type StreamClaims struct {
	EmployeeID string
	Role       employee.Role
}

type Service interface {
	GenerateAccessToken(employeeID string, email string, role employee.Role) (token string, expiresAt int64, err error)
	GenerateStreamToken(employeeID string, role employee.Role) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (StreamClaims, error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	accessTTL time.Duration
	tokenAuth *jwtauth.JWTAuth

	mu sync.RWMutex
	// revoked maps a token to the time it stops being valid anyway
	revoked map[string]time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService builds an HS256 token service. An unparsable expiration
// falls back to 12h; config validation rejects it before that in practice.
func NewJWTService(secretKey string, accessTokenExpirationTime string) Service {
	accessTTL, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil || accessTTL <= 0 {
		accessTTL = 12 * time.Hour
	}
	return &JWTService{
		accessTTL: accessTTL,
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revoked:   make(map[string]time.Time),
	}
}

func (j *JWTService) GenerateAccessToken(employeeID string, email string, role employee.Role) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTTL).Unix()

	_, token, err = j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"email":       email,
		"role":        string(role),
		"type":        tokenTypeAccess,
		"exp":         expiresAt,
	})
	return token, expiresAt, err
}

// GenerateStreamToken issues a short-lived token that EventSource clients pass in the query string
func (j *JWTService) GenerateStreamToken(employeeID string, role employee.Role) (token string, expiresIn int, err error) {
	_, token, err = j.tokenAuth.Encode(map[string]interface{}{
		"employee_id": employeeID,
		"role":        string(role),
		"type":        tokenTypeStream,
		"exp":         time.Now().Add(streamTokenTTL).Unix(),
	})
	if err != nil {
		return "", 0, err
	}
	return token, int(streamTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateStreamToken(tokenString string) (StreamClaims, error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return StreamClaims{}, err
	}

	if tokenType, _ := token.Get("type"); tokenType != tokenTypeStream {
		return StreamClaims{}, fmt.Errorf("not a stream token: %w", jwt.ErrInvalidJWT())
	}

	employeeIDVal, _ := token.Get("employee_id")
	employeeID, ok := employeeIDVal.(string)
	if !ok || employeeID == "" {
		return StreamClaims{}, fmt.Errorf("stream token without employee_id: %w", jwt.ErrInvalidJWT())
	}

	roleVal, _ := token.Get("role")
	role, _ := roleVal.(string)

	return StreamClaims{EmployeeID: employeeID, Role: employee.Role(role)}, nil
}

// RevokeToken blocks token until it would have expired. Entries past their
// expiry are pruned on each call.
func (j *JWTService) RevokeToken(token string) {
	now := time.Now()
	until := now.Add(j.accessTTL)
	if parsed, err := jwt.ParseInsecure([]byte(token)); err == nil && !parsed.Expiration().IsZero() {
		until = parsed.Expiration()
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for t, exp := range j.revoked {
		if exp.Before(now) {
			delete(j.revoked, t)
		}
	}
	j.revoked[token] = until
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revoked[token]
	return revoked
}
