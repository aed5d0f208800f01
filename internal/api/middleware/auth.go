package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/serviceinfo/serviceinfo/internal/auth"
	"github.com/serviceinfo/serviceinfo/internal/domain/user"
	"github.com/serviceinfo/serviceinfo/internal/pkg/errors"
	"github.com/serviceinfo/serviceinfo/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserKey is the context key for the authenticated user
	UserKey ContextKey = "user"
	// AccessTokenCookie carries the access token of a browser session
	AccessTokenCookie = "accessToken"
)

// Authenticator resolves credentials to users
type Authenticator interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	UserForToken(ctx context.Context, key string) (*user.User, error)
}

// credentials extracts the presented credential. scheme is "Bearer" for JWTs (header or
// cookie) and "Token" for API tokens.
func credentials(r *http.Request) (scheme, value string) {
	if h := r.Header.Get("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 {
			return "", ""
		}
		switch strings.ToLower(parts[0]) {
		case "bearer":
			return "Bearer", strings.TrimSpace(parts[1])
		case "token":
			return "Token", strings.TrimSpace(parts[1])
		}
		return "", ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return "Bearer", cookie.Value
	}
	return "", ""
}

func authenticate(r *http.Request, users Authenticator, jwtSecret string) (*user.User, *errors.AppError) {
	scheme, value := credentials(r)
	if value == "" {
		return nil, errors.Unauthorized("Authentication credentials were not provided")
	}

	var u *user.User
	var err error
	switch scheme {
	case "Token":
		u, err = users.UserForToken(r.Context(), value)
	default:
		claims, parseErr := auth.ParseAccess(value, jwtSecret)
		if parseErr != nil {
			return nil, errors.Unauthorized("Invalid or expired token")
		}
		u, err = users.GetByID(r.Context(), claims.UserID)
	}
	if err != nil {
		if appErr, ok := errors.As(err); ok && appErr.Code != errors.ErrCodeNotFound {
			return nil, appErr
		}
		return nil, errors.Unauthorized("Invalid credentials")
	}
	if !u.IsActive {
		return nil, errors.Unauthorized("User inactive or deleted")
	}
	return u, nil
}

// AuthMiddleware rejects requests without valid credentials and stores the user on the context
func AuthMiddleware(users Authenticator, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, appErr := authenticate(r, users, jwtSecret)
			if appErr != nil {
				utils.WriteError(w, appErr)
				return
			}

			AddLogField(w, "user_id", u.ID)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// OptionalAuthMiddleware is like AuthMiddleware but lets anonymous requests through
func OptionalAuthMiddleware(users Authenticator, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, value := credentials(r); value != "" {
				if u, appErr := authenticate(r, users, jwtSecret); appErr == nil {
					AddLogField(w, "user_id", u.ID)
					r = r.WithContext(WithUser(r.Context(), u))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff rejects authenticated users that are not staff
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := GetUser(r)
		if !ok {
			utils.WriteError(w, errors.Unauthorized("Authentication credentials were not provided"))
			return
		}
		if !u.IsStaff {
			utils.WriteError(w, errors.Forbidden("You do not have permission to perform this action"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithUser stores u on ctx
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// GetUser extracts the authenticated user from the request context
func GetUser(r *http.Request) (*user.User, bool) {
	u, ok := r.Context().Value(UserKey).(*user.User)
	return u, ok && u != nil
}

// GetUserID extracts the authenticated user's ID from the request context
func GetUserID(r *http.Request) (int64, bool) {
	u, ok := GetUser(r)
	if !ok {
		return 0, false
	}
	return u.ID, true
}
