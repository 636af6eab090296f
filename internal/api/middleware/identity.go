package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minimart/minimart/internal/models"
	service "github.com/minimart/minimart/internal/services"
)

type identityContextKey string

const identityKey = identityContextKey("identity")

// AnonymousUser is the fixed identity for requests without a usable
// bearer token. Anonymous callers share one cart.
const AnonymousUser = "default_user"

// Identity is the acting user for a request.
type Identity struct {
	Username  string
	Role      string
	Anonymous bool
}

type IdentityMiddleware struct {
	users *service.UserService
}

func NewIdentityMiddleware(users *service.UserService) *IdentityMiddleware {
	return &IdentityMiddleware{users: users}
}

// Resolve maps the bearer token to a stored session. Unlike strict
// authentication, an absent or unresolvable token is not an error: the
// request proceeds as the anonymous user.
func (m *IdentityMiddleware) Resolve(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		identity := Identity{Username: AnonymousUser, Role: models.RoleBuyer, Anonymous: true}

		if token := bearerToken(r); token != "" {
			user, err := m.users.ResolveToken(r.Context(), token)
			if err == nil {
				identity = Identity{Username: user.Username, Role: user.Role}
			} else {
				logger.Warn("Unresolvable bearer token, continuing as anonymous")
			}
		}

		ctx := context.WithValue(r.Context(), identityKey, identity)

		requestScopedLogger := logger.With(slog.String("user", identity.Username))
		ctx = context.WithValue(ctx, loggerKey, requestScopedLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}

func IdentityFromContext(ctx context.Context) Identity {
	if identity, ok := ctx.Value(identityKey).(Identity); ok {
		return identity
	}

	return Identity{Username: AnonymousUser, Role: models.RoleBuyer, Anonymous: true}
}

// WithIdentity is used by tests to seed a context identity.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
