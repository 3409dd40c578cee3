package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trackdesk/trackdesk/internal/domain"
	"github.com/trackdesk/trackdesk/internal/repository"
	"github.com/trackdesk/trackdesk/internal/session"
	apperrors "github.com/trackdesk/trackdesk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller: the combined
// identity + profile object plus the session the token is bound to.
type Principal struct {
	User      *domain.User
	SessionID string
}

// Middleware validates bearer tokens, checks the session record, and
// loads the caller's profile.
type Middleware struct {
	tokens   *TokenManager
	sessions session.Store
	users    repository.UserRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager, sessions session.Store, users repository.UserRepository) *Middleware {
	return &Middleware{tokens: tokens, sessions: sessions, users: users}
}

// Handle enforces authentication for protected routes. A valid token
// whose session record is gone (logout, expiry) is rejected; a valid
// credential without a profile document is treated as unauthenticated.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	identityID, err := m.sessions.Get(c.UserContext(), claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return apperrors.NewUnauthorized("session expired")
		}
		return apperrors.MapError(err)
	}
	if identityID != claims.SubjectID {
		return apperrors.NewUnauthorized("session mismatch")
	}

	user, err := m.users.GetByID(c.UserContext(), claims.SubjectID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apperrors.NewProfileNotFound(claims.SubjectID)
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user, SessionID: claims.SessionID})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireRoles gates a route group by role using the guard's decision
// rules. Disallowed callers are redirected the way the dashboards
// expect: anonymous to login, wrong role to its own dashboard.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var user *domain.User
		if principal, ok := PrincipalFromContext(c); ok {
			user = principal.User
		}

		decision := Decide(user, false, allowed)
		switch decision.Verdict {
		case VerdictShow:
			return c.Next()
		case VerdictRedirect:
			return c.Redirect(decision.RedirectTo, fiber.StatusSeeOther)
		default:
			return apperrors.NewUnauthorized("session not resolved")
		}
	}
}
