package auth

import (
	"github.com/trackdesk/trackdesk/internal/domain"
)

// Canonical paths used by the route guard.
const (
	LoginPath          = "/login"
	AdminPath          = "/admin"
	ClientPath         = "/client"
	ClientHeadPath     = "/client-head"
	EmployeePath       = "/employee"
	ProjectManagerPath = "/project-manager"
)

var roleHomePaths = map[domain.Role]string{
	domain.RoleAdmin:          AdminPath,
	domain.RoleClient:         ClientPath,
	domain.RoleClientHead:     ClientHeadPath,
	domain.RoleEmployee:       EmployeePath,
	domain.RoleProjectManager: ProjectManagerPath,
}

// HomePath returns the canonical dashboard path for a role.
// Unrecognized roles route to login.
func HomePath(role domain.Role) string {
	if path, ok := roleHomePaths[role]; ok {
		return path
	}
	return LoginPath
}

// Verdict is the outcome of an access decision.
type Verdict int

const (
	// VerdictPending withholds the decision while session resolution is
	// in flight; the caller shows a neutral waiting state.
	VerdictPending Verdict = iota
	// VerdictShow allows the requested view.
	VerdictShow
	// VerdictRedirect denies the requested view and names the path to
	// send the caller to instead.
	VerdictRedirect
)

// Decision is the result of Decide.
type Decision struct {
	Verdict    Verdict
	RedirectTo string
}

// Decide gates a view by the caller's role. It is a pure, total
// function: defined for every role value including unrecognized ones,
// with no side effects. allowed == nil means the route is unrestricted.
func Decide(user *domain.User, loading bool, allowed []domain.Role) Decision {
	if loading {
		return Decision{Verdict: VerdictPending}
	}
	if user == nil {
		return Decision{Verdict: VerdictRedirect, RedirectTo: LoginPath}
	}
	if allowed == nil {
		return Decision{Verdict: VerdictShow}
	}
	for _, role := range allowed {
		if user.Role == role {
			return Decision{Verdict: VerdictShow}
		}
	}
	return Decision{Verdict: VerdictRedirect, RedirectTo: HomePath(user.Role)}
}
