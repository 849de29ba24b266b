package usecases

import "ispagents/internal/entities"

// Well-known frontend routes used as redirect targets.
const (
	PathAuth            = "/auth"
	PathOnboarding      = "/onboarding"
	PathClientDashboard = "/dashboard"
)

// Identity is the authenticated principal extracted from the session
// token. Nil identity means no one is signed in.
type Identity struct {
	ID    int
	Email string
}

// Session is a read-only snapshot from the session source.
type Session struct {
	User      *Identity
	IsLoading bool
}

// ProfileState is a read-only snapshot from the profile source. Err is
// set when the last fetch failed; IsLoading stays true while a retry is
// still possible within the provider's bounded wait.
type ProfileState struct {
	Profile   *entities.Profile
	IsLoading bool
	Err       error
}

// GateState is the outcome of an access check.
type GateState int

const (
	GateLoading GateState = iota
	GateAllowed
	GateRedirectAuth
	GateRedirectRoleFallback
	GateRedirectOnboarding
)

func (s GateState) String() string {
	switch s {
	case GateLoading:
		return "loading"
	case GateAllowed:
		return "allowed"
	case GateRedirectAuth:
		return "redirect_auth"
	case GateRedirectRoleFallback:
		return "redirect_role_fallback"
	case GateRedirectOnboarding:
		return "redirect_onboarding"
	}
	return "unknown"
}

// Decision is the tagged result consumed uniformly by route guards.
// Target is set for the redirect states; RequestedPath and AskOnboarding
// are carried on auth redirects so login can resume navigation.
type Decision struct {
	State         GateState
	Target        string
	RequestedPath string
	AskOnboarding bool
}

// GateRequest is one navigation check. ExplicitRole, when set, overrides
// the profile role for the required-roles comparison only.
type GateRequest struct {
	Session       Session
	Profile       ProfileState
	RequestedPath string
	RequiredRoles []string
	ExplicitRole  string
}

// EvaluateAccess runs the route-protection rules in fixed order; the
// first matching rule wins.
func EvaluateAccess(req GateRequest) Decision {
	// Still resolving either input: hold, never redirect.
	if req.Session.IsLoading || req.Profile.IsLoading {
		return Decision{State: GateLoading}
	}

	if req.Session.User == nil {
		return Decision{
			State:         GateRedirectAuth,
			Target:        PathAuth,
			RequestedPath: req.RequestedPath,
			AskOnboarding: true,
		}
	}

	profile := req.Profile.Profile

	// Admins are exempt from the required-roles comparison too.
	if len(req.RequiredRoles) > 0 && !isAdmin(profile) {
		role := effectiveRole(req.ExplicitRole, profile)
		if !containsRole(req.RequiredRoles, role) {
			return Decision{State: GateRedirectRoleFallback, Target: PathClientDashboard}
		}
	}

	// Admins bypass every further check, onboarding included.
	if isAdmin(profile) {
		return Decision{State: GateAllowed}
	}

	// Never block the onboarding flow itself.
	if req.RequestedPath == PathOnboarding {
		return Decision{State: GateAllowed}
	}

	// A profile that failed to load counts as not onboarded: fail toward
	// onboarding, never toward unrestricted access.
	if profile == nil || !profile.AgentSettings.OnboardingCompleted {
		return Decision{State: GateRedirectOnboarding, Target: PathOnboarding}
	}

	return Decision{State: GateAllowed}
}

func isAdmin(profile *entities.Profile) bool {
	return profile != nil && profile.Role == entities.RoleAdmin
}

func effectiveRole(explicit string, profile *entities.Profile) string {
	if explicit != "" {
		return explicit
	}
	if profile != nil && profile.Role != "" {
		return profile.Role
	}
	return entities.RoleUser
}

func containsRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// AdminGateState is the outcome of an admin-only check. Unlike the
// route gate, denial renders a blocking screen with a manual back
// action instead of redirecting.
type AdminGateState int

const (
	AdminGateLoading AdminGateState = iota
	AdminGateAllowed
	AdminGateDenied
)

// EvaluateAdminAccess guards admin-only sections.
func EvaluateAdminAccess(session Session, profile ProfileState) AdminGateState {
	if session.IsLoading || profile.IsLoading {
		return AdminGateLoading
	}
	if session.User == nil || profile.Profile == nil || profile.Profile.Role != entities.RoleAdmin {
		return AdminGateDenied
	}
	return AdminGateAllowed
}

// ViewVariant selects which top-level dashboard an allowed user sees.
type ViewVariant int

const (
	ViewLoading ViewVariant = iota
	ViewFull
	ViewClient
)

// RouteView picks the dashboard variant for a resolved role. While the
// role is unknown ("" = still loading) the caller renders a loading
// indicator rather than guessing.
func RouteView(role string) ViewVariant {
	switch role {
	case "":
		return ViewLoading
	case entities.RoleAdmin:
		return ViewFull
	default:
		return ViewClient
	}
}
