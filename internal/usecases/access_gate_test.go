package usecases

import (
	"context"
	"testing"

	"ispagents/internal/entities"
)

func onboardedProfile(role string) *entities.Profile {
	return &entities.Profile{
		ID:            1,
		Role:          role,
		Plan:          entities.PlanBasic,
		UserRoleType:  entities.RoleTypeGeral,
		AgentSettings: entities.AgentSettings{OnboardingCompleted: true},
	}
}

func freshProfile(role string) *entities.Profile {
	p := onboardedProfile(role)
	p.AgentSettings.OnboardingCompleted = false
	return p
}

func signedIn() Session {
	return Session{User: &Identity{ID: 1, Email: "user@isp.com"}}
}

func TestEvaluateAccessLoadingNeverRedirects(t *testing.T) {
	cases := []GateRequest{
		{Session: Session{IsLoading: true}, RequestedPath: PathClientDashboard},
		{Session: signedIn(), Profile: ProfileState{IsLoading: true}, RequestedPath: PathClientDashboard},
		{Session: Session{IsLoading: true}, Profile: ProfileState{IsLoading: true}, RequestedPath: "/admin"},
	}
	for i, req := range cases {
		if got := EvaluateAccess(req); got.State != GateLoading {
			t.Errorf("case %d: got %v, want loading", i, got.State)
		}
	}
}

func TestEvaluateAccessUnauthenticated(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		RequestedPath: "/billing",
	})
	if got.State != GateRedirectAuth {
		t.Fatalf("got %v, want redirect_auth", got.State)
	}
	if got.Target != PathAuth {
		t.Errorf("target = %q, want %q", got.Target, PathAuth)
	}
	if got.RequestedPath != "/billing" {
		t.Errorf("requested path %q not preserved", got.RequestedPath)
	}
	if !got.AskOnboarding {
		t.Error("auth redirect should carry the onboarding hint")
	}
}

func TestEvaluateAccessRoleMismatchRedirectsToFallback(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: onboardedProfile(entities.RoleUser)},
		RequestedPath: "/moderation",
		RequiredRoles: []string{entities.RoleModerator},
	})
	if got.State != GateRedirectRoleFallback {
		t.Fatalf("got %v, want redirect_role_fallback", got.State)
	}
	if got.Target != PathClientDashboard {
		t.Errorf("target = %q, want %q", got.Target, PathClientDashboard)
	}
}

func TestEvaluateAccessRoleMismatchWinsOverOnboarding(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: freshProfile(entities.RoleUser)},
		RequestedPath: "/moderation",
		RequiredRoles: []string{entities.RoleModerator},
	})
	if got.State != GateRedirectRoleFallback {
		t.Fatalf("got %v, want redirect_role_fallback even with onboarding pending", got.State)
	}
}

func TestEvaluateAccessAdminBypassesRequiredRoles(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: freshProfile(entities.RoleAdmin)},
		RequestedPath: "/moderation",
		RequiredRoles: []string{entities.RoleModerator},
	})
	if got.State != GateAllowed {
		t.Fatalf("admin got %v, want allowed", got.State)
	}
}

func TestEvaluateAccessAdminBypassesOnboarding(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: freshProfile(entities.RoleAdmin)},
		RequestedPath: PathClientDashboard,
	})
	if got.State != GateAllowed {
		t.Fatalf("admin got %v, want allowed", got.State)
	}
}

func TestEvaluateAccessExplicitRoleOverridesProfileRole(t *testing.T) {
	// Profile says moderator, but the navigation was checked against an
	// explicit "user" role, so the required-roles rule fails.
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: onboardedProfile(entities.RoleModerator)},
		RequestedPath: "/moderation",
		RequiredRoles: []string{entities.RoleModerator},
		ExplicitRole:  entities.RoleUser,
	})
	if got.State != GateRedirectRoleFallback {
		t.Fatalf("got %v, want redirect_role_fallback", got.State)
	}
}

func TestEvaluateAccessMissingRoleDefaultsToUser(t *testing.T) {
	profile := onboardedProfile("")
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: profile},
		RequestedPath: PathClientDashboard,
		RequiredRoles: []string{entities.RoleUser},
	})
	if got.State != GateAllowed {
		t.Fatalf("got %v, want allowed (missing role defaults to user)", got.State)
	}
}

func TestEvaluateAccessOnboardingPathAlwaysReachable(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: freshProfile(entities.RoleUser)},
		RequestedPath: PathOnboarding,
	})
	if got.State != GateAllowed {
		t.Fatalf("got %v, want allowed on the onboarding path", got.State)
	}
}

func TestEvaluateAccessIncompleteOnboardingRedirects(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: freshProfile(entities.RoleUser)},
		RequestedPath: PathClientDashboard,
	})
	if got.State != GateRedirectOnboarding {
		t.Fatalf("got %v, want redirect_onboarding", got.State)
	}
	if got.Target != PathOnboarding {
		t.Errorf("target = %q, want %q", got.Target, PathOnboarding)
	}
}

func TestEvaluateAccessFailedProfileTreatedAsNotOnboarded(t *testing.T) {
	// A profile fetch that exhausted its retries must not grant access.
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Err: context.DeadlineExceeded},
		RequestedPath: PathClientDashboard,
	})
	if got.State != GateRedirectOnboarding {
		t.Fatalf("got %v, want redirect_onboarding for failed profile", got.State)
	}
}

func TestEvaluateAccessCompletePathAllows(t *testing.T) {
	got := EvaluateAccess(GateRequest{
		Session:       signedIn(),
		Profile:       ProfileState{Profile: onboardedProfile(entities.RoleUser)},
		RequestedPath: PathClientDashboard,
	})
	if got.State != GateAllowed {
		t.Fatalf("got %v, want allowed", got.State)
	}
}

func TestEvaluateAdminAccess(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		profile ProfileState
		want    AdminGateState
	}{
		{"session loading", Session{IsLoading: true}, ProfileState{}, AdminGateLoading},
		{"profile loading", signedIn(), ProfileState{IsLoading: true}, AdminGateLoading},
		{"anonymous", Session{}, ProfileState{}, AdminGateDenied},
		{"regular user", signedIn(), ProfileState{Profile: onboardedProfile(entities.RoleUser)}, AdminGateDenied},
		{"moderator", signedIn(), ProfileState{Profile: onboardedProfile(entities.RoleModerator)}, AdminGateDenied},
		{"failed profile", signedIn(), ProfileState{Err: context.DeadlineExceeded}, AdminGateDenied},
		{"admin", signedIn(), ProfileState{Profile: onboardedProfile(entities.RoleAdmin)}, AdminGateAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateAdminAccess(tt.session, tt.profile); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRouteView(t *testing.T) {
	if got := RouteView(""); got != ViewLoading {
		t.Errorf("empty role: got %v, want loading", got)
	}
	if got := RouteView(entities.RoleAdmin); got != ViewFull {
		t.Errorf("admin: got %v, want full", got)
	}
	if got := RouteView(entities.RoleUser); got != ViewClient {
		t.Errorf("user: got %v, want client", got)
	}
	if got := RouteView(entities.RoleModerator); got != ViewClient {
		t.Errorf("moderator: got %v, want client", got)
	}
}
