package usecases

import (
	"testing"

	"ispagents/internal/entities"
)

func TestResolvePermissionsUnknownValuesFailClosed(t *testing.T) {
	if got := ResolvePermissions("gerente", "platinum"); len(got) != 0 {
		t.Errorf("unknown role and plan resolved %d permissions, want 0", len(got))
	}
	if got := ResolvePermissions("", ""); len(got) != 0 {
		t.Errorf("empty role and plan resolved %d permissions, want 0", len(got))
	}
}

func TestResolvePermissionsUnknownRoleKeepsPlanGrants(t *testing.T) {
	got := ResolvePermissions("gerente", entities.PlanPremium)
	if !got.Has(PermViewLogs) {
		t.Error("premium plan grant missing when role is unknown")
	}
	if got.Has(PermAdminAccess) {
		t.Error("unknown role must not grant admin access")
	}
}

func TestResolvePermissionsUnionOfRoleAndPlan(t *testing.T) {
	// tecnico alone has no billing; enterprise brings it in. The union
	// keeps the role capabilities alongside the plan ones.
	got := ResolvePermissions(entities.RoleTypeTecnico, entities.PlanEnterprise)
	if !got.Has(PermViewLogs) {
		t.Error("tecnico should keep view_logs from its role table")
	}
	if !got.Has(PermManageBilling) {
		t.Error("enterprise should contribute manage_billing")
	}
	if got.Has(PermAdminAccess) {
		t.Error("no plan may grant admin_access")
	}
}

func TestResolvePermissionsRoleOnly(t *testing.T) {
	got := ResolvePermissions(entities.RoleTypeComercial, "no-such-plan")
	if !got.Has(PermViewAnalytics) {
		t.Error("comercial should resolve view_analytics without a plan")
	}
	if got.Has(PermAdminAccess) {
		t.Error("comercial must not resolve admin_access")
	}
}

func TestResolvePermissionsAdminHasAdminAccess(t *testing.T) {
	got := ResolvePermissions(entities.RoleTypeAdmin, entities.PlanFree)
	if !got.Has(PermAdminAccess) {
		t.Error("admin role type should resolve admin_access")
	}
	if !got.Has(PermManageUsers) {
		t.Error("admin role type should resolve manage_users")
	}
}

func TestResolvePermissionsIdempotent(t *testing.T) {
	a := ResolvePermissions(entities.RoleTypeGeral, entities.PlanBasic)
	b := ResolvePermissions(entities.RoleTypeGeral, entities.PlanBasic)
	if len(a) != len(b) {
		t.Fatalf("set sizes differ between calls: %d vs %d", len(a), len(b))
	}
	for p := range a {
		if !b.Has(p) {
			t.Errorf("second resolution missing %q", p)
		}
	}
}

func TestResolvePermissionsDoesNotMutateTables(t *testing.T) {
	before := len(rolePermissions[entities.RoleTypeGeral])
	set := ResolvePermissions(entities.RoleTypeGeral, entities.PlanEnterprise)
	set.add(PermAdminAccess)
	if got := len(rolePermissions[entities.RoleTypeGeral]); got != before {
		t.Errorf("role table mutated: %d entries, want %d", got, before)
	}
	again := ResolvePermissions(entities.RoleTypeGeral, entities.PlanEnterprise)
	if again.Has(PermAdminAccess) {
		t.Error("mutating a resolved set leaked into later resolutions")
	}
}
