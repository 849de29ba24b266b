package usecases

import "ispagents/internal/entities"

// Permission is a single platform capability.
type Permission string

const (
	PermViewDashboard      Permission = "view_dashboard"
	PermManageAgents       Permission = "manage_agents"
	PermManageUsers        Permission = "manage_users"
	PermManageOrganization Permission = "manage_organization"
	PermViewAnalytics      Permission = "view_analytics"
	PermManageBilling      Permission = "manage_billing"
	PermAdminAccess        Permission = "admin_access"
	PermCreateAgents       Permission = "create_agents"
	PermEditAgents         Permission = "edit_agents"
	PermDeleteAgents       Permission = "delete_agents"
	PermViewLogs           Permission = "view_logs"
	PermManageIntegrations Permission = "manage_integrations"
	PermManageWebhooks     Permission = "manage_webhooks"
)

// PermissionSet is a deduplicated capability set.
type PermissionSet map[Permission]struct{}

func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s PermissionSet) add(perms ...Permission) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

// List returns the permissions as strings (order unspecified).
func (s PermissionSet) List() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	return out
}

// rolePermissions maps operational role types to capabilities.
var rolePermissions = map[string][]Permission{
	entities.RoleTypeAdmin: {
		PermViewDashboard, PermManageAgents, PermManageUsers,
		PermManageOrganization, PermViewAnalytics, PermManageBilling,
		PermAdminAccess, PermCreateAgents, PermEditAgents,
		PermDeleteAgents, PermViewLogs, PermManageIntegrations,
		PermManageWebhooks,
	},
	entities.RoleTypeTecnico: {
		PermViewDashboard, PermManageAgents, PermCreateAgents,
		PermEditAgents, PermViewLogs, PermManageIntegrations,
		PermManageWebhooks,
	},
	entities.RoleTypeComercial: {
		PermViewDashboard, PermViewAnalytics, PermManageBilling,
		PermCreateAgents, PermEditAgents,
	},
	entities.RoleTypeGeral: {
		PermViewDashboard, PermCreateAgents, PermEditAgents,
	},
}

// planPermissions maps billing tiers to the capabilities they unlock.
var planPermissions = map[string][]Permission{
	entities.PlanFree: {
		PermViewDashboard, PermCreateAgents,
	},
	entities.PlanBasic: {
		PermViewDashboard, PermCreateAgents, PermEditAgents,
		PermManageWebhooks,
	},
	entities.PlanPremium: {
		PermViewDashboard, PermCreateAgents, PermEditAgents,
		PermDeleteAgents, PermViewAnalytics, PermManageIntegrations,
		PermManageWebhooks, PermViewLogs,
	},
	entities.PlanEnterprise: {
		PermViewDashboard, PermCreateAgents, PermEditAgents,
		PermDeleteAgents, PermViewAnalytics, PermManageIntegrations,
		PermManageWebhooks, PermViewLogs, PermManageOrganization,
		PermManageBilling,
	},
}

// ResolvePermissions returns the union of role-derived and plan-derived
// capabilities. Unrecognized roles or plans contribute nothing: access
// fails closed rather than erroring.
func ResolvePermissions(userRoleType, plan string) PermissionSet {
	set := make(PermissionSet)
	set.add(rolePermissions[userRoleType]...)
	set.add(planPermissions[plan]...)
	return set
}
