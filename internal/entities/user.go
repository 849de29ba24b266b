package entities

import "time"

// Account roles (coarse access level).
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleModerator = "moderator"
)

// Operational role types, used for permission derivation.
const (
	RoleTypeTecnico   = "tecnico"
	RoleTypeComercial = "comercial"
	RoleTypeGeral     = "geral"
	RoleTypeAdmin     = "admin"
)

// Billing plans.
const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Plan         string    `json:"plan"`
	UserRoleType string    `json:"user_role_type"`
	SchemaName   string    `json:"schema_name"` // Tenant schema
	IsActive     bool      `json:"is_active"`   // Account enabled
	CreatedAt    time.Time `json:"created_at"`
}

// AgentSettings is the per-user agent configuration blob. Only
// OnboardingCompleted is interpreted by the platform; everything else
// rides along in Extra (persisted as JSONB).
type AgentSettings struct {
	OnboardingCompleted bool                   `json:"onboarding_completed"`
	Extra               map[string]interface{} `json:"-"`
}

// Profile is the persisted view of a user consumed by access checks
// and the dashboard. Role and UserRoleType are independent axes:
// Role=admin grants unrestricted access regardless of UserRoleType.
type Profile struct {
	ID            int           `json:"id"`
	Role          string        `json:"role"`
	Plan          string        `json:"plan"`
	UserRoleType  string        `json:"user_role_type"`
	AgentSettings AgentSettings `json:"agent_settings"`
}

// ProfileUpdate carries a partial profile mutation. Nil fields are left
// untouched; Extra entries are merged into the settings blob.
type ProfileUpdate struct {
	Plan                *string
	UserRoleType        *string
	OnboardingCompleted *bool
	Extra               map[string]interface{}
}

// MaxAgents returns the agent quota for a plan (0 = unlimited).
func MaxAgents(plan string) int {
	switch plan {
	case PlanFree:
		return 1
	case PlanBasic:
		return 3
	case PlanPremium:
		return 10
	case PlanEnterprise:
		return 0
	default:
		return 1
	}
}
