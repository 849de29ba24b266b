package http

import (
	"net/http"

	"ispagents/internal/entities"
	"ispagents/internal/repository"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	profiles *usecases.ProfileUsecase
	agents   *usecases.AgentUsecase
	usage    *repository.UsageRepository
	users    *repository.UserRepository
}

func NewDashboardHandler(profiles *usecases.ProfileUsecase, agents *usecases.AgentUsecase, usage *repository.UsageRepository, users *repository.UserRepository) *DashboardHandler {
	return &DashboardHandler{
		profiles: profiles,
		agents:   agents,
		usage:    usage,
		users:    users,
	}
}

// GetDashboard assembles the landing view. Admins get the full
// platform variant, everyone else the client variant.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	profile := profileFromContext(c)
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}

	switch usecases.RouteView(profile.Role) {
	case usecases.ViewFull:
		stats, err := h.users.GetStats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"view":    "full",
			"profile": profile,
			"stats":   stats,
		})
	case usecases.ViewClient:
		agents, err := h.agents.ListAgents(profile.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load agents"})
			return
		}
		in, out, err := h.usage.GetUserTotals(profile.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"view":    "client",
			"profile": profile,
			"agents":  agents,
			"usage":   gin.H{"messages_in": in, "messages_out": out},
			"quota":   entities.MaxAgents(profile.Plan),
		})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
	}
}

func (h *DashboardHandler) GetProfile(c *gin.Context) {
	profile := profileFromContext(c)
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *DashboardHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Plan         *string                `json:"plan"`
		UserRoleType *string                `json:"user_role_type"`
		Settings     map[string]interface{} `json:"settings"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updated, err := h.profiles.UpdateProfile(c.Request.Context(), getUserID(c), entities.ProfileUpdate{
		Plan:         req.Plan,
		UserRoleType: req.UserRoleType,
		Extra:        req.Settings,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// GetPermissions exposes the resolved capability set so the frontend
// can hide actions the backend would reject anyway.
func (h *DashboardHandler) GetPermissions(c *gin.Context) {
	profile := profileFromContext(c)
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}

	roleType := profile.UserRoleType
	if profile.Role == entities.RoleAdmin {
		roleType = entities.RoleTypeAdmin
	}
	perms := usecases.ResolvePermissions(roleType, profile.Plan)
	c.JSON(http.StatusOK, gin.H{"permissions": perms.List()})
}

func (h *DashboardHandler) GetOnboardingState(c *gin.Context) {
	profile := profileFromContext(c)
	if profile == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"completed":      profile.AgentSettings.OnboardingCompleted,
		"plan":           profile.Plan,
		"user_role_type": profile.UserRoleType,
	})
}

func (h *DashboardHandler) CompleteOnboarding(c *gin.Context) {
	updated, err := h.profiles.CompleteOnboarding(c.Request.Context(), getUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete onboarding"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed", "profile": updated})
}
