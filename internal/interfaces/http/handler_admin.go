package http

import (
	"net/http"
	"strconv"

	"ispagents/internal/entities"
	"ispagents/internal/infrastructure"
	"ispagents/internal/repository"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	users    *repository.UserRepository
	profiles *usecases.ProfileProvider
	telegram *infrastructure.TelegramBotManager
	whatsapp *infrastructure.WhatsAppManager
}

func NewAdminHandler(users *repository.UserRepository, profiles *usecases.ProfileProvider, telegram *infrastructure.TelegramBotManager, whatsapp *infrastructure.WhatsAppManager) *AdminHandler {
	return &AdminHandler{users: users, profiles: profiles, telegram: telegram, whatsapp: whatsapp}
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.users.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":            stats,
		"whatsapp_tenants": len(h.whatsapp.ConnectedTenants()),
	})
}

func (h *AdminHandler) GetAllUsers(c *gin.Context) {
	users, err := h.users.GetAllUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateUserStatus enables or disables an account. A disabled tenant's
// messaging channels are torn down immediately.
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if id == getUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change your own account status"})
		return
	}

	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}

	if err := h.users.UpdateUserStatus(id, *req.IsActive); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}
	if !*req.IsActive {
		h.telegram.DisconnectBot(id)
		h.whatsapp.DisconnectClient(id)
	}
	h.profiles.Invalidate(id)
	c.JSON(http.StatusOK, gin.H{"status": "updated", "is_active": *req.IsActive})
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	if id == getUserID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot change your own role"})
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	switch req.Role {
	case entities.RoleAdmin, entities.RoleUser, entities.RoleModerator:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	if err := h.users.UpdateRole(id, req.Role); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}
	h.profiles.Invalidate(id)
	c.JSON(http.StatusOK, gin.H{"status": "updated", "role": req.Role})
}
