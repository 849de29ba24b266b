package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ispagents/internal/entities"
	"ispagents/internal/infrastructure"
	"ispagents/internal/repository"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

type IntegrationHandler struct {
	integrations *repository.IntegrationRepository
	telegram     *infrastructure.TelegramBotManager
	whatsapp     *infrastructure.WhatsAppManager
	n8n          *infrastructure.N8NClient
}

func NewIntegrationHandler(integrations *repository.IntegrationRepository, telegram *infrastructure.TelegramBotManager, whatsapp *infrastructure.WhatsAppManager, n8n *infrastructure.N8NClient) *IntegrationHandler {
	return &IntegrationHandler{
		integrations: integrations,
		telegram:     telegram,
		whatsapp:     whatsapp,
		n8n:          n8n,
	}
}

func (h *IntegrationHandler) RegisterRoutes(g *gin.RouterGroup, m *Middleware) {
	manage := m.RequirePermission(usecases.PermManageIntegrations)

	g.GET("/integrations", h.ListIntegrations)
	g.POST("/integrations", manage, h.CreateIntegration)
	g.PUT("/integrations/:id", manage, h.UpdateIntegration)
	g.DELETE("/integrations/:id", manage, h.DeleteIntegration)
	g.POST("/integrations/:id/test", manage, h.TestIntegration)

	// Messaging channel controls
	g.GET("/channels/telegram/status", h.TelegramStatus)
	g.POST("/channels/telegram/connect", manage, h.ConnectTelegram)
	g.POST("/channels/telegram/disconnect", manage, h.DisconnectTelegram)
	g.GET("/channels/whatsapp/status", h.WhatsAppStatus)
	g.GET("/channels/whatsapp/qr.png", h.WhatsAppQR)
	g.POST("/channels/whatsapp/connect", manage, h.ConnectWhatsApp)
	g.POST("/channels/whatsapp/logout", manage, h.LogoutWhatsApp)
}

func (h *IntegrationHandler) ListIntegrations(c *gin.Context) {
	list, err := h.integrations.ListByUser(getUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list integrations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"integrations": list})
}

func (h *IntegrationHandler) CreateIntegration(c *gin.Context) {
	var req struct {
		Kind   string                 `json:"kind"`
		Name   string                 `json:"name"`
		Config map[string]interface{} `json:"config"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	switch req.Kind {
	case entities.IntegrationN8N, entities.IntegrationTelegram, entities.IntegrationSNMP:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown integration kind"})
		return
	}
	if !ValidName(req.Name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid integration name"})
		return
	}
	if raw, err := json.Marshal(req.Config); err != nil || len(raw) > MaxConfigBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Integration config too large"})
		return
	}

	integration := &entities.Integration{
		UserID:  getUserID(c),
		Kind:    req.Kind,
		Name:    SanitizeString(req.Name),
		Config:  req.Config,
		Enabled: true,
	}
	if err := h.integrations.Create(integration); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create integration"})
		return
	}
	c.JSON(http.StatusCreated, integration)
}

func (h *IntegrationHandler) UpdateIntegration(c *gin.Context) {
	integration, ok := h.ownedIntegration(c)
	if !ok {
		return
	}

	var req struct {
		Name    *string                `json:"name"`
		Config  map[string]interface{} `json:"config"`
		Enabled *bool                  `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil {
		if !ValidName(*req.Name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid integration name"})
			return
		}
		integration.Name = SanitizeString(*req.Name)
	}
	if req.Config != nil {
		if raw, err := json.Marshal(req.Config); err != nil || len(raw) > MaxConfigBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Integration config too large"})
			return
		}
		integration.Config = req.Config
	}
	if req.Enabled != nil {
		integration.Enabled = *req.Enabled
	}

	if err := h.integrations.Update(integration); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update integration"})
		return
	}
	c.JSON(http.StatusOK, integration)
}

func (h *IntegrationHandler) DeleteIntegration(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid integration ID"})
		return
	}
	if err := h.integrations.Delete(getUserID(c), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete integration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// TestIntegration checks the endpoint behind an integration is
// reachable. Only n8n entries are probed from here; SNMP devices are
// reached through the tenant's flows.
func (h *IntegrationHandler) TestIntegration(c *gin.Context) {
	integration, ok := h.ownedIntegration(c)
	if !ok {
		return
	}

	switch integration.Kind {
	case entities.IntegrationN8N:
		url, _ := integration.Config["webhook_url"].(string)
		if !ValidWebhookURL(url) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Integration has no valid webhook_url"})
			return
		}
		if err := h.n8n.Ping(c.Request.Context(), url); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"status": "unreachable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	case entities.IntegrationTelegram:
		token, _ := integration.Config["bot_token"].(string)
		botName, err := h.telegram.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"status": "invalid_token", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "bot_name": botName})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "untested", "message": "Este tipo de integração é testado pelos fluxos do n8n"})
	}
}

func (h *IntegrationHandler) TelegramStatus(c *gin.Context) {
	connected, botName := h.telegram.GetStatus(getUserID(c))
	c.JSON(http.StatusOK, gin.H{"connected": connected, "bot_name": botName})
}

// ConnectTelegram starts polling with the bot token stored in the
// tenant's telegram integration.
func (h *IntegrationHandler) ConnectTelegram(c *gin.Context) {
	userID := getUserID(c)

	token := h.telegramToken(userID)
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No telegram integration with a bot_token configured"})
		return
	}

	instance, err := h.telegram.ConnectBot(userID, getSchemaName(c), token)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected", "bot_name": instance.Bot.Self.UserName})
}

func (h *IntegrationHandler) DisconnectTelegram(c *gin.Context) {
	h.telegram.DisconnectBot(getUserID(c))
	c.JSON(http.StatusOK, gin.H{"status": "disconnected"})
}

func (h *IntegrationHandler) WhatsAppStatus(c *gin.Context) {
	client := h.whatsapp.GetClient(getUserID(c))
	if client == nil {
		c.JSON(http.StatusOK, gin.H{"connected": false, "logged_in": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected": client.IsConnected(),
		"logged_in": client.IsLoggedIn(),
		"number":    client.PairedNumber(),
	})
}

func (h *IntegrationHandler) ConnectWhatsApp(c *gin.Context) {
	client, err := h.whatsapp.ConnectClient(getUserID(c), getSchemaName(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "connecting",
		"logged_in": client.IsLoggedIn(),
	})
}

// WhatsAppQR serves the current pairing QR as a PNG. Returns 404 once
// the device is paired and no QR is pending.
func (h *IntegrationHandler) WhatsAppQR(c *gin.Context) {
	client := h.whatsapp.GetClient(getUserID(c))
	if client == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "WhatsApp not connecting"})
		return
	}
	code := client.GetQR()
	if code == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pairing QR pending"})
		return
	}

	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *IntegrationHandler) LogoutWhatsApp(c *gin.Context) {
	if err := h.whatsapp.LogoutClient(getUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *IntegrationHandler) telegramToken(userID int) string {
	list, err := h.integrations.ListByUser(userID)
	if err != nil {
		return ""
	}
	for _, in := range list {
		if in.Kind == entities.IntegrationTelegram && in.Enabled {
			if token, ok := in.Config["bot_token"].(string); ok && token != "" {
				return token
			}
		}
	}
	return ""
}

func (h *IntegrationHandler) ownedIntegration(c *gin.Context) (*entities.Integration, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid integration ID"})
		return nil, false
	}
	integration, err := h.integrations.GetByID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load integration"})
		return nil, false
	}
	if integration == nil || integration.UserID != getUserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Integration not found"})
		return nil, false
	}
	return integration, true
}
