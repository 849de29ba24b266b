package http

import (
	"errors"
	"net/http"
	"strings"

	"ispagents/internal/entities"
	"ispagents/internal/infrastructure"
	"ispagents/internal/repository"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	relayService *usecases.RelayService
	agentRepo    *repository.AgentRepository
	userRepo     *repository.UserRepository
	sessions     *infrastructure.ChatSessionManager
}

func NewHandler(relay *usecases.RelayService, agentRepo *repository.AgentRepository, userRepo *repository.UserRepository, sessions *infrastructure.ChatSessionManager) *Handler {
	return &Handler{
		relayService: relay,
		agentRepo:    agentRepo,
		userRepo:     userRepo,
		sessions:     sessions,
	}
}

func SetupRoutes(
	r *gin.Engine,
	auth *usecases.AuthUsecase,
	profiles *usecases.ProfileUsecase,
	agents *usecases.AgentUsecase,
	billing *usecases.BillingUsecase,
	relay *usecases.RelayService,
	agentRepo *repository.AgentRepository,
	userRepo *repository.UserRepository,
	usageRepo *repository.UsageRepository,
	convRepo *repository.ConversationRepository,
	integrationRepo *repository.IntegrationRepository,
	tgManager *infrastructure.TelegramBotManager,
	waManager *infrastructure.WhatsAppManager,
	n8n *infrastructure.N8NClient,
	provider *usecases.ProfileProvider,
	middleware *Middleware,
	paymentSecret string,
) {
	h := NewHandler(relay, agentRepo, userRepo, infrastructure.NewChatSessionManager())
	adminHandler := NewAdminHandler(userRepo, provider, tgManager, waManager)
	agentHandler := NewAgentHandler(agents, usageRepo, convRepo)
	billingHandler := NewBillingHandler(billing, provider, paymentSecret)
	integrationHandler := NewIntegrationHandler(integrationRepo, tgManager, waManager, n8n)
	dashboardHandler := NewDashboardHandler(profiles, agents, usageRepo, userRepo)

	// Apply Security Middleware
	r.Use(SecurityHeaders())
	r.Use(RequestSizeLimiter(10 << 20)) // 10MB max request size
	r.Use(middleware.CORSMiddleware())

	// Public channel webhooks
	r.POST("/webhook/web", h.HandleWebMessage)
	r.POST("/webhook/payments", billingHandler.HandlePaymentWebhook)

	// Public Auth Routes
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", func(c *gin.Context) {
			var loginReq struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := c.ShouldBindJSON(&loginReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			token, err := auth.Login(loginReq.Email, loginReq.Password)
			if err != nil {
				if errors.Is(err, usecases.ErrAccountDisabled) {
					c.JSON(http.StatusForbidden, gin.H{"error": "Account disabled"})
					return
				}
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"token": token})
		})

		authGroup.POST("/register", func(c *gin.Context) {
			var regReq struct {
				Email        string `json:"email"`
				Password     string `json:"password"`
				UserRoleType string `json:"user_role_type"`
			}
			if err := c.ShouldBindJSON(&regReq); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
				return
			}
			user, err := auth.Register(regReq.Email, regReq.Password, regReq.UserRoleType)
			if err != nil {
				if errors.Is(err, usecases.ErrEmailTaken) {
					c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"status": "registered", "id": user.ID})
		})
	}

	api := r.Group("/api")
	api.Use(middleware.AuthOptional())

	// Route guard support for the SPA: evaluate a navigation without
	// performing it.
	api.GET("/access/check", middleware.accessCheck)

	// Onboarding flow: guarded, but the gate treats it as the
	// onboarding path so incomplete accounts can always reach it.
	onboarding := api.Group("/onboarding")
	onboarding.Use(middleware.ProtectedAs(usecases.PathOnboarding))
	{
		onboarding.GET("", dashboardHandler.GetOnboardingState)
		onboarding.POST("/complete", dashboardHandler.CompleteOnboarding)
	}

	// Protected tenant routes
	protected := api.Group("")
	protected.Use(middleware.Protected())
	protected.Use(middleware.RateLimitPerUser(5, 10))
	{
		protected.GET("/dashboard", dashboardHandler.GetDashboard)
		protected.GET("/profile", dashboardHandler.GetProfile)
		protected.PUT("/profile", dashboardHandler.UpdateProfile)
		protected.GET("/permissions", dashboardHandler.GetPermissions)

		// Agent Routes
		protected.GET("/agents", agentHandler.ListAgents)
		protected.POST("/agents", middleware.RequirePermission(usecases.PermCreateAgents), agentHandler.CreateAgent)
		protected.GET("/agents/:id", agentHandler.GetAgent)
		protected.PUT("/agents/:id", middleware.RequirePermission(usecases.PermEditAgents), agentHandler.UpdateAgent)
		protected.DELETE("/agents/:id", middleware.RequirePermission(usecases.PermDeleteAgents), agentHandler.DeleteAgent)
		protected.GET("/agents/:id/usage", agentHandler.GetAgentUsage)
		protected.GET("/agents/:id/conversations", middleware.RequirePermission(usecases.PermViewLogs), agentHandler.GetAgentConversations)

		// Billing Routes
		protected.GET("/billing/invoices", billingHandler.ListInvoices)
		protected.POST("/billing/invoices", middleware.RequirePermission(usecases.PermManageBilling), billingHandler.CreateInvoice)
		protected.GET("/billing/invoices/:id", billingHandler.GetInvoice)
		protected.GET("/billing/invoices/:id/pix.png", billingHandler.GetPixQRCode)

		// Integration Routes (n8n / telegram / snmp configs)
		integrationHandler.RegisterRoutes(protected, middleware)
	}

	// Admin-only Routes: denial screen, not a redirect.
	admin := api.Group("/admin")
	admin.Use(middleware.AdminRequired())
	{
		admin.GET("/stats", adminHandler.GetStats)
		admin.GET("/users", adminHandler.GetAllUsers)
		admin.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
		admin.PUT("/users/:id/role", adminHandler.UpdateUserRole)
	}
}

// HandleWebMessage is the public web-chat channel: the reply comes back
// in the HTTP response instead of through a messaging client.
func (h *Handler) HandleWebMessage(c *gin.Context) {
	var payload struct {
		AgentID int    `json:"agent_id"`
		From    string `json:"from"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if payload.AgentID == 0 || strings.TrimSpace(payload.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "agent_id and content are required"})
		return
	}

	agent, err := h.agentRepo.GetByID(payload.AgentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load agent"})
		return
	}
	if agent == nil || !agent.IsActive || agent.Channel != entities.ChannelWeb {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active web agent"})
		return
	}

	owner, err := h.userRepo.GetByID(agent.UserID)
	if err != nil || owner == nil || !owner.IsActive {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent unavailable"})
		return
	}

	session := h.sessions.GetOrCreateSession("web:" + payload.From)
	if !session.IsAllowedMessage() {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Please wait before sending another message"})
		return
	}
	session.StartProcessing()
	defer session.FinishProcessing()

	capture := &captureSender{}
	err = h.relayService.WithSender(capture).ProcessMessage(c.Request.Context(), agent, entities.Message{
		From:       payload.From,
		Content:    SanitizeString(payload.Content),
		Channel:    entities.ChannelWeb,
		AgentID:    agent.ID,
		SchemaName: owner.SchemaName,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Agent flow unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": capture.content})
}

// captureSender collects the reply so the web channel can return it
// synchronously.
type captureSender struct {
	content string
}

func (s *captureSender) SendMessage(_, content string) error {
	s.content = content
	return nil
}
