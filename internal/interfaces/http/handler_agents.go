package http

import (
	"errors"
	"net/http"
	"strconv"

	"ispagents/internal/entities"
	"ispagents/internal/repository"
	"ispagents/internal/usecases"

	"github.com/gin-gonic/gin"
)

type AgentHandler struct {
	agents        *usecases.AgentUsecase
	usage         *repository.UsageRepository
	conversations *repository.ConversationRepository
}

func NewAgentHandler(agents *usecases.AgentUsecase, usage *repository.UsageRepository, conversations *repository.ConversationRepository) *AgentHandler {
	return &AgentHandler{agents: agents, usage: usage, conversations: conversations}
}

func (h *AgentHandler) ListAgents(c *gin.Context) {
	agents, err := h.agents.ListAgents(getUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list agents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents})
}

func (h *AgentHandler) CreateAgent(c *gin.Context) {
	var req struct {
		Name         string `json:"name"`
		Kind         string `json:"kind"`
		Channel      string `json:"channel"`
		WebhookURL   string `json:"webhook_url"`
		SystemPrompt string `json:"system_prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !ValidName(req.Name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent name"})
		return
	}
	if req.WebhookURL != "" && !ValidWebhookURL(req.WebhookURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook URL"})
		return
	}
	if !ValidateLength(req.SystemPrompt, 0, MaxPromptLength) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "System prompt too long"})
		return
	}

	profile := profileFromContext(c)
	agent := &entities.Agent{
		UserID:       getUserID(c),
		Name:         SanitizeString(req.Name),
		Kind:         req.Kind,
		Channel:      req.Channel,
		WebhookURL:   req.WebhookURL,
		SystemPrompt: req.SystemPrompt,
		IsActive:     true,
	}
	if err := h.agents.CreateAgent(profile.Plan, agent); err != nil {
		if errors.Is(err, usecases.ErrAgentQuotaReached) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "action": "upgrade_plan"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, agent)
}

func (h *AgentHandler) GetAgent(c *gin.Context) {
	agent, ok := h.ownedAgent(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *AgentHandler) UpdateAgent(c *gin.Context) {
	agent, ok := h.ownedAgent(c)
	if !ok {
		return
	}

	var req struct {
		Name         *string `json:"name"`
		Kind         *string `json:"kind"`
		Channel      *string `json:"channel"`
		WebhookURL   *string `json:"webhook_url"`
		SystemPrompt *string `json:"system_prompt"`
		IsActive     *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Name != nil {
		if !ValidName(*req.Name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent name"})
			return
		}
		agent.Name = SanitizeString(*req.Name)
	}
	if req.Kind != nil {
		agent.Kind = *req.Kind
	}
	if req.Channel != nil {
		agent.Channel = *req.Channel
	}
	if req.WebhookURL != nil {
		if *req.WebhookURL != "" && !ValidWebhookURL(*req.WebhookURL) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook URL"})
			return
		}
		agent.WebhookURL = *req.WebhookURL
	}
	if req.SystemPrompt != nil {
		if !ValidateLength(*req.SystemPrompt, 0, MaxPromptLength) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "System prompt too long"})
			return
		}
		agent.SystemPrompt = *req.SystemPrompt
	}
	if req.IsActive != nil {
		agent.IsActive = *req.IsActive
	}

	if err := h.agents.UpdateAgent(getUserID(c), agent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, agent)
}

func (h *AgentHandler) DeleteAgent(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
		return
	}
	if err := h.agents.DeleteAgent(getUserID(c), id); err != nil {
		if errors.Is(err, usecases.ErrAgentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete agent"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *AgentHandler) GetAgentUsage(c *gin.Context) {
	agent, ok := h.ownedAgent(c)
	if !ok {
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}

	history, err := h.usage.GetHistory(agent.ID, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load usage"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_id": agent.ID, "days": days, "history": history})
}

func (h *AgentHandler) GetAgentConversations(c *gin.Context) {
	agent, ok := h.ownedAgent(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}

	entries, err := h.conversations.ListRecent(getSchemaName(c), agent.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agent_id": agent.ID, "conversations": entries})
}

func (h *AgentHandler) ownedAgent(c *gin.Context) (*entities.Agent, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
		return nil, false
	}
	agent, err := h.agents.GetAgent(getUserID(c), id)
	if err != nil {
		if errors.Is(err, usecases.ErrAgentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load agent"})
		return nil, false
	}
	return agent, true
}
