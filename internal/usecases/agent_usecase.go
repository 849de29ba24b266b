package usecases

import (
	"errors"
	"fmt"
	"strings"

	"ispagents/internal/entities"
)

var (
	ErrAgentQuotaReached = errors.New("agents: plan agent quota reached")
	ErrAgentNotFound     = errors.New("agents: not found")
)

// AgentStore is the persistence surface for agent management.
type AgentStore interface {
	Create(agent *entities.Agent) error
	GetByID(id int) (*entities.Agent, error)
	ListByUser(userID int) ([]entities.Agent, error)
	CountByUser(userID int) (int, error)
	Update(agent *entities.Agent) error
	Delete(id int) error
}

type AgentUsecase struct {
	agents AgentStore
}

func NewAgentUsecase(agents AgentStore) *AgentUsecase {
	return &AgentUsecase{agents: agents}
}

// CreateAgent validates and stores a new agent, enforcing the owner's
// plan quota.
func (uc *AgentUsecase) CreateAgent(plan string, agent *entities.Agent) error {
	if err := validateAgent(agent); err != nil {
		return err
	}

	if max := entities.MaxAgents(plan); max > 0 {
		count, err := uc.agents.CountByUser(agent.UserID)
		if err != nil {
			return err
		}
		if count >= max {
			return ErrAgentQuotaReached
		}
	}

	agent.IsActive = true
	return uc.agents.Create(agent)
}

// UpdateAgent replaces the mutable fields of an existing agent owned by
// userID.
func (uc *AgentUsecase) UpdateAgent(userID int, agent *entities.Agent) error {
	existing, err := uc.ownedAgent(userID, agent.ID)
	if err != nil {
		return err
	}
	if err := validateAgent(agent); err != nil {
		return err
	}

	existing.Name = agent.Name
	existing.Kind = agent.Kind
	existing.Channel = agent.Channel
	existing.WebhookURL = agent.WebhookURL
	existing.SystemPrompt = agent.SystemPrompt
	existing.IsActive = agent.IsActive
	return uc.agents.Update(existing)
}

func (uc *AgentUsecase) DeleteAgent(userID, agentID int) error {
	if _, err := uc.ownedAgent(userID, agentID); err != nil {
		return err
	}
	return uc.agents.Delete(agentID)
}

func (uc *AgentUsecase) ListAgents(userID int) ([]entities.Agent, error) {
	return uc.agents.ListByUser(userID)
}

func (uc *AgentUsecase) GetAgent(userID, agentID int) (*entities.Agent, error) {
	return uc.ownedAgent(userID, agentID)
}

func (uc *AgentUsecase) ownedAgent(userID, agentID int) (*entities.Agent, error) {
	agent, err := uc.agents.GetByID(agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil || agent.UserID != userID {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

func validateAgent(agent *entities.Agent) error {
	if strings.TrimSpace(agent.Name) == "" {
		return fmt.Errorf("agents: name is required")
	}
	switch agent.Kind {
	case entities.AgentKindSuporte, entities.AgentKindComercial, entities.AgentKindTecnico:
	default:
		return fmt.Errorf("agents: invalid kind %q", agent.Kind)
	}
	switch agent.Channel {
	case entities.ChannelTelegram, entities.ChannelWhatsApp, entities.ChannelWeb:
	default:
		return fmt.Errorf("agents: invalid channel %q", agent.Channel)
	}
	return nil
}
