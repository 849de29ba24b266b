package usecases

import (
	"context"
	"fmt"
	"strings"

	"ispagents/internal/entities"
	"ispagents/internal/interfaces"
)

// FlowRelay forwards an inbound message to the agent's n8n flow and
// returns the flow's reply.
type FlowRelay interface {
	Relay(ctx context.Context, agent *entities.Agent, msg entities.Message) (entities.Reply, error)
}

// ConversationLogger persists the exchange in the tenant's schema.
type ConversationLogger interface {
	LogExchange(schemaName string, agentID int, from, inbound, outbound string) error
}

// UsageRecorder tracks per-agent message counters for monitoring.
type UsageRecorder interface {
	IncrementIn(agentID int) error
	IncrementOut(agentID int) error
}

// MessageLimiter throttles inbound traffic per agent.
type MessageLimiter interface {
	Allow(agentID int) bool
}

// RelayService is the inbound pipeline: throttle, relay to the tenant's
// n8n flow, answer on the originating channel, then log and count. The
// AI itself lives entirely in the flow; this service is plumbing.
type RelayService struct {
	relay    FlowRelay
	sender   interfaces.ChannelSender
	log      ConversationLogger
	usage    UsageRecorder
	limiter  MessageLimiter
	fallback string
}

func NewRelayService(relay FlowRelay, sender interfaces.ChannelSender, log ConversationLogger, usage UsageRecorder, limiter MessageLimiter) *RelayService {
	return &RelayService{
		relay:    relay,
		sender:   sender,
		log:      log,
		usage:    usage,
		limiter:  limiter,
		fallback: "No momento não consegui processar sua mensagem. Tente novamente em instantes.",
	}
}

// WithSender returns a copy bound to a different channel sender. Used
// by the channel managers to route replies through the client that
// received the message.
func (s *RelayService) WithSender(sender interfaces.ChannelSender) *RelayService {
	copied := *s
	copied.sender = sender
	return &copied
}

// ProcessMessage runs one inbound message through the pipeline.
func (s *RelayService) ProcessMessage(ctx context.Context, agent *entities.Agent, msg entities.Message) error {
	if agent == nil || !agent.IsActive {
		return fmt.Errorf("relay: no active agent for message from %s", msg.From)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil
	}

	if s.limiter != nil && !s.limiter.Allow(agent.ID) {
		fmt.Printf("[RELAY] throttled agent %d (%s)\n", agent.ID, msg.Channel)
		return nil
	}

	if s.usage != nil {
		if err := s.usage.IncrementIn(agent.ID); err != nil {
			fmt.Printf("[RELAY] usage in: %v\n", err)
		}
	}

	reply, err := s.relay.Relay(ctx, agent, msg)
	if err != nil {
		fmt.Printf("[RELAY] flow error for agent %d: %v\n", agent.ID, err)
		reply = entities.Reply{Content: s.fallback}
	}
	if reply.Content == "" {
		return nil
	}

	if s.sender != nil {
		if err := s.sender.SendMessage(msg.From, reply.Content); err != nil {
			return fmt.Errorf("relay: send reply: %w", err)
		}
	}

	if s.usage != nil {
		if err := s.usage.IncrementOut(agent.ID); err != nil {
			fmt.Printf("[RELAY] usage out: %v\n", err)
		}
	}
	if s.log != nil {
		if err := s.log.LogExchange(msg.SchemaName, agent.ID, msg.From, msg.Content, reply.Content); err != nil {
			fmt.Printf("[RELAY] log exchange: %v\n", err)
		}
	}
	return nil
}
