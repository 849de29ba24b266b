package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ispagents/internal/entities"
)

// N8NClient posts inbound messages to a tenant's n8n webhook and reads
// back the flow's reply. The AI conversation itself runs inside the
// flow; this client is a dumb relay.
type N8NClient struct {
	httpClient *http.Client
}

func NewN8NClient() *N8NClient {
	return &N8NClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type n8nRequest struct {
	From         string `json:"from"`
	Content      string `json:"content"`
	Channel      string `json:"channel"`
	AgentID      int    `json:"agent_id"`
	AgentName    string `json:"agent_name"`
	AgentKind    string `json:"agent_kind"`
	SystemPrompt string `json:"system_prompt,omitempty"`
}

type n8nResponse struct {
	Reply   string `json:"reply"`
	Content string `json:"content"` // some flows answer with "content" instead
}

// Relay forwards one message to the agent's webhook.
func (c *N8NClient) Relay(ctx context.Context, agent *entities.Agent, msg entities.Message) (entities.Reply, error) {
	if agent.WebhookURL == "" {
		return entities.Reply{}, fmt.Errorf("n8n: agent %d has no webhook configured", agent.ID)
	}

	payload := n8nRequest{
		From:         msg.From,
		Content:      msg.Content,
		Channel:      msg.Channel,
		AgentID:      agent.ID,
		AgentName:    agent.Name,
		AgentKind:    agent.Kind,
		SystemPrompt: agent.SystemPrompt,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return entities.Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, agent.WebhookURL, bytes.NewBuffer(data))
	if err != nil {
		return entities.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entities.Reply{}, fmt.Errorf("n8n: relay: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entities.Reply{}, fmt.Errorf("n8n: webhook returned %d", resp.StatusCode)
	}

	var out n8nResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return entities.Reply{}, fmt.Errorf("n8n: decode reply: %w", err)
	}
	if out.Reply == "" {
		out.Reply = out.Content
	}
	return entities.Reply{Content: out.Reply}, nil
}

// Ping performs a webhook reachability test for the integrations page.
func (c *N8NClient) Ping(ctx context.Context, webhookURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL,
		bytes.NewBufferString(`{"ping": true}`))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("n8n: webhook returned %d", resp.StatusCode)
	}
	return nil
}
