package entities

import "time"

// Agent kinds mirror the operational role types they serve.
const (
	AgentKindSuporte   = "suporte"
	AgentKindComercial = "comercial"
	AgentKindTecnico   = "tecnico"
)

// Channels an agent can be attached to.
const (
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
	ChannelWeb      = "web"
)

// Agent is a tenant-owned AI agent. The actual conversation flow runs
// in the tenant's n8n instance; WebhookURL is where inbound messages
// are relayed.
type Agent struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	Channel      string    `json:"channel"`
	WebhookURL   string    `json:"webhook_url"`
	SystemPrompt string    `json:"system_prompt"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Integration kinds.
const (
	IntegrationN8N      = "n8n"
	IntegrationTelegram = "telegram"
	IntegrationSNMP     = "snmp"
)

// Integration is an external endpoint configured by a tenant. SNMP/OLT
// entries only store the device endpoint; all device communication is
// delegated to the tenant's n8n flows.
type Integration struct {
	ID        int                    `json:"id"`
	UserID    int                    `json:"user_id"`
	Kind      string                 `json:"kind"`
	Name      string                 `json:"name"`
	Config    map[string]interface{} `json:"config"`
	Enabled   bool                   `json:"enabled"`
	CreatedAt time.Time              `json:"created_at"`
}
