package entities

// Message is an inbound end-customer message on one of an agent's
// channels, on its way to the tenant's n8n flow.
type Message struct {
	ID         string
	From       string
	To         string
	Content    string
	Channel    string // "whatsapp", "web", "telegram"
	AgentID    int
	SchemaName string // Tenant schema for conversation logging
	IsCallback bool   // Whether this came from a button callback
}

type Reply struct {
	Content string
}
