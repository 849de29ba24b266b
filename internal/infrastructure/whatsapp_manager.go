package infrastructure

import (
	"fmt"
	"os"
	"sync"
)

// WhatsAppManager keeps one WhatsApp session per tenant.
type WhatsAppManager struct {
	clients map[int]*WhatsAppClient
	mu      sync.RWMutex
	baseDir string

	// HandlerFactory builds the inbound event handler for a tenant's
	// session; the HTTP layer wires it to the relay pipeline.
	HandlerFactory func(userID int, schemaName string) func(interface{})
}

func NewWhatsAppManager(baseDir string) *WhatsAppManager {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		fmt.Printf("Warning: could not create devices directory: %v\n", err)
	}

	return &WhatsAppManager{
		clients: make(map[int]*WhatsAppClient),
		baseDir: baseDir,
	}
}

// GetClient returns the tenant's session (nil if none).
func (m *WhatsAppManager) GetClient(userID int) *WhatsAppClient {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[userID]
}

// GetOrCreateClient returns the tenant's session, creating it (and its
// device store) on first use.
func (m *WhatsAppManager) GetOrCreateClient(userID int, schemaName string) (*WhatsAppClient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[userID]; exists {
		return client, nil
	}

	dbPath := fmt.Sprintf("%s/tenant_%d.db", m.baseDir, userID)
	client, err := NewWhatsAppClient(dbPath, userID, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to create WhatsApp client for tenant %d: %w", userID, err)
	}

	if m.HandlerFactory != nil {
		client.AddHandler(m.HandlerFactory(userID, schemaName))
	}

	m.clients[userID] = client
	return client, nil
}

// ConnectClient connects the tenant's session (creating it if needed).
func (m *WhatsAppManager) ConnectClient(userID int, schemaName string) (*WhatsAppClient, error) {
	client, err := m.GetOrCreateClient(userID, schemaName)
	if err != nil {
		return nil, err
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect WhatsApp for tenant %d: %w", userID, err)
	}

	return client, nil
}

// DisconnectClient disconnects and drops the tenant's session.
func (m *WhatsAppManager) DisconnectClient(userID int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[userID]; exists {
		client.Disconnect()
		delete(m.clients, userID)
	}
}

// LogoutClient clears the tenant's pairing. Nil when already logged
// out.
func (m *WhatsAppManager) LogoutClient(userID int) error {
	m.mu.RLock()
	client, exists := m.clients[userID]
	m.mu.RUnlock()

	if !exists || client == nil {
		return nil
	}

	if !client.IsLoggedIn() && !client.Client.IsConnected() {
		m.mu.Lock()
		delete(m.clients, userID)
		m.mu.Unlock()
		return nil
	}

	err := client.Logout()

	m.mu.Lock()
	delete(m.clients, userID)
	m.mu.Unlock()

	return err
}

// ConnectedTenants returns the tenants with paired sessions.
func (m *WhatsAppManager) ConnectedTenants() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []int
	for userID, client := range m.clients {
		if client.IsLoggedIn() {
			users = append(users, userID)
		}
	}
	return users
}

// DisconnectAll disconnects all sessions (for graceful shutdown).
func (m *WhatsAppManager) DisconnectAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.Disconnect()
	}
	m.clients = make(map[int]*WhatsAppClient)
}
