package infrastructure

import (
	"sync"
	"time"
)

// ChatSession tracks in-flight processing per end-customer contact so a
// channel never runs two relays for the same conversation at once.
type ChatSession struct {
	Contact      string
	IsProcessing bool
	LastMessage  time.Time
	mu           sync.Mutex
}

// ChatSessionManager keys sessions by channel contact (phone number or
// chat id).
type ChatSessionManager struct {
	sessions map[string]*ChatSession
	mu       sync.RWMutex
}

func NewChatSessionManager() *ChatSessionManager {
	return &ChatSessionManager{
		sessions: make(map[string]*ChatSession),
	}
}

// GetOrCreateSession returns or creates the session for a contact.
func (sm *ChatSessionManager) GetOrCreateSession(contact string) *ChatSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	session, exists := sm.sessions[contact]
	if !exists {
		session = &ChatSession{Contact: contact}
		sm.sessions[contact] = session
	}
	return session
}

// IsAllowedMessage debounces duplicate or machine-gunned messages.
func (cs *ChatSession) IsAllowedMessage() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.IsProcessing {
		return false
	}
	if time.Since(cs.LastMessage) < 2*time.Second {
		return false
	}

	cs.LastMessage = time.Now()
	return true
}

// StartProcessing marks the session busy.
func (cs *ChatSession) StartProcessing() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.IsProcessing = true
}

// FinishProcessing marks the session idle again.
func (cs *ChatSession) FinishProcessing() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.IsProcessing = false
}
