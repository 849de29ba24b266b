package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ispagents/internal/entities"
)

func relayAgent(url string) *entities.Agent {
	return &entities.Agent{
		ID:           1,
		Name:         "Suporte",
		Kind:         entities.AgentKindSuporte,
		Channel:      entities.ChannelWeb,
		WebhookURL:   url,
		SystemPrompt: "Você é um atendente de provedor.",
		IsActive:     true,
	}
}

func TestRelayPostsMessageAndReadsReply(t *testing.T) {
	var received n8nRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"reply": "Reiniciando sua ONU."})
	}))
	defer srv.Close()

	client := NewN8NClient()
	reply, err := client.Relay(context.Background(), relayAgent(srv.URL), entities.Message{
		From:    "5511999990000",
		Content: "sem internet",
		Channel: entities.ChannelWhatsApp,
		AgentID: 1,
	})
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if reply.Content != "Reiniciando sua ONU." {
		t.Errorf("reply = %q", reply.Content)
	}
	if received.From != "5511999990000" || received.AgentKind != entities.AgentKindSuporte {
		t.Errorf("request payload %+v", received)
	}
	if received.SystemPrompt == "" {
		t.Error("system prompt not forwarded")
	}
}

func TestRelayAcceptsContentField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": "resposta alternativa"})
	}))
	defer srv.Close()

	reply, err := NewN8NClient().Relay(context.Background(), relayAgent(srv.URL), entities.Message{Content: "oi"})
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if reply.Content != "resposta alternativa" {
		t.Errorf("reply = %q", reply.Content)
	}
}

func TestRelayErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewN8NClient().Relay(context.Background(), relayAgent(srv.URL), entities.Message{Content: "oi"}); err == nil {
		t.Error("5xx webhook should error")
	}
	if _, err := NewN8NClient().Relay(context.Background(), relayAgent(""), entities.Message{Content: "oi"}); err == nil {
		t.Error("missing webhook should error")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewN8NClient().Ping(context.Background(), srv.URL); err != nil {
		t.Errorf("ping healthy webhook: %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	if err := NewN8NClient().Ping(context.Background(), down.URL); err == nil {
		t.Error("ping to failing webhook should error")
	}
}
