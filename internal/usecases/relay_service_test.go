package usecases

import (
	"context"
	"errors"
	"testing"

	"ispagents/internal/entities"
)

type fakeFlowRelay struct {
	reply entities.Reply
	err   error
	calls int
}

func (f *fakeFlowRelay) Relay(_ context.Context, _ *entities.Agent, _ entities.Message) (entities.Reply, error) {
	f.calls++
	return f.reply, f.err
}

type fakeLogger struct {
	exchanges [][4]string
}

func (f *fakeLogger) LogExchange(schemaName string, agentID int, from, inbound, outbound string) error {
	f.exchanges = append(f.exchanges, [4]string{schemaName, from, inbound, outbound})
	return nil
}

type fakeUsage struct {
	in, out int
}

func (f *fakeUsage) IncrementIn(int) error  { f.in++; return nil }
func (f *fakeUsage) IncrementOut(int) error { f.out++; return nil }

type fakeLimiter struct {
	allow bool
}

func (f *fakeLimiter) Allow(int) bool { return f.allow }

type recordingSender struct {
	to      string
	content string
	err     error
}

func (s *recordingSender) SendMessage(to, content string) error {
	s.to = to
	s.content = content
	return s.err
}

func activeAgent() *entities.Agent {
	return &entities.Agent{
		ID:       1,
		UserID:   1,
		Name:     "Suporte",
		Kind:     entities.AgentKindSuporte,
		Channel:  entities.ChannelWhatsApp,
		IsActive: true,
	}
}

func inboundMessage() entities.Message {
	return entities.Message{
		From:       "5511999990000",
		Content:    "minha internet caiu",
		Channel:    entities.ChannelWhatsApp,
		AgentID:    1,
		SchemaName: "tenant_1",
	}
}

func TestProcessMessageHappyPath(t *testing.T) {
	flow := &fakeFlowRelay{reply: entities.Reply{Content: "Vou verificar sua conexão."}}
	logger := &fakeLogger{}
	usage := &fakeUsage{}
	sender := &recordingSender{}
	svc := NewRelayService(flow, sender, logger, usage, &fakeLimiter{allow: true})

	if err := svc.ProcessMessage(context.Background(), activeAgent(), inboundMessage()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if sender.to != "5511999990000" || sender.content != "Vou verificar sua conexão." {
		t.Errorf("reply sent to %q: %q", sender.to, sender.content)
	}
	if usage.in != 1 || usage.out != 1 {
		t.Errorf("usage in/out = %d/%d, want 1/1", usage.in, usage.out)
	}
	if len(logger.exchanges) != 1 {
		t.Fatalf("exchanges logged = %d, want 1", len(logger.exchanges))
	}
	if got := logger.exchanges[0]; got[0] != "tenant_1" || got[2] != "minha internet caiu" {
		t.Errorf("logged exchange %v", got)
	}
}

func TestProcessMessageFlowErrorSendsFallback(t *testing.T) {
	flow := &fakeFlowRelay{err: errors.New("n8n timeout")}
	sender := &recordingSender{}
	svc := NewRelayService(flow, sender, &fakeLogger{}, &fakeUsage{}, &fakeLimiter{allow: true})

	if err := svc.ProcessMessage(context.Background(), activeAgent(), inboundMessage()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if sender.content == "" {
		t.Fatal("flow failure must still answer the customer")
	}
}

func TestProcessMessageThrottledSkipsFlow(t *testing.T) {
	flow := &fakeFlowRelay{reply: entities.Reply{Content: "resposta"}}
	sender := &recordingSender{}
	svc := NewRelayService(flow, sender, &fakeLogger{}, &fakeUsage{}, &fakeLimiter{allow: false})

	if err := svc.ProcessMessage(context.Background(), activeAgent(), inboundMessage()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if flow.calls != 0 {
		t.Error("throttled message reached the flow")
	}
	if sender.content != "" {
		t.Error("throttled message produced a reply")
	}
}

func TestProcessMessageInactiveAgent(t *testing.T) {
	svc := NewRelayService(&fakeFlowRelay{}, &recordingSender{}, &fakeLogger{}, &fakeUsage{}, &fakeLimiter{allow: true})

	agent := activeAgent()
	agent.IsActive = false
	if err := svc.ProcessMessage(context.Background(), agent, inboundMessage()); err == nil {
		t.Error("inactive agent accepted")
	}
	if err := svc.ProcessMessage(context.Background(), nil, inboundMessage()); err == nil {
		t.Error("nil agent accepted")
	}
}

func TestProcessMessageEmptyContentIgnored(t *testing.T) {
	flow := &fakeFlowRelay{reply: entities.Reply{Content: "resposta"}}
	svc := NewRelayService(flow, &recordingSender{}, &fakeLogger{}, &fakeUsage{}, &fakeLimiter{allow: true})

	msg := inboundMessage()
	msg.Content = "   "
	if err := svc.ProcessMessage(context.Background(), activeAgent(), msg); err != nil {
		t.Fatalf("process: %v", err)
	}
	if flow.calls != 0 {
		t.Error("blank message reached the flow")
	}
}

func TestWithSenderDoesNotMutateOriginal(t *testing.T) {
	flow := &fakeFlowRelay{reply: entities.Reply{Content: "ok"}}
	original := &recordingSender{}
	svc := NewRelayService(flow, original, &fakeLogger{}, &fakeUsage{}, &fakeLimiter{allow: true})

	replacement := &recordingSender{}
	if err := svc.WithSender(replacement).ProcessMessage(context.Background(), activeAgent(), inboundMessage()); err != nil {
		t.Fatalf("process: %v", err)
	}
	if replacement.content == "" {
		t.Error("replacement sender not used")
	}
	if original.content != "" {
		t.Error("original sender received the reply")
	}
}
