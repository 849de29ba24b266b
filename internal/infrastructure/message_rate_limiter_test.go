package infrastructure

import (
	"testing"
	"time"
)

func TestMessageRateLimiterBurstThenThrottle(t *testing.T) {
	rl := NewMessageRateLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow(1) {
			t.Fatalf("message %d within burst was throttled", i)
		}
	}
	if rl.Allow(1) {
		t.Error("message beyond burst was allowed")
	}
}

func TestMessageRateLimiterRefills(t *testing.T) {
	rl := NewMessageRateLimiter(100, 1)

	if !rl.Allow(1) {
		t.Fatal("first message throttled")
	}
	if rl.Allow(1) {
		t.Fatal("bucket should be empty")
	}
	time.Sleep(50 * time.Millisecond)
	if !rl.Allow(1) {
		t.Error("bucket did not refill")
	}
}

func TestMessageRateLimiterIsPerAgent(t *testing.T) {
	rl := NewMessageRateLimiter(1, 1)

	if !rl.Allow(1) {
		t.Fatal("agent 1 throttled")
	}
	if !rl.Allow(2) {
		t.Error("agent 2 throttled by agent 1's bucket")
	}
}

func TestMessageRateLimiterReset(t *testing.T) {
	rl := NewMessageRateLimiter(1, 1)

	rl.Allow(1)
	if rl.Allow(1) {
		t.Fatal("bucket should be empty")
	}
	rl.Reset(1)
	if !rl.Allow(1) {
		t.Error("reset did not restore the bucket")
	}
}

func TestChatSessionDebounce(t *testing.T) {
	sm := NewChatSessionManager()
	session := sm.GetOrCreateSession("5511999990000")

	if !session.IsAllowedMessage() {
		t.Fatal("first message denied")
	}
	if session.IsAllowedMessage() {
		t.Error("immediate follow-up not debounced")
	}
	if sm.GetOrCreateSession("5511999990000") != session {
		t.Error("same contact returned a different session")
	}
	if sm.GetOrCreateSession("other") == session {
		t.Error("different contact shared a session")
	}
}

func TestChatSessionBusyBlocksMessages(t *testing.T) {
	sm := NewChatSessionManager()
	session := sm.GetOrCreateSession("contact")
	session.StartProcessing()

	// Busy sessions stay blocked regardless of debounce timing.
	session.LastMessage = time.Time{}
	if session.IsAllowedMessage() {
		t.Error("busy session accepted a message")
	}
	session.FinishProcessing()
	if !session.IsAllowedMessage() {
		t.Error("idle session denied a message")
	}
}
