package research

import (
	"context"
	"testing"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

// mockMessager implements AnthropicMessager for testing.
type mockMessager struct {
	calls    int
	response *anthropic.Message
	err      error
}

func (m *mockMessager) New(_ context.Context, _ anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	m.calls++
	return m.response, m.err
}

func newMockMessage(text string) *anthropic.Message {
	return &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "text", Text: text},
		},
	}
}

func withMockClient(mock *mockMessager) func() {
	old := newAnthropicClient
	newAnthropicClient = func(_ string) AnthropicMessager { return mock }
	return func() { newAnthropicClient = old }
}

func TestAnthropicCallerRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewAnthropicCallerFromEnv(); err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestGenerateThrottlesOutboundCalls(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "test-key")
	mock := &mockMessager{response: newMockMessage("simulated briefing")}
	cleanup := withMockClient(mock)
	defer cleanup()

	caller, err := NewAnthropicCallerFromEnv()
	if err != nil {
		t.Fatalf("NewAnthropicCallerFromEnv: %v", err)
	}
	// One-token budget with no refill: the second call must wait.
	caller.limiter = rate.NewLimiter(0, 1)

	out, err := caller.Generate(context.Background(), "research prompt")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != "simulated briefing" {
		t.Fatalf("output = %q", out)
	}
	if mock.calls != 1 {
		t.Fatalf("messager calls = %d, want 1", mock.calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := caller.Generate(ctx, "research prompt"); err == nil {
		t.Fatal("expected error once the rate budget is spent")
	}
	if mock.calls != 1 {
		t.Fatalf("messager calls = %d, want 1 (second call held at the limiter)", mock.calls)
	}
}
