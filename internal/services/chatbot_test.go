package services

import (
	"context"
	"testing"

	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
)

func testChatbot(t *testing.T) ChatbotService {
	t.Helper()
	return NewChatbotServiceFromConfig(ChatbotConfig{
		Rules: []ChatbotRule{
			{Name: "greeting", Keywords: []string{"hello", "hi"}, Responses: []string{"Hi there!"}},
			{Name: "enrollment", Keywords: []string{"enroll", "sign up"}, Responses: []string{"Open the course page and press Enroll."}},
			{Name: "quiz", Keywords: []string{"quiz", "test"}, Responses: []string{"Quizzes live under each course."}},
		},
		Fallbacks: []string{"Sorry, I did not get that."},
	}, testLogger(t))
}

func TestChatbotMatchesKeyword(t *testing.T) {
	bot := testChatbot(t)

	reply, err := bot.Reply(context.Background(), "How do I ENROLL in the Go course?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply.Rule != "enrollment" {
		t.Fatalf("rule = %q, want enrollment", reply.Rule)
	}
	if reply.Message != "Open the course page and press Enroll." {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestChatbotFirstRuleWins(t *testing.T) {
	bot := testChatbot(t)

	// Matches both greeting and quiz; file order decides.
	reply, err := bot.Reply(context.Background(), "hi, where is the quiz?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply.Rule != "greeting" {
		t.Fatalf("rule = %q, want greeting", reply.Rule)
	}
}

func TestChatbotMultiWordKeyword(t *testing.T) {
	bot := testChatbot(t)

	reply, err := bot.Reply(context.Background(), "where do i sign up?")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply.Rule != "enrollment" {
		t.Fatalf("rule = %q, want enrollment", reply.Rule)
	}
}

func TestChatbotFallsBack(t *testing.T) {
	bot := testChatbot(t)

	reply, err := bot.Reply(context.Background(), "what is the meaning of life")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply.Rule != "" {
		t.Fatalf("rule = %q, want empty on fallback", reply.Rule)
	}
	if reply.Message != "Sorry, I did not get that." {
		t.Fatalf("message = %q", reply.Message)
	}
}

func TestChatbotRejectsEmptyMessage(t *testing.T) {
	bot := testChatbot(t)

	for _, message := range []string{"", "   ", "\n\t"} {
		if _, err := bot.Reply(context.Background(), message); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("message %q: err = %v, want validation error", message, err)
		}
	}
}

func TestChatbotDefaultFallbackInjected(t *testing.T) {
	bot := NewChatbotServiceFromConfig(ChatbotConfig{}, testLogger(t))

	reply, err := bot.Reply(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Reply: %v", err)
	}
	if reply.Message == "" {
		t.Fatalf("fallback message empty")
	}
}
