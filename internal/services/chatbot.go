package services

import (
	"context"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

// ChatbotRule matches when any keyword appears in the message. Rules are
// checked in file order; the first hit wins.
type ChatbotRule struct {
	Name      string   `yaml:"name"`
	Keywords  []string `yaml:"keywords"`
	Responses []string `yaml:"responses"`
}

type ChatbotConfig struct {
	Rules     []ChatbotRule `yaml:"rules"`
	Fallbacks []string      `yaml:"fallbacks"`
}

type ChatbotReply struct {
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

// ChatbotTopic is the public shape of one rule, without its responses.
type ChatbotTopic struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

type ChatbotService interface {
	Reply(ctx context.Context, message string) (*ChatbotReply, error)
	Topics() []ChatbotTopic
}

type chatbotService struct {
	config ChatbotConfig
	log    *logger.Logger
}

func NewChatbotService(configPath string, baseLog *logger.Logger) (ChatbotService, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var config ChatbotConfig
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, err
	}
	return NewChatbotServiceFromConfig(config, baseLog), nil
}

func NewChatbotServiceFromConfig(config ChatbotConfig, baseLog *logger.Logger) ChatbotService {
	if len(config.Fallbacks) == 0 {
		config.Fallbacks = []string{"I'm not sure about that. Try asking about courses, quizzes or live sessions."}
	}
	return &chatbotService{config: config, log: baseLog.With("service", "ChatbotService")}
}

func (s *chatbotService) Reply(ctx context.Context, message string) (*ChatbotReply, error) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	if normalized == "" {
		return nil, apperr.E(apperr.KindValidation, "message is required")
	}

	for _, rule := range s.config.Rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(normalized, strings.ToLower(keyword)) {
				return &ChatbotReply{Rule: rule.Name, Message: pick(rule.Responses)}, nil
			}
		}
	}
	return &ChatbotReply{Message: pick(s.config.Fallbacks)}, nil
}

func (s *chatbotService) Topics() []ChatbotTopic {
	topics := make([]ChatbotTopic, 0, len(s.config.Rules))
	for _, rule := range s.config.Rules {
		topics = append(topics, ChatbotTopic{Name: rule.Name, Keywords: rule.Keywords})
	}
	return topics
}

func pick(responses []string) string {
	if len(responses) == 0 {
		return ""
	}
	if len(responses) == 1 {
		return responses[0]
	}
	return responses[rand.Intn(len(responses))]
}
