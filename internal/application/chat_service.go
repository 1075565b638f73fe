package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/greenloop/internal/infrastructure/ai"
	"github.com/oksasatya/greenloop/internal/observability"
)

const chatPersona = `You are The Green Man, GreenLoop's friendly sustainability coach.
Answer questions about sustainability, recycling and eco-friendly living in a warm, concise way (at most three short paragraphs).
Use the user's recent activity below to personalise the answer, and never invent activity that is not listed.`

// ChatService answers one conversational turn grounded in the user's ledger.
type ChatService struct {
	Assembler *ContextAssembler
	Generator ai.Generator
	Metrics   *observability.Metrics
	Logger    *logrus.Logger
}

func NewChatService(a *ContextAssembler, gen ai.Generator, m *observability.Metrics, logger *logrus.Logger) *ChatService {
	return &ChatService{Assembler: a, Generator: gen, Metrics: m, Logger: logger}
}

// Reply returns ErrAIUnavailable wrapped around any model failure.
func (s *ChatService) Reply(ctx context.Context, userID, message string) (string, error) {
	start := time.Now()
	block, err := s.Assembler.Assemble(ctx, userID, message)
	if err != nil {
		return "", err
	}
	if s.Generator == nil {
		return "", ErrAIUnavailable
	}

	reply, err := s.Generator.Generate(ctx, ai.Prompt{
		System: chatPersona + "\n\n" + block,
		User:   message,
	})
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("chat generation failed")
		}
		return "", fmt.Errorf("%w: %v", ErrAIUnavailable, err)
	}
	s.Metrics.ChatReply(time.Since(start))
	return strings.TrimSpace(reply), nil
}
