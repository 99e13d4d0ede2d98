package usecase

import (
	"context"
	"fmt"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/core/ports"
)

// ConversationUseCase ties the answer pipeline to session transcripts. The
// fine-grained append/respond methods let the realtime channel emit events
// between pipeline stages; HandleChat is the one-shot path for plain HTTP.
type ConversationUseCase struct {
	chat     ports.ChatService
	sessions ports.SessionDirectory
}

func NewConversationUseCase(chat ports.ChatService, sessions ports.SessionDirectory) *ConversationUseCase {
	return &ConversationUseCase{
		chat:     chat,
		sessions: sessions,
	}
}

func (uc *ConversationUseCase) AppendUserMessage(ctx context.Context, sessionID, content string) (domain.ChatMessage, *domain.Session, error) {
	session, err := uc.sessions.AppendMessage(ctx, sessionID, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: content,
	})
	if err != nil {
		return domain.ChatMessage{}, nil, fmt.Errorf("append user message: %w", err)
	}
	return session.Messages[len(session.Messages)-1], session, nil
}

func (uc *ConversationUseCase) AppendAssistantMessage(ctx context.Context, sessionID string, answer domain.Answer) (domain.ChatMessage, *domain.Session, error) {
	session, err := uc.sessions.AppendMessage(ctx, sessionID, domain.ChatMessage{
		Role:     domain.RoleAssistant,
		Content:  answer.Text,
		Sources:  answer.Sources,
		Fallback: answer.Fallback,
	})
	if err != nil {
		return domain.ChatMessage{}, nil, fmt.Errorf("append assistant message: %w", err)
	}
	return session.Messages[len(session.Messages)-1], session, nil
}

func (uc *ConversationUseCase) Respond(ctx context.Context, query string) (*domain.Answer, error) {
	return uc.chat.Respond(ctx, query)
}

// ChatResult is the response shape of the one-shot HTTP chat path.
type ChatResult struct {
	BotResponse  string             `json:"botResponse"`
	Sources      []domain.SourceRef `json:"sources"`
	MessageCount int                `json:"messageCount"`
	Fallback     bool               `json:"fallback,omitempty"`
	Cached       bool               `json:"cached,omitempty"`
}

// HandleChat runs the full turn: append the user message, answer, append the
// assistant message.
func (uc *ConversationUseCase) HandleChat(ctx context.Context, sessionID, content string) (*ChatResult, error) {
	if _, _, err := uc.AppendUserMessage(ctx, sessionID, content); err != nil {
		return nil, err
	}

	answer, err := uc.chat.Respond(ctx, content)
	if err != nil {
		return nil, err
	}

	_, session, err := uc.AppendAssistantMessage(ctx, sessionID, *answer)
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		BotResponse:  answer.Text,
		Sources:      answer.Sources,
		MessageCount: session.MessageCount(),
		Fallback:     answer.Fallback,
		Cached:       answer.Cached,
	}, nil
}
