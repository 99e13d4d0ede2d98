package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
)

type chatServiceFake struct {
	answer *domain.Answer
	err    error
}

func (f *chatServiceFake) Respond(context.Context, string) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *chatServiceFake) Status(context.Context) (domain.PipelineStatus, error) {
	return domain.PipelineStatus{}, nil
}

type sessionsFake struct {
	sessions map[string]*domain.Session
	seq      int
}

func newSessionsFake() *sessionsFake {
	return &sessionsFake{sessions: make(map[string]*domain.Session)}
}

func (f *sessionsFake) Create(_ context.Context, sessionID string) (*domain.Session, error) {
	if existing, ok := f.sessions[sessionID]; ok {
		return existing, nil
	}
	session := &domain.Session{ID: sessionID, CreatedAt: time.Now(), Messages: []domain.ChatMessage{}}
	f.sessions[sessionID] = session
	return session, nil
}

func (f *sessionsFake) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	return f.sessions[sessionID], nil
}

func (f *sessionsFake) AppendMessage(_ context.Context, sessionID string, msg domain.ChatMessage) (*domain.Session, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		session = &domain.Session{ID: sessionID, Messages: []domain.ChatMessage{}}
		f.sessions[sessionID] = session
	}
	f.seq++
	msg.ID = fmt.Sprintf("m-%d", f.seq)
	msg.Timestamp = time.Now()
	session.Messages = append(session.Messages, msg)
	return session, nil
}

func (f *sessionsFake) History(_ context.Context, sessionID string) ([]domain.ChatMessage, bool, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return []domain.ChatMessage{}, false, nil
	}
	return session.Messages, true, nil
}

func (f *sessionsFake) Clear(_ context.Context, sessionID string) (bool, error) {
	if _, ok := f.sessions[sessionID]; !ok {
		return false, nil
	}
	delete(f.sessions, sessionID)
	return true, nil
}

func (f *sessionsFake) ListActive(context.Context) ([]string, error) {
	var ids []string
	for id := range f.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestHandleChatFullTurn(t *testing.T) {
	answer := &domain.Answer{
		Text:    "the latest on chips",
		Sources: []domain.SourceRef{{Title: "t", Source: "s", Score: 0.8}},
	}
	sessions := newSessionsFake()
	uc := NewConversationUseCase(&chatServiceFake{answer: answer}, sessions)

	result, err := uc.HandleChat(context.Background(), "s-1", "chip news?")
	if err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}
	if result.BotResponse != answer.Text {
		t.Fatalf("botResponse = %q, want answer text", result.BotResponse)
	}
	if result.MessageCount != 2 {
		t.Fatalf("messageCount = %d, want 2", result.MessageCount)
	}

	transcript := sessions.sessions["s-1"].Messages
	if transcript[0].Role != domain.RoleUser || transcript[1].Role != domain.RoleAssistant {
		t.Fatalf("transcript roles = [%s %s], want [user assistant]", transcript[0].Role, transcript[1].Role)
	}
	if transcript[1].Content != answer.Text {
		t.Fatalf("assistant message = %q, want answer text", transcript[1].Content)
	}
}

func TestHandleChatRespondError(t *testing.T) {
	sessions := newSessionsFake()
	uc := NewConversationUseCase(&chatServiceFake{err: errors.New("pipeline broke")}, sessions)

	_, err := uc.HandleChat(context.Background(), "s-1", "chip news?")
	if err == nil {
		t.Fatalf("expected error")
	}
	// The user message is already recorded; only the assistant reply is missing.
	if got := len(sessions.sessions["s-1"].Messages); got != 1 {
		t.Fatalf("transcript has %d messages, want 1", got)
	}
}

func TestAppendMessagesReturnLastMessage(t *testing.T) {
	sessions := newSessionsFake()
	uc := NewConversationUseCase(&chatServiceFake{}, sessions)

	userMsg, _, err := uc.AppendUserMessage(context.Background(), "s-1", "hello there")
	if err != nil {
		t.Fatalf("AppendUserMessage() error = %v", err)
	}
	if userMsg.Role != domain.RoleUser || userMsg.Content != "hello there" {
		t.Fatalf("unexpected user message %+v", userMsg)
	}

	answer := domain.Answer{Text: "hi!", Fallback: true}
	botMsg, session, err := uc.AppendAssistantMessage(context.Background(), "s-1", answer)
	if err != nil {
		t.Fatalf("AppendAssistantMessage() error = %v", err)
	}
	if botMsg.Role != domain.RoleAssistant || !botMsg.Fallback {
		t.Fatalf("unexpected assistant message %+v", botMsg)
	}
	if session.MessageCount() != 2 {
		t.Fatalf("messageCount = %d, want 2", session.MessageCount())
	}
}

func TestHandleChatCarriesAnswerFlags(t *testing.T) {
	sessions := newSessionsFake()

	greeting := &chatServiceFake{answer: &domain.Answer{Text: "Hello!", Fallback: true}}
	result, err := NewConversationUseCase(greeting, sessions).HandleChat(context.Background(), "s-1", "hi")
	if err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}
	if !result.Fallback || result.Cached {
		t.Fatalf("flags = (fallback=%v, cached=%v), want (true, false)", result.Fallback, result.Cached)
	}

	cached := &chatServiceFake{answer: &domain.Answer{Text: "from cache", Cached: true}}
	result, err = NewConversationUseCase(cached, sessions).HandleChat(context.Background(), "s-1", "any news?")
	if err != nil {
		t.Fatalf("HandleChat() error = %v", err)
	}
	if result.Fallback || !result.Cached {
		t.Fatalf("flags = (fallback=%v, cached=%v), want (false, true)", result.Fallback, result.Cached)
	}
}
