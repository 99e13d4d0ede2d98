package ports

import (
	"context"

	"github.com/avolkov/newschat/internal/core/domain"
)

// ChatService is the inbound contract for answering a single user turn.
type ChatService interface {
	// Respond runs the full answer pipeline for one query: greeting
	// short-circuit, answer-cache lookup, retrieval, generation.
	Respond(ctx context.Context, query string) (*domain.Answer, error)
	// Status reports pipeline readiness for the status endpoint.
	Status(ctx context.Context) (domain.PipelineStatus, error)
}

// ConversationService ties the answer pipeline to session transcripts. The
// fine-grained methods exist so the realtime channel can emit events between
// pipeline stages.
type ConversationService interface {
	AppendUserMessage(ctx context.Context, sessionID, content string) (domain.ChatMessage, *domain.Session, error)
	AppendAssistantMessage(ctx context.Context, sessionID string, answer domain.Answer) (domain.ChatMessage, *domain.Session, error)
	Respond(ctx context.Context, query string) (*domain.Answer, error)
}

// RebuildService is the inbound contract for asynchronous knowledge-base rebuilds.
type RebuildService interface {
	RequestRebuild(ctx context.Context) (string, error)
	RunRebuild(ctx context.Context, jobID string) error
}
