package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/core/ports"
	"github.com/avolkov/newschat/internal/infrastructure/ratelimit"
	"github.com/avolkov/newschat/internal/observability/metrics"
)

const serviceName = "api"

// Hub groups clients into session rooms and routes events between them and
// the conversation pipeline.
type Hub struct {
	conversations ports.ConversationService
	sessions      ports.SessionDirectory
	limiter       *ratelimit.Registry
	metrics       *metrics.ServerMetrics

	mu    sync.Mutex
	rooms map[string]map[*client]struct{}
}

func NewHub(
	conversations ports.ConversationService,
	sessions ports.SessionDirectory,
	limiter *ratelimit.Registry,
	serverMetrics *metrics.ServerMetrics,
) *Hub {
	return &Hub{
		conversations: conversations,
		sessions:      sessions,
		limiter:       limiter,
		metrics:       serverMetrics,
		rooms:         make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	if h.metrics != nil {
		h.metrics.WSConnOpened()
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if c.state == stateJoined {
		if room, ok := h.rooms[c.sessionID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.sessionID)
			}
		}
	}
	alreadyClosed := c.state == stateDisconnected
	c.state = stateDisconnected
	h.mu.Unlock()

	c.closeSend()
	if !alreadyClosed && h.metrics != nil {
		h.metrics.WSConnClosed()
	}
}

// broadcast fans an event out to every member of a room. Members that cannot
// keep up are skipped; one slow client never blocks the rest.
func (h *Hub) broadcast(sessionID string, env Envelope) {
	h.mu.Lock()
	members := make([]*client, 0, len(h.rooms[sessionID]))
	for member := range h.rooms[sessionID] {
		members = append(members, member)
	}
	h.mu.Unlock()

	for _, member := range members {
		if !member.enqueue(env) {
			slog.Warn("ws_member_lagging", "session_id", sessionID, "identity", member.identity)
		}
	}
	if h.metrics != nil {
		h.metrics.RecordWSEvent(serviceName, "out", env.Event)
	}
}

func (h *Hub) handleEvent(c *client, env Envelope) {
	if h.metrics != nil {
		h.metrics.RecordWSEvent(serviceName, "in", env.Event)
	}

	switch env.Event {
	case EventJoinSession:
		h.handleJoin(c, env.Data)
	case EventChatMessage:
		h.handleChat(c, env.Data)
	case EventResetSession:
		h.handleReset(c, env.Data)
	default:
		c.enqueue(newEnvelope(EventError, errorPayload{Message: "unknown event: " + env.Event}))
	}
}

func (h *Hub) handleJoin(c *client, data json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil || strings.TrimSpace(payload.SessionID) == "" {
		c.enqueue(newEnvelope(EventError, errorPayload{Message: "join-session requires sessionId"}))
		return
	}

	h.mu.Lock()
	// Re-joining moves the client between rooms.
	if c.state == stateJoined && c.sessionID != payload.SessionID {
		if room, ok := h.rooms[c.sessionID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, c.sessionID)
			}
		}
	}
	c.state = stateJoined
	c.sessionID = payload.SessionID
	room, ok := h.rooms[payload.SessionID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[payload.SessionID] = room
	}
	room[c] = struct{}{}
	h.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	messages, _, err := h.sessions.History(ctx, payload.SessionID)
	if err != nil {
		slog.Warn("ws_history_load_failed", "session_id", payload.SessionID, "error", err)
		messages = []domain.ChatMessage{}
	}
	c.enqueue(newEnvelope(EventSessionHistory, map[string]any{"messages": messages}))
}

func (h *Hub) handleChat(c *client, data json.RawMessage) {
	var payload chatPayload
	if err := json.Unmarshal(data, &payload); err != nil || strings.TrimSpace(payload.Message) == "" {
		c.enqueue(newEnvelope(EventError, errorPayload{Message: "chat-message requires sessionId and message"}))
		return
	}
	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = c.sessionID
	}
	if sessionID == "" {
		c.enqueue(newEnvelope(EventError, errorPayload{Message: "join a session before sending messages"}))
		return
	}

	if h.limiter != nil {
		if allowed, retryAfter := h.limiter.Allow(c.identity); !allowed {
			c.enqueue(newEnvelope(EventError, errorPayload{
				Message:    "too many messages, slow down",
				RetryAfter: int(retryAfter.Seconds()) + 1,
			}))
			return
		}
	}

	// The four-event sequence for one query runs synchronously on this
	// connection's read loop, which keeps its relative order stable.
	started := time.Now()
	ctx := context.Background()

	userMsg, _, err := h.conversations.AppendUserMessage(ctx, sessionID, payload.Message)
	if err != nil {
		c.enqueue(newEnvelope(EventError, errorPayload{Message: "failed to record message"}))
		return
	}
	h.broadcast(sessionID, newEnvelope(EventMessageAdded, userMsg))

	h.broadcast(sessionID, newEnvelope(EventBotTyping, true))

	answer, err := h.conversations.Respond(ctx, payload.Message)

	// The typing indicator clears before anything else so no client is left
	// in a perpetual typing state.
	h.broadcast(sessionID, newEnvelope(EventBotTyping, false))

	if err != nil {
		slog.Error("ws_chat_failed", "session_id", sessionID, "error", err)
		h.broadcast(sessionID, newEnvelope(EventError, errorPayload{Message: "something went wrong, please try again"}))
		if h.metrics != nil {
			h.metrics.RecordChatTurn(serviceName, "error", 0, time.Since(started))
		}
		return
	}

	assistantMsg, _, err := h.conversations.AppendAssistantMessage(ctx, sessionID, *answer)
	if err != nil {
		slog.Error("ws_append_assistant_failed", "session_id", sessionID, "error", err)
		h.broadcast(sessionID, newEnvelope(EventError, errorPayload{Message: "failed to record response"}))
		return
	}
	h.broadcast(sessionID, newEnvelope(EventMessageAdded, assistantMsg))

	if h.metrics != nil {
		outcome := "answered"
		if answer.Fallback {
			outcome = "fallback"
		}
		h.metrics.RecordChatTurn(serviceName, outcome, len(answer.Sources), time.Since(started))
		// Canned turns stay out of the cache hit-rate accounting.
		if !answer.Fallback {
			h.metrics.RecordCacheLookup(serviceName, answer.Cached)
		}
	}
}

func (h *Hub) handleReset(c *client, data json.RawMessage) {
	var payload joinPayload
	if err := json.Unmarshal(data, &payload); err != nil || strings.TrimSpace(payload.SessionID) == "" {
		c.enqueue(newEnvelope(EventError, errorPayload{Message: "reset-session requires sessionId"}))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := h.sessions.Clear(ctx, payload.SessionID); err != nil {
		c.enqueue(newEnvelope(EventError, errorPayload{Message: "failed to reset session"}))
		return
	}
	h.broadcast(payload.SessionID, newEnvelope(EventSessionReset, struct{}{}))
}
