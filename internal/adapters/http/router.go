package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/avolkov/newschat/internal/core/ports"
	"github.com/avolkov/newschat/internal/core/usecase"
	"github.com/avolkov/newschat/internal/infrastructure/ratelimit"
	"github.com/avolkov/newschat/internal/observability/metrics"
)

const serviceName = "api"

type Router struct {
	conversations *usecase.ConversationUseCase
	chat          ports.ChatService
	sessions      ports.SessionDirectory
	rebuild       ports.RebuildService
	limiter       *ratelimit.Registry
	metrics       *metrics.ServerMetrics
	wsHandler     http.Handler
}

func NewRouter(
	conversations *usecase.ConversationUseCase,
	chat ports.ChatService,
	sessions ports.SessionDirectory,
	rebuild ports.RebuildService,
	limiter *ratelimit.Registry,
	serverMetrics *metrics.ServerMetrics,
	wsHandler http.Handler,
) *Router {
	return &Router{
		conversations: conversations,
		chat:          chat,
		sessions:      sessions,
		rebuild:       rebuild,
		limiter:       limiter,
		metrics:       serverMetrics,
		wsHandler:     wsHandler,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("POST /chat", rt.rateLimitMiddleware(http.HandlerFunc(rt.postChat)))
	mux.HandleFunc("GET /chat/status", rt.chatStatus)
	mux.HandleFunc("POST /chat/rebuild", rt.postRebuild)
	mux.HandleFunc("POST /session/create", rt.createSession)
	mux.HandleFunc("GET /session/{id}/history", rt.sessionHistory)
	mux.HandleFunc("DELETE /session/{id}/clear", rt.clearSession)
	if rt.wsHandler != nil {
		mux.Handle("/ws", rt.wsHandler)
	}
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) postChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "sessionId is required"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	started := time.Now()
	result, err := rt.conversations.HandleChat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	if rt.metrics != nil {
		outcome := "answered"
		if result.Fallback {
			outcome = "fallback"
		}
		rt.metrics.RecordChatTurn(serviceName, outcome, len(result.Sources), time.Since(started))
		// Canned turns stay out of the cache hit-rate accounting.
		if !result.Fallback {
			rt.metrics.RecordCacheLookup(serviceName, result.Cached)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) chatStatus(w http.ResponseWriter, r *http.Request) {
	status, err := rt.chat.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *Router) postRebuild(w http.ResponseWriter, r *http.Request) {
	jobID, err := rt.rebuild.RequestRebuild(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"jobId": jobID, "status": "accepted"})
}

func (rt *Router) createSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	// Body is optional; an empty body means a generated id.
	_ = json.NewDecoder(r.Body).Decode(&req)

	session, err := rt.sessions.Create(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId":    session.ID,
		"createdAt":    session.CreatedAt,
		"messageCount": session.MessageCount(),
	})
}

func (rt *Router) sessionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	messages, exists, err := rt.sessions.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"messages":  messages,
	})
}

func (rt *Router) clearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	existed, err := rt.sessions.Clear(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if !existed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessionId": sessionID, "cleared": true})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
