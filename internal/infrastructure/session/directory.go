package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/newschat/internal/core/domain"
	"github.com/avolkov/newschat/internal/core/ports"
)

const keyPrefix = "session:"

// Directory manages session identity and transcript accumulation on top of
// the key-value cache. Every read or write re-arms the sliding expiry window
// to the full TTL.
type Directory struct {
	cache ports.KeyValueCache
	ttl   time.Duration
	now   func() time.Time
}

func NewDirectory(cache ports.KeyValueCache, ttl time.Duration) *Directory {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Directory{
		cache: cache,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Create starts a new session. An empty sessionID gets a generated one; an
// existing session with the same id is returned untouched.
func (d *Directory) Create(ctx context.Context, sessionID string) (*domain.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if existing, err := d.load(ctx, sessionID); err != nil {
		return nil, err
	} else if existing != nil {
		return d.touch(ctx, existing)
	}

	now := d.now()
	session := &domain.Session{
		ID:           sessionID,
		CreatedAt:    now,
		LastActivity: now,
		Messages:     []domain.ChatMessage{},
	}
	if err := d.store(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get returns the session or nil when absent/expired. A hit slides the TTL.
func (d *Directory) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := d.load(ctx, sessionID)
	if err != nil || session == nil {
		return nil, err
	}
	return d.touch(ctx, session)
}

// AppendMessage appends one message, auto-creating the session if absent so a
// client can start sending before an explicit create completes. The message
// is stamped with a server-assigned id and timestamp; client-supplied values
// are discarded.
func (d *Directory) AppendMessage(ctx context.Context, sessionID string, msg domain.ChatMessage) (*domain.Session, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "append message", fmt.Errorf("session id is required"))
	}

	session, err := d.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := d.now()
	if session == nil {
		session = &domain.Session{
			ID:        sessionID,
			CreatedAt: now,
			Messages:  []domain.ChatMessage{},
		}
	}

	msg.ID = uuid.NewString()
	msg.Timestamp = now
	session.Messages = append(session.Messages, msg)
	session.LastActivity = now

	if err := d.store(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// History returns the transcript and whether the session exists.
func (d *Directory) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, bool, error) {
	session, err := d.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return []domain.ChatMessage{}, false, nil
	}
	return session.Messages, true, nil
}

// Clear removes the session wholesale. Reports whether it existed.
func (d *Directory) Clear(ctx context.Context, sessionID string) (bool, error) {
	session, err := d.load(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if session == nil {
		return false, nil
	}
	if err := d.cache.Delete(ctx, key(sessionID)); err != nil {
		return false, err
	}
	return true, nil
}

// ListActive enumerates ids of non-expired sessions.
func (d *Directory) ListActive(ctx context.Context) ([]string, error) {
	keys, err := d.cache.Keys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, keyPrefix))
	}
	return ids, nil
}

func (d *Directory) load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var session domain.Session
	found, err := d.cache.GetJSON(ctx, key(sessionID), &session)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

func (d *Directory) store(ctx context.Context, session *domain.Session) error {
	return d.cache.SetJSON(ctx, key(session.ID), session, d.ttl)
}

func (d *Directory) touch(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	session.LastActivity = d.now()
	if err := d.store(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
