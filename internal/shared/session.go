package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Session holds the authenticated identity attached to a bearer token.
type Session struct {
	Token    string `json:"-"`
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	IssuedAt int64  `json:"issued_at"`
}

// ErrSessionNotFound indicates the bearer token is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionManager orchestrates bearer-token sessions backed by Redis.
type SessionManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, prefix string, ttl time.Duration) *SessionManager {
	if prefix == "" {
		prefix = "gestionpro_session"
	}
	return &SessionManager{client: client, prefix: prefix, ttl: ttl}
}

// Create issues a new session token for the given user/tenant pair.
func (sm *SessionManager) Create(ctx context.Context, userID, tenantID string) (*Session, error) {
	if userID == "" || tenantID == "" {
		return nil, errors.New("session: user and tenant required")
	}
	sess := &Session{
		Token:    uuid.NewString(),
		UserID:   userID,
		TenantID: tenantID,
		IssuedAt: time.Now().Unix(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), payload, sm.ttl).Err(); err != nil {
		return nil, fmt.Errorf("session: store: %w", err)
	}
	return sess, nil
}

// Load resolves a bearer token to its session, refreshing the TTL.
func (sm *SessionManager) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	_ = sm.client.Expire(ctx, sm.redisKey(token), sm.ttl).Err()
	return &sess, nil
}

// Destroy removes a session, typically on logout.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TokenFromRequest extracts the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (sm *SessionManager) redisKey(token string) string {
	return sm.prefix + ":" + token
}
