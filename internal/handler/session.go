package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/muhfadtz/TrackFinance/internal/models"
	"github.com/muhfadtz/TrackFinance/internal/store"
	"github.com/muhfadtz/TrackFinance/internal/util"

	"gorm.io/gorm"
)

// Sessions issues and revokes sign-in sessions. A token is only accepted
// while its session row is active.
type Sessions struct {
	Store  *store.Store
	Secret string
	Issuer string
	TTL    time.Duration
}

func NewSessions(s *store.Store, secret, issuer string, ttlHours int) *Sessions {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &Sessions{
		Store:  s,
		Secret: secret,
		Issuer: issuer,
		TTL:    time.Duration(ttlHours) * time.Hour,
	}
}

// Issue starts a session for userID and returns its signed token.
func (s *Sessions) Issue(ctx context.Context, userID string) (string, *models.Session, error) {
	sess := &models.Session{
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.TTL),
	}
	if _, err := s.Store.Add(ctx, store.Sessions, sess); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}
	token, err := util.GenerateToken(s.Secret, s.Issuer, userID, sess.ID, s.TTL)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, sess, nil
}

// Revoke ends one session.
func (s *Sessions) Revoke(ctx context.Context, userID, sessionID string) error {
	return s.Store.Update(ctx, store.Sessions, userID, sessionID, map[string]interface{}{"revoked": true})
}

// RevokeAll ends every active session of userID.
func (s *Sessions) RevokeAll(ctx context.Context, userID string) error {
	var active []models.Session
	if err := s.Store.List(ctx, store.Sessions, userID, store.ByCreated, &active, activeSessions); err != nil {
		return err
	}
	if len(active) == 0 {
		return nil
	}
	ops := make([]store.Op, 0, len(active))
	for _, sess := range active {
		ops = append(ops, store.Update(store.Sessions, sess.ID, map[string]interface{}{"revoked": true}))
	}
	return s.Store.Batch(ctx, userID, ops...)
}

func activeSessions(db *gorm.DB) *gorm.DB {
	return db.Where("revoked = ?", false)
}
