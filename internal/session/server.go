package session

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/models"
)

const sessionCookie = "storefront_session"

// ServerStore keeps values in the storefront_sessions table behind a random
// session id cookie.
type ServerStore struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

func NewServerStore(db *gorm.DB, logger *zap.Logger) *ServerStore {
	return &ServerStore{db: db, logger: logger, now: time.Now}
}

// Open reuses the visitor's session id or issues a new one.
func (s *ServerStore) Open(w http.ResponseWriter, r *http.Request) *ServerSession {
	id := ""
	if ck, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			id = ck.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return &ServerSession{store: s, ctx: r.Context(), id: id}
}

// Purge removes expired values.
func (s *ServerStore) Purge(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&models.SessionValue{}).Error
}

type ServerSession struct {
	store *ServerStore
	ctx   context.Context
	id    string
}

func (s *ServerSession) ID() string { return s.id }

func (s *ServerSession) Get(key string) (string, bool) {
	var row models.SessionValue
	err := s.store.db.WithContext(s.ctx).
		Where("session_id = ? AND session_key = ? AND expires_at > ?", s.id, key, s.store.now()).
		Take(&row).Error
	if err != nil {
		return "", false
	}
	return row.Value, true
}

func (s *ServerSession) Set(key, value string, expires time.Time) {
	row := models.SessionValue{SessionID: s.id, Key: key, Value: value, ExpiresAt: expires}
	err := s.store.db.WithContext(s.ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "session_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at"}),
	}).Create(&row).Error
	if err != nil {
		s.store.logger.Error("Failed to store session value", zap.String("key", key), zap.Error(err))
	}
}

func (s *ServerSession) Delete(key string) {
	err := s.store.db.WithContext(s.ctx).
		Where("session_id = ? AND session_key = ?", s.id, key).
		Delete(&models.SessionValue{}).Error
	if err != nil {
		s.store.logger.Error("Failed to delete session value", zap.String("key", key), zap.Error(err))
	}
}
