// Package admin gates the administrative commands. Access needs the chat to
// be on the ID allowlist; when ADMIN_PASSWORD_HASH is set, a valid /login
// session is required on top of it.
package admin

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"licensebot/internal/common"
	"licensebot/internal/config"
)

const maxAttemptsPerHour = 3

// Service authenticates admins and tracks their sessions in memory. The bot
// is a single process, so sessions do not need to survive a restart; a
// redeploy simply asks admins to /login again.
type Service struct {
	cfg *config.Config

	mu       sync.Mutex
	sessions map[int64]time.Time // chat id → session expiry
	attempts map[int64][]time.Time

	now func() time.Time
}

// NewService creates the admin service.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:      cfg,
		sessions: make(map[int64]time.Time),
		attempts: make(map[int64][]time.Time),
		now:      time.Now,
	}
}

// Authorize reports whether the chat may run admin commands right now.
func (s *Service) Authorize(chatID int64) error {
	if !s.cfg.IsAdmin(chatID) {
		return common.ErrNotAdmin
	}
	if s.cfg.AdminPasswordHash == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[chatID]
	if !ok || s.now().After(expiry) {
		delete(s.sessions, chatID)
		return common.ErrLoginRequired
	}
	return nil
}

// Login verifies the password and opens a session. Three failures within an
// hour lock the chat out for the rest of that hour.
func (s *Service) Login(chatID int64, password string) error {
	if !s.cfg.IsAdmin(chatID) {
		return common.ErrNotAdmin
	}
	if s.cfg.AdminPasswordHash == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-1 * time.Hour)
	recent := s.attempts[chatID][:0]
	for _, at := range s.attempts[chatID] {
		if at.After(cutoff) {
			recent = append(recent, at)
		}
	}
	s.attempts[chatID] = recent
	if len(recent) >= maxAttemptsPerHour {
		return fmt.Errorf("too many login attempts: %w", common.ErrWrongPassword)
	}

	if !verifyArgon2id(password, s.cfg.AdminPasswordHash) {
		s.attempts[chatID] = append(s.attempts[chatID], s.now())
		log.WithField("chat_id", chatID).Warn("failed admin login attempt")
		return common.ErrWrongPassword
	}

	delete(s.attempts, chatID)
	s.sessions[chatID] = s.now().Add(s.cfg.AdminSessionTTL)
	log.WithField("chat_id", chatID).Info("admin logged in")
	return nil
}

// Logout closes the chat's session.
func (s *Service) Logout(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

// verifyArgon2id checks a password against an encoded Argon2id hash of the
// form $argon2id$v=19$m=65536,t=3,p=2$<salt>$<hash>.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		log.Error("malformed argon2id hash in configuration")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("failed to parse argon2id parameters")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("failed to decode argon2id salt")
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("failed to decode argon2id hash")
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(computed, expected) == 1
}
