package users

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Service manages the registered-user roster.
type Service struct {
	repo *Repository
}

// NewService creates the users service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Register records that a chat started the bot. Registration is best-effort:
// a store failure is logged and must not block the welcome flow.
func (s *Service) Register(ctx context.Context, u User) {
	if err := s.repo.Save(ctx, u); err != nil {
		log.WithError(err).WithField("chat_id", u.ChatID).Warn("failed to register bot user")
	}
}

// Total returns the user count.
func (s *Service) Total(ctx context.Context) (int, error) {
	return s.repo.Total(ctx)
}

// All returns every registered user.
func (s *Service) All(ctx context.Context) ([]User, error) {
	return s.repo.All(ctx)
}
