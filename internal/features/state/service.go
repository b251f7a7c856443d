package state

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Service manages conversation state transitions.
type Service struct {
	repo *Repository
}

// NewService creates the state service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Enter puts a chat into a named state with the given context payload,
// resetting the error counter.
func (s *Service) Enter(ctx context.Context, chatID int64, name string, payload map[string]string) error {
	return s.repo.Save(ctx, chatID, &State{Name: name, Payload: payload})
}

// Current returns the active state, nil when the chat is idle.
func (s *Service) Current(ctx context.Context, chatID int64) (*State, error) {
	return s.repo.Get(ctx, chatID)
}

// Clear resets a chat to idle.
func (s *Service) Clear(ctx context.Context, chatID int64) error {
	return s.repo.Clear(ctx, chatID)
}

// RecordError bumps the error counter for the active state and reports the
// new count. Two strikes on credential input aborts the flow, so callers
// check the returned count.
func (s *Service) RecordError(ctx context.Context, chatID int64, st *State) (int, error) {
	st.ErrorCount++
	if err := s.repo.Save(ctx, chatID, st); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to persist state error count")
		return st.ErrorCount, err
	}
	return st.ErrorCount, nil
}
