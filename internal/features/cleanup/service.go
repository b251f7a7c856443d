package cleanup

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
	"licensebot/internal/features/orders"
)

// Messenger deletes messages. *telegram.Sender satisfies it.
type Messenger interface {
	Delete(chatID int64, messageID int)
}

// Presenter renders tick-driven order outcomes into the chat.
// *orders.Handler satisfies it.
type Presenter interface {
	RenderCompletion(chatID int64, messageID int, res *orders.Completion)
	RenderExpired(chatID int64, messageID int, isExtend bool)
}

// Service runs the housekeeping tick.
type Service struct {
	repo      *Repository
	orders    *orders.Service
	messenger Messenger
	presenter Presenter

	// ticking serializes ticks: the opportunistic trigger fires on every
	// update and must not pile up behind a slow store.
	ticking sync.Mutex
}

// NewService creates the cleanup service.
func NewService(repo *Repository, ordersSvc *orders.Service, messenger Messenger, presenter Presenter) *Service {
	return &Service{
		repo:      repo,
		orders:    ordersSvc,
		messenger: messenger,
		presenter: presenter,
	}
}

// Tick runs one housekeeping pass. A pass already in flight makes this call
// a no-op; every path is best-effort and errors never propagate to the
// update that triggered the tick.
func (s *Service) Tick(ctx context.Context) {
	if !s.ticking.TryLock() {
		return
	}
	defer s.ticking.Unlock()

	s.processDueAutoDeletes(ctx)
	s.processDuePaymentChecks(ctx)
}

// processDueAutoDeletes deletes every message whose timer ran out. A payment
// message's deletion also expires its order, so a buyer who never pressed
// the check button does not keep a live QR.
func (s *Service) processDueAutoDeletes(ctx context.Context) {
	tasks, err := s.repo.DueAutoDeletes(ctx)
	if err != nil {
		log.WithError(err).Warn("failed to load due auto deletes")
		return
	}
	for _, task := range tasks {
		if task.Kind == KindPayment {
			if o, err := s.orders.Pending(ctx, task.ChatID); err == nil && s.orders.Expired(o) {
				if err := s.orders.Expire(ctx, o); err != nil {
					log.WithError(err).WithField("order_id", o.OrderID).Warn("failed to expire order from tick")
				}
			}
		}
		s.messenger.Delete(task.ChatID, task.MessageID)
		if err := s.repo.CompleteAutoDelete(ctx, task.ID); err != nil {
			log.WithError(err).WithField("task_id", task.ID).Warn("failed to complete auto delete task")
			continue
		}
		log.WithFields(log.Fields{
			"chat_id":    task.ChatID,
			"message_id": task.MessageID,
			"kind":       task.Kind,
		}).Debug("auto-deleted message")
	}
}

// processDuePaymentChecks polls every due deposit, completing or expiring
// orders exactly as the check button would.
func (s *Service) processDuePaymentChecks(ctx context.Context) {
	checks, err := s.repo.DuePaymentChecks(ctx, int(s.orders.CheckInterval().Seconds()))
	if err != nil {
		log.WithError(err).Warn("failed to load due payment checks")
		return
	}
	for _, check := range checks {
		st, err := s.orders.CheckStatus(ctx, check.ChatID)
		if err != nil {
			// ErrOrderTerminal means a button press won the race; either way
			// the poll entry is stale and the store already dropped it or
			// will on the next completion path.
			if !errors.Is(err, common.ErrNoActiveOrder) && !errors.Is(err, common.ErrOrderTerminal) {
				log.WithError(err).WithField("chat_id", check.ChatID).Warn("tick settlement check failed")
			}
			if err := s.repo.MarkPaymentChecked(ctx, check.ChatID); err != nil {
				log.WithError(err).WithField("chat_id", check.ChatID).Warn("failed to mark payment checked")
			}
			continue
		}

		switch st.State {
		case orders.StatusCompleted:
			s.presenter.RenderCompletion(check.ChatID, check.MessageID, st.Result)
		case orders.StatusExpired:
			s.presenter.RenderExpired(check.ChatID, check.MessageID, st.Order.KeyType == orders.KeyTypeExtend)
		default:
			if err := s.repo.MarkPaymentChecked(ctx, check.ChatID); err != nil {
				log.WithError(err).WithField("chat_id", check.ChatID).Warn("failed to mark payment checked")
			}
		}
	}
}
