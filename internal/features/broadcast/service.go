package broadcast

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"licensebot/internal/features/users"
)

// sendDelay paces the fan-out under Telegram's ~30 msg/s bot limit.
const sendDelay = 50 * time.Millisecond

// Copier re-sends a message to another chat. *telegram.Sender satisfies it.
type Copier interface {
	Copy(toChatID, fromChatID int64, messageID int, keyboard *tgbotapi.InlineKeyboardMarkup) error
}

// Service runs broadcast fan-outs.
type Service struct {
	repo   *Repository
	users  *users.Service
	copier Copier

	// delay between sends, shrunk in tests.
	delay time.Duration
}

// NewService creates the broadcast service.
func NewService(repo *Repository, usersSvc *users.Service, copier Copier) *Service {
	return &Service{repo: repo, users: usersSvc, copier: copier, delay: sendDelay}
}

// Prompt puts an admin into the waiting state for a kind.
func (s *Service) Prompt(ctx context.Context, chatID int64, kind string) error {
	return s.repo.SaveAdminState(ctx, chatID, StateFor(kind))
}

// PendingKind returns the broadcast kind the admin is about to send, "" when
// idle.
func (s *Service) PendingKind(ctx context.Context, chatID int64) (string, error) {
	st, err := s.repo.AdminState(ctx, chatID)
	if err != nil {
		return "", err
	}
	return KindFor(st), nil
}

// ClearPrompt resets an admin to idle.
func (s *Service) ClearPrompt(ctx context.Context, chatID int64) error {
	return s.repo.ClearAdminState(ctx, chatID)
}

// Run copies the admin's message to every registered user except the admin.
// Per-recipient failures (blocked bot, deleted account) are counted, never
// fatal. The report is persisted as broadcast history.
func (s *Service) Run(ctx context.Context, adminID int64, kind string, messageID int) (Report, error) {
	recipients, err := s.users.All(ctx)
	if err != nil {
		return Report{}, err
	}

	var keyboard *tgbotapi.InlineKeyboardMarkup
	if kind == KindPromo {
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("🛒 Beli Sekarang", "new_order"),
			),
		)
		keyboard = &kb
	}

	var rep Report
	for _, u := range recipients {
		if u.ChatID == adminID {
			continue
		}
		rep.Total++
		if err := s.copier.Copy(u.ChatID, adminID, messageID, keyboard); err != nil {
			rep.Failed++
			log.WithError(err).WithField("chat_id", u.ChatID).Debug("broadcast delivery failed")
		} else {
			rep.Sent++
		}
		time.Sleep(s.delay)
	}

	if err := s.repo.SaveHistory(ctx, adminID, kind, "copy", rep); err != nil {
		log.WithError(err).Warn("failed to save broadcast history")
	}

	log.WithFields(log.Fields{
		"admin_id": adminID,
		"kind":     kind,
		"total":    rep.Total,
		"sent":     rep.Sent,
		"failed":   rep.Failed,
	}).Info("broadcast finished")
	return rep, nil
}
