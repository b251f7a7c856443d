package admin

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
	"licensebot/internal/features/users"
	"licensebot/internal/telegram"
)

// Handler renders the admin commands.
type Handler struct {
	service *Service
	users   *users.Service
	sender  *telegram.Sender
}

// NewHandler creates the admin handler.
func NewHandler(service *Service, usersSvc *users.Service, sender *telegram.Sender) *Handler {
	return &Handler{service: service, users: usersSvc, sender: sender}
}

// HandleLogin processes "/login <password>".
func (h *Handler) HandleLogin(ctx context.Context, chatID int64, password string) {
	if password == "" {
		h.sender.SendText(chatID, "Format: <code>/login password</code>", nil)
		return
	}
	if err := h.service.Login(chatID, password); err != nil {
		switch {
		case errors.Is(err, common.ErrNotAdmin):
			// Silence towards non-admins, same as every other admin command.
		case errors.Is(err, common.ErrWrongPassword):
			h.sender.SendText(chatID, "❌ Password salah.", nil)
		default:
			log.WithError(err).WithField("chat_id", chatID).Error("login failed")
		}
		return
	}
	h.sender.SendText(chatID, "✅ Login berhasil.", nil)
}

// HandleLogout closes the admin session.
func (h *Handler) HandleLogout(ctx context.Context, chatID int64) {
	if err := h.service.Authorize(chatID); errors.Is(err, common.ErrNotAdmin) {
		return
	}
	h.service.Logout(chatID)
	h.sender.SendText(chatID, "✅ Sesi admin ditutup.", nil)
}

// HandleStats renders the bot statistics.
func (h *Handler) HandleStats(ctx context.Context, chatID int64) {
	if err := h.service.Authorize(chatID); err != nil {
		h.replyUnauthorized(chatID, err)
		return
	}
	total, err := h.users.Total(ctx)
	if err != nil {
		log.WithError(err).Error("failed to load user total")
		h.sender.SendText(chatID, "❌ Gagal memuat statistik.", nil)
		return
	}
	h.sender.SendText(chatID, fmt.Sprintf("📊 <b>Statistik Bot</b>\n\nTotal pengguna: <b>%d</b>", total), nil)
}

func (h *Handler) replyUnauthorized(chatID int64, err error) {
	if errors.Is(err, common.ErrLoginRequired) {
		h.sender.SendText(chatID, "🔐 Login dulu: <code>/login password</code>", nil)
	}
	// ErrNotAdmin gets no reply at all.
}
