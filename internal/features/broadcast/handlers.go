package broadcast

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
	"licensebot/internal/features/admin"
	"licensebot/internal/telegram"
)

// Handler renders the broadcast flow.
type Handler struct {
	service *Service
	admin   *admin.Service
	sender  *telegram.Sender
}

// NewHandler creates the broadcast handler.
func NewHandler(service *Service, adminSvc *admin.Service, sender *telegram.Sender) *Handler {
	return &Handler{service: service, admin: adminSvc, sender: sender}
}

// HandleCommand processes /broadcast and /promo.
func (h *Handler) HandleCommand(ctx context.Context, chatID int64, kind string) {
	if err := h.admin.Authorize(chatID); err != nil {
		if errors.Is(err, common.ErrLoginRequired) {
			h.sender.SendText(chatID, "🔐 Login dulu: <code>/login password</code>", nil)
		}
		return
	}
	if err := h.service.Prompt(ctx, chatID, kind); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to save broadcast prompt")
		h.sender.SendText(chatID, "❌ Terjadi kesalahan. Silakan coba lagi.", nil)
		return
	}
	label := "broadcast"
	if kind == KindPromo {
		label = "promo"
	}
	h.sender.SendText(chatID, fmt.Sprintf(
		"📣 Kirim pesan %s sekarang.\n\nPesan berikutnya akan diteruskan ke semua pengguna. /cancel untuk batal.",
		label), nil)
}

// MaybeHandleMessage consumes the admin's next message when a broadcast is
// pending. Returns true when the message was a broadcast payload.
func (h *Handler) MaybeHandleMessage(ctx context.Context, chatID int64, messageID int, text string) bool {
	if h.admin.Authorize(chatID) != nil {
		return false
	}
	kind, err := h.service.PendingKind(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to read admin state")
		return false
	}
	if kind == "" {
		return false
	}

	if err := h.service.ClearPrompt(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear admin state")
	}
	if text == "/cancel" {
		h.sender.SendText(chatID, "❌ Broadcast dibatalkan.", nil)
		return true
	}

	h.sender.SendText(chatID, "⏳ Mengirim broadcast...", nil)
	rep, err := h.service.Run(ctx, chatID, kind, messageID)
	if err != nil {
		log.WithError(err).Error("broadcast failed")
		h.sender.SendText(chatID, "❌ Broadcast gagal.", nil)
		return true
	}
	h.sender.SendText(chatID, fmt.Sprintf(
		"✅ <b>Broadcast selesai</b>\n\nTerkirim: <b>%d</b>\nGagal: <b>%d</b>\nTotal: <b>%d</b>",
		rep.Sent, rep.Failed, rep.Total), nil)
	return true
}
