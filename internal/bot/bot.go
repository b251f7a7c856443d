// Package bot runs the long-polling loop and routes updates to the feature
// handlers. Every update first triggers a housekeeping tick, so expiries and
// settlement polls advance even without cron.
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"licensebot/internal/bot/middleware"
	"licensebot/internal/config"
	"licensebot/internal/features/admin"
	"licensebot/internal/features/broadcast"
	"licensebot/internal/features/cleanup"
	"licensebot/internal/features/orders"
	"licensebot/internal/features/state"
	"licensebot/internal/features/users"
	"licensebot/internal/telegram"
)

// Bot wires the polling loop to the feature handlers.
type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    *config.Config
	sender *telegram.Sender

	rateLimiter *middleware.RateLimiter

	cleanupService *cleanup.Service
	stateService   *state.Service
	userService    *users.Service

	ordersHandler    *orders.Handler
	adminHandler     *admin.Handler
	broadcastHandler *broadcast.Handler

	parser *CommandParser

	// caps how many updates are handled in parallel
	inflight chan struct{}
}

// New creates the bot.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	sender *telegram.Sender,
	cleanupService *cleanup.Service,
	stateService *state.Service,
	userService *users.Service,
	ordersHandler *orders.Handler,
	adminHandler *admin.Handler,
	broadcastHandler *broadcast.Handler,
) *Bot {
	maxInflight := cfg.BotMaxInflight
	if maxInflight <= 0 {
		maxInflight = 64
	}
	return &Bot{
		api:              api,
		cfg:              cfg,
		sender:           sender,
		rateLimiter:      middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		cleanupService:   cleanupService,
		stateService:     stateService,
		userService:      userService,
		ordersHandler:    ordersHandler,
		adminHandler:     adminHandler,
		broadcastHandler: broadcastHandler,
		parser:           NewCommandParser(),
		inflight:         make(chan struct{}, maxInflight),
	}
}

// Start runs the update loop until the context is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("bot started, waiting for updates")

	for {
		select {
		case <-ctx.Done():
			log.Info("bot stopping (ctx done)")
			b.api.StopReceivingUpdates()
			b.rateLimiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("updates channel closed, bot stopped")
				return
			}
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate processes one update. The housekeeping tick runs first so
// every incoming event also advances pending expiries and settlement polls.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.RecoverFromPanic()

	b.cleanupService.Tick(ctx)

	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || !message.Chat.IsPrivate() || message.From == nil {
		return
	}
	middleware.LogMessage(message)

	if !b.rateLimiter.Allow(message.From.ID) {
		log.WithField("user_id", message.From.ID).Debug("rate limited")
		return
	}

	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	// A pending broadcast consumes the admin's next message whatever it is.
	if b.broadcastHandler.MaybeHandleMessage(ctx, chatID, message.MessageID, text) {
		return
	}

	cmd, args, isCommand := b.parser.ParseCommand(text)
	if isCommand {
		if b.routeCommand(ctx, chatID, message, cmd, args) {
			return
		}
		// Unrecognized slash input falls through: the manual and extend
		// flows receive their credentials as "/username-password".
	}

	b.handleStatefulText(ctx, chatID, text)
}

// routeCommand handles the fixed commands. Returns false when the input is
// not one of them and may belong to a credential-input state.
func (b *Bot) routeCommand(ctx context.Context, chatID int64, message *tgbotapi.Message, cmd string, args []string) bool {
	switch cmd {
	case "start":
		b.handleStart(ctx, chatID, message.From)
	case "menu":
		b.sendMainMenu(ctx, chatID, 0)
	case "points":
		b.ordersHandler.HandlePoints(ctx, chatID)
	case "cancel":
		if err := b.stateService.Clear(ctx, chatID); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
		}
		b.sender.SendText(chatID, "❌ Dibatalkan.", nil)
	case "broadcast":
		b.broadcastHandler.HandleCommand(ctx, chatID, broadcast.KindBroadcast)
	case "promo":
		b.broadcastHandler.HandleCommand(ctx, chatID, broadcast.KindPromo)
	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, strings.Join(args, " "))
	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID)
	case "stats":
		b.adminHandler.HandleStats(ctx, chatID)
	default:
		return false
	}
	return true
}

// handleStatefulText routes free text through the conversation state.
func (b *Bot) handleStatefulText(ctx context.Context, chatID int64, text string) {
	st, err := b.stateService.Current(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to load state")
		return
	}
	if st == nil {
		return
	}

	switch st.Name {
	case state.WaitingManualInput:
		b.ordersHandler.HandleManualInput(ctx, chatID, text, st)
	case state.WaitingExtendCredentials:
		b.ordersHandler.HandleExtendCredentials(ctx, chatID, text, st)
	}
	// Other states only advance through callbacks.
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	middleware.LogCallback(cb)

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	data := cb.Data

	// The payment checks answer the callback themselves (with the remaining
	// time); everything else is acknowledged up front.
	switch data {
	case "check_payment":
		b.ordersHandler.HandleCheckPayment(ctx, chatID, messageID, cb.ID, false)
		return
	case "check_extend":
		b.ordersHandler.HandleCheckPayment(ctx, chatID, messageID, cb.ID, true)
		return
	}
	b.sender.AnswerCallback(cb.ID, "")

	switch {
	case data == "main_menu":
		if err := b.stateService.Clear(ctx, chatID); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
		}
		b.sendMainMenu(ctx, chatID, messageID)

	case data == "help":
		b.sendHelp(chatID, messageID)

	case data == "new_order":
		b.ordersHandler.ShowGameMenu(ctx, chatID, messageID)

	case strings.HasPrefix(data, "type_"):
		b.ordersHandler.ShowDurationMenu(ctx, chatID, messageID, strings.TrimPrefix(data, "type_"))

	case strings.HasPrefix(data, "duration_"):
		gameType, duration, ok := parseGameDuration(strings.TrimPrefix(data, "duration_"))
		if ok {
			b.ordersHandler.ShowKeyTypeMenu(ctx, chatID, messageID, gameType, duration)
		}

	case strings.HasPrefix(data, "keytype_"):
		rest := strings.TrimPrefix(data, "keytype_")
		idx := strings.LastIndex(rest, "_")
		if idx < 0 {
			return
		}
		keyType := rest[idx+1:]
		gameType, duration, ok := parseGameDuration(rest[:idx])
		if ok {
			b.ordersHandler.HandleKeyType(ctx, chatID, messageID, gameType, duration, keyType)
		}

	case data == "extend_user":
		b.ordersHandler.HandleExtendStart(ctx, chatID, messageID)

	case strings.HasPrefix(data, "extend_type_"):
		b.ordersHandler.HandleExtendType(ctx, chatID, messageID, strings.TrimPrefix(data, "extend_type_"))

	case strings.HasPrefix(data, "extend_duration_"):
		if days, err := strconv.Atoi(strings.TrimPrefix(data, "extend_duration_")); err == nil {
			b.ordersHandler.HandleExtendDuration(ctx, chatID, messageID, days)
		}

	case data == "redeem_points":
		b.ordersHandler.ShowRedeemMenu(ctx, chatID, messageID)

	case data == "redeem_ff" || data == "redeem_ffmax":
		b.ordersHandler.HandleRedeemGame(ctx, chatID, messageID, strings.TrimPrefix(data, "redeem_"))

	case strings.HasPrefix(data, "redeem_"):
		if days, err := strconv.Atoi(strings.TrimPrefix(data, "redeem_")); err == nil {
			b.ordersHandler.HandleRedeemDuration(ctx, chatID, messageID, days)
		}

	case data == "cancel_order":
		b.ordersHandler.HandleCancel(ctx, chatID, messageID)

	default:
		log.WithField("data", data).Debug("unknown callback")
	}
}

// parseGameDuration splits "<game>_<days>", e.g. "ffmax_7".
func parseGameDuration(s string) (string, int, bool) {
	idx := strings.LastIndex(s, "_")
	if idx < 0 {
		return "", 0, false
	}
	days, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return s[:idx], days, true
}

// handleStart registers the user, clears any dangling state and shows the
// welcome message.
func (b *Bot) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if err := b.stateService.Clear(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
	}
	b.userService.Register(ctx, users.User{
		ChatID:    chatID,
		FirstName: from.FirstName,
		Username:  from.UserName,
	})

	text := fmt.Sprintf(
		"👋 Halo <b>%s</b>!\n\n"+
			"Selamat datang di toko lisensi Free Fire &amp; FF MAX.\n\n"+
			"• Lisensi resmi dengan garansi\n"+
			"• Pembayaran QRIS otomatis\n"+
			"• Point reward setiap pembelian",
		from.FirstName,
	)
	kb := b.mainMenuKeyboard()
	if b.cfg.WelcomeImageURL != "" {
		if _, err := b.sender.SendPhoto(chatID, b.cfg.WelcomeImageURL, text, kb); err == nil {
			return
		}
	}
	b.sender.SendText(chatID, text, kb)
}

func (b *Bot) sendMainMenu(ctx context.Context, chatID int64, messageID int) {
	text := "🏠 <b>Menu Utama</b>\n\nPilih layanan:"
	kb := b.mainMenuKeyboard()
	if messageID != 0 {
		b.sender.EditSmart(chatID, messageID, text, kb)
		return
	}
	b.sender.SendText(chatID, text, kb)
}

func (b *Bot) mainMenuKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Beli Lisensi", "new_order"),
			tgbotapi.NewInlineKeyboardButtonData("♻️ Extend", "extend_user"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Tukar Point", "redeem_points"),
			tgbotapi.NewInlineKeyboardButtonData("❓ Bantuan", "help"),
		),
	)
	return &kb
}

func (b *Bot) sendHelp(chatID int64, messageID int) {
	text := fmt.Sprintf("❓ <b>Bantuan</b>\n\n"+
		"• Pembayaran QRIS otomatis\n"+
		"• Lisensi terkirim otomatis setelah pembayaran\n"+
		"• Point didapat dari setiap pembelian\n"+
		"• %d points = 1 hari lisensi gratis\n\n"+
		"Perintah:\n"+
		"/menu — menu utama\n"+
		"/points — cek point\n"+
		"/cancel — batalkan input",
		b.cfg.RedeemPointsPerDay)
	b.sender.EditSmart(chatID, messageID, text, b.mainMenuKeyboard())
}

// CommandParser splits "/command arg arg" messages.
type CommandParser struct{}

// NewCommandParser creates the parser.
func NewCommandParser() *CommandParser {
	return &CommandParser{}
}

// ParseCommand returns the lower-cased command and its arguments. Only "/" is
// a command prefix; "/user-pass" credential inputs also parse as commands and
// are handed back to the state flows by the router.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return "", nil, false
	}
	return strings.ToLower(parts[0]), parts[1:], true
}
