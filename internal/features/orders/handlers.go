package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"licensebot/internal/common"
	"licensebot/internal/features/points"
	"licensebot/internal/features/state"
	"licensebot/internal/telegram"
)

// Handler renders the purchase, extend and redemption flows.
type Handler struct {
	service  *Service
	states   *state.Service
	points   *points.Service
	sender   *telegram.Sender
	adminIDs []int64
}

// NewHandler creates the orders handler.
func NewHandler(service *Service, states *state.Service, pts *points.Service, sender *telegram.Sender, adminIDs []int64) *Handler {
	return &Handler{
		service:  service,
		states:   states,
		points:   pts,
		sender:   sender,
		adminIDs: adminIDs,
	}
}

func backButton(target string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", target),
		),
	)
	return &kb
}

// ShowGameMenu renders the game selection for a new order.
func (h *Handler) ShowGameMenu(ctx context.Context, chatID int64, messageID int) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔥 Free Fire", "type_ff"),
			tgbotapi.NewInlineKeyboardButtonData("⚡ FF MAX", "type_ffmax"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", "main_menu"),
		),
	)
	h.sender.EditSmart(chatID, messageID, "🎮 <b>Pilih Game</b>\n\nPilih game untuk lisensi Anda:", &kb)
}

// ShowDurationMenu renders the offered durations and prices for a game.
func (h *Handler) ShowDurationMenu(ctx context.Context, chatID int64, messageID int, gameType string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏰ <b>Pilih Durasi — %s</b>\n\n", GameLabel(gameType)))

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, days := range h.service.Durations() {
		price, _ := h.service.PriceFor(days)
		sb.WriteString(fmt.Sprintf("• %d Hari — %s\n", days, common.FormatRupiah(price)))
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d Hari", days),
			fmt.Sprintf("duration_%s_%d", gameType, days),
		))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", "new_order"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.sender.EditSmart(chatID, messageID, sb.String(), &kb)
}

// ShowKeyTypeMenu asks whether credentials should be generated or supplied.
func (h *Handler) ShowKeyTypeMenu(ctx context.Context, chatID int64, messageID int, gameType string, duration int) {
	price, err := h.service.PriceFor(duration)
	if err != nil {
		h.sender.EditSmart(chatID, messageID, "❌ Durasi tidak tersedia.", backButton("new_order"))
		return
	}
	text := fmt.Sprintf(
		"🔑 <b>Pilih Jenis Akun</b>\n\nGame: <b>%s</b>\nDurasi: <b>%d Hari</b>\nHarga: <b>%s</b>\n\n"+
			"• <b>Random</b> — username &amp; password dibuat otomatis\n"+
			"• <b>Manual</b> — Anda menentukan sendiri",
		GameLabel(gameType), duration, common.FormatRupiah(price),
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎲 Random", fmt.Sprintf("keytype_%s_%d_random", gameType, duration)),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Manual", fmt.Sprintf("keytype_%s_%d_manual", gameType, duration)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", "type_"+gameType),
		),
	)
	h.sender.EditSmart(chatID, messageID, text, &kb)
}

// HandleKeyType routes the chosen key type: random starts the purchase
// directly, manual asks for credentials first.
func (h *Handler) HandleKeyType(ctx context.Context, chatID int64, messageID int, gameType string, duration int, keyType string) {
	if keyType == KeyTypeManual {
		if err := h.states.Enter(ctx, chatID, state.WaitingManualInput, map[string]string{
			"game_type": gameType,
			"duration":  fmt.Sprintf("%d", duration),
		}); err != nil {
			log.WithError(err).WithField("chat_id", chatID).Error("failed to enter manual input state")
			h.sender.EditSmart(chatID, messageID, "❌ Terjadi kesalahan. Silakan coba lagi.", backButton("main_menu"))
			return
		}
		h.sender.EditSmart(chatID, messageID,
			"✍️ <b>Masukkan Username &amp; Password</b>\n\n"+
				"Kirim dengan format:\n<code>/username-password</code>\n\n"+
				"Contoh: <code>/kambing-12</code>",
			backButton("main_menu"))
		return
	}
	h.startPurchase(ctx, chatID, messageID, gameType, duration, KeyTypeRandom, "", "")
}

// HandleManualInput processes the "/username-password" message of the manual
// flow.
func (h *Handler) HandleManualInput(ctx context.Context, chatID int64, text string, st *state.State) {
	username, password, err := common.ParseCredentialInput(text)
	if err != nil {
		h.sender.SendText(chatID,
			"❌ Format salah!\n\nKirim dengan format:\n<code>/username-password</code>", nil)
		return
	}

	gameType := st.Get("game_type")
	duration := atoiDefault(st.Get("duration"), 0)

	if err := h.service.UsernameFree(ctx, gameType, username); err != nil {
		if errors.Is(err, common.ErrUsernameTaken) {
			h.sender.SendText(chatID,
				"❌ <b>Username sudah dipakai!</b>\n\nSilakan kirim username lain:\n<code>/username-password</code>", nil)
			return
		}
		log.WithError(err).WithField("chat_id", chatID).Error("username check failed")
		h.sender.SendText(chatID, "❌ Terjadi kesalahan. Silakan coba lagi.", nil)
		return
	}

	if err := h.states.Clear(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
	}
	h.startPurchase(ctx, chatID, 0, gameType, duration, KeyTypeManual, username, password)
}

// startPurchase opens the order and sends the QR message. messageID, when
// non-zero, is the menu message replaced by the QR.
func (h *Handler) startPurchase(ctx context.Context, chatID int64, messageID int, gameType string, duration int, keyType, manualUsername, manualPassword string) {
	o, dep, err := h.service.CreatePurchase(ctx, chatID, gameType, duration, keyType, manualUsername, manualPassword)
	if err != nil {
		text := "❌ <b>Gagal membuat pembayaran!</b>\n\nSilakan coba beberapa saat lagi."
		if messageID != 0 {
			h.sender.EditSmart(chatID, messageID, text, backButton("main_menu"))
		} else {
			h.sender.SendText(chatID, text, backButton("main_menu"))
		}
		return
	}

	if messageID != 0 {
		h.sender.Delete(chatID, messageID)
	}
	h.sendPaymentMessage(ctx, chatID, o, dep.QRURL, "check_payment")
}

// HandleExtendStart begins the extend flow by asking for credentials.
func (h *Handler) HandleExtendStart(ctx context.Context, chatID int64, messageID int) {
	if err := h.states.Enter(ctx, chatID, state.WaitingExtendCredentials, nil); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to enter extend state")
		return
	}
	h.sender.EditSmart(chatID, messageID,
		"♻️ <b>Extend Lisensi</b>\n\n"+
			"Kirim username &amp; password lisensi Anda:\n<code>/username-password</code>",
		backButton("main_menu"))
}

// HandleExtendCredentials processes the credential message of the extend
// flow. Two bad inputs abort the flow.
func (h *Handler) HandleExtendCredentials(ctx context.Context, chatID int64, text string, st *state.State) {
	username, password, err := common.ParseCredentialInput(text)
	if err != nil {
		strikes, _ := h.states.RecordError(ctx, chatID, st)
		if strikes >= 2 {
			if err := h.states.Clear(ctx, chatID); err != nil {
				log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
			}
			h.sender.SendText(chatID,
				"❌ <b>Terlalu banyak kesalahan!</b>\n\nSilakan mulai ulang dari menu.", backButton("main_menu"))
			return
		}
		h.sender.SendText(chatID,
			"❌ Format salah!\n\nKirim dengan format:\n<code>/username-password</code>", nil)
		return
	}

	if err := h.states.Enter(ctx, chatID, state.WaitingExtendDuration, map[string]string{
		"username": username,
		"password": password,
	}); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to save extend credentials")
		h.sender.SendText(chatID, "❌ Terjadi kesalahan. Silakan coba lagi.", nil)
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔥 Free Fire", "extend_type_ff"),
			tgbotapi.NewInlineKeyboardButtonData("⚡ FF MAX", "extend_type_ffmax"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", "main_menu"),
		),
	)
	h.sender.SendText(chatID, "🎮 <b>Pilih Game</b>\n\nLisensi Anda untuk game yang mana?", &kb)
}

// requireState loads the chat state and checks the flow is still at the
// expected step. Returns ErrSessionExpired when it is not.
func (h *Handler) requireState(ctx context.Context, chatID int64, name string) (*state.State, error) {
	st, err := h.states.Current(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if st == nil || st.Name != name {
		return nil, common.ErrSessionExpired
	}
	return st, nil
}

// HandleExtendType verifies the stored credentials against the chosen game
// and shows the duration menu.
func (h *Handler) HandleExtendType(ctx context.Context, chatID int64, messageID int, gameType string) {
	st, err := h.requireState(ctx, chatID, state.WaitingExtendDuration)
	if err != nil {
		h.sender.EditSmart(chatID, messageID,
			"❌ <b>Sesi telah berakhir!</b>\n\nSilakan mulai ulang.", backButton("extend_user"))
		return
	}

	lic, err := h.service.VerifyLicense(ctx, st.Get("username"), st.Get("password"), gameType)
	if err != nil {
		if errors.Is(err, common.ErrLicenseNotFound) {
			if err := h.states.Clear(ctx, chatID); err != nil {
				log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
			}
			h.sender.EditSmart(chatID, messageID,
				"❌ <b>Lisensi tidak ditemukan!</b>\n\nPeriksa kembali username &amp; password Anda.",
				backButton("extend_user"))
			return
		}
		log.WithError(err).WithField("chat_id", chatID).Error("license lookup failed")
		h.sender.EditSmart(chatID, messageID, "❌ Terjadi kesalahan. Silakan coba lagi.", backButton("main_menu"))
		return
	}

	st.Payload["game_type"] = gameType
	if err := h.states.Enter(ctx, chatID, state.WaitingExtendDuration, st.Payload); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to save extend game type")
		return
	}

	var sb strings.Builder
	sb.WriteString("⏰ <b>Pilih Durasi Extend</b>\n\n")
	sb.WriteString(fmt.Sprintf("Username: <code>%s</code>\n", lic.Username))
	sb.WriteString(fmt.Sprintf("Expired saat ini: <b>%s WIB</b>\n\n", common.FormatDateTime(lic.ExpiresAt)))

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, days := range h.service.Durations() {
		price, _ := h.service.PriceFor(days)
		sb.WriteString(fmt.Sprintf("• %d Hari — %s\n", days, common.FormatRupiah(price)))
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d Hari", days),
			fmt.Sprintf("extend_duration_%d", days),
		))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", "main_menu"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.sender.EditSmart(chatID, messageID, sb.String(), &kb)
}

// HandleExtendDuration opens the extend order and sends the QR message.
func (h *Handler) HandleExtendDuration(ctx context.Context, chatID int64, messageID int, duration int) {
	st, err := h.requireState(ctx, chatID, state.WaitingExtendDuration)
	if err != nil || st.Get("game_type") == "" {
		h.sender.EditSmart(chatID, messageID,
			"❌ <b>Sesi telah berakhir!</b>\n\nSilakan mulai ulang.", backButton("extend_user"))
		return
	}

	o, dep, err := h.service.CreateExtend(ctx, chatID, st.Get("game_type"), duration, st.Get("username"), st.Get("password"))
	if err != nil {
		h.sender.EditSmart(chatID, messageID,
			"❌ <b>Gagal membuat pembayaran!</b>\n\nSilakan coba beberapa saat lagi.", backButton("main_menu"))
		return
	}
	if err := h.states.Clear(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
	}

	h.sender.Delete(chatID, messageID)
	h.sendPaymentMessage(ctx, chatID, o, dep.QRURL, "check_extend")
}

// sendPaymentMessage sends the QR photo with order details and registers the
// message for expiry deletion and settlement polling.
func (h *Handler) sendPaymentMessage(ctx context.Context, chatID int64, o *Order, qrURL, checkAction string) {
	caption := fmt.Sprintf(
		"💳 <b>Menunggu Pembayaran</b>\n\n"+
			"Order ID: <code>%s</code>\n"+
			"Game: <b>%s</b>\n"+
			"Durasi: <b>%d Hari</b>\n"+
			"Total: <b>%s</b>\n\n"+
			"Scan QRIS di atas untuk membayar.\n"+
			"⏰ Batas waktu: <b>%s</b>",
		o.OrderID, GameLabel(o.GameType), o.Duration,
		common.FormatRupiah(o.Amount), common.FormatRemaining(h.service.Remaining(o)),
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Cek Pembayaran", checkAction),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Batalkan", "cancel_order"),
		),
	)

	msgID, err := h.sender.SendPhoto(chatID, qrURL, caption, &kb)
	if err != nil {
		// Fall back to text so the buyer still gets the order reference.
		msgID, err = h.sender.SendText(chatID, caption+"\n\nQR: "+qrURL, &kb)
		if err != nil {
			return
		}
	}
	if err := h.service.TrackPaymentMessage(ctx, chatID, msgID); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":  chatID,
			"order_id": o.OrderID,
		}).Error("failed to register payment message tracking")
	}
}

// HandleCheckPayment runs the settlement check behind the QR message's
// check button. isExtend switches the success rendering.
func (h *Handler) HandleCheckPayment(ctx context.Context, chatID int64, messageID int, callbackID string, isExtend bool) {
	st, err := h.service.CheckStatus(ctx, chatID)
	if err != nil {
		if errors.Is(err, common.ErrNoActiveOrder) {
			h.sender.AnswerCallback(callbackID, "")
			h.sender.EditSmart(chatID, messageID,
				"❌ <b>Tidak ada pesanan aktif.</b>", backButton("main_menu"))
			return
		}
		if errors.Is(err, common.ErrOrderTerminal) {
			h.sender.AnswerCallbackAlert(callbackID, "Pesanan sudah diproses.")
			return
		}
		log.WithError(err).WithField("chat_id", chatID).Error("payment check failed")
		h.sender.AnswerCallbackAlert(callbackID, "Terjadi kesalahan, coba lagi.")
		return
	}

	switch st.State {
	case StatusExpired:
		h.sender.AnswerCallback(callbackID, "")
		h.sender.EditSmart(chatID, messageID,
			"❌ <b>Pesanan telah expired!</b>\n\nPembayaran tidak dilakukan dalam waktu 25 menit.\n\nSilakan buat pesanan baru.",
			backButton("new_order"))
	case StatusPending:
		h.sender.AnswerCallbackAlert(callbackID,
			fmt.Sprintf("Pembayaran belum diterima.\nSisa waktu: %s", common.FormatRemaining(st.Remaining)))
	case StatusCompleted:
		h.sender.AnswerCallback(callbackID, "")
		if isExtend {
			h.renderExtendSuccess(chatID, messageID, st.Result)
		} else {
			h.renderPurchaseSuccess(chatID, messageID, st.Result)
		}
		h.notifyAdmins(st.Result)
	}
}

// RenderExpired replaces a QR message with the expiry notice. Used by the
// cleanup tick when the settlement poll finds the order overdue.
func (h *Handler) RenderExpired(chatID int64, messageID int, isExtend bool) {
	if isExtend {
		h.sender.EditSmart(chatID, messageID,
			"❌ <b>Pesanan extend telah expired!</b>\n\nPembayaran tidak dilakukan dalam waktu 25 menit.",
			backButton("extend_user"))
		return
	}
	h.sender.EditSmart(chatID, messageID,
		"❌ <b>Pesanan telah expired!</b>\n\nPembayaran tidak dilakukan dalam waktu 25 menit.\n\nSilakan buat pesanan baru.",
		backButton("new_order"))
}

// RenderCompletion renders a completion produced outside the button flow
// (the cleanup tick's settlement poll).
func (h *Handler) RenderCompletion(chatID int64, messageID int, res *Completion) {
	if res.Order.KeyType == KeyTypeExtend {
		h.renderExtendSuccess(chatID, messageID, res)
	} else {
		h.renderPurchaseSuccess(chatID, messageID, res)
	}
	h.notifyAdmins(res)
}

func (h *Handler) renderPurchaseSuccess(chatID int64, messageID int, res *Completion) {
	text := fmt.Sprintf(
		"✅ <b>Pembayaran Berhasil!</b>\n\n"+
			"Order ID: <code>%s</code>\n"+
			"Game: <b>%s</b>\n"+
			"Durasi: <b>%d Hari</b>\n\n"+
			"🔑 <b>AKUN ANDA:</b>\n"+
			"Username: <code>%s</code>\n"+
			"Password: <code>%s</code>\n\n"+
			"🎁 Anda mendapatkan <b>%d points</b>\n\n"+
			"Simpan pesan ini baik-baik!",
		res.Order.OrderID, GameLabel(res.Order.GameType), res.Order.Duration,
		res.Credentials.Username, res.Credentials.Password, res.PointsEarned,
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛒 Beli Lagi", "new_order"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Menu", "main_menu"),
		),
	)
	h.sender.EditSmart(chatID, messageID, text, &kb)
}

func (h *Handler) renderExtendSuccess(chatID int64, messageID int, res *Completion) {
	expiry := "segera diperbarui"
	if !res.NewExpiry.IsZero() {
		expiry = common.FormatDateTime(res.NewExpiry) + " WIB"
	}
	text := fmt.Sprintf(
		"✅ <b>Extend Berhasil!</b>\n\n"+
			"Username: <code>%s</code>\n"+
			"Durasi ditambah: <b>%d Hari</b>\n"+
			"Expired baru: <b>%s</b>\n\n"+
			"🎁 Anda mendapatkan <b>%d points</b>",
		res.Credentials.Username, res.Order.Duration, expiry, res.PointsEarned,
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏠 Menu", "main_menu"),
		),
	)
	h.sender.EditSmart(chatID, messageID, text, &kb)
}

func (h *Handler) notifyAdmins(res *Completion) {
	text := fmt.Sprintf(
		"💰 <b>Pembayaran Diterima</b>\n\n"+
			"Order ID: <code>%s</code>\n"+
			"Chat ID: <code>%d</code>\n"+
			"Game: <b>%s</b>\n"+
			"Durasi: <b>%d Hari</b>\n"+
			"Jenis: <b>%s</b>\n"+
			"Total: <b>%s</b>",
		res.Order.OrderID, res.Order.ChatID, GameLabel(res.Order.GameType),
		res.Order.Duration, res.Order.KeyType, common.FormatRupiah(res.Order.Amount),
	)
	for _, adminID := range h.adminIDs {
		h.sender.SendText(adminID, text, nil)
	}
}

// HandleCancel aborts the chat's pending order behind the cancel button.
func (h *Handler) HandleCancel(ctx context.Context, chatID int64, messageID int) {
	if err := h.states.Clear(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
	}
	if _, err := h.service.Cancel(ctx, chatID); err != nil {
		if errors.Is(err, common.ErrNoActiveOrder) || errors.Is(err, common.ErrOrderTerminal) {
			h.sender.EditSmart(chatID, messageID, "❌ Tidak ada pesanan yang bisa dibatalkan.", backButton("main_menu"))
			return
		}
		log.WithError(err).WithField("chat_id", chatID).Error("cancel failed")
		h.sender.EditSmart(chatID, messageID, "❌ Terjadi kesalahan. Silakan coba lagi.", backButton("main_menu"))
		return
	}
	h.sender.EditSmart(chatID, messageID, "❌ Pesanan dibatalkan.", backButton("main_menu"))
}

// ShowRedeemMenu renders the points redemption menu.
func (h *Handler) ShowRedeemMenu(ctx context.Context, chatID int64, messageID int) {
	balance, err := h.points.Balance(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("balance lookup failed")
		h.sender.EditSmart(chatID, messageID, "❌ Terjadi kesalahan. Silakan coba lagi.", backButton("main_menu"))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🎁 <b>Tukar Point</b>\n\n💰 <b>Point Anda:</b> %d points\n\nHarga penukaran:\n", balance))

	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, days := range []int{1, 2, 3, 7} {
		cost := h.points.RedeemCost(days)
		sb.WriteString(fmt.Sprintf("• %d Hari = %d points\n", days, cost))
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d Hari — %d points", days, cost),
			fmt.Sprintf("redeem_%d", days),
		))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", "main_menu"),
	))
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.sender.EditSmart(chatID, messageID, sb.String(), &kb)
}

// HandleRedeemDuration confirms a redemption and asks for the game.
func (h *Handler) HandleRedeemDuration(ctx context.Context, chatID int64, messageID int, days int) {
	cost := h.points.RedeemCost(days)
	balance, err := h.points.Balance(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("balance lookup failed")
		h.sender.EditSmart(chatID, messageID, "❌ Terjadi kesalahan. Silakan coba lagi.", backButton("redeem_points"))
		return
	}
	if balance < cost {
		h.sender.EditSmart(chatID, messageID, fmt.Sprintf(
			"❌ <b>Point tidak cukup!</b>\n\n"+
				"Point yang dibutuhkan: <b>%d points</b>\n"+
				"Point Anda: <b>%d points</b>",
			cost, balance,
		), backButton("redeem_points"))
		return
	}

	if err := h.states.Enter(ctx, chatID, state.WaitingRedeemGame, map[string]string{
		"duration":      fmt.Sprintf("%d", days),
		"points_needed": fmt.Sprintf("%d", cost),
	}); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to enter redeem state")
		return
	}

	text := fmt.Sprintf(
		"🎁 <b>Konfirmasi Penukaran</b>\n\n"+
			"Anda akan menukar <b>%d points</b> untuk lisensi <b>%d hari</b>\n\n"+
			"Pilih game:",
		cost, days,
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔥 Free Fire", "redeem_ff"),
			tgbotapi.NewInlineKeyboardButtonData("⚡ FF MAX", "redeem_ffmax"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("↩️ Kembali", "redeem_points"),
		),
	)
	h.sender.EditSmart(chatID, messageID, text, &kb)
}

// HandleRedeemGame executes the redemption for the chosen game.
func (h *Handler) HandleRedeemGame(ctx context.Context, chatID int64, messageID int, gameType string) {
	st, err := h.requireState(ctx, chatID, state.WaitingRedeemGame)
	if err != nil {
		h.sender.EditSmart(chatID, messageID,
			"❌ <b>Sesi telah berakhir!</b>\n\nSilakan mulai ulang dari menu penukaran point.",
			backButton("redeem_points"))
		return
	}
	days := atoiDefault(st.Get("duration"), 0)
	if err := h.states.Clear(ctx, chatID); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Warn("failed to clear state")
	}

	red, err := h.service.Redeem(ctx, chatID, gameType, days)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientPoints) {
			h.sender.EditSmart(chatID, messageID, "❌ <b>Point tidak cukup!</b>", backButton("redeem_points"))
			return
		}
		log.WithError(err).WithField("chat_id", chatID).Error("redemption failed")
		h.sender.EditSmart(chatID, messageID,
			"❌ <b>Penukaran gagal!</b>\n\nPoint Anda tidak terpotong. Silakan coba lagi.",
			backButton("redeem_points"))
		return
	}

	text := fmt.Sprintf(
		"✅ <b>Penukaran Berhasil!</b>\n\n"+
			"Anda berhasil menukar <b>%d points</b>\n"+
			"Game: <b>%s</b>\n"+
			"Durasi: <b>%d Hari</b>\n\n"+
			"🔑 <b>AKUN ANDA:</b>\n"+
			"Username: <code>%s</code>\n"+
			"Password: <code>%s</code>\n"+
			"Expired: <b>%s WIB</b>\n\n"+
			"💰 <b>SISA POINT:</b> %d points",
		red.Cost, GameLabel(gameType), red.Days,
		red.Credentials.Username, red.Credentials.Password,
		common.FormatDateTime(red.ExpiresAt), red.Balance,
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Tukar Lagi", "redeem_points"),
			tgbotapi.NewInlineKeyboardButtonData("🏠 Menu", "main_menu"),
		),
	)
	h.sender.EditSmart(chatID, messageID, text, &kb)

	for _, adminID := range h.adminIDs {
		h.sender.SendText(adminID, fmt.Sprintf(
			"🎁 <b>Penukaran Point</b>\n\nChat ID: <code>%d</code>\nGame: <b>%s</b>\nDurasi: <b>%d Hari</b>\nPoint Ditukar: <b>%d points</b>",
			chatID, GameLabel(gameType), red.Days, red.Cost,
		), nil)
	}
}

// HandlePoints renders the /points command.
func (h *Handler) HandlePoints(ctx context.Context, chatID int64) {
	balance, err := h.points.Balance(ctx, chatID)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("balance lookup failed")
		h.sender.SendText(chatID, "❌ Terjadi kesalahan. Silakan coba lagi.", nil)
		return
	}
	text := fmt.Sprintf(
		"💰 <b>Point Anda</b>\n\n"+
			"Total Point: <b>%d points</b>\n\n"+
			"Point didapat dari setiap pembelian lisensi.\n"+
			"%d points = 1 hari lisensi gratis",
		balance, h.points.CostPerDay(),
	)
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Tukar Point", "redeem_points"),
		),
	)
	h.sender.SendText(chatID, text, &kb)
}

func atoiDefault(s string, def int) int {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return def
	}
	return n
}
