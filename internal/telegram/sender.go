// Package telegram wraps the Bot API with the send/edit helpers the feature
// handlers share: HTML messages, photo messages with captions, and the
// edit-caption → edit-text → send-new fallback chain for mixed message kinds.
package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// API is the slice of the Bot API the sender uses. *tgbotapi.BotAPI
// satisfies it; tests substitute fakes.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender sends and edits bot messages. All texts are HTML.
type Sender struct {
	api API
}

// NewSender creates a sender over the Bot API.
func NewSender(api API) *Sender {
	return &Sender{api: api}
}

// SendText sends an HTML message and returns its message id.
func (s *Sender) SendText(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	sent, err := s.api.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send message")
		return 0, err
	}
	return sent.MessageID, nil
}

// SendPhoto sends a photo by URL with an HTML caption and returns the
// message id.
func (s *Sender) SendPhoto(chatID int64, photoURL, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	sent, err := s.api.Send(msg)
	if err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("failed to send photo")
		return 0, err
	}
	return sent.MessageID, nil
}

// EditSmart updates a message whose kind is unknown: QR messages are photos
// (caption edit), menus are text messages (text edit). It tries the caption
// first, then the text, and finally replaces the message with a fresh one.
// Returns the id of the message now carrying the content.
func (s *Sender) EditSmart(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (int, error) {
	caption := tgbotapi.NewEditMessageCaption(chatID, messageID, text)
	caption.ParseMode = tgbotapi.ModeHTML
	caption.ReplyMarkup = keyboard
	if _, err := s.api.Request(caption); err == nil {
		return messageID, nil
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = keyboard
	if _, err := s.api.Request(edit); err == nil {
		return messageID, nil
	}

	// Neither edit applied (message deleted, too old, or identical content):
	// drop it and start over.
	s.Delete(chatID, messageID)
	return s.SendText(chatID, text, keyboard)
}

// Copy re-sends an existing message to another chat without the forward
// header. Used for broadcasts so any message kind fans out unchanged.
func (s *Sender) Copy(toChatID, fromChatID int64, messageID int, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	cp := tgbotapi.NewCopyMessage(toChatID, fromChatID, messageID)
	if keyboard != nil {
		cp.ReplyMarkup = *keyboard
	}
	if _, err := s.api.Request(cp); err != nil {
		return err
	}
	return nil
}

// Delete removes a message, ignoring failures: deleting an already-deleted
// message is the common case for the cleanup tick.
func (s *Sender) Delete(chatID int64, messageID int) {
	if _, err := s.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"chat_id":    chatID,
			"message_id": messageID,
		}).Debug("delete message failed")
	}
}

// AnswerCallback acknowledges a callback query, optionally with a toast.
func (s *Sender) AnswerCallback(callbackID, text string) {
	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.WithError(err).Debug("answer callback failed")
	}
}

// AnswerCallbackAlert acknowledges a callback query with a modal alert.
func (s *Sender) AnswerCallbackAlert(callbackID, text string) {
	if _, err := s.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		log.WithError(err).Debug("answer callback failed")
	}
}
