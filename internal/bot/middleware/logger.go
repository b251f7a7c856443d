// Package middleware contains the cross-cutting update handling: incoming
// logging, panic recovery and per-user rate limiting.
package middleware

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// LogMessage logs an incoming message (first 50 characters of the text).
func LogMessage(message *tgbotapi.Message) {
	if message == nil || message.From == nil {
		return
	}
	text := message.Text
	if len(text) > 50 {
		text = text[:50] + "..."
	}
	log.WithFields(log.Fields{
		"chat_id":  message.Chat.ID,
		"username": message.From.UserName,
		"text":     text,
	}).Debug("incoming message")
}

// LogCallback logs an incoming callback query.
func LogCallback(cb *tgbotapi.CallbackQuery) {
	if cb == nil || cb.From == nil {
		return
	}
	fields := log.Fields{
		"username": cb.From.UserName,
		"data":     cb.Data,
	}
	if cb.Message != nil {
		fields["chat_id"] = cb.Message.Chat.ID
	}
	log.WithFields(fields).Debug("incoming callback")
}
