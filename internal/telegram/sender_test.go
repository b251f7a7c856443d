package telegram

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// fakeAPI records requests and fails the configured method names.
type fakeAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	failCap  bool // fail caption edits
	failTxt  bool // fail text edits
	nextID   int
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	switch c.(type) {
	case tgbotapi.EditMessageCaptionConfig:
		if f.failCap {
			return nil, errors.New("no caption to edit")
		}
	case tgbotapi.EditMessageTextConfig:
		if f.failTxt {
			return nil, errors.New("message not found")
		}
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func TestEditSmartPrefersCaption(t *testing.T) {
	api := &fakeAPI{}
	id, err := NewSender(api).EditSmart(1, 10, "hello", nil)
	if err != nil {
		t.Fatalf("EditSmart: %v", err)
	}
	if id != 10 {
		t.Errorf("message id = %d, want 10 (edited in place)", id)
	}
	if len(api.requests) != 1 {
		t.Fatalf("expected a single caption edit, got %d requests", len(api.requests))
	}
	if _, ok := api.requests[0].(tgbotapi.EditMessageCaptionConfig); !ok {
		t.Errorf("first attempt should edit the caption, got %T", api.requests[0])
	}
}

func TestEditSmartFallsBackToText(t *testing.T) {
	api := &fakeAPI{failCap: true}
	id, err := NewSender(api).EditSmart(1, 10, "hello", nil)
	if err != nil {
		t.Fatalf("EditSmart: %v", err)
	}
	if id != 10 {
		t.Errorf("message id = %d, want 10", id)
	}
	if len(api.requests) != 2 {
		t.Fatalf("expected caption then text edit, got %d requests", len(api.requests))
	}
	if _, ok := api.requests[1].(tgbotapi.EditMessageTextConfig); !ok {
		t.Errorf("second attempt should edit the text, got %T", api.requests[1])
	}
}

func TestEditSmartReplacesWhenEditsFail(t *testing.T) {
	api := &fakeAPI{failCap: true, failTxt: true}
	id, err := NewSender(api).EditSmart(1, 10, "hello", nil)
	if err != nil {
		t.Fatalf("EditSmart: %v", err)
	}
	if id == 10 || id == 0 {
		t.Errorf("expected a fresh message id, got %d", id)
	}
	if len(api.sent) != 1 {
		t.Fatalf("expected one replacement message, got %d", len(api.sent))
	}
	// The stale message is deleted before the replacement is sent.
	var deleted bool
	for _, r := range api.requests {
		if _, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			deleted = true
		}
	}
	if !deleted {
		t.Error("stale message was not deleted")
	}
}

func TestSendTextReturnsMessageID(t *testing.T) {
	api := &fakeAPI{}
	id, err := NewSender(api).SendText(1, "hi", nil)
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if id != 1 {
		t.Errorf("message id = %d, want 1", id)
	}
	msg, ok := api.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", api.sent[0])
	}
	if msg.ParseMode != tgbotapi.ModeHTML {
		t.Errorf("parse mode = %q, want HTML", msg.ParseMode)
	}
}
