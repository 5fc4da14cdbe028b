//go:build !integration

package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestIsAdmin(t *testing.T) {
	h := &BotHandler{admins: map[int64]struct{}{1111: {}, 2222: {}}}

	if !h.isAdmin(1111) {
		t.Fatalf("expected 1111 to be admin")
	}
	if h.isAdmin(3333) {
		t.Fatalf("expected 3333 to NOT be admin")
	}
}

func TestSplitCallback(t *testing.T) {
	cases := []struct {
		data   string
		action string
		arg    string
	}{
		{"subscribe", "subscribe", ""},
		{"check_payment:abc123", "check_payment", "abc123"},
		{"admin_approve:01H:with:colons", "admin_approve", "01H:with:colons"},
		{"", "", ""},
	}
	for _, tc := range cases {
		action, arg := splitCallback(tc.data)
		if action != tc.action || arg != tc.arg {
			t.Errorf("splitCallback(%q) = (%q, %q), want (%q, %q)", tc.data, action, arg, tc.action, tc.arg)
		}
	}
}

func TestProofFileID(t *testing.T) {
	if got := proofFileID(&tgbotapi.Message{}); got != "" {
		t.Errorf("text message proof = %q, want empty", got)
	}

	msg := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
		{FileID: "small"}, {FileID: "large"},
	}}
	if got := proofFileID(msg); got != "large" {
		t.Errorf("photo proof = %q, want the largest size", got)
	}

	msg = &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc-1"}}
	if got := proofFileID(msg); got != "doc-1" {
		t.Errorf("document proof = %q, want doc-1", got)
	}
}
