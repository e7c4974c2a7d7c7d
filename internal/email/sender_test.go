package email

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/jhillyerd/enmime"

	"github.com/colin/cli-mail/internal/config"
	"github.com/colin/cli-mail/pkg/types"
)

func originalEmail() *types.Email {
	return &types.Email{
		UID:        "42",
		MessageID:  "<orig@example.com>",
		Subject:    "Lunch plans",
		Sender:     types.Address{Name: "Alice", Email: "alice@example.com"},
		To:         []types.Address{{Name: "Bob", Email: "bob@example.com"}},
		Date:       time.Date(2025, 6, 2, 14, 5, 0, 0, time.UTC),
		BodyPlain:  "How about noon?",
		References: "<first@example.com>",
	}
}

func TestBuildReply(t *testing.T) {
	msg := BuildReply(originalEmail())

	if msg.Subject != "Re: Lunch plans" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if len(msg.To) != 1 || msg.To[0] != "Alice <alice@example.com>" {
		t.Errorf("To = %v", msg.To)
	}
	if msg.InReplyTo != "<orig@example.com>" {
		t.Errorf("InReplyTo = %q", msg.InReplyTo)
	}
	if msg.References != "<first@example.com> <orig@example.com>" {
		t.Errorf("References = %q", msg.References)
	}
}

func TestBuildReplyPrefixIdempotent(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"Lunch plans", "Re: Lunch plans"},
		{"Re: Lunch plans", "Re: Lunch plans"},
		{"RE: Lunch plans", "RE: Lunch plans"},
		{"re: lunch", "re: lunch"},
	}

	for _, tt := range tests {
		original := originalEmail()
		original.Subject = tt.subject
		if got := BuildReply(original).Subject; got != tt.want {
			t.Errorf("BuildReply(%q).Subject = %q, want %q", tt.subject, got, tt.want)
		}
	}
}

func TestBuildReplyNoReferences(t *testing.T) {
	original := originalEmail()
	original.References = ""

	msg := BuildReply(original)
	if msg.References != "<orig@example.com>" {
		t.Errorf("References = %q, want just the original id", msg.References)
	}
}

func TestBuildForward(t *testing.T) {
	msg := BuildForward(originalEmail())

	if msg.Subject != "Fwd: Lunch plans" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if len(msg.To) != 0 {
		t.Errorf("To should be left empty, got %v", msg.To)
	}
	if !strings.Contains(msg.Body, "---------- Forwarded message ----------") {
		t.Errorf("missing separator in body: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "From: Alice <alice@example.com>") {
		t.Errorf("missing original sender in body: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "Date: Mon, Jun 02, 2025 at 02:05 PM") {
		t.Errorf("missing original date in body: %q", msg.Body)
	}
	if !strings.Contains(msg.Body, "How about noon?") {
		t.Errorf("missing original body: %q", msg.Body)
	}
}

func TestBuildForwardPrefixIdempotent(t *testing.T) {
	original := originalEmail()
	original.Subject = "Fwd: Lunch plans"
	if got := BuildForward(original).Subject; got != "Fwd: Lunch plans" {
		t.Errorf("Subject = %q, prefix must not stack", got)
	}
}

func TestBuildMessage(t *testing.T) {
	sender := NewSender(config.AccountConfig{
		Name:     "alice",
		Email:    "alice@example.com",
		SMTPHost: "smtp.example.com",
	}, nil)

	msg := OutgoingMessage{
		To:         []string{"Bob <bob@example.com>"},
		Cc:         []string{"carol@example.com"},
		Subject:    "Re: Lunch plans",
		Body:       "Noon works.",
		InReplyTo:  "<orig@example.com>",
		References: "<first@example.com> <orig@example.com>",
	}

	raw, err := sender.buildMessage(msg)
	if err != nil {
		t.Fatalf("buildMessage error: %v", err)
	}

	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("reading built message: %v", err)
	}

	if got := env.GetHeader("Subject"); got != "Re: Lunch plans" {
		t.Errorf("Subject = %q", got)
	}
	if got := env.GetHeader("To"); !strings.Contains(got, "bob@example.com") {
		t.Errorf("To = %q", got)
	}
	if got := env.GetHeader("Cc"); !strings.Contains(got, "carol@example.com") {
		t.Errorf("Cc = %q", got)
	}
	if got := env.GetHeader("From"); !strings.Contains(got, "alice@example.com") {
		t.Errorf("From = %q", got)
	}
	if got := env.GetHeader("In-Reply-To"); got != "<orig@example.com>" {
		t.Errorf("In-Reply-To = %q", got)
	}
	if got := env.GetHeader("References"); got != "<first@example.com> <orig@example.com>" {
		t.Errorf("References = %q", got)
	}

	id := env.GetHeader("Message-Id")
	if !strings.HasPrefix(id, "<") || !strings.HasSuffix(id, "@smtp.example.com>") {
		t.Errorf("Message-Id = %q, want generated id at the smtp host", id)
	}
	if env.GetHeader("Date") == "" {
		t.Error("missing Date header")
	}
	if strings.TrimSpace(env.Text) != "Noon works." {
		t.Errorf("body = %q", env.Text)
	}
}

func TestSendNoRecipients(t *testing.T) {
	sender := NewSender(config.AccountConfig{Email: "alice@example.com"}, nil)
	if err := sender.Send("secret", OutgoingMessage{Subject: "x"}); err == nil {
		t.Error("expected error for empty recipient list")
	}
}
