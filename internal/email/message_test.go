package email

import (
	"strings"
	"testing"
	"time"

	"github.com/colin/cli-mail/pkg/types"
)

func crlf(lines ...string) []byte {
	return []byte(strings.Join(lines, "\r\n"))
}

func TestParseEmailPlain(t *testing.T) {
	raw := crlf(
		"From: \"Alice Smith\" <alice@example.com>",
		"To: bob@example.com, \"Carol\" <carol@example.com>",
		"Cc: dave@example.com",
		"Date: Mon, 02 Jun 2025 10:30:00 +0000",
		"Subject: Quarterly numbers",
		"Message-Id: <abc123@example.com>",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"The numbers look good.",
	)

	msg, err := ParseEmail(raw, "42", types.NewFlagSet(`\Seen`), DefaultRenderOptions())
	if err != nil {
		t.Fatalf("ParseEmail error: %v", err)
	}

	if msg.UID != "42" {
		t.Errorf("UID = %q, want 42", msg.UID)
	}
	if msg.Subject != "Quarterly numbers" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.Sender.Name != "Alice Smith" || msg.Sender.Email != "alice@example.com" {
		t.Errorf("Sender = %+v", msg.Sender)
	}
	if len(msg.To) != 2 || msg.To[0].Email != "bob@example.com" || msg.To[1].Name != "Carol" {
		t.Errorf("To = %+v", msg.To)
	}
	if len(msg.Cc) != 1 || msg.Cc[0].Email != "dave@example.com" {
		t.Errorf("Cc = %+v", msg.Cc)
	}
	if !msg.Date.Equal(time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("Date = %v", msg.Date)
	}
	if !strings.Contains(msg.BodyPlain, "The numbers look good.") {
		t.Errorf("BodyPlain = %q", msg.BodyPlain)
	}
	if msg.MessageID != "<abc123@example.com>" {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
	if !msg.Flags.Has(types.FlagSeen) {
		t.Error("expected seen flag carried through")
	}
}

func TestParseEmailHTMLOnly(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"To: bob@example.com",
		"Subject: Greetings",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>Hello <b>Bob</b>, welcome aboard.</p></body></html>",
	)

	msg, err := ParseEmail(raw, "7", nil, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("ParseEmail error: %v", err)
	}

	if msg.BodyHTML == "" {
		t.Fatal("expected HTML body to be kept")
	}
	if msg.BodyPlain == "" {
		t.Fatal("expected plain body synthesized from HTML")
	}
	if !strings.Contains(strings.ToLower(msg.BodyPlain), "hello") {
		t.Errorf("synthesized body %q does not contain the text", msg.BodyPlain)
	}
	if strings.Contains(msg.BodyPlain, "<p>") {
		t.Errorf("synthesized body still contains markup: %q", msg.BodyPlain)
	}
}

func TestParseEmailDefaults(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"To: bob@example.com",
		"Date: not a date",
		"Content-Type: text/plain",
		"",
		"body",
	)

	before := time.Now()
	msg, err := ParseEmail(raw, "1", nil, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("ParseEmail error: %v", err)
	}

	if msg.Subject != "(no subject)" {
		t.Errorf("Subject = %q, want placeholder", msg.Subject)
	}
	if msg.Date.Before(before.Add(-time.Minute)) {
		t.Errorf("unparseable date should fall back to now, got %v", msg.Date)
	}
}

func TestParseEmailAttachments(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"To: bob@example.com",
		"Subject: Report attached",
		"Content-Type: multipart/mixed; boundary=MIXED",
		"",
		"--MIXED",
		"Content-Type: text/plain",
		"",
		"See attached.",
		"--MIXED",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		"JVBERi0xLjQ=",
		"--MIXED--",
	)

	msg, err := ParseEmail(raw, "9", nil, DefaultRenderOptions())
	if err != nil {
		t.Fatalf("ParseEmail error: %v", err)
	}

	if len(msg.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(msg.Attachments))
	}
	att := msg.Attachments[0]
	if att.Filename != "report.pdf" {
		t.Errorf("Filename = %q", att.Filename)
	}
	if att.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q", att.ContentType)
	}
	if att.Size != int64(len(att.Payload)) || att.Size == 0 {
		t.Errorf("Size = %d, payload = %d bytes", att.Size, len(att.Payload))
	}
	if !strings.Contains(msg.BodyPlain, "See attached.") {
		t.Errorf("BodyPlain = %q", msg.BodyPlain)
	}
}

func TestParseHeader(t *testing.T) {
	raw := crlf(
		"From: alice@example.com",
		"To: bob@example.com",
		"Subject: Header only",
		"Date: Mon, 02 Jun 2025 10:30:00 +0000",
		"",
	)

	header, err := ParseHeader(raw, "5", types.NewFlagSet(`\Flagged`))
	if err != nil {
		t.Fatalf("ParseHeader error: %v", err)
	}

	if header.UID != "5" || header.Subject != "Header only" {
		t.Errorf("header = %+v", header)
	}
	if !header.IsFlagged() {
		t.Error("expected flagged marker")
	}
	if header.HasAttachments {
		t.Error("no disposition marker, should not report attachments")
	}
}

func TestHasAttachmentMarker(t *testing.T) {
	with := crlf(
		"Subject: x",
		"Content-Disposition: attachment; filename=\"a.txt\"",
		"",
	)
	without := crlf(
		"Subject: x",
		"Content-Disposition: inline",
		"",
	)

	if !hasAttachmentMarker(with) {
		t.Error("expected marker found")
	}
	if hasAttachmentMarker(without) {
		t.Error("inline disposition should not count")
	}
}

func TestWrapText(t *testing.T) {
	long := strings.Repeat("word ", 30)
	wrapped := wrapText(long, 40)
	for _, line := range strings.Split(wrapped, "\n") {
		if len(line) > 40 {
			t.Errorf("line longer than width: %q", line)
		}
	}

	url := "see https://example.com/a/very/long/path/that/exceeds/the/wrap/width/by/far/indeed"
	if got := wrapText(url, 40); got != url {
		t.Errorf("line with URL should not be wrapped, got %q", got)
	}

	short := "short line"
	if got := wrapText(short, 40); got != short {
		t.Errorf("short line changed: %q", got)
	}
}

func TestHTMLToText(t *testing.T) {
	text := HTMLToText("<p>Hello <a href=\"https://example.com\">there</a></p>", DefaultRenderOptions())
	if !strings.Contains(strings.ToLower(text), "hello") {
		t.Errorf("text = %q", text)
	}

	noLinks := HTMLToText("<p>Hello <a href=\"https://example.com/hidden\">there</a></p>", RenderOptions{LineWidth: 80, OmitLinks: true})
	if strings.Contains(noLinks, "example.com/hidden") {
		t.Errorf("link target should be omitted, got %q", noLinks)
	}
}
