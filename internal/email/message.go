package email

import (
	"bytes"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/jaytaylor/html2text"
	"github.com/jhillyerd/enmime"

	"github.com/colin/cli-mail/pkg/types"
)

const noSubject = "(no subject)"

// RenderOptions controls how an HTML-only body is converted to text.
type RenderOptions struct {
	// LineWidth is the column the synthesized text is reflowed to.
	// Lines carrying a link are never wrapped.
	LineWidth int
	// OmitLinks drops hyperlink targets from the synthesized text.
	OmitLinks bool
}

// DefaultRenderOptions returns the standard body rendering: 80 columns,
// links kept.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{LineWidth: 80}
}

// HTMLToText converts an HTML body into readable plain text.
func HTMLToText(html string, opts RenderOptions) string {
	text, err := html2text.FromString(html, html2text.Options{OmitLinks: opts.OmitLinks})
	if err != nil {
		return ""
	}
	if opts.LineWidth > 0 {
		text = wrapText(text, opts.LineWidth)
	}
	return strings.TrimSpace(text)
}

// wrapText reflows lines longer than width at word boundaries. Lines that
// contain a URL are left alone so the link survives intact.
func wrapText(s string, width int) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if len(line) <= width || strings.Contains(line, "://") {
			out = append(out, line)
			continue
		}
		for len(line) > width {
			cut := strings.LastIndexByte(line[:width+1], ' ')
			if cut <= 0 {
				break
			}
			out = append(out, strings.TrimRight(line[:cut], " "))
			line = strings.TrimLeft(line[cut:], " ")
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// ParseEmail decodes a raw message into a fully populated Email. The uid
// and flags come from the fetch metadata, not the message itself.
func ParseEmail(raw []byte, uid string, flags types.FlagSet, opts RenderOptions) (*types.Email, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	plain := env.Text
	html := env.HTML
	if plain == "" && html != "" {
		plain = HTMLToText(html, opts)
	}

	return &types.Email{
		UID:         uid,
		MessageID:   env.GetHeader("Message-Id"),
		Subject:     subjectOrDefault(env),
		Sender:      types.ParseAddress(env.GetHeader("From")),
		To:          parseAddressList(env.GetHeader("To")),
		Cc:          parseAddressList(env.GetHeader("Cc")),
		Date:        parseDate(env.GetHeader("Date")),
		BodyPlain:   plain,
		BodyHTML:    html,
		Attachments: collectAttachments(env),
		Flags:       flags,
		InReplyTo:   env.GetHeader("In-Reply-To"),
		References:  env.GetHeader("References"),
	}, nil
}

// ParseHeader decodes the header section of a message into a listing
// entry. It never touches part payloads; attachment presence comes from a
// cheap scan for a disposition marker so it stays affordable once per
// message on a listing page.
func ParseHeader(raw []byte, uid string, flags types.FlagSet) (*types.EmailHeader, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	return &types.EmailHeader{
		UID:            uid,
		Subject:        subjectOrDefault(env),
		Sender:         types.ParseAddress(env.GetHeader("From")),
		Date:           parseDate(env.GetHeader("Date")),
		Flags:          flags,
		HasAttachments: hasAttachmentMarker(raw),
	}, nil
}

func subjectOrDefault(env *enmime.Envelope) string {
	if subject := env.GetHeader("Subject"); subject != "" {
		return subject
	}
	return noSubject
}

// parseAddressList splits an address-list header on commas and parses
// each segment independently, so one malformed address does not
// invalidate the rest of the list.
func parseAddressList(header string) []types.Address {
	if header == "" {
		return nil
	}
	var list []types.Address
	for _, segment := range strings.Split(header, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		list = append(list, types.ParseAddress(segment))
	}
	return list
}

// parseDate falls back to the current time for missing or unparseable
// Date headers.
func parseDate(header string) time.Time {
	if header == "" {
		return time.Now()
	}
	date, err := netmail.ParseDate(header)
	if err != nil {
		return time.Now()
	}
	return date
}

// collectAttachments gathers the parts that qualify as attachments: any
// part with an attachment disposition, plus inline or undeclared parts
// whose content is not the visible plain/HTML body.
func collectAttachments(env *enmime.Envelope) []types.Attachment {
	var attachments []types.Attachment

	add := func(part *enmime.Part) {
		filename := part.FileName
		if filename == "" {
			filename = "unnamed"
		}
		attachments = append(attachments, types.Attachment{
			Filename:    filename,
			ContentType: part.ContentType,
			Size:        int64(len(part.Content)),
			Payload:     part.Content,
		})
	}

	for _, part := range env.Attachments {
		add(part)
	}
	for _, part := range env.Inlines {
		if !isTextPart(part) {
			add(part)
		}
	}
	for _, part := range env.OtherParts {
		if !isTextPart(part) {
			add(part)
		}
	}
	return attachments
}

func isTextPart(part *enmime.Part) bool {
	return part.ContentType == "text/plain" || part.ContentType == "text/html"
}

// hasAttachmentMarker scans raw message bytes line by line for a
// Content-Disposition header announcing an attachment. It works on
// header-only fetches and never decodes a payload.
func hasAttachmentMarker(raw []byte) bool {
	prefix := []byte("content-disposition:")
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) < len(prefix) {
			continue
		}
		if !bytes.EqualFold(line[:len(prefix)], prefix) {
			continue
		}
		if bytes.Contains(bytes.ToLower(line), []byte("attachment")) {
			return true
		}
	}
	return false
}
