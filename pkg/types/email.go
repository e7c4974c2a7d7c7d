package types

import (
	"fmt"
	netmail "net/mail"
	"strings"
	"time"
)

// Standard flag tokens tracked by the mail store.
const (
	FlagSeen    = `\Seen`
	FlagFlagged = `\Flagged`
	FlagDeleted = `\Deleted`
)

// FlagSet is the set of flag tokens currently held by a message.
type FlagSet map[string]struct{}

// NewFlagSet builds a FlagSet from flag tokens, ignoring empty ones.
func NewFlagSet(tokens ...string) FlagSet {
	set := make(FlagSet, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given flag token.
func (f FlagSet) Has(flag string) bool {
	_, ok := f[flag]
	return ok
}

// Address is a single mail address with an optional display name.
type Address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ParseAddress parses one address header field. When no display name is
// present the local part of the address stands in as the name.
func ParseAddress(header string) Address {
	header = strings.TrimSpace(header)
	if header == "" {
		return Address{}
	}

	parsed, err := netmail.ParseAddress(header)
	if err != nil {
		raw := strings.Trim(header, "<> ")
		return Address{Name: localPart(raw), Email: raw}
	}

	name := parsed.Name
	if name == "" {
		name = localPart(parsed.Address)
	}
	return Address{Name: name, Email: parsed.Address}
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// String renders the address as "name <email>", or as the bare email when
// the name is empty or just repeats the address.
func (a Address) String() string {
	if a.Name != "" && a.Name != a.Email {
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	}
	return a.Email
}

// Short returns the most compact human label for the address.
func (a Address) Short() string {
	if a.Name != "" {
		return a.Name
	}
	return localPart(a.Email)
}

// Attachment is a decoded message part saved apart from the body.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Payload     []byte `json:"-"`
}

// SizeHuman renders the payload size with binary (1024-based) thresholds.
func (a Attachment) SizeHuman() string {
	switch {
	case a.Size < 1024:
		return fmt.Sprintf("%d B", a.Size)
	case a.Size < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(a.Size)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(a.Size)/(1024*1024))
	}
}

// EmailHeader is the lightweight form of a message used for listings; it
// carries everything a listing row needs without the body ever having
// been downloaded.
type EmailHeader struct {
	UID            string    `json:"uid"`
	Subject        string    `json:"subject"`
	Sender         Address   `json:"sender"`
	Date           time.Time `json:"date"`
	Flags          FlagSet   `json:"flags,omitempty"`
	HasAttachments bool      `json:"has_attachments"`
}

// IsUnread reports whether the message lacks the seen marker.
func (h *EmailHeader) IsUnread() bool {
	return !h.Flags.Has(FlagSeen)
}

// IsFlagged reports whether the message carries the flagged marker.
func (h *EmailHeader) IsFlagged() bool {
	return h.Flags.Has(FlagFlagged)
}

// Email is a fully parsed message including bodies and attachments.
type Email struct {
	UID         string       `json:"uid"`
	MessageID   string       `json:"message_id"`
	Subject     string       `json:"subject"`
	Sender      Address      `json:"sender"`
	To          []Address    `json:"to"`
	Cc          []Address    `json:"cc,omitempty"`
	Date        time.Time    `json:"date"`
	BodyPlain   string       `json:"body_plain"`
	BodyHTML    string       `json:"body_html,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Flags       FlagSet      `json:"flags,omitempty"`
	InReplyTo   string       `json:"in_reply_to,omitempty"`
	References  string       `json:"references,omitempty"`
}

// IsUnread reports whether the message lacks the seen marker.
func (e *Email) IsUnread() bool {
	return !e.Flags.Has(FlagSeen)
}

// IsFlagged reports whether the message carries the flagged marker.
func (e *Email) IsFlagged() bool {
	return e.Flags.Has(FlagFlagged)
}

// Body returns the plain text body, falling back to HTML when no plain
// part exists.
func (e *Email) Body() string {
	if e.BodyPlain != "" {
		return e.BodyPlain
	}
	return e.BodyHTML
}

// Folder is one mailbox as reported by the server.
type Folder struct {
	Name      string  `json:"name"`
	Delimiter string  `json:"delimiter"`
	Flags     FlagSet `json:"flags,omitempty"`
	Total     int     `json:"total"`
	Unread    int     `json:"unread"`
}

// DisplayName is the last hierarchy segment of the folder name.
func (f Folder) DisplayName() string {
	if f.Delimiter == "" {
		return f.Name
	}
	parts := strings.Split(f.Name, f.Delimiter)
	return parts[len(parts)-1]
}
