package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhillyerd/enmime"
	"github.com/sirupsen/logrus"

	"github.com/colin/cli-mail/internal/config"
	"github.com/colin/cli-mail/pkg/types"
)

const (
	replyPrefix   = "Re: "
	forwardPrefix = "Fwd: "

	// Port 465 speaks TLS from the first byte; everything else starts
	// plaintext and upgrades.
	implicitTLSPort = 465
)

// OutgoingMessage is a message ready for submission.
type OutgoingMessage struct {
	To         []string
	Cc         []string
	Subject    string
	Body       string
	InReplyTo  string
	References string
}

// BuildReply prepares a reply to a message: subject prefixed once,
// threading headers chained, addressed to the original sender.
func BuildReply(original *types.Email) OutgoingMessage {
	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = replyPrefix + subject
	}

	refs := strings.TrimSpace(strings.TrimSpace(original.References) + " " + original.MessageID)

	return OutgoingMessage{
		To:         []string{original.Sender.String()},
		Subject:    subject,
		InReplyTo:  original.MessageID,
		References: refs,
	}
}

// BuildForward prepares a forward of a message: subject prefixed once
// and the original quoted below a separator. The recipient is left for
// the caller to fill in.
func BuildForward(original *types.Email) OutgoingMessage {
	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "fwd:") {
		subject = forwardPrefix + subject
	}

	var b strings.Builder
	b.WriteString("\n\n---------- Forwarded message ----------\n")
	fmt.Fprintf(&b, "From: %s\n", original.Sender.String())
	fmt.Fprintf(&b, "Date: %s\n", original.Date.Format("Mon, Jan 02, 2006 at 03:04 PM"))
	fmt.Fprintf(&b, "Subject: %s\n", original.Subject)
	fmt.Fprintf(&b, "To: %s\n\n", joinAddresses(original.To))
	b.WriteString(original.Body())

	return OutgoingMessage{
		Subject: subject,
		Body:    b.String(),
	}
}

func joinAddresses(addrs []types.Address) string {
	parts := make([]string, len(addrs))
	for i, a := range addrs {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// Sender submits outgoing messages for one account.
type Sender struct {
	account config.AccountConfig
	logger  *logrus.Logger
}

// NewSender creates a sender for an account.
func NewSender(account config.AccountConfig, logger *logrus.Logger) *Sender {
	if logger == nil {
		logger = logrus.New()
	}
	return &Sender{account: account, logger: logger}
}

// Send builds the MIME message and submits it over SMTP.
func (s *Sender) Send(password string, msg OutgoingMessage) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	raw, err := s.buildMessage(msg)
	if err != nil {
		return err
	}

	recipients := append(append([]string{}, msg.To...), msg.Cc...)
	if err := s.submit(password, recipients, raw); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}).Info("Message sent")
	return nil
}

// buildMessage renders the outgoing message into wire-format MIME.
func (s *Sender) buildMessage(msg OutgoingMessage) ([]byte, error) {
	builder := enmime.Builder().
		From(s.account.Name, s.account.Email).
		ToAddrs(toMailAddresses(msg.To)).
		Subject(msg.Subject).
		Text([]byte(msg.Body)).
		Header("Date", time.Now().Format(time.RFC1123Z)).
		Header("Message-Id", fmt.Sprintf("<%s@%s>", uuid.New().String(), s.account.SMTPHost))

	if len(msg.Cc) > 0 {
		builder = builder.CCAddrs(toMailAddresses(msg.Cc))
	}
	if msg.InReplyTo != "" {
		builder = builder.Header("In-Reply-To", msg.InReplyTo)
	}
	if msg.References != "" {
		builder = builder.Header("References", msg.References)
	}

	part, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("building message: %w", err)
	}

	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encoding message: %w", err)
	}
	return buf.Bytes(), nil
}

// submit delivers the raw message over SMTP, speaking implicit TLS on
// port 465 and STARTTLS otherwise.
func (s *Sender) submit(password string, recipients []string, raw []byte) error {
	addr := fmt.Sprintf("%s:%d", s.account.SMTPHost, s.account.SMTPPort)

	var (
		c   *smtp.Client
		err error
	)
	if s.account.SMTPPort == implicitTLSPort {
		conn, dialErr := tls.Dial("tcp", addr, &tls.Config{ServerName: s.account.SMTPHost})
		if dialErr != nil {
			return fmt.Errorf("connecting to %s: %w", addr, dialErr)
		}
		c, err = smtp.NewClient(conn, s.account.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("greeting %s: %w", addr, err)
		}
	} else {
		c, err = smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("connecting to %s: %w", addr, err)
		}
		if err := c.StartTLS(&tls.Config{ServerName: s.account.SMTPHost}); err != nil {
			c.Close()
			return fmt.Errorf("starting TLS with %s: %w", addr, err)
		}
	}
	defer c.Close()

	auth := smtp.PlainAuth("", s.account.Email, password, s.account.SMTPHost)
	if err := c.Auth(auth); err != nil {
		return fmt.Errorf("authenticating as %s: %w", s.account.Email, err)
	}

	if err := c.Mail(s.account.Email); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(bareAddress(rcpt)); err != nil {
			return fmt.Errorf("adding recipient %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("opening data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message: %w", err)
	}

	return c.Quit()
}

func toMailAddresses(list []string) []netmail.Address {
	addrs := make([]netmail.Address, 0, len(list))
	for _, raw := range list {
		if parsed, err := netmail.ParseAddress(raw); err == nil {
			addrs = append(addrs, *parsed)
			continue
		}
		addrs = append(addrs, netmail.Address{Address: strings.Trim(raw, "<> ")})
	}
	return addrs
}

func bareAddress(raw string) string {
	if parsed, err := netmail.ParseAddress(raw); err == nil {
		return parsed.Address
	}
	return strings.Trim(raw, "<> ")
}
