package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/colin/cli-mail/internal/email"
	"github.com/colin/cli-mail/pkg/types"
)

var cmdCompose = &Command{
	Name:        "compose",
	Aliases:     []string{"c", "new"},
	Description: "Compose a new message",
	Usage:       "/compose",
	Run: func(a *App, args []string) error {
		to, err := a.promptLine("To: ")
		if err != nil {
			return err
		}
		if to == "" {
			return fmt.Errorf("no recipient")
		}
		subject, err := a.promptLine("Subject: ")
		if err != nil {
			return err
		}

		body, ok, err := a.collectBody()
		if err != nil || !ok {
			return err
		}

		msg := email.OutgoingMessage{
			To:      splitRecipients(to),
			Subject: subject,
			Body:    body,
		}
		return a.sendMessage(msg)
	},
}

var cmdReply = &Command{
	Name:        "reply",
	Aliases:     []string{"re"},
	Description: "Reply to a message",
	Usage:       "/reply <n>",
	Run: func(a *App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s", "/reply <n>")
		}
		original, err := a.fetchForCompose(args[0])
		if err != nil {
			return err
		}

		msg := email.BuildReply(original)
		fmt.Fprintf(a.out, "Replying to %s\n", msg.To[0])
		fmt.Fprintf(a.out, "Subject: %s\n", msg.Subject)

		body, ok, err := a.collectBody()
		if err != nil || !ok {
			return err
		}
		msg.Body = body
		return a.sendMessage(msg)
	},
}

var cmdForward = &Command{
	Name:        "forward",
	Aliases:     []string{"fwd"},
	Description: "Forward a message",
	Usage:       "/forward <n>",
	Run: func(a *App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s", "/forward <n>")
		}
		original, err := a.fetchForCompose(args[0])
		if err != nil {
			return err
		}

		msg := email.BuildForward(original)
		to, err := a.promptLine("To: ")
		if err != nil {
			return err
		}
		if to == "" {
			return fmt.Errorf("no recipient")
		}
		msg.To = splitRecipients(to)
		fmt.Fprintf(a.out, "Subject: %s\n", msg.Subject)

		note, ok, err := a.collectBody()
		if err != nil || !ok {
			return err
		}
		msg.Body = note + msg.Body
		return a.sendMessage(msg)
	},
}

func (a *App) fetchForCompose(arg string) (*types.Email, error) {
	header, err := a.headerAt(arg)
	if err != nil {
		return nil, err
	}
	msg, err := a.session.FetchEmail(a.folder, header.UID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("message no longer exists")
	}
	return msg, nil
}

// promptLine prints a prompt and reads one trimmed line.
func (a *App) promptLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// collectBody reads body lines until :send or :cancel. ok is false when
// the user cancelled.
func (a *App) collectBody() (body string, ok bool, err error) {
	fmt.Fprintln(a.out, "Enter message, finish with :send or abort with :cancel")

	var lines []string
	for {
		line, err := a.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(a.out, "cancelled")
				return "", false, nil
			}
			return "", false, err
		}
		switch strings.TrimSpace(line) {
		case ":send":
			return strings.Join(lines, ""), true, nil
		case ":cancel":
			fmt.Fprintln(a.out, "cancelled")
			return "", false, nil
		}
		lines = append(lines, line)
	}
}

func (a *App) sendMessage(msg email.OutgoingMessage) error {
	if err := a.sender.Send(a.password, msg); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "sent")
	return nil
}

func splitRecipients(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
