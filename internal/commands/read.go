package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/colin/cli-mail/pkg/types"
)

var cmdRead = &Command{
	Name:        "read",
	Aliases:     []string{"r", "open"},
	Description: "Open a message from the listing",
	Usage:       "/read <n>",
	Run: func(a *App, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("usage: %s", "/read <n>")
		}
		header, err := a.headerAt(args[0])
		if err != nil {
			return err
		}

		msg, err := a.session.FetchEmail(a.folder, header.UID)
		if err != nil {
			return err
		}
		if msg == nil {
			return fmt.Errorf("message no longer exists")
		}

		printEmail(a, msg)
		return nil
	},
}

var cmdSave = &Command{
	Name:        "save",
	Description: "Save an attachment from a message",
	Usage:       "/save <n> <attachment#> [dir]",
	Run: func(a *App, args []string) error {
		if len(args) < 2 || len(args) > 3 {
			return fmt.Errorf("usage: %s", "/save <n> <attachment#> [dir]")
		}
		header, err := a.headerAt(args[0])
		if err != nil {
			return err
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("not an attachment number: %s", args[1])
		}

		msg, err := a.session.FetchEmail(a.folder, header.UID)
		if err != nil {
			return err
		}
		if msg == nil {
			return fmt.Errorf("message no longer exists")
		}
		if idx < 1 || idx > len(msg.Attachments) {
			return fmt.Errorf("message has %d attachments", len(msg.Attachments))
		}

		dir := "."
		if len(args) == 3 {
			dir = args[2]
		}
		att := msg.Attachments[idx-1]
		path := freePath(dir, filepath.Base(att.Filename))
		if err := os.WriteFile(path, att.Payload, 0o644); err != nil {
			return fmt.Errorf("saving attachment: %w", err)
		}

		fmt.Fprintf(a.out, "saved %s (%s)\n", path, att.SizeHuman())
		return nil
	},
}

// freePath returns a path in dir that does not collide with an existing
// file, appending a numeric suffix before the extension when needed.
func freePath(dir, filename string) string {
	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 1; ; i++ {
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path
		}
	}
}

func printEmail(a *App, msg *types.Email) {
	fmt.Fprintf(a.out, "From:    %s\n", msg.Sender.String())
	fmt.Fprintf(a.out, "To:      %s\n", joinShort(msg.To))
	if len(msg.Cc) > 0 {
		fmt.Fprintf(a.out, "Cc:      %s\n", joinShort(msg.Cc))
	}
	fmt.Fprintf(a.out, "Date:    %s\n", msg.Date.Format("Mon, 02 Jan 2006 15:04"))
	fmt.Fprintf(a.out, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(a.out, "\n%s\n", msg.Body())

	if len(msg.Attachments) > 0 {
		fmt.Fprintln(a.out, "\nAttachments:")
		for i, att := range msg.Attachments {
			fmt.Fprintf(a.out, "  %d. %s (%s, %s)\n", i+1, att.Filename, att.ContentType, att.SizeHuman())
		}
	}
}

func joinShort(addrs []types.Address) string {
	out := ""
	for i, addr := range addrs {
		if i > 0 {
			out += ", "
		}
		out += addr.String()
	}
	return out
}
