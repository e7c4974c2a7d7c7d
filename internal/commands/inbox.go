package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/colin/cli-mail/pkg/types"
)

var cmdInbox = &Command{
	Name:        "inbox",
	Aliases:     []string{"i", "list", "ls"},
	Description: "Show the current page of the selected folder",
	Usage:       "/inbox",
	Run: func(a *App, args []string) error {
		a.offset = 0
		return a.showPage()
	},
}

var cmdNext = &Command{
	Name:        "next",
	Aliases:     []string{"n"},
	Description: "Show the next (older) page",
	Usage:       "/next",
	Run: func(a *App, args []string) error {
		a.offset += a.cfg.PageSize
		return a.showPage()
	},
}

var cmdPrev = &Command{
	Name:        "prev",
	Aliases:     []string{"p"},
	Description: "Show the previous (newer) page",
	Usage:       "/prev",
	Run: func(a *App, args []string) error {
		a.offset -= a.cfg.PageSize
		if a.offset < 0 {
			a.offset = 0
		}
		return a.showPage()
	},
}

var cmdRefresh = &Command{
	Name:        "refresh",
	Description: "Reload the selected folder",
	Usage:       "/refresh",
	Run: func(a *App, args []string) error {
		return a.selectAndList(a.folder)
	},
}

var cmdAccount = &Command{
	Name:        "account",
	Description: "Show the connected account",
	Usage:       "/account",
	Run: func(a *App, args []string) error {
		acc := a.cfg.Account
		fmt.Fprintf(a.out, "%s (imap %s:%d, smtp %s:%d)\n",
			acc.Email, acc.IMAPHost, acc.IMAPPort, acc.SMTPHost, acc.SMTPPort)
		return nil
	},
}

var cmdHelp = &Command{
	Name:        "help",
	Aliases:     []string{"h", "?"},
	Description: "List available commands",
	Usage:       "/help",
	Run: func(a *App, args []string) error {
		for _, cmd := range a.registry.Commands() {
			fmt.Fprintf(a.out, "  %-24s %s\n", cmd.Usage, cmd.Description)
		}
		fmt.Fprintln(a.out, "\nA bare number opens that message; any other text searches.")
		return nil
	},
}

var cmdQuit = &Command{
	Name:        "quit",
	Aliases:     []string{"q", "exit"},
	Description: "Exit",
	Usage:       "/quit",
	Run: func(a *App, args []string) error {
		return errQuit
	},
}

// printListing renders a page of headers as a table, newest first.
func printListing(w io.Writer, headers []*types.EmailHeader) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "", "From", "Subject", "Date"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)

	for i, h := range headers {
		table.Append([]string{
			strconv.Itoa(i + 1),
			markers(h),
			truncate(h.Sender.Short(), 24),
			truncate(h.Subject, 50),
			h.Date.Format("Jan 02 15:04"),
		})
	}
	table.Render()
}

// markers is the short status column: N for unread, * for flagged, @
// for attachments.
func markers(h *types.EmailHeader) string {
	m := ""
	if h.IsUnread() {
		m += "N"
	}
	if h.IsFlagged() {
		m += "*"
	}
	if h.HasAttachments {
		m += "@"
	}
	return m
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
