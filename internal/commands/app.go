package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/colin/cli-mail/internal/config"
	"github.com/colin/cli-mail/internal/email"
	"github.com/colin/cli-mail/pkg/types"
)

// errQuit signals a clean exit from the command loop.
var errQuit = errors.New("quit")

// App is the interactive shell: a command registry plus the state a
// conversation with the mailbox accumulates (selected folder, current
// page, last listing shown).
type App struct {
	cfg      *config.Config
	session  *email.Session
	sender   *email.Sender
	logger   *logrus.Logger
	registry *Registry
	password string

	in  *bufio.Reader
	out io.Writer

	folder  string
	offset  int
	listing []*types.EmailHeader
}

// NewApp wires up the interactive shell.
func NewApp(cfg *config.Config, session *email.Session, sender *email.Sender, logger *logrus.Logger, password string) *App {
	app := &App{
		cfg:      cfg,
		session:  session,
		sender:   sender,
		logger:   logger,
		registry: NewRegistry(),
		password: password,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		folder:   "INBOX",
	}
	registerAll(app.registry)
	return app
}

func registerAll(r *Registry) {
	r.Register(cmdInbox)
	r.Register(cmdNext)
	r.Register(cmdPrev)
	r.Register(cmdRead)
	r.Register(cmdSave)
	r.Register(cmdFolders)
	r.Register(cmdSwitch)
	r.Register(cmdStar)
	r.Register(cmdDelete)
	r.Register(cmdArchive)
	r.Register(cmdSearch)
	r.Register(cmdRefresh)
	r.Register(cmdAccount)
	r.Register(cmdCompose)
	r.Register(cmdReply)
	r.Register(cmdForward)
	r.Register(cmdHelp)
	r.Register(cmdQuit)
}

// Run selects the inbox, shows its first page and enters the command
// loop until the user quits or input ends.
func (a *App) Run() error {
	if err := a.selectAndList(a.folder); err != nil {
		return err
	}

	for {
		fmt.Fprintf(a.out, "\n[%s] > ", a.folder)
		line, err := a.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := a.dispatch(line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(a.out, "error: %v\n", err)
		}
	}
}

// dispatch routes one input line. A leading slash names a command, a
// bare number opens that message, anything else searches.
func (a *App) dispatch(line string) error {
	if strings.HasPrefix(line, "/") {
		fields := strings.Fields(line[1:])
		if len(fields) == 0 {
			return fmt.Errorf("empty command")
		}
		cmd, ok := a.registry.Get(fields[0])
		if !ok {
			return fmt.Errorf("unknown command /%s, try /help", fields[0])
		}
		return a.withReconnect(func() error { return cmd.Run(a, fields[1:]) })
	}

	if _, err := strconv.Atoi(line); err == nil {
		return a.withReconnect(func() error { return cmdRead.Run(a, []string{line}) })
	}

	return a.withReconnect(func() error { return cmdSearch.Run(a, []string{line}) })
}

// withReconnect runs fn, and on a lost connection reconnects, reselects
// the current folder and retries once.
func (a *App) withReconnect(fn func() error) error {
	err := fn()
	if !errors.Is(err, email.ErrNotConnected) {
		return err
	}

	a.logger.Info("Reconnecting to mail server")
	if err := a.session.Connect(a.password); err != nil {
		return fmt.Errorf("reconnecting: %w", err)
	}
	return fn()
}

// headerAt resolves a 1-based listing row number to its header.
func (a *App) headerAt(arg string) (*types.EmailHeader, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("not a message number: %s", arg)
	}
	if n < 1 || n > len(a.listing) {
		return nil, fmt.Errorf("no message %d on this page", n)
	}
	return a.listing[n-1], nil
}

// selectAndList opens a folder and shows its first page.
func (a *App) selectAndList(folder string) error {
	total, err := a.session.SelectFolder(folder)
	if err != nil {
		return err
	}
	a.folder = folder
	a.offset = 0

	fmt.Fprintf(a.out, "%s: %d messages\n", folder, total)
	return a.showPage()
}

// showPage fetches and prints the current page of the selected folder.
func (a *App) showPage() error {
	headers, err := a.session.FetchHeaders(a.folder, a.offset, a.cfg.PageSize)
	if err != nil {
		return err
	}
	a.listing = headers

	if len(headers) == 0 {
		fmt.Fprintln(a.out, "no messages")
		return nil
	}
	printListing(a.out, headers)
	return nil
}
