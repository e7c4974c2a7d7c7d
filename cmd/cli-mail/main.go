package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/colin/cli-mail/internal/commands"
	"github.com/colin/cli-mail/internal/config"
	"github.com/colin/cli-mail/internal/credential"
	"github.com/colin/cli-mail/internal/email"
)

func main() {
	root := &cobra.Command{
		Use:           "cli-mail",
		Short:         "Read, search and send mail from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	password, fromKeyring, err := loadPassword(cfg.Account.Email)
	if err != nil {
		return err
	}

	session := email.NewSession(cfg.Account, logger)
	session.SetSearchLimit(cfg.SearchResultLimit)

	if err := session.Connect(password); err != nil {
		return fmt.Errorf("connecting as %s: %w", cfg.Account.Email, err)
	}
	defer session.Disconnect()

	// Only remember the password once it has actually worked.
	if !fromKeyring {
		if err := credential.Set(cfg.Account.Email, password); err != nil {
			logger.WithError(err).Debug("Could not store password in keyring")
		}
	}

	total, unseen := session.FolderStatus("INBOX")
	fmt.Printf("Connected as %s. INBOX: %d messages, %d unread.\n", cfg.Account.Email, total, unseen)
	fmt.Println("Type /help for commands.")

	sender := email.NewSender(cfg.Account, logger)
	app := commands.NewApp(cfg, session, sender, logger, password)
	return app.Run()
}

// loadPassword finds the account password: the system keyring first,
// then the MAIL_PASSWORD environment variable, then an interactive
// prompt.
func loadPassword(account string) (password string, fromKeyring bool, err error) {
	if stored, err := credential.Get(account); err == nil && stored != "" {
		return stored, true, nil
	}

	if env := os.Getenv("MAIL_PASSWORD"); env != "" {
		return env, false, nil
	}

	fmt.Printf("Password for %s: ", account)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", false, fmt.Errorf("reading password: %w", err)
	}
	if len(raw) == 0 {
		return "", false, fmt.Errorf("no password given")
	}
	return string(raw), false, nil
}
