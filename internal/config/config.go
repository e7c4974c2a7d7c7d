package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Defaults for policy knobs that are deliberate choices rather than
// protocol requirements.
const (
	DefaultPageSize          = 20
	DefaultSearchResultLimit = 50
)

// DefaultArchiveFolders are the folder names tried, in order, when a
// message is archived.
var DefaultArchiveFolders = []string{"[Gmail]/All Mail", "Archive", "Archives"}

// Config holds the application configuration.
type Config struct {
	LogLevel          string
	PageSize          int
	SearchResultLimit int
	ArchiveFolders    []string

	Account AccountConfig
}

// AccountConfig holds the connection settings for a single mail account.
type AccountConfig struct {
	Name  string
	Email string

	IMAPHost string
	IMAPPort int
	SMTPHost string
	SMTPPort int
	UseTLS   bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		PageSize:          getEnvInt("PAGE_SIZE", DefaultPageSize),
		SearchResultLimit: getEnvInt("SEARCH_RESULT_LIMIT", DefaultSearchResultLimit),
		ArchiveFolders:    getEnvList("ARCHIVE_FOLDERS", DefaultArchiveFolders),
		Account: AccountConfig{
			Name:     getEnv("MAIL_ACCOUNT_NAME", ""),
			Email:    getEnv("MAIL_EMAIL", ""),
			IMAPHost: getEnv("MAIL_IMAP_HOST", ""),
			IMAPPort: getEnvInt("MAIL_IMAP_PORT", 993),
			SMTPHost: getEnv("MAIL_SMTP_HOST", ""),
			SMTPPort: getEnvInt("MAIL_SMTP_PORT", 587),
			UseTLS:   getEnvBool("MAIL_USE_TLS", true),
		},
	}

	cfg.Account.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Normalize fills derived account fields: the account name defaults to the
// local part of the email address, and the SMTP host is inferred from the
// IMAP host when not set explicitly.
func (a *AccountConfig) Normalize() {
	if a.Name == "" && a.Email != "" {
		a.Name = strings.SplitN(a.Email, "@", 2)[0]
	}
	if a.SMTPHost == "" && a.IMAPHost != "" {
		a.SMTPHost = strings.Replace(a.IMAPHost, "imap", "smtp", 1)
	}
	if a.IMAPPort == 0 {
		a.IMAPPort = 993
	}
	if a.SMTPPort == 0 {
		a.SMTPPort = 587
	}
}

// Validate checks the configuration for missing or out-of-range values.
func (c *Config) Validate() error {
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be positive")
	}
	if c.SearchResultLimit < 1 || c.SearchResultLimit > 1000 {
		return fmt.Errorf("SEARCH_RESULT_LIMIT must be between 1 and 1000")
	}

	acc := &c.Account
	if acc.Email == "" || !strings.Contains(acc.Email, "@") {
		return fmt.Errorf("MAIL_EMAIL is required and must be an email address")
	}
	if acc.IMAPHost == "" {
		return fmt.Errorf("MAIL_IMAP_HOST is required")
	}
	if acc.SMTPHost == "" {
		return fmt.Errorf("MAIL_SMTP_HOST is required")
	}
	if acc.IMAPPort < 1 || acc.IMAPPort > 65535 {
		return fmt.Errorf("account %s: invalid MAIL_IMAP_PORT", acc.Name)
	}
	if acc.SMTPPort < 1 || acc.SMTPPort > 65535 {
		return fmt.Errorf("account %s: invalid MAIL_SMTP_PORT", acc.Name)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as an integer or returns a
// default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as a boolean or returns a
// default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable or returns a
// default value.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
