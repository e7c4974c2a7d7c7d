package credential

import (
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "cli-mail"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/cli-mail/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("cli-mail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves the stored password for an account. A missing entry or an
// unavailable keyring backend surfaces as an error; callers fall back to
// other password sources.
func Get(account string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(account)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", account, err)
	}
	return string(item.Data), nil
}

// Set stores the password for an account in the system keyring.
func Set(account, password string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Set(keyring.Item{Key: account, Data: []byte(password)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", account, err)
	}
	return nil
}

// Delete removes the stored password for an account.
func Delete(account string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err := ring.Remove(account); err != nil {
		return fmt.Errorf("deleting credential %q: %w", account, err)
	}
	return nil
}
