// Package keyring stores walletlink secrets in the OS keychain.
package keyring

import (
	"errors"
	"fmt"
	"os"

	zkr "github.com/zalando/go-keyring"
)

const serviceName = "walletlink"

// ErrNotFound is returned when no entry exists for an account.
var ErrNotFound = zkr.ErrNotFound

// Get retrieves the secret stored for account.
func Get(account string) (string, error) {
	secret, err := zkr.Get(serviceName, account)
	if err != nil {
		return "", fmt.Errorf("keychain get %s: %w", account, err)
	}
	return secret, nil
}

// Set stores secret for account.
func Set(account, secret string) error {
	if err := zkr.Set(serviceName, account, secret); err != nil {
		return fmt.Errorf("keychain set %s: %w", account, err)
	}
	return nil
}

// Delete removes the entry for account. A missing entry is not an error.
func Delete(account string) error {
	if err := zkr.Delete(serviceName, account); err != nil && !errors.Is(err, zkr.ErrNotFound) {
		return fmt.Errorf("keychain delete %s: %w", account, err)
	}
	return nil
}

// Available returns true if the OS keychain is functional.
// Returns false if WALLETLINK_KEYRING_DISABLED=1 is set (opt-in for headless/CI/Docker).
// Otherwise probes the keychain with a test write/read/delete cycle.
func Available() bool {
	if os.Getenv("WALLETLINK_KEYRING_DISABLED") == "1" {
		return false
	}
	testService := "walletlink-keyring-probe"
	testAccount := "probe"
	if err := zkr.Set(testService, testAccount, "ok"); err != nil {
		return false
	}
	_ = zkr.Delete(testService, testAccount)
	return true
}
