// Package wallet drives the wallet extension's first-run wizard along the
// restore-from-seed-phrase path.
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/neboloop/walletlink/internal/browser"
	"github.com/neboloop/walletlink/internal/keyring"
)

const (
	// EnvPhrases holds the seed phrase as a JSON array of strings.
	EnvPhrases = "PHRASES"

	keyringAccount = "phrases"
)

// SeedPhrase is an ordered 24-word mnemonic. It is only ever held in memory.
type SeedPhrase []string

// ParseSeedPhrase decodes a JSON array of exactly SeedWords strings.
func ParseSeedPhrase(raw string) (SeedPhrase, error) {
	var words []string
	if err := json.Unmarshal([]byte(raw), &words); err != nil {
		return nil, &browser.ConfigurationError{Field: "seed phrase", Err: fmt.Errorf("expected a JSON array of strings: %w", err)}
	}
	phrase := SeedPhrase(words)
	if err := phrase.Validate(); err != nil {
		return nil, err
	}
	return phrase, nil
}

// Validate checks the phrase has exactly SeedWords non-empty words.
func (p SeedPhrase) Validate() error {
	if len(p) != SeedWords {
		return &browser.ConfigurationError{Field: "seed phrase", Err: fmt.Errorf("expected %d words, got %d", SeedWords, len(p))}
	}
	for i, w := range p {
		if strings.TrimSpace(w) == "" {
			return &browser.ConfigurationError{Field: "seed phrase", Err: fmt.Errorf("word %d is empty", i+1)}
		}
	}
	return nil
}

// String never reveals the words.
func (p SeedPhrase) String() string {
	return fmt.Sprintf("SeedPhrase(%d words)", len(p))
}

// LoadSeedPhrase reads the phrase from PHRASES, falling back to the OS keychain
// entry written by StoreSeedPhrase.
func LoadSeedPhrase() (SeedPhrase, error) {
	if raw := os.Getenv(EnvPhrases); raw != "" {
		return ParseSeedPhrase(raw)
	}
	if !keyring.Available() {
		return nil, &browser.ConfigurationError{Field: "seed phrase", Err: fmt.Errorf("%s is not set and the keychain is unavailable", EnvPhrases)}
	}

	raw, err := keyring.Get(keyringAccount)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			err = fmt.Errorf("%s is not set and no keychain entry exists", EnvPhrases)
		}
		return nil, &browser.ConfigurationError{Field: "seed phrase", Err: err}
	}
	return ParseSeedPhrase(raw)
}

// StoreSeedPhrase saves the phrase in the OS keychain.
func StoreSeedPhrase(p SeedPhrase) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal([]string(p))
	if err != nil {
		return err
	}
	return keyring.Set(keyringAccount, string(data))
}

// DeleteSeedPhrase removes the keychain entry. A missing entry is not an error.
func DeleteSeedPhrase() error {
	return keyring.Delete(keyringAccount)
}
