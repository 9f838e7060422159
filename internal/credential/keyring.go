package credential

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "branchtracker"

// Well-known credential keys.
const (
	KeyCalendarToken = "google-calendar-token"
	keyIMAPPrefix    = "imap-"
)

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = keyring.ErrKeyNotFound

// IMAPKey returns the keyring key holding the IMAP password for username.
func IMAPKey(username string) string {
	return keyIMAPPrefix + username
}

// Store reads and writes secrets in a keyring.
type Store struct {
	ring keyring.Keyring
}

// NewStore wraps an already opened keyring.
func NewStore(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open returns a Store backed by the system keyring, falling back to
// an encrypted file under ~/.config/branchtracker/credentials.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/branchtracker/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("branchtracker-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewStore(ring), nil
}

// Get retrieves a credential value by key.
func (s *Store) Get(key string) (string, error) {
	item, err := s.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), nil
}

// Set stores a credential value by key.
func (s *Store) Set(key string, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

// Delete removes a credential by key. Deleting a missing key is not an
// error.
func (s *Store) Delete(key string) error {
	err := s.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}
	return nil
}

// GetJSON decodes the JSON credential stored under key into v.
func (s *Store) GetJSON(key string, v any) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding credential %q: %w", key, err)
	}
	return nil
}

// SetJSON stores v as JSON under key.
func (s *Store) SetJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding credential %q: %w", key, err)
	}
	return s.Set(key, string(data))
}
