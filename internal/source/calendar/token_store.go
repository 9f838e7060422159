package calendar

import (
	"golang.org/x/oauth2"

	"github.com/nhle/branch-tracker/internal/credential"
)

// KeyringTokenStore keeps the OAuth token in the credential store.
type KeyringTokenStore struct {
	Creds *credential.Store
	Key   string
}

// NewKeyringTokenStore stores the token under credential.KeyCalendarToken.
func NewKeyringTokenStore(creds *credential.Store) *KeyringTokenStore {
	return &KeyringTokenStore{Creds: creds, Key: credential.KeyCalendarToken}
}

func (k *KeyringTokenStore) LoadToken() (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := k.Creds.GetJSON(k.Key, &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

func (k *KeyringTokenStore) SaveToken(tok *oauth2.Token) error {
	return k.Creds.SetJSON(k.Key, tok)
}

// Forget removes the stored token.
func (k *KeyringTokenStore) Forget() error {
	return k.Creds.Delete(k.Key)
}
