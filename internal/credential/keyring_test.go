package credential

import (
	"errors"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(keyring.NewArrayKeyring(nil))
}

func TestStore_SetGetDelete(t *testing.T) {
	s := newTestStore()

	require.NoError(t, s.Set(IMAPKey("ops@example.com"), "secret"))

	got, err := s.Get("imap-ops@example.com")
	require.NoError(t, err)
	assert.Equal(t, "secret", got)

	require.NoError(t, s.Delete(IMAPKey("ops@example.com")))
	_, err = s.Get(IMAPKey("ops@example.com"))
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting again is a no-op.
	assert.NoError(t, s.Delete(IMAPKey("ops@example.com")))
}

func TestStore_JSON(t *testing.T) {
	s := newTestStore()

	type token struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, s.SetJSON(KeyCalendarToken, token{AccessToken: "abc"}))

	var got token
	require.NoError(t, s.GetJSON(KeyCalendarToken, &got))
	assert.Equal(t, "abc", got.AccessToken)

	require.NoError(t, s.Set(KeyCalendarToken, "not json"))
	assert.Error(t, s.GetJSON(KeyCalendarToken, &got))
}
