package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func newProvider() *Static {
	return NewStatic("admin-uid", map[string]Identity{
		"admin-token":   {ID: "admin-uid", Email: "admin@example.com"},
		"visitor-token": {ID: "visitor-uid", Email: "visitor@example.com"},
	})
}

func TestSignIn(t *testing.T) {
	p := newProvider()

	var gotIdentity *Identity
	var gotAdmin bool
	p.Subscribe(func(identity *Identity, isAdmin bool) {
		gotIdentity = identity
		gotAdmin = isAdmin
	})

	identity, err := p.SignIn("admin-token")
	require.NoError(t, err)
	require.Equal(t, "admin-uid", identity.ID)
	require.NotNil(t, gotIdentity)
	require.True(t, gotAdmin)

	identity, err = p.SignIn("visitor-token")
	require.NoError(t, err)
	require.Equal(t, "visitor-uid", identity.ID)
	require.False(t, gotAdmin)

	_, err = p.SignIn("bogus")
	require.True(t, errors.Is(err, ErrUnknownToken))
}

func TestSignOutNotifiesSubscribers(t *testing.T) {
	p := newProvider()
	_, err := p.SignIn("admin-token")
	require.NoError(t, err)

	var calls int
	p.Subscribe(func(identity *Identity, isAdmin bool) {
		calls++
		require.Nil(t, identity)
		require.False(t, isAdmin)
	})
	p.SignOut()
	require.Equal(t, 1, calls)

	_, ok := p.Current()
	require.False(t, ok)
}
