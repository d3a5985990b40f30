package rules

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailsort/client"
)

type stubSettings struct{ rules []Rule }

func (s stubSettings) Rules() []Rule { return s.rules }

type stubClient struct {
	client.Client

	accounts []client.Account
	err      error
	called   bool
}

func (c *stubClient) ListAccounts(ctx context.Context) ([]client.Account, error) {
	c.called = true
	return c.accounts, c.err
}

func TestStoreGetConfigured(t *testing.T) {
	configured := []Rule{{Expression: "a", Output: "b"}}
	host := &stubClient{}
	store := NewStore(stubSettings{rules: configured}, host)

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, configured, got)
	assert.False(t, host.called, "configured rules must not trigger account enumeration")
}

func TestStoreGetFallsBackToDefault(t *testing.T) {
	host := &stubClient{accounts: []client.Account{
		{Type: "imap", Identities: []client.Identity{{Email: "me@x.com"}}},
	}}
	store := NewStore(stubSettings{}, host)

	got, err := store.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, `([^.]+)@x\.com$`, got[0].Expression)
}

func TestStoreGetAccountListingError(t *testing.T) {
	host := &stubClient{err: errors.New("host down")}
	store := NewStore(stubSettings{}, host)

	_, err := store.Get(context.Background())
	assert.Error(t, err)
}
