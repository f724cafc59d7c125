package flow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentityFromInitData(t *testing.T) {
	backend := newFakeBackend(t)
	backend.verifyUser = "alice"
	controller, _, store := newTestController(t, backend)

	identity := controller.ResolveIdentity(context.Background(), ResolveOptions{InitData: "query_id=1&user=..."})
	assert.Equal(t, IdentityTelegramInit, identity.Source)
	assert.Equal(t, int64(42), identity.UserID)
	assert.Equal(t, "alice", identity.Username)

	session, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, session.Identity)
	assert.Equal(t, int64(42), session.Identity.UserID)
}

func TestResolveIdentityInitFailureIsAnonymous(t *testing.T) {
	backend := newFakeBackend(t)
	backend.verifyError = "Недействительные данные"
	controller, notifier, _ := newTestController(t, backend)

	// a token is also supplied but must not be tried: a rejected host
	// verification does not fall through to weaker sources
	identity := controller.ResolveIdentity(context.Background(), ResolveOptions{
		InitData: "query_id=1&user=...",
		Token:    "tok-1",
	})
	assert.Equal(t, IdentityAnonymous, identity.Source)
	assert.True(t, identity.Anonymous())

	backend.mu.Lock()
	calls := backend.verifyCalls
	backend.mu.Unlock()
	assert.Equal(t, 1, calls)

	events := notifier.all()
	require.NotEmpty(t, events)
	assert.Contains(t, events[0], "Ошибка авторизации")
	assert.Contains(t, events[0], "Недействительные данные")
}

func TestResolveIdentityTokenNeverPersisted(t *testing.T) {
	backend := newFakeBackend(t)
	backend.verifyUser = "alice"

	path := filepath.Join(t.TempDir(), "session.json")
	notifier := &recordingNotifier{}
	controller := NewController(Options{
		ServerURL:    backend.server.URL,
		Store:        NewFileStore(path),
		Notifier:     notifier,
		PollInterval: testPollInterval,
	})

	identity := controller.ResolveIdentity(context.Background(), ResolveOptions{Token: "secret-token-xyz"})
	assert.Equal(t, IdentityURLToken, identity.Source)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token-xyz")
}

func TestResolveIdentityCachedSession(t *testing.T) {
	backend := newFakeBackend(t)
	controller, _, store := newTestController(t, backend)

	require.NoError(t, store.Save(&Session{
		Identity: &Identity{Source: IdentityURLToken, UserID: 42, Username: "alice"},
	}))

	identity := controller.ResolveIdentity(context.Background(), ResolveOptions{})
	assert.Equal(t, IdentityCookieCached, identity.Source)
	assert.Equal(t, int64(42), identity.UserID)

	backend.mu.Lock()
	calls := backend.verifyCalls
	backend.mu.Unlock()
	assert.Zero(t, calls)
}

func TestResolveIdentityResolvesOnce(t *testing.T) {
	backend := newFakeBackend(t)
	backend.verifyUser = "alice"
	controller, _, _ := newTestController(t, backend)

	first := controller.ResolveIdentity(context.Background(), ResolveOptions{Token: "tok-1"})
	second := controller.ResolveIdentity(context.Background(), ResolveOptions{Token: "tok-2"})
	assert.Equal(t, first, second)

	backend.mu.Lock()
	calls := backend.verifyCalls
	backend.mu.Unlock()
	assert.Equal(t, 1, calls)
}
