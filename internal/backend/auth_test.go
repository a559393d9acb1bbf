package backend

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darwiniquina/daily-task/internal/backend/backendtest"
)

func newAuthEnv(t *testing.T, sessionPath string) (*backendtest.Server, *Auth) {
	t.Helper()
	fake := backendtest.New()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	return fake, NewAuthWithPath(srv.URL, "anon-key", sessionPath)
}

func TestSignInStoresSession(t *testing.T) {
	fake, auth := newAuthEnv(t, "")
	fake.AddUser("dev@example.com", "hunter2", "u1", map[string]any{"full_name": "Dev One"})

	var notified []*Session
	auth.OnChange(func(s *Session) { notified = append(notified, s) })

	require.NoError(t, auth.SignIn(t.Context(), "dev@example.com", "hunter2"))

	user := auth.User()
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "dev@example.com", user.Email)
	assert.Equal(t, "Dev One", user.Metadata["full_name"])
	assert.Equal(t, "test-token-u1", auth.Token())

	require.Len(t, notified, 1)
	require.NotNil(t, notified[0])

	require.NoError(t, auth.SignOut())
	assert.Nil(t, auth.User())
	assert.Empty(t, auth.Token())
	require.Len(t, notified, 2)
	assert.Nil(t, notified[1])
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	fake, auth := newAuthEnv(t, "")
	fake.AddUser("dev@example.com", "hunter2", "u1", nil)

	err := auth.SignIn(t.Context(), "dev@example.com", "wrong")
	require.Error(t, err)
	assert.Nil(t, auth.User())
}

func TestSessionSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	fake, auth := newAuthEnv(t, path)
	fake.AddUser("dev@example.com", "hunter2", "u1", nil)

	require.NoError(t, auth.SignIn(t.Context(), "dev@example.com", "hunter2"))

	restored := NewAuthWithPath("http://unused", "anon-key", path)
	user := restored.User()
	require.NotNil(t, user, "persisted session must be restored")
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "test-token-u1", restored.Token())

	require.NoError(t, auth.SignOut())
	wiped := NewAuthWithPath("http://unused", "anon-key", path)
	assert.Nil(t, wiped.User(), "sign-out must remove the persisted session")
}
