package auth

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"downtimelog/db"
	"downtimelog/store"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	dbPath := "./test_auth.db"
	conn, err := db.Open(dbPath)
	if err != nil {
		panic(err)
	}
	testDB = conn

	code := m.Run()

	testDB.Close()
	os.Remove(dbPath)
	os.Exit(code)
}

func newService() *Service {
	return NewService(store.NewUserStore(testDB))
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	require.NoError(t, svc.Register(ctx, "alice", "s3cret"))
	assert.NoError(t, svc.Authenticate(ctx, "alice", "s3cret"))
}

func TestRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	require.NoError(t, svc.Register(ctx, "bob", "pw-one"))
	assert.ErrorIs(t, svc.Register(ctx, "bob", "pw-two"), store.ErrConflict)
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	ctx := context.Background()
	svc := newService()
	users := store.NewUserStore(testDB)

	require.NoError(t, svc.Register(ctx, "carol", "plaintext"))

	u, err := users.GetByUsername(ctx, "carol")
	require.NoError(t, err)
	assert.NotEqual(t, "plaintext", u.Password)
	assert.Contains(t, u.Password, "$2a$10$")
}

func TestAuthenticateFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc := newService()

	require.NoError(t, svc.Register(ctx, "dave", "correct"))

	wrongPassword := svc.Authenticate(ctx, "dave", "wrong")
	unknownUser := svc.Authenticate(ctx, "no-such-user", "whatever")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}
