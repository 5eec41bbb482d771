package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Versionwatch/internal/domain/user"
	"github.com/NordCoder/Versionwatch/internal/repository/postgres"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*user.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*user.User{}} }

func (m *memUsers) Create(_ context.Context, u *user.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email {
			return postgres.ErrConflict
		}
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, postgres.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, postgres.ErrNotFound
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestUC(now func() time.Time) (*Usecase, *memUsers) {
	users := newMemUsers()
	return NewUseCase(users, Config{Secret: testSecret, Issuer: "versionwatch", Now: now}), users
}

func TestRegisterIssuesParsableToken(t *testing.T) {
	t.Parallel()
	uc, users := newTestUC(nil)
	name := "  Ada "

	u, token, err := uc.Register(context.Background(), " Ada@Example.COM ", &name)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", u.Email)
	require.NotNil(t, u.Name)
	assert.Equal(t, "Ada", *u.Name)
	assert.NotEmpty(t, u.ID)

	stored, err := users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, stored.Email)

	sub, err := uc.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, sub)
}

func TestRegisterRejects(t *testing.T) {
	t.Parallel()
	uc, _ := newTestUC(nil)
	ctx := context.Background()

	_, _, err := uc.Register(ctx, "not-an-email", nil)
	require.ErrorIs(t, err, ErrInvalidEmail)

	_, _, err = uc.Register(ctx, "a@b.io", nil)
	require.NoError(t, err)
	_, _, err = uc.Register(ctx, "A@B.io", nil)
	require.ErrorIs(t, err, ErrEmailExists)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	uc, _ := newTestUC(nil)
	ctx := context.Background()

	_, _, err := uc.Login(ctx, "ghost@b.io")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	reg, _, err := uc.Register(ctx, "a@b.io", nil)
	require.NoError(t, err)
	got, token, err := uc.Login(ctx, "A@b.io")
	require.NoError(t, err)
	assert.Equal(t, reg.ID, got.ID)
	assert.NotEmpty(t, token)
}

func TestParseAccessRejects(t *testing.T) {
	t.Parallel()
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := issued
	uc, _ := newTestUC(func() time.Time { return clock })
	u, token, err := uc.Register(context.Background(), "a@b.io", nil)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		clock = issued.Add(DefaultAccessTTL + time.Minute)
		defer func() { clock = issued }()
		_, err := uc.ParseAccess(token)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewUseCase(newMemUsers(), Config{Secret: []byte("another-secret-another-secret-xx"), Issuer: "versionwatch", Now: func() time.Time { return issued }})
		_, err := other.ParseAccess(token)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewUseCase(newMemUsers(), Config{Secret: testSecret, Issuer: "someone-else", Now: func() time.Time { return issued }})
		_, err := other.ParseAccess(token)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("none alg", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    "versionwatch",
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = uc.ParseAccess(unsigned)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("no expiry", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: u.ID, Issuer: "versionwatch"}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		require.NoError(t, err)
		_, err = uc.ParseAccess(signed)
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := uc.ParseAccess("abc.def.ghi")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
