package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockUserRepo struct {
	byID    map[string]*User
	byEmail map[string]*User
}

func newUserRepo() *mockUserRepo {
	return &mockUserRepo{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return ErrEmailTaken
	}
	stored := *u
	m.byID[u.ID] = &stored
	m.byEmail[u.Email] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]User, int64, error) {
	return nil, 0, nil
}

func (m *mockUserRepo) SetBlocked(_ context.Context, id string, blocked bool) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	u.Blocked = blocked
	copied := *u
	return &copied, nil
}

// --- Helpers ---

func newTestAuth(repo Repository) *AuthService {
	return NewAuthService(repo, []byte("test-secret"), time.Hour)
}

func registerTestUser(t *testing.T, svc *AuthService) *User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Jordan",
		Email:    "jordan@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	return u
}

// --- Tests ---

func TestRegister_NormalizesEmail(t *testing.T) {
	svc := newTestAuth(newUserRepo())

	u, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "  Jordan  ",
		Email:    "  Jordan@Example.COM ",
		Password: "hunter22",
	})
	require.NoError(t, err)

	assert.Equal(t, "jordan@example.com", u.Email)
	assert.Equal(t, "Jordan", u.Name)
	assert.Equal(t, RoleUser, u.Role)
	assert.NotEmpty(t, u.ID)
	assert.NotEqual(t, "hunter22", u.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestAuth(newUserRepo())
	registerTestUser(t, svc)

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Impostor",
		Email:    "JORDAN@example.com",
		Password: "different",
	})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_Success(t *testing.T) {
	svc := newTestAuth(newUserRepo())
	registered := registerTestUser(t, svc)

	u, token, err := svc.Login(context.Background(), "jordan@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
	assert.NotEmpty(t, token)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestAuth(newUserRepo())
	registerTestUser(t, svc)

	_, _, err := svc.Login(context.Background(), "jordan@example.com", "wrong")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestAuth(newUserRepo())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "hunter22")
	require.ErrorIs(t, err, ErrBadCredentials)
}

func TestLogin_BlockedAccount(t *testing.T) {
	repo := newUserRepo()
	svc := newTestAuth(repo)
	u := registerTestUser(t, svc)

	_, err := repo.SetBlocked(context.Background(), u.ID, true)
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "jordan@example.com", "hunter22")
	require.ErrorIs(t, err, ErrBlocked)
}

func TestVerifyToken_RoundTrip(t *testing.T) {
	svc := newTestAuth(newUserRepo())
	registered := registerTestUser(t, svc)

	_, token, err := svc.Login(context.Background(), "jordan@example.com", "hunter22")
	require.NoError(t, err)

	u, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, u.ID)
}

func TestVerifyToken_Garbage(t *testing.T) {
	svc := newTestAuth(newUserRepo())

	_, err := svc.VerifyToken(context.Background(), "not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	repo := newUserRepo()
	svc := newTestAuth(repo)
	registerTestUser(t, svc)

	_, token, err := svc.Login(context.Background(), "jordan@example.com", "hunter22")
	require.NoError(t, err)

	other := NewAuthService(repo, []byte("different-secret"), time.Hour)
	_, err = other.VerifyToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_Expired(t *testing.T) {
	repo := newUserRepo()
	svc := NewAuthService(repo, []byte("test-secret"), -time.Minute)
	registerTestUser(t, svc)

	_, token, err := svc.Login(context.Background(), "jordan@example.com", "hunter22")
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_BlockTakesEffectImmediately(t *testing.T) {
	repo := newUserRepo()
	svc := newTestAuth(repo)
	u := registerTestUser(t, svc)

	_, token, err := svc.Login(context.Background(), "jordan@example.com", "hunter22")
	require.NoError(t, err)

	// Block after the token was issued; the live lookup must reject it.
	_, err = repo.SetBlocked(context.Background(), u.ID, true)
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	require.ErrorIs(t, err, ErrBlocked)
}
