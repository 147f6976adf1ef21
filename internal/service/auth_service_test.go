package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"infinity/config"
	"infinity/internal/auth"
	"infinity/internal/database/testdb"
	"infinity/internal/domain"
	"infinity/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	sent []uint
	err  error
}

func (f *fakeVerifier) SendVerification(_ context.Context, userID uint) error {
	f.sent = append(f.sent, userID)
	return f.err
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeVerifier, *config.JWTConfig) {
	t.Helper()
	db := testdb.Open(t)
	jwtCfg := &config.JWTConfig{AccessSecret: "secret", AccessExpiry: time.Hour}
	v := &fakeVerifier{}
	return NewAuthService(jwtCfg, repository.NewUserRepository(db), v), v, jwtCfg
}

func TestRegister_GeneratesUniqueUsernames(t *testing.T) {
	svc, verifier, jwtCfg := newAuthFixture(t)
	ctx := context.Background()

	u1, tok, err := svc.Register(ctx, RegisterInput{Email: "Zoe@Example.com", Password: "password1", DisplayName: "Zoë Ánh"})
	require.NoError(t, err)
	assert.Equal(t, "zoeanh", u1.Username)
	assert.Equal(t, "zoe@example.com", u1.Email)
	assert.Equal(t, "Zoë Ánh", u1.DisplayName)

	claims, err := auth.ParseAccessToken(jwtCfg, tok)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, claims.UserID)

	u2, _, err := svc.Register(ctx, RegisterInput{Email: "other@example.com", Password: "password1", DisplayName: "Zoe Anh"})
	require.NoError(t, err)
	assert.Equal(t, "zoeanh2", u2.Username)

	u3, _, err := svc.Register(ctx, RegisterInput{Email: "42@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "u42", u3.Username)
	assert.Equal(t, "u42", u3.DisplayName)

	assert.Equal(t, []uint{u1.ID, u2.ID, u3.ID}, verifier.sent)
}

func TestRegister_Conflicts(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1", Username: "alice"})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "A@example.com", Password: "password1"})
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "b@example.com", Password: "password1", Username: "Alice"})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestRegister_MailFailureStillCreatesAccount(t *testing.T) {
	svc, verifier, _ := newAuthFixture(t)
	verifier.err = errors.New("smtp down")

	u, tok, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEmpty(t, tok)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()
	_, _, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	u, tok, err := svc.Login(ctx, " A@example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)
	assert.NotEmpty(t, tok)

	_, _, err = svc.Login(ctx, "a@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)
	_, _, err = svc.Login(ctx, "nobody@example.com", "password1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "joseperez", Slugify("  José Pérez "))
	assert.Equal(t, "abc123", Slugify("a.b-c_1 2 3"))
	assert.Equal(t, "", Slugify("日本"))
}
