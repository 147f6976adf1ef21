package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"infinity/config"
	"infinity/internal/auth"
	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrEmailExists    = fmt.Errorf("%w: email already registered", domain.ErrConflict)
	ErrUsernameExists = fmt.Errorf("%w: username already taken", domain.ErrConflict)
	ErrInvalidCreds   = fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
)

type accountStore interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

type verificationSender interface {
	SendVerification(ctx context.Context, userID uint) error
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	Username    string
}

type AuthService struct {
	jwt      *config.JWTConfig
	users    accountStore
	verifier verificationSender
}

func NewAuthService(jwt *config.JWTConfig, users accountStore, verifier verificationSender) *AuthService {
	return &AuthService{jwt: jwt, users: users, verifier: verifier}
}

// Register creates the account, mails a verification link and returns an access token.
// A verification mail failure is logged; the account is still created.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}
	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if taken {
		return nil, "", ErrEmailExists
	}

	username := strings.ToLower(strings.TrimSpace(in.Username))
	if username != "" {
		taken, err := s.users.UsernameTaken(ctx, username)
		if err != nil {
			return nil, "", err
		}
		if taken {
			return nil, "", ErrUsernameExists
		}
	} else {
		username, err = s.generateUsername(ctx, in.DisplayName, email)
		if err != nil {
			return nil, "", err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	displayName := strings.TrimSpace(in.DisplayName)
	if displayName == "" {
		displayName = username
	}
	u := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	if s.verifier != nil {
		if err := s.verifier.SendVerification(ctx, u.ID); err != nil {
			log.Warn().Err(err).Uint("user_id", u.ID).Msg("auth: verification mail on register")
		}
	}

	token, err := auth.GenerateAccessToken(s.jwt, u.ID, u.Username)
	if err != nil {
		return u, "", err
	}
	return u, token, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", ErrInvalidCreds
		}
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCreds
	}
	token, err := auth.GenerateAccessToken(s.jwt, u.ID, u.Username)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *AuthService) Me(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// generateUsername derives a handle from the display name or the email local part and
// appends 2, 3, ... until it is free.
func (s *AuthService) generateUsername(ctx context.Context, displayName, email string) (string, error) {
	base := Slugify(displayName)
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = Slugify(local)
	}
	if base == "" {
		base = "user"
	}
	if base[0] < 'a' || base[0] > 'z' {
		base = "u" + base
	}
	if len(base) > 48 {
		base = base[:48]
	}

	candidate := base
	for suffix := 2; ; suffix++ {
		taken, err := s.users.UsernameTaken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(suffix)
	}
}

// Slugify folds s to lowercase ASCII letters and digits, dropping accents and everything else.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
