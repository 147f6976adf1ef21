package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"infinity/config"
	"infinity/internal/domain"
	"infinity/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type verificationStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	SetVerificationToken(ctx context.Context, id uint, token string, issuedAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, token string, issuedAfter time.Time) (uint, error)
}

// Mailer delivers account mail.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

// VerificationService moves users through UNVERIFIED -> PENDING -> VERIFIED.
type VerificationService struct {
	users       verificationStore
	mailer      Mailer
	ttl         time.Duration
	frontendURL string
	now         func() time.Time
	newToken    func() string
}

func NewVerificationService(users verificationStore, mailer Mailer, cfg config.VerificationConfig, frontendURL string) *VerificationService {
	return &VerificationService{
		users:       users,
		mailer:      mailer,
		ttl:         cfg.TokenTTL,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         time.Now,
		newToken:    uuid.NewString,
	}
}

// IssueToken stores a fresh token for userID. Any earlier token stops working.
func (s *VerificationService) IssueToken(ctx context.Context, userID uint) (string, error) {
	token := s.newToken()
	if err := s.users.SetVerificationToken(ctx, userID, token, s.now().UTC()); err != nil {
		return "", err
	}
	return token, nil
}

// SendVerification issues a token and mails the link. On mail failure the token stays valid.
func (s *VerificationService) SendVerification(ctx context.Context, userID uint) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.Verified {
		return fmt.Errorf("%w: already verified", domain.ErrConflict)
	}
	token, err := s.IssueToken(ctx, userID)
	if err != nil {
		return err
	}
	if s.mailer == nil {
		log.Info().Uint("user_id", userID).Str("link", s.Link(token)).Msg("verification: smtp disabled, link not sent")
		return nil
	}
	name := u.DisplayName
	if name == "" {
		name = u.Username
	}
	if err := s.mailer.SendVerification(ctx, u.Email, name, s.Link(token)); err != nil {
		log.Error().Err(err).Uint("user_id", userID).Msg("verification: send mail")
		return fmt.Errorf("%w: %w", domain.ErrTransportFailure, err)
	}
	return nil
}

func (s *VerificationService) Link(token string) string {
	return s.frontendURL + "/verify?token=" + url.QueryEscape(token)
}

// ConsumeToken verifies the owner of token. Only one concurrent caller can succeed.
func (s *VerificationService) ConsumeToken(ctx context.Context, token string) (uint, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, domain.ErrInvalidToken
	}
	var issuedAfter time.Time
	if s.ttl > 0 {
		issuedAfter = s.now().UTC().Add(-s.ttl)
	}
	userID, err := s.users.ConsumeVerificationToken(ctx, token, issuedAfter)
	if err != nil {
		return 0, err
	}
	log.Info().Uint("user_id", userID).Msg("verification: user verified")
	return userID, nil
}

func (s *VerificationService) Status(ctx context.Context, userID uint) (string, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.VerificationState(), nil
}
