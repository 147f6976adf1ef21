package service

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"infinity/internal/domain"
	"infinity/internal/models"
	"infinity/pkg/cloudinary"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const avatarFolder = "infinity/avatars"

type profileStore interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	UpdateAvatar(ctx context.Context, id uint, url string) error
	UpdateFCMToken(ctx context.Context, id uint, token string) error
}

type ReputationView struct {
	UserID     uint `json:"userId"`
	Reputation int  `json:"reputation"`
}

// ProfileService manages the signed-in user's avatar, device token and reputation view.
type ProfileService struct {
	users  profileStore
	images cloudinary.Uploader
}

// NewProfileService accepts a nil uploader; avatar uploads then fail with ErrTransportFailure.
func NewProfileService(users profileStore, images cloudinary.Uploader) *ProfileService {
	return &ProfileService{users: users, images: images}
}

// UploadAvatar stores the image under a fresh public id and points the user at it.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID uint, file io.Reader) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("%w: media storage not configured", domain.ErrTransportFailure)
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return "", err
	}
	folder := avatarFolder + "/" + strconv.FormatUint(uint64(userID), 10)
	publicID := "avatar_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]

	res, err := s.images.UploadImage(ctx, file, folder, publicID)
	if err != nil {
		return "", fmt.Errorf("%w: upload avatar: %w", domain.ErrTransportFailure, err)
	}
	if err := s.users.UpdateAvatar(ctx, userID, res.URL); err != nil {
		if derr := s.images.Destroy(context.WithoutCancel(ctx), res.PublicID); derr != nil {
			log.Warn().Err(derr).Str("public_id", res.PublicID).Msg("profile: orphaned avatar")
		}
		return "", err
	}
	return res.URL, nil
}

// SetFCMToken stores the device token used for offline push. An empty token disables it.
func (s *ProfileService) SetFCMToken(ctx context.Context, userID uint, token string) error {
	return s.users.UpdateFCMToken(ctx, userID, strings.TrimSpace(token))
}

func (s *ProfileService) Reputation(ctx context.Context, userID uint) (*ReputationView, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &ReputationView{UserID: u.ID, Reputation: u.Reputation}, nil
}
