package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/cloudinary/cloudinary-go/v2/config"
)

// ErrNotConfigured is returned by NewClient when credentials are missing.
var ErrNotConfigured = errors.New("cloudinary: credentials not configured")

// Uploader stores user images and returns their delivery URLs.
type Uploader interface {
	UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

type UploadResult struct {
	URL          string
	ThumbnailURL string
	PublicID     string
}

const (
	AvatarWidth = 400
	ThumbWidth  = 96
)

// Square crop on the face, auto quality and format.
const avatarEager = "q_auto,f_auto,w_400,h_400,c_fill,g_face"

var eagerAsyncFalse = false

// BuildAvatarURL returns a square delivery URL for publicID at width pixels.
func BuildAvatarURL(cloudName, publicID string, width int) string {
	if width <= 0 {
		width = AvatarWidth
	}
	return fmt.Sprintf("https://res.cloudinary.com/%s/image/upload/q_auto,f_auto,w_%d,h_%d,c_fill,g_face/%s",
		cloudName, width, width, publicID)
}

type client struct {
	cloudName string
	uploader  *uploader.API
}

// NewClient builds an Uploader from the account credentials.
func NewClient(cloudName, apiKey, apiSecret string) (Uploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	cfg, err := config.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}
	up, err := uploader.NewWithConfiguration(cfg)
	if err != nil {
		return nil, err
	}
	return &client{cloudName: cloudName, uploader: up}, nil
}

func (c *client) UploadImage(ctx context.Context, file io.Reader, folder, publicID string) (*UploadResult, error) {
	overwrite := true
	res, err := c.uploader.Upload(ctx, file, uploader.UploadParams{
		Folder:     folder,
		PublicID:   publicID,
		Overwrite:  &overwrite,
		Eager:      avatarEager,
		EagerAsync: &eagerAsyncFalse,
	})
	if err != nil {
		return nil, err
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	out := &UploadResult{URL: res.SecureURL, PublicID: res.PublicID}
	if len(res.Eager) > 0 && res.Eager[0].SecureURL != "" {
		out.URL = res.Eager[0].SecureURL
	}
	out.ThumbnailURL = BuildAvatarURL(c.cloudName, res.PublicID, ThumbWidth)
	return out, nil
}

func (c *client) Destroy(ctx context.Context, publicID string) error {
	res, err := c.uploader.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return err
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s", res.Error.Message)
	}
	return nil
}
