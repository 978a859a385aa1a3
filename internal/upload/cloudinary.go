// Package upload stores logo streams with Cloudinary and hands back the
// public URL that replaces the file field in the parsed submission.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader implements ingest.Uploader.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds an uploader from a cloudinary:// URL.
func NewCloudinary(cloudinaryURL, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

// Upload streams r to Cloudinary and returns the secure public URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, r io.Reader) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, r, uploader.UploadParams{Folder: u.folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	// The SDK reports API-level failures in the body, not as an error.
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary upload: response missing secure URL")
	}
	return resp.SecureURL, nil
}
