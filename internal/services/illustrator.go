package services

import (
	"context"
	"fmt"
	"strings"

	"storybook-backend/internal/imagen"
	"storybook-backend/internal/imgutil"
	"storybook-backend/internal/models"
	"storybook-backend/internal/prompts"
)

// ImageIllustrator turns an image description into a stored, publicly reachable picture.
type ImageIllustrator struct {
	images  ImageGenerator
	store   ImageStore
	prompts *prompts.Pack
	folder  string
	opts    imagen.Options
}

func NewImageIllustrator(images ImageGenerator, store ImageStore, pack *prompts.Pack, folder string) *ImageIllustrator {
	return &ImageIllustrator{
		images:  images,
		store:   store,
		prompts: pack,
		folder:  folder,
		opts:    imagen.DefaultOptions,
	}
}

// Illustrate runs generate, download, validate and upload. Any failing step
// aborts the illustration; callers treat an error as "no image".
func (il *ImageIllustrator) Illustrate(ctx context.Context, description string) (*models.StoredImage, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("empty image description")
	}

	remoteURL, err := il.images.GenerateImage(ctx, il.prompts.Illustrate(description), il.opts)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if err := imgutil.CheckRemoteURL(remoteURL); err != nil {
		return nil, fmt.Errorf("image url rejected: %w", err)
	}

	data, err := il.images.DownloadFile(ctx, remoteURL)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	mimeType, err := imgutil.Validate(data)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}

	stored, err := il.store.Upload(ctx, imgutil.EncodeDataURL(mimeType, data), il.folder)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return stored, nil
}

// Discard removes an uploaded image that could not be attached to its page.
func (il *ImageIllustrator) Discard(ctx context.Context, img *models.StoredImage) error {
	if img == nil || img.PublicID == "" {
		return nil
	}
	return il.store.Delete(ctx, img.PublicID)
}
