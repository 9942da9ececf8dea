package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/dafibh/domo/domo-client/internal/repository/storage"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	MaxImageSize   = 5 * 1024 * 1024 // 5MB
	MinImageWidth  = 50
	MinImageHeight = 50
	ThumbnailWidth = 200
	DisplayWidth   = 800
	JPEGQuality    = 85
)

var (
	ErrImageTooLarge             = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidFormat             = errors.New("invalid format. Supported: JPEG, PNG")
	ErrImageTooSmall             = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidImageData          = errors.New("invalid image data")
	ErrImageStorageNotConfigured = errors.New("image storage not configured")
)

// ImageVariant names one stored size of a photo
type ImageVariant string

const (
	VariantThumb    ImageVariant = "thumb"
	VariantDisplay  ImageVariant = "display"
	VariantOriginal ImageVariant = "original"
)

var variantWidths = []struct {
	name     ImageVariant
	maxWidth int
}{
	{VariantThumb, ThumbnailWidth},
	{VariantDisplay, DisplayWidth},
	{VariantOriginal, 0},
}

// AllowedExtensions maps extensions to content types
var AllowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// StoredImage is the result of an upload. Path is the display variant; the
// other variants are derived from it.
type StoredImage struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ImageService resizes product photos and keeps them in object storage
type ImageService struct {
	storage storage.ImageRepository
}

// NewImageService creates a new ImageService. A nil repository disables uploads.
func NewImageService(repo storage.ImageRepository) *ImageService {
	return &ImageService{storage: repo}
}

// IsEnabled reports whether storage is configured
func (s *ImageService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// ValidateImage checks size, extension and dimensions
func (s *ImageService) ValidateImage(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

func (s *ImageService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	if len(data) > MaxImageSize {
		return nil, ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return nil, ErrInvalidFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImageData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinImageWidth || bounds.Dy() < MinImageHeight {
		return nil, ErrImageTooSmall
	}
	return img, nil
}

// ProcessAndUpload stores the thumb, display and original variants of a
// product photo as JPEG
func (s *ImageService) ProcessAndUpload(ctx context.Context, productID int32, data []byte, filename string) (*StoredImage, error) {
	if !s.IsEnabled() {
		return nil, ErrImageStorageNotConfigured
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	imageID := uuid.New().String()
	base := fmt.Sprintf("products/%d/%s", productID, imageID)
	var uploaded []string

	for _, variant := range variantWidths {
		processed := img
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, processed, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
			s.removePaths(ctx, uploaded)
			return nil, fmt.Errorf("failed to encode image: %w", err)
		}

		path, err := s.storage.Upload(ctx, variantPath(base, variant.name), bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len()))
		if err != nil {
			s.removePaths(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s variant: %w", variant.name, err)
		}
		uploaded = append(uploaded, path)
	}

	return &StoredImage{ID: imageID, Path: variantPath(base, VariantDisplay)}, nil
}

// URL resolves a stored display path to the address of the requested variant
func (s *ImageService) URL(ctx context.Context, path string, variant ImageVariant) (string, error) {
	if !s.IsEnabled() {
		return "", ErrImageStorageNotConfigured
	}
	base := basePath(path)
	if base == "" {
		return "", ErrInvalidImageData
	}
	return s.storage.URL(ctx, variantPath(base, variant))
}

// DeleteAllVariants removes every variant of a stored photo. Missing objects
// are ignored.
func (s *ImageService) DeleteAllVariants(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if !s.IsEnabled() {
		return ErrImageStorageNotConfigured
	}
	base := basePath(path)
	if base == "" {
		return nil
	}
	paths := make([]string, 0, len(variantWidths))
	for _, v := range variantWidths {
		paths = append(paths, variantPath(base, v.name))
	}
	s.removePaths(ctx, paths)
	return nil
}

func (s *ImageService) removePaths(ctx context.Context, paths []string) {
	for _, p := range paths {
		_ = s.storage.Delete(ctx, p)
	}
}

func variantPath(base string, variant ImageVariant) string {
	return base + "_" + string(variant) + ".jpg"
}

// basePath strips the variant suffix, e.g. products/7/<uuid>_display.jpg
// becomes products/7/<uuid>
func basePath(path string) string {
	for _, v := range variantWidths {
		suffix := "_" + string(v.name) + ".jpg"
		if strings.HasSuffix(path, suffix) {
			return strings.TrimSuffix(path, suffix)
		}
	}
	return ""
}

// GetContentType returns the content type for a file extension
func GetContentType(filename string) string {
	if ct, ok := AllowedExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}
