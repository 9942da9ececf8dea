package handler

import (
	"io"
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ImageHandler handles product photo HTTP requests
type ImageHandler struct {
	productService *service.ProductService
	imageService   *service.ImageService
}

// NewImageHandler creates a new ImageHandler. imageService may be nil when
// no storage is configured.
func NewImageHandler(productService *service.ProductService, imageService *service.ImageService) *ImageHandler {
	return &ImageHandler{
		productService: productService,
		imageService:   imageService,
	}
}

// ImageURLResponse carries a resolved photo address
type ImageURLResponse struct {
	Variant service.ImageVariant `json:"variant"`
	URL     string               `json:"url"`
}

// UploadImage handles POST /api/v1/products/:id/image
func (h *ImageHandler) UploadImage(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "product")
	}

	if h.imageService == nil || !h.imageService.IsEnabled() {
		return NewServiceUnavailableError(c, "Image uploads are disabled (storage not configured)")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(c, "No file provided", []ValidationError{
			{Field: "file", Message: "File is required"},
		})
	}

	// Reject oversized uploads before reading them
	if file.Size > service.MaxImageSize {
		return respondError(c, service.ErrImageTooLarge, "Failed to upload image")
	}

	src, err := file.Open()
	if err != nil {
		log.Error().Err(err).Msg("Failed to open uploaded file")
		return NewInternalError(c, "Failed to process file")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, service.MaxImageSize+1))
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		return NewInternalError(c, "Failed to read file")
	}

	handle, err := h.productService.UploadImage(c.Request().Context(), id, data, file.Filename)
	if err != nil {
		return respondError(c, err, "Failed to upload image")
	}

	log.Info().
		Int32("product_id", id).
		Str("mutation_id", handle.ID.String()).
		Msg("Product image uploaded")

	return accepted(c, handle)
}

// GetImageURL handles GET /api/v1/products/:id/image?variant=thumb
func (h *ImageHandler) GetImageURL(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "product")
	}

	variant := service.ImageVariant(c.QueryParam("variant"))
	switch variant {
	case "":
		variant = service.VariantDisplay
	case service.VariantThumb, service.VariantDisplay, service.VariantOriginal:
	default:
		return NewValidationError(c, "Invalid variant", []ValidationError{
			{Field: "variant", Message: "Must be one of: thumb, display, original"},
		})
	}

	url, err := h.productService.ImageURL(c.Request().Context(), id, variant)
	if err != nil {
		return respondError(c, err, "Failed to resolve image URL")
	}
	return c.JSON(http.StatusOK, ImageURLResponse{Variant: variant, URL: url})
}
