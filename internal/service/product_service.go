package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/rs/zerolog"
)

// ProductService handles the product catalog
type ProductService struct {
	deps   Deps
	images *ImageService
	logger zerolog.Logger

	create   mutation.Spec[domain.ProductInput]
	update   mutation.Spec[ProductUpdate]
	delete   mutation.Spec[int32]
	setImage mutation.Spec[productImage]
}

// ProductUpdate replaces the editable fields of a product
type ProductUpdate struct {
	ID    int32
	Input domain.ProductInput
}

type productImage struct {
	ID   int32
	Path string
}

// NewProductService creates a new ProductService. images may be disabled.
func NewProductService(deps Deps, images *ImageService, logger zerolog.Logger) *ProductService {
	s := &ProductService{
		deps:   deps,
		images: images,
		logger: logger.With().Str("component", "product_service").Logger(),
	}
	touches := []cache.Key{cache.KeyProducts}

	s.create = mutation.Spec[domain.ProductInput]{
		Name:    "products.create",
		Touches: touches,
		Predict: func(view cache.Getter, in domain.ProductInput) (mutation.Values, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			products, ok := listOf[domain.Product](view, cache.KeyProducts)
			if !ok {
				return nil, nil
			}
			return mutation.Values{cache.KeyProducts: appended(products, domain.Product{
				ID:             tempID(),
				Name:           strings.TrimSpace(in.Name),
				MeasureUnit:    in.MeasureUnit,
				EstimatedPrice: in.EstimatedPrice,
				MinQuantity:    in.MinQuantity,
			})}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.ProductInput) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.Products), in)
		},
	}

	// Inventory and the shopping list show product names and units
	s.update = mutation.Spec[ProductUpdate]{
		Name:        "products.update",
		Touches:     touches,
		Invalidates: []cache.Key{cache.KeyProducts, cache.KeyInventory, cache.KeyShoppingList},
		Predict: func(view cache.Getter, u ProductUpdate) (mutation.Values, error) {
			if err := u.Input.Validate(); err != nil {
				return nil, err
			}
			return updateProduct(view, u.ID, func(p domain.Product) domain.Product {
				p.Name = strings.TrimSpace(u.Input.Name)
				p.MeasureUnit = u.Input.MeasureUnit
				p.EstimatedPrice = u.Input.EstimatedPrice
				p.MinQuantity = u.Input.MinQuantity
				return p
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, u ProductUpdate) ([]byte, error) {
			return gw.Call(ctx, http.MethodPatch, gateway.Item(gateway.Products, u.ID), u.Input)
		},
	}

	s.delete = mutation.Spec[int32]{
		Name:        "products.delete",
		Touches:     []cache.Key{cache.KeyProducts, cache.KeyInventory},
		Invalidates: []cache.Key{cache.KeyProducts, cache.KeyInventory, cache.KeyShoppingList},
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			values := mutation.Values{}
			if products, ok := listOf[domain.Product](view, cache.KeyProducts); ok {
				next, found := without(products, func(p domain.Product) bool { return p.ID == id })
				if !found {
					return nil, domain.ErrProductNotFound
				}
				values[cache.KeyProducts] = next
			}
			// The API cascades the stock row
			if items, ok := listOf[domain.InventoryItem](view, cache.KeyInventory); ok {
				values[cache.KeyInventory], _ = without(items, func(i domain.InventoryItem) bool { return i.ProductID == id })
			}
			return values, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.Products, id), nil)
		},
	}

	s.setImage = mutation.Spec[productImage]{
		Name:    "products.set_image",
		Touches: touches,
		Predict: func(view cache.Getter, p productImage) (mutation.Values, error) {
			return updateProduct(view, p.ID, func(prod domain.Product) domain.Product {
				prod.ImageURL = p.Path
				return prod
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, p productImage) ([]byte, error) {
			return gw.Call(ctx, http.MethodPatch, gateway.Item(gateway.Products, p.ID), map[string]string{"image_url": p.Path})
		},
	}

	return s
}

func updateProduct(view cache.Getter, id int32, fn func(domain.Product) domain.Product) (mutation.Values, error) {
	products, ok := listOf[domain.Product](view, cache.KeyProducts)
	if !ok {
		return nil, nil
	}
	next, found := replaced(products, func(p domain.Product) bool { return p.ID == id }, fn)
	if !found {
		return nil, domain.ErrProductNotFound
	}
	return mutation.Values{cache.KeyProducts: next}, nil
}

// List returns the catalog
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return readList[domain.Product](ctx, s.deps.Store, cache.KeyProducts)
}

// Create adds a product
func (s *ProductService) Create(ctx context.Context, in domain.ProductInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.create, in)
}

// Update replaces a product's editable fields
func (s *ProductService) Update(ctx context.Context, id int32, in domain.ProductInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.update, ProductUpdate{ID: id, Input: in})
}

// Delete removes a product and its stock row
func (s *ProductService) Delete(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.delete, id)
}

// UploadImage stores a new photo and points the product at it. When the
// mutation settles, the photo that lost is deleted: the old one on success,
// the new one on failure.
func (s *ProductService) UploadImage(ctx context.Context, id int32, data []byte, filename string) (*mutation.Handle, error) {
	products, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	product, ok := domain.FindProduct(products, id)
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	stored, err := s.images.ProcessAndUpload(ctx, id, data, filename)
	if err != nil {
		return nil, err
	}

	h, err := mutation.Dispatch(ctx, s.deps.Engine, s.setImage, productImage{ID: id, Path: stored.Path})
	if err != nil {
		_ = s.images.DeleteAllVariants(context.WithoutCancel(ctx), stored.Path)
		return nil, err
	}

	old := product.ImageURL
	go func() {
		cleanupCtx := context.WithoutCancel(ctx)
		<-h.Done()
		stale := old
		if h.State() != mutation.StateSucceeded {
			stale = stored.Path
		}
		if err := s.images.DeleteAllVariants(cleanupCtx, stale); err != nil {
			s.logger.Warn().Err(err).Int32("product_id", id).Msg("Failed to delete replaced product image")
		}
	}()

	return h, nil
}

// ImageURL resolves the address of a product photo variant
func (s *ProductService) ImageURL(ctx context.Context, id int32, variant ImageVariant) (string, error) {
	products, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	product, ok := domain.FindProduct(products, id)
	if !ok || product.ImageURL == "" {
		return "", domain.ErrNotFound
	}
	return s.images.URL(ctx, product.ImageURL, variant)
}
