package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/yndnr/storefront-go/internal/core/domain"
	"github.com/yndnr/storefront-go/internal/media"
	"github.com/yndnr/storefront-go/internal/storage"
)

// MaxProductImages is the number of image slots per product.
const MaxProductImages = 4

// ProductService manages the catalog.
type ProductService struct {
	products *storage.Collection[domain.Product]
	media    media.Store
	logger   *slog.Logger
	now      func() time.Time
}

// NewProductService creates a ProductService. media may be nil, in which
// case uploads are rejected.
func NewProductService(store storage.DocumentStore, ms media.Store, logger *slog.Logger) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{
		products: storage.NewCollection[domain.Product](store, CollectionProducts),
		media:    ms,
		logger:   logger,
		now:      time.Now,
	}
}

// AddProductRequest contains parameters for adding a product.
type AddProductRequest struct {
	Name        string
	Description string
	Price       int64
	Category    string
	SubCategory string
	Sizes       []string
	Bestseller  bool

	// ImageURLs are already-hosted images kept as-is.
	ImageURLs []string

	// Uploads are image bodies stored through the media store.
	Uploads []io.Reader
}

// Add validates and stores a new product. Uploaded images are removed
// again if the product cannot be stored.
func (s *ProductService) Add(ctx context.Context, req *AddProductRequest) (*domain.Product, error) {
	p := &domain.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
		Category:    strings.TrimSpace(req.Category),
		SubCategory: strings.TrimSpace(req.SubCategory),
		Sizes:       cleanSizes(req.Sizes),
		Bestseller:  req.Bestseller,
		Images:      make([]string, 0, len(req.ImageURLs)+len(req.Uploads)),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if len(req.ImageURLs)+len(req.Uploads) > MaxProductImages {
		return nil, domain.ErrProductValidation.WithDetails("at most 4 images")
	}
	if len(req.Uploads) > 0 && s.media == nil {
		return nil, domain.ErrServiceUnavailable.WithDetails("media store not configured")
	}

	id, err := domain.NewID(domain.ProductIDPrefix)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.CreatedAt = s.now().UTC()

	for _, u := range req.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			p.Images = append(p.Images, u)
		}
	}

	var saved []string
	for _, r := range req.Uploads {
		url, err := s.media.Save(ctx, r)
		if err != nil {
			s.deleteImages(ctx, saved)
			return nil, mediaError(err)
		}
		saved = append(saved, url)
	}
	p.Images = append(p.Images, saved...)

	if err := s.products.Create(ctx, p.ID, p); err != nil {
		s.deleteImages(ctx, saved)
		return nil, storeError(err, nil)
	}

	s.logger.InfoContext(ctx, "product added", "product_id", p.ID, "images", len(p.Images))
	return p, nil
}

// List returns all products, oldest first.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx, nil)
	if err != nil {
		return nil, storeError(err, nil)
	}
	return products, nil
}

// Get returns a product by ID.
func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.ErrMissingArgument.WithDetails("id")
	}
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, domain.ErrProductNotFound)
	}
	return p, nil
}

// Remove deletes a product and, best effort, its stored images.
func (s *ProductService) Remove(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return storeError(err, domain.ErrProductNotFound)
	}
	s.deleteImages(ctx, p.Images)
	s.logger.InfoContext(ctx, "product removed", "product_id", id)
	return nil
}

func (s *ProductService) deleteImages(ctx context.Context, urls []string) {
	if s.media == nil {
		return
	}
	for _, u := range urls {
		err := s.media.Delete(ctx, u)
		if err != nil && !errors.Is(err, media.ErrNotFound) {
			s.logger.WarnContext(ctx, "delete media failed", "url", u, "error", err)
		}
	}
}

func mediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return domain.ErrUnsupportedMedia.WithDetails("images must be jpeg, png, gif or webp")
	case errors.Is(err, media.ErrTooLarge):
		return domain.ErrPayloadTooLarge.WithDetails("image too large")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return domain.ErrStorageError.WithCause(err)
}

// cleanSizes trims sizes and drops blanks and duplicates, keeping order.
func cleanSizes(sizes []string) []string {
	out := make([]string, 0, len(sizes))
	seen := make(map[string]struct{}, len(sizes))
	for _, sz := range sizes {
		sz = strings.TrimSpace(sz)
		if sz == "" {
			continue
		}
		if _, ok := seen[sz]; ok {
			continue
		}
		seen[sz] = struct{}{}
		out = append(out, sz)
	}
	return out
}
