package usecase

import (
	"context"
	"fmt"

	"mhargick-backend/config"
	"mhargick-backend/internal/domain"
	"mhargick-backend/pkg/cache"
	"mhargick-backend/pkg/logger"
	"mhargick-backend/pkg/utils"
)

const (
	cacheKeyCategories    = "categories"
	cacheKeyProductPrefix = "product:"
)

// CatalogUsecase serves the storefront catalog. Reads of single products and
// the category list are cached; any admin write invalidates.
type CatalogUsecase struct {
	products domain.ProductRepository
	cache    cache.CacheService
	cfg      *config.Config
}

func NewCatalogUsecase(products domain.ProductRepository, cacheSvc cache.CacheService, cfg *config.Config) *CatalogUsecase {
	return &CatalogUsecase{products: products, cache: cacheSvc, cfg: cfg}
}

// --- Storefront Reads ---

func (c *CatalogUsecase) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	filter.ActiveOnly = true
	return c.products.List(ctx, filter)
}

func (c *CatalogUsecase) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	key := cacheKeyProductPrefix + slug
	if cached, ok := c.cache.Get(key); ok {
		if p, ok := cached.(*domain.Product); ok {
			return p, nil
		}
	}

	p, err := c.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.ErrProductNotFound
	}

	c.cache.Set(key, p, c.cfg.CacheProductTTL)
	return p, nil
}

func (c *CatalogUsecase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if cached, ok := c.cache.Get(cacheKeyCategories); ok {
		if cats, ok := cached.([]domain.Category); ok {
			return cats, nil
		}
	}

	cats, err := c.products.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(cacheKeyCategories, cats, c.cfg.CacheCategoryTTL)
	return cats, nil
}

// --- Reviews ---

func (c *CatalogUsecase) GetReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	if _, err := c.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return c.products.GetReviews(ctx, productID)
}

func (c *CatalogUsecase) CreateReview(ctx context.Context, userID, productID string, rating int, comment string) (*domain.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5")
	}
	if _, err := c.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        utils.GenerateUUID(),
		ProductID: productID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
	}
	if err := c.products.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// --- Admin Writes ---

type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	SalePrice   *float64 `json:"salePrice"`
	ImageURL    string   `json:"imageUrl"`
	Images      []string `json:"images"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Stock       int      `json:"stock"`
	SKU         string   `json:"sku"`
	IsFeatured  bool     `json:"isFeatured"`
	IsActive    bool     `json:"isActive"`
	CategoryID  string   `json:"categoryId"`
}

func (in *ProductInput) validate() error {
	if in.Name == "" {
		return fmt.Errorf("name is required")
	}
	if in.Price <= 0 {
		return fmt.Errorf("price must be positive")
	}
	if in.SalePrice != nil && (*in.SalePrice <= 0 || *in.SalePrice >= in.Price) {
		return fmt.Errorf("sale price must be positive and below the base price")
	}
	if in.Stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}
	return nil
}

func (c *CatalogUsecase) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &domain.Product{
		ID:          utils.GenerateUUID(),
		Name:        in.Name,
		Slug:        utils.GenerateSlug(in.Name),
		Description: in.Description,
		Price:       in.Price,
		SalePrice:   in.SalePrice,
		ImageURL:    in.ImageURL,
		Images:      in.Images,
		Sizes:       in.Sizes,
		Colors:      in.Colors,
		Stock:       in.Stock,
		SKU:         in.SKU,
		IsFeatured:  in.IsFeatured,
		IsActive:    in.IsActive,
		CategoryID:  in.CategoryID,
	}
	if err := c.products.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.Get().Info().Str("productId", p.ID).Str("slug", p.Slug).Msg("product created")
	return p, nil
}

func (c *CatalogUsecase) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := p.Slug

	p.Name = in.Name
	p.Slug = utils.GenerateSlug(in.Name)
	p.Description = in.Description
	p.Price = in.Price
	p.SalePrice = in.SalePrice
	p.ImageURL = in.ImageURL
	p.Images = in.Images
	p.Sizes = in.Sizes
	p.Colors = in.Colors
	p.Stock = in.Stock
	p.SKU = in.SKU
	p.IsFeatured = in.IsFeatured
	p.IsActive = in.IsActive
	p.CategoryID = in.CategoryID

	if err := c.products.Update(ctx, p); err != nil {
		return nil, err
	}

	c.cache.Delete(cacheKeyProductPrefix + oldSlug)
	c.cache.Delete(cacheKeyProductPrefix + p.Slug)
	return p, nil
}

// DeleteProduct deactivates a product rather than removing the row, so
// existing order items keep their reference.
func (c *CatalogUsecase) DeleteProduct(ctx context.Context, id string) error {
	p, err := c.products.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := c.products.Delete(ctx, id); err != nil {
		return err
	}
	c.cache.Delete(cacheKeyProductPrefix + p.Slug)
	return nil
}
