package store

import (
	"context"
	"time"

	"github.com/leanttro/vitrine/internal/core/catalog"
	"github.com/leanttro/vitrine/internal/core/shipping"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for the storefront.
type Store interface {
	// Catalog snapshot operations. ReplaceCatalog swaps the cached
	// snapshot for a shop atomically; reads serve the last snapshot.
	ReplaceCatalog(ctx context.Context, shop catalog.Shop, categories []catalog.Category, products []catalog.Product) error
	GetShop(ctx context.Context, shopID string) (*catalog.Shop, error)
	LastSyncedAt(ctx context.Context, shopID string) (time.Time, error)
	ListCategories(ctx context.Context, shopID string) ([]catalog.Category, error)
	ListProducts(ctx context.Context, shopID string, opts ListOptions) ([]catalog.Product, error)
	GetProduct(ctx context.Context, shopID, productID string) (*catalog.Product, error)
	GetProductBySlug(ctx context.Context, shopID, slug string) (*catalog.Product, error)

	// Quote log operations.
	LogQuote(ctx context.Context, record shipping.QuoteRecord) error
	ListRecentQuotes(ctx context.Context, limit int) ([]shipping.QuoteRecord, error)

	// Ping verifies the database connection, used by readiness checks.
	Ping(ctx context.Context) error

	Close() error
}

// =============================================================================
// List Options
// =============================================================================

// ListOptions narrows a cached product listing.
type ListOptions struct {
	CategoryID string // Only products in this category
	Limit      int    // 0 means no limit
}

// DefaultListOptions returns the options used when none are specified.
func DefaultListOptions() ListOptions {
	return ListOptions{}
}
