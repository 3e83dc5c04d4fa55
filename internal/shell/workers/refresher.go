// Package workers contains background loops run alongside the HTTP server.
package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/leanttro/vitrine/internal/core/catalog"
	"github.com/leanttro/vitrine/internal/shell/directus"
	"github.com/leanttro/vitrine/internal/shell/store"
)

// =============================================================================
// Catalog Source
// =============================================================================

// CatalogSource is the part of the CMS client the refresher needs.
type CatalogSource interface {
	ShopID() string
	GetShop(ctx context.Context) (*catalog.Shop, error)
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListProducts(ctx context.Context, opts directus.ListOptions) ([]catalog.Product, error)
}

// =============================================================================
// Catalog Refresher
// =============================================================================

// Refresher periodically pulls the catalog from the CMS into the local
// snapshot cache. A failed sync leaves the previous snapshot serving.
type Refresher struct {
	source      CatalogSource
	store       store.Store
	interval    time.Duration
	syncTimeout time.Duration
	logger      *slog.Logger
	stopCh      chan struct{}
	doneCh      chan struct{}
}

// RefresherConfig holds configuration for the catalog refresher.
type RefresherConfig struct {
	Source      CatalogSource
	Store       store.Store
	Interval    time.Duration
	SyncTimeout time.Duration
	Logger      *slog.Logger
}

// NewRefresher creates a new catalog refresher.
func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.SyncTimeout == 0 {
		cfg.SyncTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Refresher{
		source:      cfg.Source,
		store:       cfg.Store,
		interval:    cfg.Interval,
		syncTimeout: cfg.SyncTimeout,
		logger:      cfg.Logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the refresh loop. It runs until Stop() is called or the
// context is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.logger.Info("starting catalog refresher",
		"shop_id", r.source.ShopID(),
		"interval", r.interval,
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer close(r.doneCh)

	// Warm the cache on startup
	r.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("catalog refresher stopped due to context cancellation")
			return
		case <-r.stopCh:
			r.logger.Info("catalog refresher stopped")
			return
		case <-ticker.C:
			r.sync(ctx)
		}
	}
}

// Stop signals the refresher to stop and waits for it to finish.
func (r *Refresher) Stop() {
	close(r.stopCh)
	<-r.doneCh
}

// SyncNow performs one synchronous refresh cycle.
func (r *Refresher) SyncNow(ctx context.Context) error {
	return r.syncOnce(ctx)
}

// sync runs one cycle and logs the outcome.
func (r *Refresher) sync(ctx context.Context) {
	if err := r.syncOnce(ctx); err != nil {
		r.logger.Error("catalog sync failed, serving previous snapshot", "error", err)
	}
}

func (r *Refresher) syncOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.syncTimeout)
	defer cancel()

	started := time.Now()

	shop, err := r.source.GetShop(ctx)
	if err != nil {
		return err
	}

	categories, err := r.source.ListCategories(ctx)
	if err != nil {
		return err
	}

	products, err := r.source.ListProducts(ctx, directus.ListOptions{})
	if err != nil {
		return err
	}

	if err := r.store.ReplaceCatalog(ctx, *shop, categories, products); err != nil {
		return err
	}

	r.logger.Info("catalog synced",
		"shop_id", shop.ID,
		"categories", len(categories),
		"products", len(products),
		"duration", time.Since(started),
	)
	return nil
}
