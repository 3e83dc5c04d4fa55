package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/leanttro/vitrine/internal/core/catalog"
	"github.com/leanttro/vitrine/internal/core/shipping"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// =============================================================================
// Row Types
// =============================================================================

// shopRow represents a shop row in the database.
type shopRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	LogoURL      string    `db:"logo_url"`
	PrimaryColor string    `db:"primary_color"`
	WhatsApp     string    `db:"whatsapp"`
	Slug         string    `db:"slug"`
	Banner1URL   string    `db:"banner1_url"`
	Banner1Link  string    `db:"banner1_link"`
	Banner2URL   string    `db:"banner2_url"`
	Banner2Link  string    `db:"banner2_link"`
	MinorBanner1 string    `db:"minor_banner1"`
	MinorBanner2 string    `db:"minor_banner2"`
	SyncedAt     time.Time `db:"synced_at"`
}

func (r shopRow) toDomain() catalog.Shop {
	return catalog.Shop{
		ID:           r.ID,
		Name:         r.Name,
		LogoURL:      r.LogoURL,
		PrimaryColor: r.PrimaryColor,
		WhatsApp:     r.WhatsApp,
		Slug:         r.Slug,
		Banner1URL:   r.Banner1URL,
		Banner1Link:  r.Banner1Link,
		Banner2URL:   r.Banner2URL,
		Banner2Link:  r.Banner2Link,
		MinorBanner1: r.MinorBanner1,
		MinorBanner2: r.MinorBanner2,
	}
}

// categoryRow represents a category row in the database.
type categoryRow struct {
	ID     string `db:"id"`
	ShopID string `db:"shop_id"`
	Name   string `db:"name"`
	Slug   string `db:"slug"`
}

// productRow represents a product row in the database.
type productRow struct {
	ID          string   `db:"id"`
	ShopID      string   `db:"shop_id"`
	Name        string   `db:"name"`
	Slug        string   `db:"slug"`
	Description string   `db:"description"`
	Price       *float64 `db:"price"`
	ImageURL    string   `db:"image_url"`
	Urgency     string   `db:"urgency"`
	SizeTier    string   `db:"size_tier"`
	CategoryID  string   `db:"category_id"`
	Variants    *string  `db:"variants"`
	Position    int      `db:"position"`
}

func (r productRow) toDomain() (catalog.Product, error) {
	product := catalog.Product{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		Urgency:     catalog.Urgency(r.Urgency),
		SizeTier:    r.SizeTier,
		CategoryID:  r.CategoryID,
	}
	if r.Variants != nil && *r.Variants != "" {
		if err := json.Unmarshal([]byte(*r.Variants), &product.Variants); err != nil {
			return catalog.Product{}, NewStoreError("toDomain", "product", r.ID, "failed to decode variants", ErrInvalidData)
		}
	}
	return product, nil
}

func productToRow(shopID string, position int, p catalog.Product) (productRow, error) {
	row := productRow{
		ID:          p.ID,
		ShopID:      shopID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Urgency:     string(p.Urgency),
		SizeTier:    p.SizeTier,
		CategoryID:  p.CategoryID,
		Position:    position,
	}
	if len(p.Variants) > 0 {
		encoded, err := json.Marshal(p.Variants)
		if err != nil {
			return productRow{}, NewStoreError("productToRow", "product", p.ID, "failed to encode variants", ErrInvalidData)
		}
		s := string(encoded)
		row.Variants = &s
	}
	return row, nil
}

// quoteRow represents a quote_log row in the database.
type quoteRow struct {
	ID              string    `db:"id"`
	DestinationCEP  string    `db:"destination_cep"`
	WeightKG        float64   `db:"weight_kg"`
	ServiceCount    int       `db:"service_count"`
	CheapestService string    `db:"cheapest_service"`
	CheapestPrice   *float64  `db:"cheapest_price"`
	CreatedAt       time.Time `db:"created_at"`
}

func (r quoteRow) toDomain() shipping.QuoteRecord {
	return shipping.QuoteRecord{
		ID:              r.ID,
		DestinationCEP:  r.DestinationCEP,
		WeightKG:        r.WeightKG,
		ServiceCount:    r.ServiceCount,
		CheapestService: r.CheapestService,
		CheapestPrice:   r.CheapestPrice,
		CreatedAt:       r.CreatedAt,
	}
}

// =============================================================================
// Catalog Snapshot Operations
// =============================================================================

// ReplaceCatalog atomically replaces the cached snapshot for a shop.
func (s *SQLiteStore) ReplaceCatalog(ctx context.Context, shop catalog.Shop, categories []catalog.Category, products []catalog.Product) error {
	if shop.ID == "" {
		return NewStoreError("ReplaceCatalog", "shop", "", "shop id is required", ErrInvalidData)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("ReplaceCatalog", "shop", shop.ID, "failed to begin transaction", ErrTxFailed)
	}
	defer tx.Rollback()

	// Categories and products cascade from the shop row.
	if _, err := tx.ExecContext(ctx, `DELETE FROM shops WHERE id = ?`, shop.ID); err != nil {
		return NewStoreError("ReplaceCatalog", "shop", shop.ID, err.Error(), ErrTxFailed)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO shops (id, name, logo_url, primary_color, whatsapp, slug,
			banner1_url, banner1_link, banner2_url, banner2_link,
			minor_banner1, minor_banner2, synced_at)
		VALUES (:id, :name, :logo_url, :primary_color, :whatsapp, :slug,
			:banner1_url, :banner1_link, :banner2_url, :banner2_link,
			:minor_banner1, :minor_banner2, :synced_at)`,
		shopRow{
			ID:           shop.ID,
			Name:         shop.Name,
			LogoURL:      shop.LogoURL,
			PrimaryColor: shop.PrimaryColor,
			WhatsApp:     shop.WhatsApp,
			Slug:         shop.Slug,
			Banner1URL:   shop.Banner1URL,
			Banner1Link:  shop.Banner1Link,
			Banner2URL:   shop.Banner2URL,
			Banner2Link:  shop.Banner2Link,
			MinorBanner1: shop.MinorBanner1,
			MinorBanner2: shop.MinorBanner2,
			SyncedAt:     time.Now().UTC(),
		})
	if err != nil {
		return NewStoreError("ReplaceCatalog", "shop", shop.ID, err.Error(), ErrTxFailed)
	}

	for _, c := range categories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, shop_id, name, slug) VALUES (?, ?, ?, ?)`,
			c.ID, shop.ID, c.Name, c.Slug)
		if err != nil {
			return NewStoreError("ReplaceCatalog", "category", c.ID, err.Error(), ErrTxFailed)
		}
	}

	for i, p := range products {
		row, err := productToRow(shop.ID, i, p)
		if err != nil {
			return err
		}
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO products (id, shop_id, name, slug, description, price,
				image_url, urgency, size_tier, category_id, variants, position)
			VALUES (:id, :shop_id, :name, :slug, :description, :price,
				:image_url, :urgency, :size_tier, :category_id, :variants, :position)`,
			row)
		if err != nil {
			return NewStoreError("ReplaceCatalog", "product", p.ID, err.Error(), ErrTxFailed)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("ReplaceCatalog", "shop", shop.ID, "failed to commit", ErrTxFailed)
	}
	return nil
}

// GetShop returns the cached shop profile.
func (s *SQLiteStore) GetShop(ctx context.Context, shopID string) (*catalog.Shop, error) {
	var row shopRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM shops WHERE id = ?`, shopID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("GetShop", "shop", shopID, "not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("GetShop", "shop", shopID, err.Error(), err)
	}
	shop := row.toDomain()
	return &shop, nil
}

// LastSyncedAt returns when the shop snapshot was last replaced.
func (s *SQLiteStore) LastSyncedAt(ctx context.Context, shopID string) (time.Time, error) {
	var syncedAt time.Time
	err := s.db.GetContext(ctx, &syncedAt, `SELECT synced_at FROM shops WHERE id = ?`, shopID)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, NewStoreError("LastSyncedAt", "shop", shopID, "not found", ErrNotFound)
	}
	if err != nil {
		return time.Time{}, NewStoreError("LastSyncedAt", "shop", shopID, err.Error(), err)
	}
	return syncedAt, nil
}

// ListCategories returns the cached categories for a shop.
func (s *SQLiteStore) ListCategories(ctx context.Context, shopID string) ([]catalog.Category, error) {
	var rows []categoryRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM categories WHERE shop_id = ? ORDER BY name`, shopID)
	if err != nil {
		return nil, NewStoreError("ListCategories", "category", "", err.Error(), err)
	}

	categories := make([]catalog.Category, 0, len(rows))
	for _, r := range rows {
		categories = append(categories, catalog.Category{ID: r.ID, Name: r.Name, Slug: r.Slug})
	}
	return categories, nil
}

// ListProducts returns cached products in snapshot order.
func (s *SQLiteStore) ListProducts(ctx context.Context, shopID string, opts ListOptions) ([]catalog.Product, error) {
	query := `SELECT * FROM products WHERE shop_id = ?`
	args := []any{shopID}
	if opts.CategoryID != "" {
		query += ` AND category_id = ?`
		args = append(args, opts.CategoryID)
	}
	query += ` ORDER BY position`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	var rows []productRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError("ListProducts", "product", "", err.Error(), err)
	}

	products := make([]catalog.Product, 0, len(rows))
	for _, r := range rows {
		product, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, nil
}

// GetProduct returns one cached product by ID.
func (s *SQLiteStore) GetProduct(ctx context.Context, shopID, productID string) (*catalog.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM products WHERE shop_id = ? AND id = ?`, shopID, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("GetProduct", "product", productID, "not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("GetProduct", "product", productID, err.Error(), err)
	}

	product, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductBySlug returns one cached product by slug.
func (s *SQLiteStore) GetProductBySlug(ctx context.Context, shopID, slug string) (*catalog.Product, error) {
	var row productRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM products WHERE shop_id = ? AND slug = ?`, shopID, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("GetProductBySlug", "product", slug, "not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("GetProductBySlug", "product", slug, err.Error(), err)
	}

	product, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// =============================================================================
// Quote Log Operations
// =============================================================================

// LogQuote records a served shipping quote.
func (s *SQLiteStore) LogQuote(ctx context.Context, record shipping.QuoteRecord) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO quote_log (id, destination_cep, weight_kg, service_count,
			cheapest_service, cheapest_price, created_at)
		VALUES (:id, :destination_cep, :weight_kg, :service_count,
			:cheapest_service, :cheapest_price, :created_at)`,
		quoteRow{
			ID:              record.ID,
			DestinationCEP:  record.DestinationCEP,
			WeightKG:        record.WeightKG,
			ServiceCount:    record.ServiceCount,
			CheapestService: record.CheapestService,
			CheapestPrice:   record.CheapestPrice,
			CreatedAt:       record.CreatedAt,
		})
	if err != nil {
		return NewStoreError("LogQuote", "quote", record.ID, err.Error(), err)
	}
	return nil
}

// ListRecentQuotes returns the most recently served quotes, newest first.
func (s *SQLiteStore) ListRecentQuotes(ctx context.Context, limit int) ([]shipping.QuoteRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []quoteRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM quote_log ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, NewStoreError("ListRecentQuotes", "quote", "", err.Error(), err)
	}

	records := make([]shipping.QuoteRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toDomain())
	}
	return records, nil
}
