// Package directus provides a read-only client for the Directus headless CMS
// that backs the storefront catalog.
package directus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leanttro/vitrine/internal/core/catalog"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrUnavailable is returned when the CMS cannot be reached at all.
	ErrUnavailable = errors.New("directus unavailable")

	// ErrNotFound is returned for missing records.
	ErrNotFound = errors.New("record not found")
)

// APIError represents a non-2xx response from Directus.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directus returned status %d: %s", e.StatusCode, e.Body)
}

// =============================================================================
// Client
// =============================================================================

// Client talks to the Directus items API for one shop.
type Client struct {
	baseURL    string
	token      string
	shopID     string
	httpClient *http.Client
}

// Config holds Directus client configuration.
type Config struct {
	BaseURL string // CMS base URL, e.g. "https://api2.leanttro.com"
	Token   string // Static access token; empty for public collections
	ShopID  string // The lojas record this storefront serves
	Timeout time.Duration
}

// NewClient creates a new Directus client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		shopID:  cfg.ShopID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the configured CMS base URL, used for asset resolution.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ShopID returns the configured shop record ID.
func (c *Client) ShopID() string {
	return c.shopID
}

// get performs a GET against the items API and decodes the data envelope.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var envelope itemResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

// =============================================================================
// Shop
// =============================================================================

// GetShop fetches the shop profile with expanded file fields.
func (c *Client) GetShop(ctx context.Context) (*catalog.Shop, error) {
	if c.shopID == "" {
		return nil, ErrNotFound
	}

	query := url.Values{}
	query.Set("fields", "*.*")

	var record shopRecord
	if err := c.get(ctx, "/items/lojas/"+url.PathEscape(c.shopID), query, &record); err != nil {
		return nil, err
	}

	shop := catalog.Shop{
		ID:           c.shopID,
		Name:         record.Nome,
		LogoURL:      catalog.AssetURL(c.baseURL, assetRef(record.Logo)),
		PrimaryColor: record.CorPrimaria,
		WhatsApp:     record.WhatsAppComercial,
		Slug:         record.SlugURL,
		Banner1URL:   catalog.AssetURL(c.baseURL, assetRef(record.BannerPrincipal1)),
		Banner1Link:  record.LinkBannerPrincipal1,
		Banner2URL:   catalog.AssetURL(c.baseURL, assetRef(record.BannerPrincipal2)),
		Banner2Link:  record.LinkBannerPrincipal2,
		MinorBanner1: catalog.AssetURL(c.baseURL, assetRef(record.BannerMenor1)),
		MinorBanner2: catalog.AssetURL(c.baseURL, assetRef(record.BannerMenor2)),
	}
	shop.FillDefaults()
	return &shop, nil
}

// =============================================================================
// Categories
// =============================================================================

// ListCategories fetches the published categories for the shop.
func (c *Client) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	query := url.Values{}
	query.Set("filter[loja_id][_eq]", c.shopID)
	query.Set("filter[status][_eq]", "published")

	var records []categoryRecord
	if err := c.get(ctx, "/items/categorias", query, &records); err != nil {
		return nil, err
	}

	categories := make([]catalog.Category, 0, len(records))
	for _, r := range records {
		categories = append(categories, catalog.Category{
			ID:   recordID(r.ID),
			Name: r.Nome,
			Slug: r.Slug,
		})
	}
	return categories, nil
}

// =============================================================================
// Products
// =============================================================================

// ListOptions narrows a product listing.
type ListOptions struct {
	CategoryID string // Only products in this category
	Limit      int    // 0 means no limit
}

// ListProducts fetches published products for the shop.
func (c *Client) ListProducts(ctx context.Context, opts ListOptions) ([]catalog.Product, error) {
	query := url.Values{}
	query.Set("filter[loja_id][_eq]", c.shopID)
	query.Set("filter[status][_eq]", "published")
	if opts.CategoryID != "" {
		query.Set("filter[categoria_id][_eq]", opts.CategoryID)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}

	var records []productRecord
	if err := c.get(ctx, "/items/produtos", query, &records); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(records))
	for _, r := range records {
		image := catalog.FirstAsset(c.baseURL, assetRef(r.ImagemDestaque), assetRef(r.Imagem1))

		variants := make([]catalog.Variant, 0, len(r.Variantes))
		for _, v := range r.Variantes {
			variants = append(variants, catalog.Variant{
				Name:     v.Nome,
				PhotoURL: catalog.AssetURL(c.baseURL, assetRef(v.Foto)),
			})
		}

		product := catalog.Product{
			ID:          recordID(r.ID),
			Name:        r.Nome,
			Slug:        r.Slug,
			Description: r.Descricao,
			Price:       catalog.ParsePrice(r.Preco),
			ImageURL:    image,
			Urgency:     catalog.Urgency(r.StatusUrgencia),
			SizeTier:    r.Tamanho,
			CategoryID:  recordID(r.CategoriaID),
			Variants:    variants,
		}
		product.Normalize()
		products = append(products, product)
	}
	return products, nil
}
