// Package resources provides JSON:API resource implementations for the catalog API.
package resources

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/manyminds/api2go"
	"github.com/manyminds/api2go/jsonapi"

	"github.com/leanttro/vitrine/internal/core/catalog"
	"github.com/leanttro/vitrine/internal/shell/store"
)

// =============================================================================
// Product JSON:API Model
// =============================================================================

// Product wraps catalog.Product to implement JSON:API interfaces.
type Product struct {
	ID          string            `json:"-"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Price       *float64          `json:"price"`
	ImageURL    string            `json:"image_url,omitempty"`
	Urgency     string            `json:"urgency"`
	SizeTier    string            `json:"size_tier,omitempty"`
	CategoryID  string            `json:"-"`
	Variants    []catalog.Variant `json:"variants,omitempty"`
}

// GetID returns the product ID for JSON:API.
func (p Product) GetID() string {
	return p.ID
}

// SetID sets the product ID for JSON:API.
func (p *Product) SetID(id string) error {
	p.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (p Product) GetName() string {
	return "products"
}

// GetReferences returns the relationships this resource has.
func (p Product) GetReferences() []jsonapi.Reference {
	return []jsonapi.Reference{
		{
			Type: "categories",
			Name: "category",
		},
	}
}

// GetReferencedIDs returns IDs of referenced resources (for relationship links).
func (p Product) GetReferencedIDs() []jsonapi.ReferenceID {
	if p.CategoryID == "" {
		return nil
	}
	return []jsonapi.ReferenceID{
		{
			ID:   p.CategoryID,
			Type: "categories",
			Name: "category",
		},
	}
}

// GetReferencedStructs returns the actual referenced objects for compound documents.
func (p Product) GetReferencedStructs() []jsonapi.MarshalIdentifier {
	// Categories are not included by default - fetch them separately
	return nil
}

// ProductFromDomain converts a catalog.Product to a JSON:API Product.
func ProductFromDomain(p *catalog.Product) Product {
	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Urgency:     string(p.Urgency),
		SizeTier:    p.SizeTier,
		CategoryID:  p.CategoryID,
		Variants:    p.Variants,
	}
}

// =============================================================================
// ProductResource - Read Operations
// =============================================================================

// ProductResource implements the api2go resource interface for products.
// The storefront serves a single shop, so every lookup is scoped to ShopID.
type ProductResource struct {
	Store  store.Store
	ShopID string
}

// NewProductResource creates a new product resource handler.
func NewProductResource(s store.Store, shopID string) *ProductResource {
	return &ProductResource{Store: s, ShopID: shopID}
}

// FindAll returns all cached products.
// GET /api/v1/products
func (r ProductResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	opts := store.DefaultListOptions()

	if size, ok := req.QueryParams["page[size]"]; ok && len(size) > 0 {
		if l, err := strconv.Atoi(size[0]); err == nil && l > 0 {
			opts.Limit = l
		}
	}
	if cat, ok := req.QueryParams["filter[category]"]; ok && len(cat) > 0 {
		opts.CategoryID = cat[0]
	}

	ctx := req.PlainRequest.Context()

	products, err := r.Store.ListProducts(ctx, r.ShopID, opts)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	result := make([]Product, 0, len(products))
	for i := range products {
		result = append(result, ProductFromDomain(&products[i]))
	}

	return &Response{
		Code: http.StatusOK,
		Res:  result,
		Meta: map[string]interface{}{
			"total": len(result),
		},
	}, nil
}

// FindOne returns a single product by ID. Storefront links carry slugs, so an
// ID miss falls back to a slug lookup before reporting not found.
// GET /api/v1/products/{id}
func (r ProductResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	ctx := req.PlainRequest.Context()

	product, err := r.Store.GetProduct(ctx, r.ShopID, id)
	if isNotFound(err) {
		product, err = r.Store.GetProductBySlug(ctx, r.ShopID, id)
	}
	if err != nil {
		if isNotFound(err) {
			return &Response{Code: http.StatusNotFound}, api2go.NewHTTPError(
				fmt.Errorf("product not found"),
				"Product not found",
				http.StatusNotFound,
			)
		}
		return &Response{Code: http.StatusInternalServerError}, err
	}

	return &Response{
		Code: http.StatusOK,
		Res:  ProductFromDomain(product),
	}, nil
}

// =============================================================================
// Response
// =============================================================================

// Response implements api2go.Responder.
type Response struct {
	Code int
	Res  interface{}
	Meta map[string]interface{}
}

// Metadata returns additional metadata for the response.
func (r *Response) Metadata() map[string]interface{} {
	return r.Meta
}

// Result returns the response data.
func (r *Response) Result() interface{} {
	return r.Res
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int {
	return r.Code
}

// isNotFound checks if an error is a not found error.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, store.ErrNotFound)
}
