package resources

import (
	"net/http"

	"github.com/manyminds/api2go"
	"github.com/manyminds/api2go/jsonapi"

	"github.com/leanttro/vitrine/internal/core/catalog"
	"github.com/leanttro/vitrine/internal/shell/store"
)

// =============================================================================
// Category JSON:API Model
// =============================================================================

// Category wraps catalog.Category to implement JSON:API interfaces.
type Category struct {
	ID   string `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// GetID returns the category ID for JSON:API.
func (c Category) GetID() string {
	return c.ID
}

// SetID sets the category ID for JSON:API.
func (c *Category) SetID(id string) error {
	c.ID = id
	return nil
}

// GetName returns the JSON:API resource type name.
func (c Category) GetName() string {
	return "categories"
}

// GetReferences returns the relationships this resource has.
func (c Category) GetReferences() []jsonapi.Reference {
	return []jsonapi.Reference{
		{
			Type: "products",
			Name: "products",
		},
	}
}

// GetReferencedIDs returns IDs of referenced resources (for relationship links).
func (c Category) GetReferencedIDs() []jsonapi.ReferenceID {
	// Product IDs are not eagerly loaded - filter products by category instead
	return nil
}

// GetReferencedStructs returns the actual referenced objects for compound documents.
func (c Category) GetReferencedStructs() []jsonapi.MarshalIdentifier {
	return nil
}

// CategoryFromDomain converts a catalog.Category to a JSON:API Category.
func CategoryFromDomain(c *catalog.Category) Category {
	return Category{
		ID:   c.ID,
		Name: c.Name,
		Slug: c.Slug,
	}
}

// =============================================================================
// CategoryResource - Read Operations
// =============================================================================

// CategoryResource implements the api2go resource interface for categories.
type CategoryResource struct {
	Store  store.Store
	ShopID string
}

// NewCategoryResource creates a new category resource handler.
func NewCategoryResource(s store.Store, shopID string) *CategoryResource {
	return &CategoryResource{Store: s, ShopID: shopID}
}

// FindAll returns all cached categories.
// GET /api/v1/categories
func (r CategoryResource) FindAll(req api2go.Request) (api2go.Responder, error) {
	ctx := req.PlainRequest.Context()

	categories, err := r.Store.ListCategories(ctx, r.ShopID)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	result := make([]Category, 0, len(categories))
	for i := range categories {
		result = append(result, CategoryFromDomain(&categories[i]))
	}

	return &Response{
		Code: http.StatusOK,
		Res:  result,
		Meta: map[string]interface{}{
			"total": len(result),
		},
	}, nil
}

// FindOne returns a single category by ID.
// GET /api/v1/categories/{id}
func (r CategoryResource) FindOne(id string, req api2go.Request) (api2go.Responder, error) {
	ctx := req.PlainRequest.Context()

	categories, err := r.Store.ListCategories(ctx, r.ShopID)
	if err != nil {
		return &Response{Code: http.StatusInternalServerError}, err
	}

	for i := range categories {
		if categories[i].ID == id {
			return &Response{
				Code: http.StatusOK,
				Res:  CategoryFromDomain(&categories[i]),
			}, nil
		}
	}

	return &Response{Code: http.StatusNotFound}, api2go.NewHTTPError(
		store.ErrNotFound,
		"Category not found",
		http.StatusNotFound,
	)
}
