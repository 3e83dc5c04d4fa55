// Package catalog contains the core storefront domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package catalog

import (
	"errors"
	"strings"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Shop validation errors
	ErrShopNameRequired = errors.New("shop name is required")
	ErrShopIDRequired   = errors.New("shop id is required")

	// Product validation errors
	ErrProductIDRequired   = errors.New("product id is required")
	ErrProductNameRequired = errors.New("product name is required")
	ErrPriceNegative       = errors.New("price cannot be negative")
)

// =============================================================================
// Urgency
// =============================================================================

// Urgency flags how prominently a product is pushed on the storefront.
type Urgency string

const (
	UrgencyNormal   Urgency = "Normal"
	UrgencyLow      Urgency = "Baixa"
	UrgencyHigh     Urgency = "Alta"
	UrgencyLastUnit Urgency = "Ultima Unidade"
)

// IsValid checks if the urgency value is one the storefront renders.
func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyNormal, UrgencyLow, UrgencyHigh, UrgencyLastUnit:
		return true
	default:
		return false
	}
}

// Normalize maps unknown CMS values to the default urgency.
func (u Urgency) Normalize() Urgency {
	if u.IsValid() {
		return u
	}
	return UrgencyNormal
}

// =============================================================================
// Shop
// =============================================================================

// Shop is the storefront profile: branding, contact and banner slots.
type Shop struct {
	ID           string
	Name         string
	LogoURL      string
	PrimaryColor string
	WhatsApp     string
	Slug         string
	Banner1URL   string
	Banner1Link  string
	Banner2URL   string
	Banner2Link  string
	MinorBanner1 string
	MinorBanner2 string
}

// DefaultShop returns the fallback profile served whenever the CMS is
// unreachable and no cached snapshot exists.
func DefaultShop() Shop {
	return Shop{
		Name:         "Leanttro Ecosystem",
		LogoURL:      "https://leanttro.com/static/img/logo-placeholder.png",
		PrimaryColor: "#7c3aed",
		WhatsApp:     "5511913324827",
		Slug:         "painel",
		Banner1Link:  "#",
		Banner2Link:  "#",
	}
}

// Validate checks shop invariants.
func (s *Shop) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrShopNameRequired
	}
	return nil
}

// FillDefaults replaces empty profile fields with the fallback values, so a
// partially filled CMS record still renders a complete storefront header.
func (s *Shop) FillDefaults() {
	def := DefaultShop()
	if strings.TrimSpace(s.Name) == "" {
		s.Name = def.Name
	}
	if s.LogoURL == "" {
		s.LogoURL = def.LogoURL
	}
	if s.PrimaryColor == "" {
		s.PrimaryColor = def.PrimaryColor
	}
	if s.WhatsApp == "" {
		s.WhatsApp = def.WhatsApp
	}
	if s.Slug == "" {
		s.Slug = def.Slug
	}
	if s.Banner1Link == "" {
		s.Banner1Link = def.Banner1Link
	}
	if s.Banner2Link == "" {
		s.Banner2Link = def.Banner2Link
	}
}

// =============================================================================
// Category
// =============================================================================

// Category groups products on the catalog page.
type Category struct {
	ID   string
	Name string
	Slug string
}

// =============================================================================
// Variant
// =============================================================================

// Variant is a purchasable variation of a product (color, model, ...).
type Variant struct {
	Name     string
	PhotoURL string
}

// NormalizeVariant fills variant defaults: unnamed variants become "Padrão"
// and a missing photo falls back to the product image.
func NormalizeVariant(v Variant, productImage string) Variant {
	if strings.TrimSpace(v.Name) == "" {
		v.Name = "Padrão"
	}
	if v.PhotoURL == "" {
		v.PhotoURL = productImage
	}
	return v
}

// =============================================================================
// Product
// =============================================================================

// Product is a single storefront listing.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Description string
	// Price in BRL. Nil means "consult us" - the storefront renders the
	// WhatsApp link instead of a price tag.
	Price      *float64
	ImageURL   string
	Urgency    Urgency
	SizeTier   string
	CategoryID string
	Variants   []Variant
}

// Validate checks product invariants.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrProductIDRequired
	}
	if strings.TrimSpace(p.Name) == "" {
		return ErrProductNameRequired
	}
	if p.Price != nil && *p.Price < 0 {
		return ErrPriceNegative
	}
	return nil
}

// Normalize applies rendering defaults: urgency fallback and variant fill-in.
func (p *Product) Normalize() {
	p.Urgency = p.Urgency.Normalize()
	for i, v := range p.Variants {
		p.Variants[i] = NormalizeVariant(v, p.ImageURL)
	}
}

// HasPrice reports whether the product carries a displayable price.
func (p *Product) HasPrice() bool {
	return p.Price != nil
}
