package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Urgency Tests
// =============================================================================

func TestUrgency_IsValid(t *testing.T) {
	assert.True(t, UrgencyNormal.IsValid())
	assert.True(t, UrgencyHigh.IsValid())
	assert.True(t, UrgencyLastUnit.IsValid())
	assert.False(t, Urgency("").IsValid())
	assert.False(t, Urgency("urgent").IsValid())
}

func TestUrgency_Normalize(t *testing.T) {
	assert.Equal(t, UrgencyHigh, UrgencyHigh.Normalize())
	assert.Equal(t, UrgencyNormal, Urgency("").Normalize())
	assert.Equal(t, UrgencyNormal, Urgency("whatever").Normalize())
}

// =============================================================================
// Shop Tests
// =============================================================================

func TestDefaultShop(t *testing.T) {
	shop := DefaultShop()
	assert.Equal(t, "Leanttro Ecosystem", shop.Name)
	assert.Equal(t, "#7c3aed", shop.PrimaryColor)
	assert.Equal(t, "painel", shop.Slug)
	assert.NoError(t, shop.Validate())
}

func TestShop_Validate_NameRequired(t *testing.T) {
	shop := Shop{Name: "   "}
	assert.ErrorIs(t, shop.Validate(), ErrShopNameRequired)
}

func TestShop_FillDefaults(t *testing.T) {
	shop := Shop{
		ID:           "loja-1",
		Name:         "Minha Loja",
		PrimaryColor: "#112233",
	}
	shop.FillDefaults()

	// Explicit values survive
	assert.Equal(t, "Minha Loja", shop.Name)
	assert.Equal(t, "#112233", shop.PrimaryColor)

	// Gaps are filled from the default profile
	def := DefaultShop()
	assert.Equal(t, def.LogoURL, shop.LogoURL)
	assert.Equal(t, def.WhatsApp, shop.WhatsApp)
	assert.Equal(t, "#", shop.Banner1Link)
}

func TestShop_FillDefaults_Empty(t *testing.T) {
	var shop Shop
	shop.FillDefaults()
	assert.Equal(t, DefaultShop().Name, shop.Name)
	assert.NoError(t, shop.Validate())
}

// =============================================================================
// Variant Tests
// =============================================================================

func TestNormalizeVariant(t *testing.T) {
	tests := []struct {
		name         string
		variant      Variant
		productImage string
		want         Variant
	}{
		{
			name:         "complete variant untouched",
			variant:      Variant{Name: "Azul", PhotoURL: "https://cdn/x.png"},
			productImage: "https://cdn/p.png",
			want:         Variant{Name: "Azul", PhotoURL: "https://cdn/x.png"},
		},
		{
			name:         "unnamed becomes padrao",
			variant:      Variant{PhotoURL: "https://cdn/x.png"},
			productImage: "https://cdn/p.png",
			want:         Variant{Name: "Padrão", PhotoURL: "https://cdn/x.png"},
		},
		{
			name:         "missing photo falls back to product image",
			variant:      Variant{Name: "Verde"},
			productImage: "https://cdn/p.png",
			want:         Variant{Name: "Verde", PhotoURL: "https://cdn/p.png"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeVariant(tt.variant, tt.productImage)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Product Tests
// =============================================================================

func TestProduct_Validate(t *testing.T) {
	price := 49.90
	negative := -1.0

	tests := []struct {
		name    string
		product Product
		wantErr error
	}{
		{"valid", Product{ID: "p1", Name: "Caneca", Price: &price}, nil},
		{"valid without price", Product{ID: "p1", Name: "Caneca"}, nil},
		{"missing id", Product{Name: "Caneca"}, ErrProductIDRequired},
		{"missing name", Product{ID: "p1"}, ErrProductNameRequired},
		{"negative price", Product{ID: "p1", Name: "Caneca", Price: &negative}, ErrPriceNegative},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.product.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProduct_Normalize(t *testing.T) {
	p := Product{
		ID:       "p1",
		Name:     "Caneca",
		ImageURL: "https://cdn/caneca.png",
		Urgency:  Urgency("???"),
		Variants: []Variant{{Name: ""}, {Name: "Preta", PhotoURL: "https://cdn/preta.png"}},
	}
	p.Normalize()

	assert.Equal(t, UrgencyNormal, p.Urgency)
	assert.Equal(t, "Padrão", p.Variants[0].Name)
	assert.Equal(t, "https://cdn/caneca.png", p.Variants[0].PhotoURL)
	assert.Equal(t, "https://cdn/preta.png", p.Variants[1].PhotoURL)
}

func TestProduct_HasPrice(t *testing.T) {
	price := 10.0
	assert.True(t, (&Product{Price: &price}).HasPrice())
	assert.False(t, (&Product{}).HasPrice())
}
