package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leanttro/vitrine/internal/core/catalog"
	"github.com/leanttro/vitrine/internal/core/shipping"
	"github.com/leanttro/vitrine/internal/shell/store"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeStore struct {
	shop       *catalog.Shop
	categories []catalog.Category
	products   []catalog.Product
	quotes     []shipping.QuoteRecord
	syncedAt   time.Time

	lastListOpts   store.ListOptions
	lastQuoteLimit int
	pingErr        error
	listErr        error
}

func (f *fakeStore) ReplaceCatalog(ctx context.Context, shop catalog.Shop, categories []catalog.Category, products []catalog.Product) error {
	return nil
}

func (f *fakeStore) GetShop(ctx context.Context, shopID string) (*catalog.Shop, error) {
	if f.shop == nil {
		return nil, store.ErrNotFound
	}
	return f.shop, nil
}

func (f *fakeStore) LastSyncedAt(ctx context.Context, shopID string) (time.Time, error) {
	if f.syncedAt.IsZero() {
		return time.Time{}, store.ErrNotFound
	}
	return f.syncedAt, nil
}

func (f *fakeStore) ListCategories(ctx context.Context, shopID string) ([]catalog.Category, error) {
	return f.categories, f.listErr
}

func (f *fakeStore) ListProducts(ctx context.Context, shopID string, opts store.ListOptions) ([]catalog.Product, error) {
	f.lastListOpts = opts
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := f.products
	if opts.CategoryID != "" {
		result = nil
		for _, p := range f.products {
			if p.CategoryID == opts.CategoryID {
				result = append(result, p)
			}
		}
	}
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, shopID, productID string) (*catalog.Product, error) {
	for i := range f.products {
		if f.products[i].ID == productID {
			return &f.products[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) GetProductBySlug(ctx context.Context, shopID, slug string) (*catalog.Product, error) {
	for i := range f.products {
		if f.products[i].Slug == slug {
			return &f.products[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) LogQuote(ctx context.Context, record shipping.QuoteRecord) error {
	f.quotes = append(f.quotes, record)
	return nil
}

func (f *fakeStore) ListRecentQuotes(ctx context.Context, limit int) ([]shipping.QuoteRecord, error) {
	f.lastQuoteLimit = limit
	return f.quotes, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) Close() error { return nil }

type fakeShipper struct {
	quotes []shipping.ServiceQuote
	err    error

	lastCEP    string
	lastParcel shipping.Parcel
}

func (f *fakeShipper) Calculate(ctx context.Context, destinationCEP string, parcel shipping.Parcel) ([]shipping.ServiceQuote, error) {
	f.lastCEP = destinationCEP
	f.lastParcel = parcel
	return f.quotes, f.err
}

func ptr(v float64) *float64 { return &v }

func testCatalogStore() *fakeStore {
	return &fakeStore{
		shop: &catalog.Shop{
			ID:           "loja-1",
			Name:         "Loja Teste",
			PrimaryColor: "#112233",
			WhatsApp:     "5511999990000",
		},
		categories: []catalog.Category{
			{ID: "cat-1", Name: "Canecas", Slug: "canecas"},
			{ID: "cat-2", Name: "Brindes QR", Slug: "brindes-qr"},
		},
		products: []catalog.Product{
			{ID: "p1", Name: "Caneca Azul", Slug: "caneca-azul", Price: ptr(49.9), Urgency: catalog.UrgencyNormal, SizeTier: "Pequeno", CategoryID: "cat-1"},
			{ID: "p2", Name: "Chaveiro QR", Slug: "chaveiro-qr", Urgency: catalog.UrgencyHigh, SizeTier: "Pequeno", CategoryID: "cat-2"},
		},
		syncedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func setupTestHandler(t *testing.T, s *fakeStore, shipper *fakeShipper) http.Handler {
	t.Helper()
	handler, err := Setup(Config{
		Store:         s,
		Shipper:       shipper,
		ShopID:        "loja-1",
		TechnologyURL: "https://tecnologia.example.com",
	})
	require.NoError(t, err)
	return handler
}

// =============================================================================
// Health Tests
// =============================================================================

func TestHealthEndpoint(t *testing.T) {
	handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("ready when database pings", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "ready")
		assert.Contains(t, body, "last_synced_at")
		assert.Contains(t, body, `"catalog":"ok"`)
	})

	t.Run("reports unsynced catalog", func(t *testing.T) {
		s := testCatalogStore()
		s.syncedAt = time.Time{}
		handler := setupTestHandler(t, s, &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"catalog":"empty"`)
		assert.NotContains(t, body, "last_synced_at")
	})

	t.Run("not ready when database is down", func(t *testing.T) {
		s := testCatalogStore()
		s.pingErr = errors.New("connection refused")
		handler := setupTestHandler(t, s, &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not_ready")
	})
}

// =============================================================================
// Page Tests
// =============================================================================

func TestHomePage(t *testing.T) {
	s := testCatalogStore()
	handler := setupTestHandler(t, s, &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Loja Teste")
	assert.Contains(t, body, "Caneca Azul")
	assert.Contains(t, body, "R$ 49,90")
	assert.Equal(t, homeProductCount, s.lastListOpts.Limit)
}

func TestHomePageFallbackShop(t *testing.T) {
	s := testCatalogStore()
	s.shop = nil
	handler := setupTestHandler(t, s, &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), catalog.DefaultShop().Name)
}

func TestCatalogPage(t *testing.T) {
	t.Run("lists every product", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presentes", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Caneca Azul")
		assert.Contains(t, body, "Chaveiro QR")
		assert.Contains(t, body, "Canecas")
	})

	t.Run("filters by category", func(t *testing.T) {
		s := testCatalogStore()
		handler := setupTestHandler(t, s, &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/presentes?categoria=cat-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cat-1", s.lastListOpts.CategoryID)
		body := rec.Body.String()
		assert.Contains(t, body, "Caneca Azul")
		assert.NotContains(t, body, "Chaveiro QR")
	})
}

func TestQRCodeGiftsPage(t *testing.T) {
	handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/qrcodebrindes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "QR Code Brindes")
	// The "Brindes QR" category matches the page, so its products show up.
	assert.Contains(t, body, "Chaveiro QR")
}

func TestTechnologyRedirect(t *testing.T) {
	handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tecnologia", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://tecnologia.example.com", rec.Header().Get("Location"))
}

func TestStaticAssets(t *testing.T) {
	handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/css", rec.Header().Get("Content-Type"))
}

func TestRequestIDHeader(t *testing.T) {
	handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-abc", rec.Header().Get("X-Request-ID"))
}

// =============================================================================
// Shipping Quote Tests
// =============================================================================

func postQuote(t *testing.T, handler http.Handler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/calcular-frete", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCalculateShipping(t *testing.T) {
	s := testCatalogStore()
	shipper := &fakeShipper{
		quotes: []shipping.ServiceQuote{
			{Service: "SEDEX", Price: 25.5, DeliveryMin: 1, DeliveryMax: 2},
			{Service: "PAC", Price: 12.9, DeliveryMin: 4, DeliveryMax: 7},
			{Service: "Mini Envios", Error: "peso excedido"},
		},
	}
	handler := setupTestHandler(t, s, shipper)

	rec := postQuote(t, handler, `{"cep_destino":"01310-100","itens":[{"tamanho":"Pequeno","quantidade":2}]}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	// The errored service is dropped from the offered quotes.
	require.Len(t, resp.Cotacoes, 2)
	require.NotNil(t, resp.MaisBarato)
	assert.Equal(t, "PAC", resp.MaisBarato.Servico)
	assert.Equal(t, 12.9, resp.MaisBarato.Preco)

	// The CEP reaches the carrier digits-only.
	assert.Equal(t, "01310100", shipper.lastCEP)
	assert.InDelta(t, 0.6, shipper.lastParcel.WeightKG, 0.001)

	// The served quote is logged.
	require.Len(t, s.quotes, 1)
	assert.Equal(t, "01310100", s.quotes[0].DestinationCEP)
	assert.Equal(t, "PAC", s.quotes[0].CheapestService)
}

func TestCalculateShippingValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{
			name:    "malformed json",
			payload: `{"cep_destino":`,
			wantMsg: "requisição inválida",
		},
		{
			name:    "missing cep",
			payload: `{"itens":[{"tamanho":"Pequeno","quantidade":1}]}`,
			wantMsg: "informe o CEP de destino",
		},
		{
			name:    "short cep",
			payload: `{"cep_destino":"1234","itens":[{"tamanho":"Pequeno","quantidade":1}]}`,
			wantMsg: "CEP inválido",
		},
		{
			name:    "empty cart",
			payload: `{"cep_destino":"01310100","itens":[]}`,
			wantMsg: "o carrinho está vazio",
		},
		{
			name:    "zero quantity",
			payload: `{"cep_destino":"01310100","itens":[{"tamanho":"Pequeno","quantidade":0}]}`,
			wantMsg: "quantidade inválida",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

			rec := postQuote(t, handler, tt.payload)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body["erro"])
		})
	}
}

func TestCalculateShippingCarrierDown(t *testing.T) {
	s := testCatalogStore()
	shipper := &fakeShipper{err: errors.New("dial tcp: connection refused")}
	handler := setupTestHandler(t, s, shipper)

	rec := postQuote(t, handler, `{"cep_destino":"01310100","itens":[{"tamanho":"Grande","quantidade":1}]}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "transportadora")
	assert.Empty(t, s.quotes)
}

func TestCalculateShippingLegacyCEPKey(t *testing.T) {
	s := testCatalogStore()
	shipper := &fakeShipper{
		quotes: []shipping.ServiceQuote{
			{Service: "PAC", Price: 12.9, DeliveryMin: 4, DeliveryMax: 7},
		},
	}
	handler := setupTestHandler(t, s, shipper)

	// Older clients send "cep" instead of "cep_destino".
	rec := postQuote(t, handler, `{"cep":"01310-100","itens":[{"tamanho":"Pequeno","quantidade":1}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "01310100", shipper.lastCEP)
}

// =============================================================================
// Quote Log Tests
// =============================================================================

func TestRecentQuotesEndpoint(t *testing.T) {
	t.Run("lists served quotes", func(t *testing.T) {
		s := testCatalogStore()
		s.quotes = []shipping.QuoteRecord{
			{
				ID:              "q1",
				DestinationCEP:  "01310100",
				WeightKG:        0.6,
				ServiceCount:    3,
				CheapestService: "PAC",
				CheapestPrice:   ptr(12.9),
				CreatedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			},
		}
		handler := setupTestHandler(t, s, &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cotacoes", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"cep_destino":"01310100"`)
		assert.Contains(t, body, `"servico_mais_barato":"PAC"`)
	})

	t.Run("passes the limit through", func(t *testing.T) {
		s := testCatalogStore()
		handler := setupTestHandler(t, s, &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cotacoes?limite=5", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, s.lastQuoteLimit)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cotacoes?limite=zero", nil))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "limite")
	})
}

// =============================================================================
// JSON:API Tests
// =============================================================================

func TestJSONAPIProducts(t *testing.T) {
	t.Run("lists products", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"type":"products"`)
		assert.Contains(t, body, "Caneca Azul")
		assert.Contains(t, body, "Chaveiro QR")
	})

	t.Run("honors page size", func(t *testing.T) {
		s := testCatalogStore()
		handler := setupTestHandler(t, s, &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?page[size]=1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, s.lastListOpts.Limit)
	})

	t.Run("filters by category", func(t *testing.T) {
		s := testCatalogStore()
		handler := setupTestHandler(t, s, &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?filter[category]=cat-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cat-1", s.lastListOpts.CategoryID)
		body := rec.Body.String()
		assert.Contains(t, body, "Caneca Azul")
		assert.NotContains(t, body, "Chaveiro QR")
	})

	t.Run("finds one by id", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/p1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Caneca Azul")
	})

	t.Run("finds one by slug", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/caneca-azul", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Caneca Azul")
	})

	t.Run("unknown product returns 404", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/zzz", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestJSONAPICategories(t *testing.T) {
	t.Run("lists categories", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `"type":"categories"`)
		assert.Contains(t, body, "Canecas")
		assert.Contains(t, body, "Brindes QR")
	})

	t.Run("finds one by id", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories/cat-1", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Canecas")
	})

	t.Run("unknown category returns 404", func(t *testing.T) {
		handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories/nope", nil))

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

// =============================================================================
// OpenAPI Tests
// =============================================================================

func TestOpenAPIDocument(t *testing.T) {
	handler := setupTestHandler(t, testCatalogStore(), &fakeShipper{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "/api/v1/products"))
	assert.True(t, strings.Contains(body, "/api/v1/categories"))
	assert.True(t, strings.Contains(body, "/api/calcular-frete"))
}
