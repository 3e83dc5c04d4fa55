package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leanttro/vitrine/internal/core/catalog"
	"github.com/leanttro/vitrine/internal/core/shipping"
	"github.com/leanttro/vitrine/internal/shell/store"
	"github.com/leanttro/vitrine/internal/shell/superfrete"
)

// homeProductCount is how many featured products the home page shows.
const homeProductCount = 4

// =============================================================================
// Page Handlers
// =============================================================================

type handlers struct {
	store         store.Store
	shipper       superfrete.Client
	shopID        string
	logger        *slog.Logger
	templates     *template.Template
	technologyURL string
}

// pageData is the payload every rendered page receives.
type pageData struct {
	Shop           catalog.Shop
	Products       []catalog.Product
	Categories     []catalog.Category
	ActiveCategory string
	Year           int
}

// shop loads the cached shop profile. The page still renders with the
// fallback profile when the cache is empty or the database is down.
func (h *handlers) shop(ctx context.Context) catalog.Shop {
	s, err := h.store.GetShop(ctx, h.shopID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("shop lookup failed, serving fallback profile", "error", err)
		}
		return catalog.DefaultShop()
	}
	return *s
}

func (h *handlers) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error("template render failed", "template", name, "error", err)
	}
}

// home renders the landing page with banners and featured products.
// GET /
func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	products, err := h.store.ListProducts(ctx, h.shopID, store.ListOptions{Limit: homeProductCount})
	if err != nil {
		h.logger.Warn("product listing failed", "error", err)
	}

	h.render(w, "home", pageData{
		Shop:     h.shop(ctx),
		Products: products,
		Year:     time.Now().Year(),
	})
}

// catalogPage renders the full catalog, optionally filtered by category.
// GET /presentes?categoria={id}
func (h *handlers) catalogPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categoryID := r.URL.Query().Get("categoria")

	categories, err := h.store.ListCategories(ctx, h.shopID)
	if err != nil {
		h.logger.Warn("category listing failed", "error", err)
	}

	products, err := h.store.ListProducts(ctx, h.shopID, store.ListOptions{CategoryID: categoryID})
	if err != nil {
		h.logger.Warn("product listing failed", "error", err)
	}

	h.render(w, "presentes", pageData{
		Shop:           h.shop(ctx),
		Products:       products,
		Categories:     categories,
		ActiveCategory: categoryID,
		Year:           time.Now().Year(),
	})
}

// qrCodeGifts renders the corporate gifts page. Products from a category
// named after the page are listed when the shop has one.
// GET /qrcodebrindes
func (h *handlers) qrCodeGifts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var products []catalog.Product
	categories, err := h.store.ListCategories(ctx, h.shopID)
	if err != nil {
		h.logger.Warn("category listing failed", "error", err)
	}
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), "brinde") || strings.Contains(strings.ToLower(c.Slug), "brinde") {
			products, err = h.store.ListProducts(ctx, h.shopID, store.ListOptions{CategoryID: c.ID})
			if err != nil {
				h.logger.Warn("product listing failed", "error", err)
			}
			break
		}
	}

	h.render(w, "qrcodebrindes", pageData{
		Shop:     h.shop(ctx),
		Products: products,
		Year:     time.Now().Year(),
	})
}

// technologyRedirect sends the visitor to the technology storefront.
// GET /tecnologia
func (h *handlers) technologyRedirect(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.technologyURL, http.StatusFound)
}

// =============================================================================
// Shipping Quote Handler
// =============================================================================

type quoteItemPayload struct {
	Tamanho    string `json:"tamanho"`
	Quantidade int    `json:"quantidade"`
}

type quotePayload struct {
	CEPDestino string `json:"cep_destino"`
	// CEP is the older name for the destination field, still accepted so
	// clients written against the first endpoint keep working.
	CEP   string             `json:"cep"`
	Itens []quoteItemPayload `json:"itens"`
}

// destination returns the destination CEP regardless of which field name the
// client used.
func (p quotePayload) destination() string {
	if p.CEPDestino != "" {
		return p.CEPDestino
	}
	return p.CEP
}

type quoteView struct {
	Servico  string  `json:"servico"`
	Preco    float64 `json:"preco"`
	PrazoMin int     `json:"prazo_min"`
	PrazoMax int     `json:"prazo_max"`
}

type quoteResponse struct {
	Cotacoes   []quoteView `json:"cotacoes"`
	MaisBarato *quoteView  `json:"mais_barato"`
}

// calculateShipping quotes the consolidated cart against the carrier.
// POST /api/calcular-frete
func (h *handlers) calculateShipping(w http.ResponseWriter, r *http.Request) {
	var payload quotePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeQuoteError(w, http.StatusBadRequest, "requisição inválida")
		return
	}

	req := shipping.QuoteRequest{DestinationCEP: payload.destination()}
	for _, item := range payload.Itens {
		req.Items = append(req.Items, shipping.Item{
			SizeTier: item.Tamanho,
			Quantity: item.Quantidade,
		})
	}

	if err := req.Validate(); err != nil {
		writeQuoteError(w, http.StatusBadRequest, quoteErrorMessage(err))
		return
	}

	parcel, err := shipping.Consolidate(req.Items)
	if err != nil {
		writeQuoteError(w, http.StatusBadRequest, quoteErrorMessage(err))
		return
	}

	quotes, err := h.shipper.Calculate(r.Context(), req.DestinationCEP, parcel)
	if err != nil {
		h.logger.Error("carrier quote failed", "cep", req.DestinationCEP, "error", err)
		writeQuoteError(w, http.StatusBadGateway, "não foi possível consultar a transportadora")
		return
	}

	record := shipping.NewQuoteRecord(uuid.NewString(), req, parcel, quotes, time.Now())
	if err := h.store.LogQuote(r.Context(), record); err != nil {
		h.logger.Warn("quote log write failed", "error", err)
	}

	resp := quoteResponse{Cotacoes: make([]quoteView, 0, len(quotes))}
	for _, q := range quotes {
		if q.Error != "" {
			continue
		}
		resp.Cotacoes = append(resp.Cotacoes, quoteView{
			Servico:  q.Service,
			Preco:    q.Price,
			PrazoMin: q.DeliveryMin,
			PrazoMax: q.DeliveryMax,
		})
	}
	if best := shipping.Cheapest(quotes); best != nil {
		resp.MaisBarato = &quoteView{
			Servico:  best.Service,
			Preco:    best.Price,
			PrazoMin: best.DeliveryMin,
			PrazoMax: best.DeliveryMax,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// quoteLogView is one served quote in the owner listing.
type quoteLogView struct {
	ID                string    `json:"id"`
	CEPDestino        string    `json:"cep_destino"`
	PesoKG            float64   `json:"peso_kg"`
	Servicos          int       `json:"servicos"`
	ServicoMaisBarato string    `json:"servico_mais_barato,omitempty"`
	PrecoMaisBarato   *float64  `json:"preco_mais_barato,omitempty"`
	CriadoEm          time.Time `json:"criado_em"`
}

// recentQuotes lists the most recently served shipping quotes, newest first,
// so the shop owner can see what carrier options customers were offered.
// GET /api/cotacoes?limite={n}
func (h *handlers) recentQuotes(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limite"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeQuoteError(w, http.StatusBadRequest, "limite inválido")
			return
		}
		limit = n
	}

	records, err := h.store.ListRecentQuotes(r.Context(), limit)
	if err != nil {
		h.logger.Error("quote log read failed", "error", err)
		writeQuoteError(w, http.StatusInternalServerError, "erro interno do servidor")
		return
	}

	views := make([]quoteLogView, 0, len(records))
	for _, rec := range records {
		views = append(views, quoteLogView{
			ID:                rec.ID,
			CEPDestino:        rec.DestinationCEP,
			PesoKG:            rec.WeightKG,
			Servicos:          rec.ServiceCount,
			ServicoMaisBarato: rec.CheapestService,
			PrecoMaisBarato:   rec.CheapestPrice,
			CriadoEm:          rec.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"cotacoes": views})
}

// quoteErrorMessage maps validation errors to the messages the storefront
// shows to customers.
func quoteErrorMessage(err error) string {
	switch {
	case errors.Is(err, shipping.ErrCEPRequired):
		return "informe o CEP de destino"
	case errors.Is(err, shipping.ErrCEPInvalid):
		return "CEP inválido"
	case errors.Is(err, shipping.ErrNoItems):
		return "o carrinho está vazio"
	case errors.Is(err, shipping.ErrBadQuantity):
		return "quantidade inválida"
	default:
		return "requisição inválida"
	}
}

func writeQuoteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"erro": msg})
}
