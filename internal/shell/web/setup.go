// Package web provides the storefront HTTP surface: the rendered pages, the
// shipping quote endpoint and the read-only JSON:API catalog.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/manyminds/api2go"

	"github.com/leanttro/vitrine/internal/shell/store"
	"github.com/leanttro/vitrine/internal/shell/superfrete"
	"github.com/leanttro/vitrine/internal/shell/web/openapi"
	"github.com/leanttro/vitrine/internal/shell/web/resources"
)

// =============================================================================
// Setup
// =============================================================================

// Config holds the dependencies for the web surface.
type Config struct {
	Store   store.Store
	Shipper superfrete.Client
	ShopID  string
	Logger  *slog.Logger

	// TechnologyURL is where /tecnologia redirects to.
	TechnologyURL string
}

// Setup creates the complete router: pages, shipping quote API, JSON:API
// resources and the OpenAPI document.
func Setup(cfg Config) (http.Handler, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TechnologyURL == "" {
		cfg.TechnologyURL = "/"
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	h := &handlers{
		store:         cfg.Store,
		shipper:       cfg.Shipper,
		shopID:        cfg.ShopID,
		logger:        cfg.Logger,
		templates:     tmpl,
		technologyURL: cfg.TechnologyURL,
	}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware)
	router.Use(recoveryMiddleware(cfg.Logger))

	// Health endpoints (not JSON:API, just simple JSON)
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.HandleFunc("/ready", readyHandler(cfg.Store, cfg.ShopID)).Methods("GET")

	// Storefront pages
	router.HandleFunc("/", h.home).Methods("GET")
	router.HandleFunc("/presentes", h.catalogPage).Methods("GET")
	router.HandleFunc("/qrcodebrindes", h.qrCodeGifts).Methods("GET")
	router.HandleFunc("/tecnologia", h.technologyRedirect).Methods("GET")

	// Shipping quote endpoints. Registered before the /api prefix mount so
	// they are not swallowed by the api2go handler.
	router.HandleFunc("/api/calcular-frete", h.calculateShipping).Methods("POST")
	router.HandleFunc("/api/cotacoes", h.recentQuotes).Methods("GET")

	// Create api2go API for the read-only JSON:API catalog.
	// api2go expects paths without the /api prefix (e.g., /v1/products not
	// /api/v1/products) so we strip the /api prefix before handing off.
	jsonAPI := api2go.NewAPIWithResolver("v1", api2go.NewStaticResolver("/api"))
	jsonAPI.ContentType = "application/vnd.api+json"

	jsonAPI.AddResource(resources.Product{}, resources.NewProductResource(cfg.Store, cfg.ShopID))
	jsonAPI.AddResource(resources.Category{}, resources.NewCategoryResource(cfg.Store, cfg.ShopID))

	// OpenAPI endpoint
	openapiGen := openapi.NewGenerator(
		openapi.WithTitle("Vitrine API"),
		openapi.WithVersion("1.0.0"),
		openapi.WithDescription("Storefront catalog and shipping quote API following JSON:API specification"),
		openapi.WithServer("/api/v1"),
	)
	openapiGen.RegisterResource(openapi.ResourceInfo{
		Name:  "products",
		Model: resources.Product{},
	})
	openapiGen.RegisterResource(openapi.ResourceInfo{
		Name:  "categories",
		Model: resources.Category{},
	})
	router.HandleFunc("/openapi.json", openapiGen.Handler()).Methods("GET")

	// Mount api2go handler for all other /api routes
	router.PathPrefix("/api").Handler(http.StripPrefix("/api", jsonAPI.Handler()))

	// Embedded static assets
	router.PathPrefix("/static/").Handler(staticHandler())

	return router, nil
}

// =============================================================================
// Middleware
// =============================================================================

// requestIDMiddleware generates and adds a request ID to responses.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns a 500 error.
func recoveryMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"erro": "erro interno do servidor",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// =============================================================================
// Health Handlers
// =============================================================================

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func readyHandler(s store.Store, shopID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		checks := make(map[string]string)

		if err := s.Ping(r.Context()); err != nil {
			checks["database"] = "failed"
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "not_ready",
				"checks": checks,
			})
			return
		}
		checks["database"] = "ok"

		resp := map[string]interface{}{
			"status": "ready",
			"checks": checks,
		}

		// An unsynced catalog is not a failure, pages degrade to the
		// fallback profile, but operators want to see it here.
		if syncedAt, err := s.LastSyncedAt(r.Context(), shopID); err == nil {
			checks["catalog"] = "ok"
			resp["last_synced_at"] = syncedAt.UTC()
		} else {
			checks["catalog"] = "empty"
		}

		json.NewEncoder(w).Encode(resp)
	}
}
