// Package superfrete provides integration with the SuperFrete calculator API
// for shipping quotes.
package superfrete

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/leanttro/vitrine/internal/core/shipping"
)

// =============================================================================
// Errors
// =============================================================================

// ErrUnavailable is returned when the carrier API cannot be reached.
var ErrUnavailable = errors.New("superfrete unavailable")

// APIError represents a non-2xx response from SuperFrete.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("superfrete returned status %d: %s", e.StatusCode, e.Body)
}

// =============================================================================
// Client Interface
// =============================================================================

// DefaultServices lists the carrier service IDs quoted by default:
// PAC (1), SEDEX (2) and Mini Envios (17).
const DefaultServices = "1,2,17"

// Client defines the interface for requesting shipping quotes.
type Client interface {
	// Calculate returns the available service quotes for shipping the
	// parcel from the origin to the destination postal code.
	Calculate(ctx context.Context, destinationCEP string, parcel shipping.Parcel) ([]shipping.ServiceQuote, error)
}

// =============================================================================
// HTTP Client Implementation
// =============================================================================

// HTTPClient implements Client against the SuperFrete calculator endpoint.
type HTTPClient struct {
	calculatorURL string
	token         string
	originCEP     string
	services      string
	httpClient    *http.Client
}

// Config holds SuperFrete client configuration.
type Config struct {
	CalculatorURL string // Full calculator endpoint URL
	Token         string
	OriginCEP     string // Warehouse postal code; defaults to shipping.OriginCEP
	Services      string // Comma-separated service IDs; defaults to DefaultServices
	Timeout       time.Duration
}

// NewHTTPClient creates a new SuperFrete client.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	origin := cfg.OriginCEP
	if origin == "" {
		origin = shipping.OriginCEP
	}
	services := cfg.Services
	if services == "" {
		services = DefaultServices
	}
	return &HTTPClient{
		calculatorURL: cfg.CalculatorURL,
		token:         cfg.Token,
		originCEP:     origin,
		services:      services,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// calculatorRequest is the request body for the calculator endpoint.
type calculatorRequest struct {
	From     cepRef        `json:"from"`
	To       cepRef        `json:"to"`
	Services string        `json:"services"`
	Options  quoteOptions  `json:"options"`
	Package  parcelPayload `json:"package"`
}

type cepRef struct {
	PostalCode string `json:"postal_code"`
}

type quoteOptions struct {
	OwnHand           bool    `json:"own_hand"`
	Receipt           bool    `json:"receipt"`
	InsuranceValue    float64 `json:"insurance_value"`
	UseInsuranceValue bool    `json:"use_insurance_value"`
}

type parcelPayload struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

// serviceResult is one entry of the calculator response.
type serviceResult struct {
	Name          string          `json:"name"`
	Price         json.RawMessage `json:"price"`
	DeliveryRange struct {
		Min int `json:"min"`
		Max int `json:"max"`
	} `json:"delivery_range"`
	Error string `json:"error"`
}

// Calculate requests quotes for the parcel and maps the carrier response.
func (c *HTTPClient) Calculate(ctx context.Context, destinationCEP string, parcel shipping.Parcel) ([]shipping.ServiceQuote, error) {
	payload := calculatorRequest{
		From:     cepRef{PostalCode: c.originCEP},
		To:       cepRef{PostalCode: destinationCEP},
		Services: c.services,
		Package: parcelPayload{
			Height: parcel.HeightCM,
			Width:  parcel.WidthCM,
			Length: parcel.LengthCM,
			Weight: parcel.WeightKG,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.calculatorURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var results []serviceResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	quotes := make([]shipping.ServiceQuote, 0, len(results))
	for _, r := range results {
		quotes = append(quotes, shipping.ServiceQuote{
			Service:     r.Name,
			Price:       parsePrice(r.Price),
			DeliveryMin: r.DeliveryRange.Min,
			DeliveryMax: r.DeliveryRange.Max,
			Error:       r.Error,
		})
	}
	return quotes, nil
}

// parsePrice handles prices serialized as numbers or numeric strings.
func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(asString), "%f", &v); err == nil {
			return v
		}
	}
	return 0
}

// =============================================================================
// Noop Client Implementation
// =============================================================================

// NoopClient implements Client without calling the carrier. Used when no
// SuperFrete token is configured so the storefront still serves pages.
type NoopClient struct {
	logger *slog.Logger
}

// NewNoopClient creates a no-op quote client.
func NewNoopClient(logger *slog.Logger) *NoopClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopClient{logger: logger}
}

// Calculate logs the request and returns no quotes.
func (c *NoopClient) Calculate(ctx context.Context, destinationCEP string, parcel shipping.Parcel) ([]shipping.ServiceQuote, error) {
	c.logger.Debug("quote requested but no carrier token configured",
		"destination", destinationCEP,
		"weight_kg", parcel.WeightKG,
	)
	return []shipping.ServiceQuote{}, nil
}
