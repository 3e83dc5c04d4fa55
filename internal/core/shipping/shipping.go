// Package shipping contains the pure shipping-quote logic: postal code
// validation, the parcel tier table and item consolidation. No I/O happens
// here; talking to the carrier lives in internal/shell/superfrete.
package shipping

import (
	"errors"
	"strings"
	"time"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrCEPRequired = errors.New("destination postal code is required")
	ErrCEPInvalid  = errors.New("postal code must have exactly 8 digits")
	ErrNoItems     = errors.New("at least one item is required")
	ErrBadQuantity = errors.New("item quantity must be at least 1")
)

// OriginCEP is the warehouse postal code all parcels ship from.
const OriginCEP = "01026000"

// =============================================================================
// CEP Handling
// =============================================================================

// NormalizeCEP strips formatting from a Brazilian postal code ("01310-100",
// "01310 100") leaving only digits.
func NormalizeCEP(cep string) string {
	var b strings.Builder
	for _, r := range cep {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateCEP normalizes and validates a postal code, returning the
// digits-only form.
func ValidateCEP(cep string) (string, error) {
	normalized := NormalizeCEP(cep)
	if normalized == "" {
		return "", ErrCEPRequired
	}
	if len(normalized) != 8 {
		return "", ErrCEPInvalid
	}
	return normalized, nil
}

// =============================================================================
// Parcel Tiers
// =============================================================================

// Tier is a named parcel size class. Products carry the tier name in the CMS.
type Tier struct {
	Name     string
	HeightCM float64
	WidthCM  float64
	LengthCM float64
	WeightKG float64
}

const (
	TierSmall  = "Pequeno"
	TierMedium = "Medio"
	TierLarge  = "Grande"
)

// tiers is ordered smallest to largest; Consolidate relies on the order.
var tiers = []Tier{
	{Name: TierSmall, HeightCM: 4, WidthCM: 12, LengthCM: 16, WeightKG: 0.3},
	{Name: TierMedium, HeightCM: 10, WidthCM: 20, LengthCM: 20, WeightKG: 1.0},
	{Name: TierLarge, HeightCM: 20, WidthCM: 30, LengthCM: 30, WeightKG: 3.0},
}

// TierByName returns the tier for a CMS size name. Unknown names fall back to
// the smallest tier, matching how unsized products have always been quoted.
func TierByName(name string) Tier {
	for _, t := range tiers {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t
		}
	}
	return tiers[0]
}

// tierRank returns the position of a tier in the size ordering.
func tierRank(name string) int {
	for i, t := range tiers {
		if t.Name == name {
			return i
		}
	}
	return 0
}

// =============================================================================
// Quote Request
// =============================================================================

// Item is one product line in a quote request.
type Item struct {
	SizeTier string
	Quantity int
}

// QuoteRequest is a validated request for shipping quotes.
type QuoteRequest struct {
	DestinationCEP string
	Items          []Item
}

// Validate checks the request and normalizes the destination CEP in place.
func (r *QuoteRequest) Validate() error {
	cep, err := ValidateCEP(r.DestinationCEP)
	if err != nil {
		return err
	}
	r.DestinationCEP = cep

	if len(r.Items) == 0 {
		return ErrNoItems
	}
	for _, item := range r.Items {
		if item.Quantity < 1 {
			return ErrBadQuantity
		}
	}
	return nil
}

// =============================================================================
// Parcel Consolidation
// =============================================================================

// Parcel is the single package a consolidated quote request ships as.
type Parcel struct {
	HeightCM float64
	WidthCM  float64
	LengthCM float64
	WeightKG float64
}

// Consolidate merges the request items into one parcel: the box takes the
// dimensions of the largest tier present and the weight is the sum over all
// quantities. A cart of small items still ships in a small box.
func Consolidate(items []Item) (Parcel, error) {
	if len(items) == 0 {
		return Parcel{}, ErrNoItems
	}

	largest := tiers[0]
	var weight float64
	for _, item := range items {
		qty := item.Quantity
		if qty < 1 {
			return Parcel{}, ErrBadQuantity
		}
		tier := TierByName(item.SizeTier)
		weight += float64(qty) * tier.WeightKG
		if tierRank(tier.Name) > tierRank(largest.Name) {
			largest = tier
		}
	}

	return Parcel{
		HeightCM: largest.HeightCM,
		WidthCM:  largest.WidthCM,
		LengthCM: largest.LengthCM,
		WeightKG: weight,
	}, nil
}

// =============================================================================
// Service Quotes
// =============================================================================

// ServiceQuote is one carrier service option for a parcel. Services the
// carrier refuses for the route come back with Error set and no price.
type ServiceQuote struct {
	Service     string
	Price       float64
	DeliveryMin int
	DeliveryMax int
	Error       string
}

// Cheapest returns the lowest-priced usable quote, or nil when every service
// was refused.
func Cheapest(quotes []ServiceQuote) *ServiceQuote {
	var best *ServiceQuote
	for i := range quotes {
		q := &quotes[i]
		if q.Error != "" {
			continue
		}
		if best == nil || q.Price < best.Price {
			best = q
		}
	}
	return best
}

// =============================================================================
// Quote Records
// =============================================================================

// QuoteRecord is one served quote request, kept so the shop owner can see
// what shipping options customers were offered.
type QuoteRecord struct {
	ID              string
	DestinationCEP  string
	WeightKG        float64
	ServiceCount    int
	CheapestService string
	CheapestPrice   *float64
	CreatedAt       time.Time
}

// NewQuoteRecord builds a record from a validated request, its consolidated
// parcel and the quotes that were served.
func NewQuoteRecord(id string, req QuoteRequest, parcel Parcel, quotes []ServiceQuote, now time.Time) QuoteRecord {
	record := QuoteRecord{
		ID:             id,
		DestinationCEP: req.DestinationCEP,
		WeightKG:       parcel.WeightKG,
		ServiceCount:   len(quotes),
		CreatedAt:      now.UTC(),
	}
	if best := Cheapest(quotes); best != nil {
		record.CheapestService = best.Service
		price := best.Price
		record.CheapestPrice = &price
	}
	return record
}
