package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// =============================================================================
// Asset URL Resolution
// =============================================================================

// AssetURL resolves a Directus file reference to a browsable URL.
// References arrive in three shapes: empty, an absolute URL (legacy records),
// or a bare file ID that must be routed through the CMS assets endpoint.
func AssetURL(baseURL, ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return strings.TrimRight(baseURL, "/") + "/assets/" + ref
}

// FirstAsset returns the first non-empty reference, resolved. Used for the
// product image fallback chain (featured image, then first gallery image).
func FirstAsset(baseURL string, refs ...string) string {
	for _, ref := range refs {
		if ref != "" {
			return AssetURL(baseURL, ref)
		}
	}
	return ""
}

// =============================================================================
// Price Parsing
// =============================================================================

// ParsePrice normalizes a price field from the CMS. Directus serializes
// decimal columns as JSON strings and float columns as numbers; absent or
// unparsable values mean the product has no displayable price.
func ParsePrice(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return &asNumber
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return nil
	}
	asString = strings.TrimSpace(asString)
	if asString == "" {
		return nil
	}
	v, err := strconv.ParseFloat(asString, 64)
	if err != nil {
		return nil
	}
	return &v
}
