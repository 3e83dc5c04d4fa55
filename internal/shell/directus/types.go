package directus

import (
	"encoding/json"
	"strings"
)

// =============================================================================
// Wire Types
// =============================================================================

// Directus wraps every items response in a data envelope.

type itemResponse struct {
	Data json.RawMessage `json:"data"`
}

// shopRecord mirrors the lojas collection.
type shopRecord struct {
	Nome                 string          `json:"nome"`
	Logo                 json.RawMessage `json:"logo"`
	CorPrimaria          string          `json:"cor_primaria"`
	WhatsAppComercial    string          `json:"whatsapp_comercial"`
	SlugURL              string          `json:"slug_url"`
	BannerPrincipal1     json.RawMessage `json:"bannerprincipal1"`
	LinkBannerPrincipal1 string          `json:"linkbannerprincipal1"`
	BannerPrincipal2     json.RawMessage `json:"bannerprincipal2"`
	LinkBannerPrincipal2 string          `json:"linkbannerprincipal2"`
	BannerMenor1         json.RawMessage `json:"bannermenor1"`
	BannerMenor2         json.RawMessage `json:"bannermenor2"`
}

// categoryRecord mirrors the categorias collection.
type categoryRecord struct {
	ID   json.RawMessage `json:"id"`
	Nome string          `json:"nome"`
	Slug string          `json:"slug"`
}

// variantRecord mirrors one entry of a product's variantes relation.
type variantRecord struct {
	Nome string          `json:"nome"`
	Foto json.RawMessage `json:"foto"`
}

// productRecord mirrors the produtos collection.
type productRecord struct {
	ID             json.RawMessage `json:"id"`
	Nome           string          `json:"nome"`
	Slug           string          `json:"slug"`
	Descricao      string          `json:"descricao"`
	Preco          json.RawMessage `json:"preco"`
	ImagemDestaque json.RawMessage `json:"imagem_destaque"`
	Imagem1        json.RawMessage `json:"imagem1"`
	StatusUrgencia string          `json:"status_urgencia"`
	Tamanho        string          `json:"tamanho"`
	CategoriaID    json.RawMessage `json:"categoria_id"`
	Variantes      []variantRecord `json:"variantes"`
}

// =============================================================================
// Field Decoding Helpers
// =============================================================================

// assetRef extracts a file reference from a Directus file field, which
// serializes either as a bare ID string or, with expanded fields, as an
// object carrying the ID.
func assetRef(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asObject struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &asObject); err == nil {
		return asObject.ID
	}
	return ""
}

// recordID renders a Directus primary key, which may be an integer or a
// UUID string, as a string.
func recordID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return asString
	}

	var asNumber json.Number
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber.String()
	}
	return strings.Trim(string(raw), `"`)
}
