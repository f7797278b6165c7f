package review

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"listingmatch/internal/marketplace"
	"listingmatch/internal/model"
	"listingmatch/internal/table"
)

// ErrUnknownColumn indicates a mapping refers to a column the table does not have
type ErrUnknownColumn struct {
	Role   string
	Column string
}

func (e *ErrUnknownColumn) Error() string {
	return fmt.Sprintf("unknown column for %s: %q", e.Role, e.Column)
}

// ErrValidation indicates settings or mapping input failed validation
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

var validate = validator.New()

// ValidateMapping checks the mapping shape and that every referenced column
// exists in t.
func ValidateMapping(m model.ColumnMapping, t *table.Table) error {
	if err := validate.Struct(m); err != nil {
		return validationError(err)
	}

	roles := []struct{ role, column string }{
		{"asin", m.ASIN},
		{"wholesale_image", m.WholesaleImage},
		{"marketplace", m.Marketplace},
		{"marketplace_image", m.MarketplaceImage},
		{"product_url", m.ProductURL},
	}
	for _, c := range m.Extra {
		roles = append(roles, struct{ role, column string }{"extra", c})
	}
	for _, r := range roles {
		if r.column != "" && !t.HasColumn(r.column) {
			return &ErrUnknownColumn{Role: r.role, Column: r.column}
		}
	}
	return nil
}

// ValidateSettings checks page size, suffix length and the marketplace code.
func ValidateSettings(s model.Settings) error {
	if err := validate.Struct(s); err != nil {
		return validationError(err)
	}
	if !marketplace.IsKnown(s.Marketplace) {
		return &ErrValidation{Field: "marketplace", Message: fmt.Sprintf("unsupported marketplace %q", s.Marketplace)}
	}
	return nil
}

func validationError(err error) error {
	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		return &ErrValidation{Field: ve[0].Field(), Message: ve[0].Tag()}
	}
	return &ErrValidation{Field: "request", Message: err.Error()}
}

// DefaultSettings is what a fresh session starts with.
func DefaultSettings(defaultMarketplace string) model.Settings {
	mp := marketplace.Normalize(defaultMarketplace)
	if !marketplace.IsKnown(mp) {
		mp = "it"
	}
	return model.Settings{
		Marketplace:           mp,
		PageSize:              DefaultPageSize,
		ShowMarketplaceImages: true,
		ShowWholesaleImages:   true,
	}
}

var roleHints = map[string][]string{
	"asin":              {"asin"},
	"wholesale_image":   {"wholesale_image", "wholesale image", "image_url", "image url", "image", "immagine"},
	"marketplace":       {"marketplace", "market", "country"},
	"marketplace_image": {"marketplace_image", "amazon_image", "amazon image"},
	"product_url":       {"product_url", "url", "link"},
}

// GuessMapping preselects columns by header name. ASIN and wholesale image
// fall back to the first column so the form always starts valid; optional
// roles stay unset unless a header matches.
func GuessMapping(t *table.Table) model.ColumnMapping {
	if t == nil || len(t.Headers) == 0 {
		return model.ColumnMapping{}
	}
	first := t.Headers[0]

	m := model.ColumnMapping{
		ASIN:             findColumn(t.Headers, roleHints["asin"]),
		WholesaleImage:   findColumn(t.Headers, roleHints["wholesale_image"]),
		Marketplace:      findColumn(t.Headers, roleHints["marketplace"]),
		MarketplaceImage: findColumn(t.Headers, roleHints["marketplace_image"]),
		ProductURL:       findColumn(t.Headers, roleHints["product_url"]),
	}
	if m.ASIN == "" {
		m.ASIN = first
	}
	if m.WholesaleImage == "" {
		m.WholesaleImage = first
	}
	return m
}

func findColumn(headers, hints []string) string {
	for _, hint := range hints {
		for _, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), hint) {
				return h
			}
		}
	}
	return ""
}
