package model

// ColumnMapping binds the semantic roles of the review to columns of the
// uploaded table.
type ColumnMapping struct {
	ASIN             string   `json:"asin" validate:"required"`
	WholesaleImage   string   `json:"wholesale_image" validate:"required"`
	Marketplace      string   `json:"marketplace,omitempty"`       // per-row marketplace code
	MarketplaceImage string   `json:"marketplace_image,omitempty"` // direct image URL or token
	ProductURL       string   `json:"product_url,omitempty"`
	Extra            []string `json:"extra,omitempty" validate:"dive,required"`
}

// Settings are the operator's session-wide display choices.
type Settings struct {
	Marketplace           string `json:"marketplace" validate:"required"`
	Suffix                string `json:"suffix,omitempty" validate:"omitempty,max=64"` // free-text storefront suffix, overrides Marketplace for links
	PageSize              int    `json:"page_size" validate:"oneof=10 20 50 100"`
	ShowMarketplaceImages bool   `json:"show_marketplace_images"`
	ShowWholesaleImages   bool   `json:"show_wholesale_images"`
}
