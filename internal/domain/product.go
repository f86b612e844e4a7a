package domain

import "encoding/json"

// Product is the output projection of a matched SKU.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	RegularPrice json.RawMessage `json:"regular_price"`
	PromoPrice   json.RawMessage `json:"promo_price"`
	Brand        string          `json:"brand"`
}
