package domain

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Sku is one sellable product record from the paginated skus endpoint.
// Prices are kept as raw JSON and passed through to the output verbatim.
// Categories is the nested membership structure; it has to be searched
// recursively, not indexed, to decide category membership.
type Sku struct {
	Code          string          `json:"code"`
	Title         string          `json:"title"`
	RegularPrice  json.RawMessage `json:"regularPrice"`
	DiscountPrice json.RawMessage `json:"discountPrice"`
	Brand         string          `json:"brand"`
	Categories    json.RawMessage `json:"categories"`
}

// InCategory reports whether the SKU's membership structure contains the
// target category code anywhere in its nesting.
func (s Sku) InCategory(code string) bool {
	return categoryCodeExists(gjson.ParseBytes(s.Categories), code)
}

// Product converts the SKU into its output projection.
func (s Sku) Product() Product {
	return Product{
		ID:           s.Code,
		Name:         s.Title,
		RegularPrice: s.RegularPrice,
		PromoPrice:   s.DiscountPrice,
		Brand:        s.Brand,
	}
}

// categoryCodeExists searches an object's values: a value that is itself an
// object carrying a "code" field is compared against the target; a value that
// is an array is searched element by element. Values of any other shape, and
// objects without a "code" field, are skipped rather than descended into.
func categoryCodeExists(data gjson.Result, target string) bool {
	if !data.IsObject() {
		return false
	}
	found := false
	data.ForEach(func(_, value gjson.Result) bool {
		switch {
		case value.IsObject():
			if code := value.Get("code"); code.Exists() && code.String() == target {
				found = true
				return false
			}
		case value.IsArray():
			for _, item := range value.Array() {
				if categoryCodeExists(item, target) {
					found = true
					return false
				}
			}
		}
		return true
	})
	return found
}
