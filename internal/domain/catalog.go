package domain

import "github.com/shopspring/decimal"

// Product is the read-only catalog shape this engine consumes. Catalog
// CRUD lives elsewhere; only pricing, weight and variants matter here.
type Product struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
	WeightGrams     int64            `json:"weightGrams"`
	Images          []string         `json:"images,omitempty"`
	Variants        []ProductVariant `json:"variants,omitempty"`
	IsActive        bool             `json:"isActive"`
}

type ProductVariant struct {
	SKU             string           `json:"sku"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discountedPrice,omitempty"`
}

// EffectivePrice is the discounted price when one is set and positive,
// otherwise the regular price.
func (p Product) EffectivePrice() decimal.Decimal {
	return effective(p.Price, p.DiscountedPrice)
}

func (v ProductVariant) EffectivePrice() decimal.Decimal {
	return effective(v.Price, v.DiscountedPrice)
}

// Variant finds a variant by SKU.
func (p Product) Variant(sku string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		if v.SKU == sku {
			return v, true
		}
	}
	return ProductVariant{}, false
}

type Bundle struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Price           decimal.Decimal   `json:"price"`
	DiscountedPrice *decimal.Decimal  `json:"discountedPrice,omitempty"`
	Images          []string          `json:"images,omitempty"`
	IsActive        bool              `json:"isActive"`
	Components      []BundleComponent `json:"components"`
}

type BundleComponent struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (b Bundle) EffectivePrice() decimal.Decimal {
	return effective(b.Price, b.DiscountedPrice)
}

func effective(regular decimal.Decimal, discounted *decimal.Decimal) decimal.Decimal {
	if discounted != nil && discounted.IsPositive() {
		return *discounted
	}
	return regular
}
