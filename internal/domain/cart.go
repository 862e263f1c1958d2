package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemType distinguishes product lines from bundle lines.
type ItemType string

const (
	ItemProduct ItemType = "product"
	ItemBundle  ItemType = "bundle"
)

func (t ItemType) Valid() bool {
	return t == ItemProduct || t == ItemBundle
}

// Cart is the single mutable cart of a user. There is no empty-active
// cart: removing the last item deletes the cart itself.
type Cart struct {
	ID         string          `json:"id"`
	UserID     string          `json:"-"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// IsActive is derived: a cart with no items is not active.
func (c Cart) IsActive() bool { return len(c.Items) > 0 }

// CartItem references exactly one of product/bundle depending on
// ItemType. Price is resolved from the catalog at write time, so it can
// drift if catalog prices change before checkout.
type CartItem struct {
	ID         string          `json:"id"`
	ItemType   ItemType        `json:"type"`
	ProductID  *string         `json:"productId,omitempty"`
	BundleID   *string         `json:"bundleId,omitempty"`
	VariantSKU *string         `json:"variantSku,omitempty"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Total      decimal.Decimal `json:"total"`
	AddedAt    time.Time       `json:"addedAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// RefID is the product or bundle id the line points at.
func (i CartItem) RefID() string {
	if i.ItemType == ItemBundle && i.BundleID != nil {
		return *i.BundleID
	}
	if i.ProductID != nil {
		return *i.ProductID
	}
	return ""
}

// IdentityKey is the merge key for upserts: same type, same reference,
// same variant means the same line.
func (i CartItem) IdentityKey() string {
	sku := ""
	if i.VariantSKU != nil {
		sku = *i.VariantSKU
	}
	return string(i.ItemType) + "|" + i.RefID() + "|" + sku
}
