package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingType selects the shipping cost strategy of a delivery zone.
type PricingType string

const (
	PricingFree      PricingType = "free"
	PricingFlatRate  PricingType = "flat_rate"
	PricingFixedRate PricingType = "fixed_rate"
)

func (p PricingType) Valid() bool {
	switch p {
	case PricingFree, PricingFlatRate, PricingFixedRate:
		return true
	}
	return false
}

// DeliveryZone maps a set of pincodes to a shipping pricing strategy.
// WeightUnitGrams and Price are required for flat_rate zones,
// FixedAmount for fixed_rate zones.
type DeliveryZone struct {
	ID              string           `json:"id"`
	ZoneName        string           `json:"zoneName"`
	Pincodes        []string         `json:"pincodes"`
	PricingType     PricingType      `json:"pricingType"`
	WeightUnitGrams *int64           `json:"weightUnitGrams,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	FixedAmount     *decimal.Decimal `json:"fixedAmount,omitempty"`
	IsDefault       bool             `json:"isDefault"`
	IsActive        bool             `json:"isActive"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// HasPincode reports whether the zone serves the given pincode.
func (z DeliveryZone) HasPincode(pincode string) bool {
	for _, p := range z.Pincodes {
		if p == pincode {
			return true
		}
	}
	return false
}

// ShippingDetails freezes how an order's shipping cost was derived. The
// snapshot lives on the order so later zone edits never alter a placed
// order's historical charge.
type ShippingDetails struct {
	DeliveryZoneID string      `json:"deliveryZoneId"`
	ZoneName       string      `json:"zoneName"`
	PricingType    PricingType `json:"pricingType"`
	IsManual       bool        `json:"isManual"`
	CalculatedAt   time.Time   `json:"calculatedAt"`
}
