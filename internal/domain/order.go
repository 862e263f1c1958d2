package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusConfirmed  OrderStatus = "confirmed"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// orderTransitions lists the legal next states per status. Delivered and
// cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether moving to next is legal from s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates and performs a status change, returning a
// StateError naming both states when the move is illegal.
func (s OrderStatus) Transition(next OrderStatus) (OrderStatus, error) {
	if !next.Valid() {
		return "", Validationf("invalid order status %q", string(next))
	}
	if !s.CanTransitionTo(next) {
		return "", &StateError{From: s, To: next}
	}
	return next, nil
}

// Order is an immutable record assembled from a cart. Items and address
// are denormalized copies, never live references.
type Order struct {
	ID                    string           `json:"id"`
	UserID                string           `json:"userId"`
	Items                 []OrderItem      `json:"items"`
	Address               AddressSnapshot  `json:"address"`
	TotalAmount           decimal.Decimal  `json:"totalAmount"`
	DiscountedTotalAmount decimal.Decimal  `json:"discountedTotalAmount"`
	ShippingCost          decimal.Decimal  `json:"shippingCost"`
	ShippingDetails       *ShippingDetails `json:"shippingDetails,omitempty"`
	FinalTotalAmount      decimal.Decimal  `json:"finalTotalAmount"`
	Status                OrderStatus      `json:"status"`
	Version               int64            `json:"version"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// OrderItem is a frozen snapshot of a catalog entry at order time.
// UnitWeightGrams is kept so shipping can be re-priced later without
// consulting the (possibly changed) catalog.
type OrderItem struct {
	ItemType              ItemType        `json:"type"`
	RefID                 string          `json:"refId"`
	Name                  string          `json:"name"`
	Price                 decimal.Decimal `json:"price"`
	DiscountedPrice       decimal.Decimal `json:"discountedPrice"`
	Images                []string        `json:"images,omitempty"`
	VariantSKU            *string         `json:"variantSku,omitempty"`
	UnitWeightGrams       int64           `json:"unitWeightGrams"`
	Quantity              int             `json:"quantity"`
	TotalAmount           decimal.Decimal `json:"totalAmount"`
	DiscountedTotalAmount decimal.Decimal `json:"discountedTotalAmount"`
}

// RecomputeTotals re-derives the order totals from its item snapshots.
// Shipping is left untouched; the final total is re-derived from the new
// net total plus the current shipping cost.
func (o *Order) RecomputeTotals() {
	gross := decimal.Zero
	net := decimal.Zero
	for _, it := range o.Items {
		gross = gross.Add(it.TotalAmount)
		net = net.Add(it.DiscountedTotalAmount)
	}
	o.TotalAmount = gross
	o.DiscountedTotalAmount = net
	o.RederiveFinalTotal()
}

// RederiveFinalTotal re-asserts finalTotalAmount == discountedTotalAmount
// + shippingCost.
func (o *Order) RederiveFinalTotal() {
	o.FinalTotalAmount = o.DiscountedTotalAmount.Add(o.ShippingCost)
}

// TotalWeightGrams sums the snapshot weights of all lines.
func (o Order) TotalWeightGrams() int64 {
	var total int64
	for _, it := range o.Items {
		total += it.UnitWeightGrams * int64(it.Quantity)
	}
	return total
}
