package order

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"commerce-engine/internal/domain"
	"commerce-engine/internal/notify"
	addressrepo "commerce-engine/internal/repository/address"
	cartrepo "commerce-engine/internal/repository/cart"
	catalogrepo "commerce-engine/internal/repository/catalog"
	orderrepo "commerce-engine/internal/repository/order"
	"commerce-engine/internal/service/shipping"
	"github.com/shopspring/decimal"
)

type orderRepo interface {
	CreateClearingCart(ctx context.Context, o domain.Order, cartID string) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetForUser(ctx context.Context, id, userID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Update(ctx context.Context, o domain.Order, expectedVersion int64) (*domain.Order, error)
}

type cartReader interface {
	GetByID(ctx context.Context, id, userID string) (*domain.Cart, error)
}

type addressReader interface {
	Get(ctx context.Context, id, userID string) (*domain.Address, error)
}

type catalogReader interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetBundle(ctx context.Context, id string) (*domain.Bundle, error)
}

type shippingCalc interface {
	ByPincode(ctx context.Context, pincode string, weightGrams int64) (decimal.Decimal, *domain.ShippingDetails, error)
	ByZone(ctx context.Context, zoneID string, weightGrams int64) (decimal.Decimal, *domain.ShippingDetails, error)
}

// Service turns carts into immutable orders and governs their lifecycle.
// Item prices are re-resolved from the catalog at assembly time and then
// frozen; every later mutation works from the frozen snapshots.
type Service struct {
	orders    orderRepo
	carts     cartReader
	addresses addressReader
	catalog   catalogReader
	shipping  shippingCalc
	notifier  notify.Notifier
	logger    *log.Logger
	// strict fails assembly when a cart line references a catalog entry
	// that no longer exists instead of skipping the line.
	strict bool
	now    func() time.Time
}

type Deps struct {
	Orders      orderrepo.Repository
	Carts       cartrepo.Repository
	Addresses   addressrepo.Repository
	Catalog     catalogrepo.Repository
	Shipping    *shipping.Calculator
	Notifier    notify.Notifier
	Logger      *log.Logger
	StrictItems bool
}

func New(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	notifier := d.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Service{
		orders:    d.Orders,
		carts:     d.Carts,
		addresses: d.Addresses,
		catalog:   d.Catalog,
		shipping:  d.Shipping,
		notifier:  notifier,
		logger:    logger,
		strict:    d.StrictItems,
		now:       time.Now,
	}
}

// ItemInput names a product or bundle with a quantity, used when an edit
// replaces an order's items wholesale.
type ItemInput struct {
	ItemType   string `json:"type"`
	ProductID  string `json:"productId,omitempty"`
	BundleID   string `json:"bundleId,omitempty"`
	VariantSKU string `json:"variantSku,omitempty"`
	Quantity   int    `json:"quantity"`
}

type EditInput struct {
	AddressID *string     `json:"addressId,omitempty"`
	Items     []ItemInput `json:"items,omitempty"`
}

// ItemQuantityUpdate edits one existing order line by reference id.
// Quantity 0 removes the line.
type ItemQuantityUpdate struct {
	ItemType  string `json:"type"`
	ProductID string `json:"productId,omitempty"`
	BundleID  string `json:"bundleId,omitempty"`
	Quantity  int    `json:"quantity"`
}

type AdminUpdateInput struct {
	Status         *string              `json:"status,omitempty"`
	AddressID      *string              `json:"addressId,omitempty"`
	Items          []ItemQuantityUpdate `json:"items,omitempty"`
	ShippingCost   *decimal.Decimal     `json:"shippingCost,omitempty"`
	DeliveryZoneID *string              `json:"deliveryZoneId,omitempty"`
	Version        *int64               `json:"version,omitempty"`
}

// Create assembles an immutable order from the user's cart: current
// catalog prices are frozen into item snapshots, the address is copied,
// shipping is priced by pincode, and the cart is cleared in the same
// transaction as the order insert.
func (s *Service) Create(ctx context.Context, userID, cartID, addressID string) (*domain.Order, error) {
	cart, err := s.carts.GetByID(ctx, cartID, userID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, domain.Validationf("cart is empty")
	}
	addr, err := s.addresses.Get(ctx, addressID, userID)
	if err != nil {
		return nil, err
	}

	refs := make([]itemRef, 0, len(cart.Items))
	for _, line := range cart.Items {
		refs = append(refs, itemRef{
			itemType:   line.ItemType,
			refID:      line.RefID(),
			variantSKU: line.VariantSKU,
			quantity:   line.Quantity,
		})
	}
	snap, err := s.buildSnapshots(ctx, refs)
	if err != nil {
		return nil, err
	}

	cost, details, err := s.shipping.ByPincode(ctx, addr.Pincode, snap.weightGrams)
	if err != nil {
		return nil, err
	}

	o := domain.Order{
		UserID:                userID,
		Items:                 snap.items,
		Address:               addr.Snapshot(),
		TotalAmount:           snap.gross,
		DiscountedTotalAmount: snap.net,
		ShippingCost:          cost,
		ShippingDetails:       details,
		Status:                domain.StatusPending,
	}
	o.RederiveFinalTotal()

	created, err := s.orders.CreateClearingCart(ctx, o, cart.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: created id=%s user_id=%s items=%d weight_g=%d shipping=%s final=%s",
		created.ID, userID, len(created.Items), snap.weightGrams, cost.String(), created.FinalTotalAmount.String())
	s.notifier.OrderCreated(*created)
	return created, nil
}

// Edit is the user-facing mutation, allowed only while the order is
// pending. Supplied items fully re-derive the snapshots; an address-only
// edit re-prices shipping against the weight of the existing snapshots.
func (s *Service) Edit(ctx context.Context, userID, orderID string, in EditInput) (*domain.Order, error) {
	o, err := s.orders.GetForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StatusPending {
		return nil, &domain.StateError{From: o.Status, Msg: "only pending orders can be edited"}
	}

	itemsChanged := false
	if in.Items != nil {
		refs, err := refsFromInputs(in.Items)
		if err != nil {
			return nil, err
		}
		snap, err := s.buildSnapshots(ctx, refs)
		if err != nil {
			return nil, err
		}
		o.Items = snap.items
		itemsChanged = true
	}

	addressChanged := false
	if in.AddressID != nil {
		addr, err := s.addresses.Get(ctx, *in.AddressID, userID)
		if err != nil {
			return nil, err
		}
		o.Address = addr.Snapshot()
		addressChanged = true
	}

	if !itemsChanged && !addressChanged {
		return nil, domain.Validationf("nothing to update")
	}

	cost, details, err := s.shipping.ByPincode(ctx, o.Address.Pincode, o.TotalWeightGrams())
	if err != nil {
		return nil, err
	}
	o.ShippingCost = cost
	o.ShippingDetails = details
	o.RecomputeTotals()

	updated, err := s.orders.Update(ctx, *o, o.Version)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: edited id=%s user_id=%s items_changed=%t address_changed=%t final=%s",
		orderID, userID, itemsChanged, addressChanged, updated.FinalTotalAmount.String())
	return updated, nil
}

// UpdateStatus performs a single legality-checked status transition.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, newStatus string) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	previous := o.Status
	next, err := previous.Transition(domain.OrderStatus(strings.TrimSpace(newStatus)))
	if err != nil {
		return nil, err
	}
	o.Status = next

	updated, err := s.orders.Update(ctx, *o, o.Version)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: status id=%s %s -> %s", orderID, previous, next)
	s.notifier.OrderStatusChanged(*updated, previous)
	return updated, nil
}

// AdminUpdate is the broad admin mutation: optional status transition,
// address replacement and per-line quantity edits, followed by shipping
// recalculation with three-tier precedence (manual override, explicit
// zone, auto by pincode).
func (s *Service) AdminUpdate(ctx context.Context, orderID string, in AdminUpdateInput) (*domain.Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if in.Version != nil && *in.Version != o.Version {
		return nil, &domain.ConflictError{
			Code: domain.ConflictStaleVersion,
			Msg:  "order was modified since it was read",
		}
	}
	readVersion := o.Version

	previous := o.Status
	statusChanged := false
	if in.Status != nil {
		next, err := previous.Transition(domain.OrderStatus(strings.TrimSpace(*in.Status)))
		if err != nil {
			return nil, err
		}
		o.Status = next
		statusChanged = next != previous
	}

	addressChanged := false
	if in.AddressID != nil {
		addr, err := s.addresses.Get(ctx, *in.AddressID, o.UserID)
		if err != nil {
			return nil, err
		}
		o.Address = addr.Snapshot()
		addressChanged = true
	}

	itemsChanged := false
	for _, upd := range in.Items {
		if err := s.applyItemUpdate(o, upd); err != nil {
			return nil, err
		}
		itemsChanged = true
	}
	if itemsChanged {
		o.RecomputeTotals()
	}

	if err := s.recalculateShipping(ctx, o, in, addressChanged || itemsChanged); err != nil {
		return nil, err
	}
	o.RederiveFinalTotal()

	updated, err := s.orders.Update(ctx, *o, readVersion)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("order service: admin update id=%s status=%s shipping=%s final=%s",
		orderID, updated.Status, updated.ShippingCost.String(), updated.FinalTotalAmount.String())
	if statusChanged {
		s.notifier.OrderStatusChanged(*updated, previous)
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.orders.Get(ctx, orderID)
}

func (s *Service) GetForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	return s.orders.GetForUser(ctx, orderID, userID)
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List(ctx)
}

// applyItemUpdate edits one line in place against its frozen snapshot
// prices. Quantity 0 removes the line; the catalog is not consulted.
func (s *Service) applyItemUpdate(o *domain.Order, upd ItemQuantityUpdate) error {
	if upd.Quantity < 0 {
		return domain.Validationf("item quantity must not be negative")
	}
	itemType := domain.ItemType(strings.TrimSpace(upd.ItemType))
	if !itemType.Valid() {
		return domain.Validationf("invalid item type %q", upd.ItemType)
	}
	refID := strings.TrimSpace(upd.ProductID)
	if itemType == domain.ItemBundle {
		refID = strings.TrimSpace(upd.BundleID)
	}
	if refID == "" {
		return domain.Validationf("%s id is required", string(itemType))
	}

	for i, line := range o.Items {
		if line.ItemType != itemType || line.RefID != refID {
			continue
		}
		if upd.Quantity == 0 {
			o.Items = append(o.Items[:i:i], o.Items[i+1:]...)
			return nil
		}
		qty := decimal.NewFromInt(int64(upd.Quantity))
		o.Items[i].Quantity = upd.Quantity
		o.Items[i].TotalAmount = line.Price.Mul(qty)
		o.Items[i].DiscountedTotalAmount = line.DiscountedPrice.Mul(qty)
		return nil
	}
	return &domain.NotFoundError{Resource: "order item", ID: refID}
}

// recalculateShipping applies the three-tier precedence; when none of
// the tiers applies, shipping is left untouched.
func (s *Service) recalculateShipping(ctx context.Context, o *domain.Order, in AdminUpdateInput, autoTrigger bool) error {
	switch {
	case in.ShippingCost != nil:
		if in.ShippingCost.IsNegative() {
			return domain.Validationf("shipping cost must not be negative")
		}
		o.ShippingCost = *in.ShippingCost
		details := domain.ShippingDetails{IsManual: true, CalculatedAt: s.now().UTC()}
		if o.ShippingDetails != nil {
			details.DeliveryZoneID = o.ShippingDetails.DeliveryZoneID
			details.ZoneName = o.ShippingDetails.ZoneName
			details.PricingType = o.ShippingDetails.PricingType
		}
		o.ShippingDetails = &details
	case in.DeliveryZoneID != nil:
		cost, details, err := s.shipping.ByZone(ctx, *in.DeliveryZoneID, o.TotalWeightGrams())
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Validationf("delivery zone %s is missing or inactive", *in.DeliveryZoneID)
			}
			return err
		}
		o.ShippingCost = cost
		o.ShippingDetails = details
	case autoTrigger:
		cost, details, err := s.shipping.ByPincode(ctx, o.Address.Pincode, o.TotalWeightGrams())
		if err != nil {
			return err
		}
		o.ShippingCost = cost
		o.ShippingDetails = details
	}
	return nil
}

// itemRef names a catalog entry and quantity before snapshotting.
type itemRef struct {
	itemType   domain.ItemType
	refID      string
	variantSKU *string
	quantity   int
}

type snapshotResult struct {
	items       []domain.OrderItem
	gross       decimal.Decimal
	net         decimal.Decimal
	weightGrams int64
}

func refsFromInputs(inputs []ItemInput) ([]itemRef, error) {
	refs := make([]itemRef, 0, len(inputs))
	for _, in := range inputs {
		itemType := domain.ItemType(strings.TrimSpace(in.ItemType))
		if !itemType.Valid() {
			return nil, domain.Validationf("invalid item type %q", in.ItemType)
		}
		if in.Quantity < 1 {
			return nil, domain.Validationf("item quantity must be at least 1")
		}
		refID := strings.TrimSpace(in.ProductID)
		if itemType == domain.ItemBundle {
			refID = strings.TrimSpace(in.BundleID)
		}
		if refID == "" {
			return nil, domain.Validationf("%s id is required", string(itemType))
		}
		ref := itemRef{itemType: itemType, refID: refID, quantity: in.Quantity}
		if sku := strings.TrimSpace(in.VariantSKU); sku != "" {
			ref.variantSKU = &sku
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// buildSnapshots resolves each reference against the current catalog and
// freezes prices, names, images and unit weights. A reference to a
// deleted catalog entry is skipped and logged in lenient mode, or fails
// the whole assembly in strict mode.
func (s *Service) buildSnapshots(ctx context.Context, refs []itemRef) (*snapshotResult, error) {
	res := &snapshotResult{gross: decimal.Zero, net: decimal.Zero}
	for _, ref := range refs {
		item, err := s.snapshotOne(ctx, ref)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) && !s.strict {
				s.logger.Printf("order service: skipping stale %s reference id=%s", ref.itemType, ref.refID)
				continue
			}
			return nil, err
		}
		res.items = append(res.items, *item)
		res.gross = res.gross.Add(item.TotalAmount)
		res.net = res.net.Add(item.DiscountedTotalAmount)
		res.weightGrams += item.UnitWeightGrams * int64(item.Quantity)
	}
	if len(res.items) == 0 {
		return nil, domain.Validationf("order has no purchasable items")
	}
	return res, nil
}

func (s *Service) snapshotOne(ctx context.Context, ref itemRef) (*domain.OrderItem, error) {
	qty := decimal.NewFromInt(int64(ref.quantity))

	if ref.itemType == domain.ItemBundle {
		bundle, err := s.catalog.GetBundle(ctx, ref.refID)
		if err != nil {
			return nil, err
		}
		unitWeight, err := s.bundleWeight(ctx, bundle)
		if err != nil {
			return nil, err
		}
		gross := bundle.Price
		net := bundle.EffectivePrice()
		return &domain.OrderItem{
			ItemType:              domain.ItemBundle,
			RefID:                 bundle.ID,
			Name:                  bundle.Name,
			Price:                 gross,
			DiscountedPrice:       net,
			Images:                bundle.Images,
			UnitWeightGrams:       unitWeight,
			Quantity:              ref.quantity,
			TotalAmount:           gross.Mul(qty),
			DiscountedTotalAmount: net.Mul(qty),
		}, nil
	}

	product, err := s.catalog.GetProduct(ctx, ref.refID)
	if err != nil {
		return nil, err
	}
	gross := product.Price
	net := product.EffectivePrice()
	if ref.variantSKU != nil {
		variant, ok := product.Variant(*ref.variantSKU)
		if !ok {
			return nil, domain.Validationf("product %s has no variant %q", ref.refID, *ref.variantSKU)
		}
		gross = variant.Price
		net = variant.EffectivePrice()
	}
	return &domain.OrderItem{
		ItemType:              domain.ItemProduct,
		RefID:                 product.ID,
		Name:                  product.Name,
		Price:                 gross,
		DiscountedPrice:       net,
		Images:                product.Images,
		VariantSKU:            ref.variantSKU,
		UnitWeightGrams:       product.WeightGrams,
		Quantity:              ref.quantity,
		TotalAmount:           gross.Mul(qty),
		DiscountedTotalAmount: net.Mul(qty),
	}, nil
}

// bundleWeight is the sum over the bundle's constituent products of
// product weight times component quantity. A constituent that vanished
// from the catalog contributes no weight in lenient mode.
func (s *Service) bundleWeight(ctx context.Context, bundle *domain.Bundle) (int64, error) {
	var total int64
	for _, comp := range bundle.Components {
		product, err := s.catalog.GetProduct(ctx, comp.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) && !s.strict {
				s.logger.Printf("order service: bundle %s component product %s missing, weight skipped", bundle.ID, comp.ProductID)
				continue
			}
			return 0, err
		}
		total += product.WeightGrams * int64(comp.Quantity)
	}
	return total, nil
}
