package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"commerce-engine/internal/domain"
	cartrepo "commerce-engine/internal/repository/cart"
	"github.com/shopspring/decimal"
)

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	Put(ctx context.Context, userID string, items []domain.CartItem, total decimal.Decimal) (*domain.Cart, error)
	Delete(ctx context.Context, userID string) error
}

type catalogRepo interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetBundle(ctx context.Context, id string) (*domain.Bundle, error)
}

// Service maintains the single mutable cart of each user. Line prices
// are resolved from the catalog at write time, so cart totals track
// current prices until checkout freezes them into an order.
type Service struct {
	repo    cartRepo
	catalog catalogRepo
	logger  *log.Logger
	now     func() time.Time
}

func New(repo cartrepo.Repository, catalog catalogRepo, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, catalog: catalog, logger: logger, now: time.Now}
}

type UpsertInput struct {
	ItemType   string `json:"type"`
	ProductID  string `json:"productId,omitempty"`
	BundleID   string `json:"bundleId,omitempty"`
	VariantSKU string `json:"variantSku,omitempty"`
	Quantity   int    `json:"quantity"`
}

// Get returns the user's cart, or an empty cart value when none exists.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return emptyCart(userID), nil
		}
		return nil, err
	}
	return cart, nil
}

// UpsertItem merges a line into the cart by identity key (type,
// reference, variant). A positive quantity replaces quantity, price and
// total in place; quantity <= 0 removes the line, and is a no-op when no
// such line (or no cart) exists. Removing the last line deletes the cart.
func (s *Service) UpsertItem(ctx context.Context, userID string, in UpsertInput) (*domain.Cart, error) {
	itemType := domain.ItemType(strings.TrimSpace(in.ItemType))
	if !itemType.Valid() {
		return nil, domain.Validationf("invalid item type %q", in.ItemType)
	}
	refID := strings.TrimSpace(in.ProductID)
	if itemType == domain.ItemBundle {
		refID = strings.TrimSpace(in.BundleID)
	}
	if refID == "" {
		return nil, domain.Validationf("%s id is required", string(itemType))
	}

	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	incoming := buildLine(itemType, refID, strings.TrimSpace(in.VariantSKU), in.Quantity)

	if in.Quantity <= 0 {
		if cart == nil {
			return emptyCart(userID), nil
		}
		items, removed := removeLine(cart.Items, incoming.IdentityKey())
		if !removed {
			return cart, nil
		}
		return s.repo.Put(ctx, userID, items, sumTotals(items))
	}

	price, err := s.resolveUnitPrice(ctx, itemType, refID, incoming.VariantSKU)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	incoming.Price = price
	incoming.Total = price.Mul(decimal.NewFromInt(int64(in.Quantity)))
	incoming.AddedAt = now
	incoming.UpdatedAt = now

	var items []domain.CartItem
	if cart != nil {
		items = cart.Items
	}
	merged := false
	for i, line := range items {
		if line.IdentityKey() == incoming.IdentityKey() {
			incoming.ID = line.ID
			incoming.AddedAt = line.AddedAt
			items[i] = incoming
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, incoming)
	}

	updated, err := s.repo.Put(ctx, userID, items, sumTotals(items))
	if err != nil {
		return nil, err
	}
	s.logger.Printf("cart service: upsert user_id=%s type=%s ref_id=%s qty=%d total=%s", userID, itemType, refID, in.Quantity, updated.TotalPrice.String())
	return updated, nil
}

// Clear deletes the user's cart. Clearing an absent cart is not an error.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

func (s *Service) resolveUnitPrice(ctx context.Context, itemType domain.ItemType, refID string, variantSKU *string) (decimal.Decimal, error) {
	if itemType == domain.ItemBundle {
		bundle, err := s.catalog.GetBundle(ctx, refID)
		if err != nil {
			return decimal.Zero, err
		}
		if !bundle.IsActive {
			return decimal.Zero, domain.Validationf("bundle %s is not available", refID)
		}
		price := bundle.EffectivePrice()
		if !price.IsPositive() {
			return decimal.Zero, domain.Computationf("bundle %s resolved to a non-positive price", refID)
		}
		return price, nil
	}

	product, err := s.catalog.GetProduct(ctx, refID)
	if err != nil {
		return decimal.Zero, err
	}
	if variantSKU != nil {
		variant, ok := product.Variant(*variantSKU)
		if !ok {
			return decimal.Zero, domain.Validationf("product %s has no variant %q", refID, *variantSKU)
		}
		return variant.EffectivePrice(), nil
	}
	return product.EffectivePrice(), nil
}

func buildLine(itemType domain.ItemType, refID, variantSKU string, quantity int) domain.CartItem {
	line := domain.CartItem{ItemType: itemType, Quantity: quantity}
	if itemType == domain.ItemBundle {
		line.BundleID = &refID
	} else {
		line.ProductID = &refID
	}
	if variantSKU != "" {
		line.VariantSKU = &variantSKU
	}
	return line
}

func removeLine(items []domain.CartItem, key string) ([]domain.CartItem, bool) {
	for i, line := range items {
		if line.IdentityKey() == key {
			return append(items[:i:i], items[i+1:]...), true
		}
	}
	return items, false
}

func sumTotals(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range items {
		total = total.Add(line.Total)
	}
	return total
}

func emptyCart(userID string) *domain.Cart {
	return &domain.Cart{UserID: userID, Items: nil, TotalPrice: decimal.Zero}
}
