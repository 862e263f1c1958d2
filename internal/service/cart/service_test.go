package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"commerce-engine/internal/domain"
	"github.com/shopspring/decimal"
)

type stubCartRepo struct {
	cart      *domain.Cart
	getErr    error
	putItems  []domain.CartItem
	putTotal  decimal.Decimal
	putCalls  int
	putErr    error
	deleted   bool
	deleteErr error
}

func (s *stubCartRepo) GetByUser(_ context.Context, userID string) (*domain.Cart, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.cart == nil {
		return nil, &domain.NotFoundError{Resource: "cart"}
	}
	return s.cart, nil
}

func (s *stubCartRepo) Put(_ context.Context, userID string, items []domain.CartItem, total decimal.Decimal) (*domain.Cart, error) {
	s.putCalls++
	s.putItems = items
	s.putTotal = total
	if s.putErr != nil {
		return nil, s.putErr
	}
	return &domain.Cart{UserID: userID, Items: items, TotalPrice: total}, nil
}

func (s *stubCartRepo) Delete(_ context.Context, _ string) error {
	s.deleted = true
	return s.deleteErr
}

type stubCatalog struct {
	products map[string]*domain.Product
	bundles  map[string]*domain.Bundle
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, &domain.NotFoundError{Resource: "product", ID: id}
}

func (s *stubCatalog) GetBundle(_ context.Context, id string) (*domain.Bundle, error) {
	if b, ok := s.bundles[id]; ok {
		return b, nil
	}
	return nil, &domain.NotFoundError{Resource: "bundle", ID: id}
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func newService(repo *stubCartRepo, catalog *stubCatalog) *Service {
	return &Service{
		repo:    repo,
		catalog: catalog,
		logger:  log.New(io.Discard, "", 0),
		now:     func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func TestUpsertAddsNewLine(t *testing.T) {
	repo := &stubCartRepo{}
	catalog := &stubCatalog{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Widget", Price: decimal.NewFromInt(100)},
	}}
	svc := newService(repo, catalog)

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", Quantity: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Items))
	}
	line := cart.Items[0]
	if line.Quantity != 2 || !line.Price.Equal(decimal.NewFromInt(100)) || !line.Total.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("unexpected line: %+v", line)
	}
	if !cart.TotalPrice.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected total 200, got %s", cart.TotalPrice)
	}
}

func TestUpsertReplacesQuantityNotAdds(t *testing.T) {
	pid := "p1"
	repo := &stubCartRepo{cart: &domain.Cart{
		ID:     "c1",
		UserID: "u1",
		Items: []domain.CartItem{{
			ID:        "l1",
			ItemType:  domain.ItemProduct,
			ProductID: &pid,
			Quantity:  2,
			Price:     decimal.NewFromInt(100),
			Total:     decimal.NewFromInt(200),
			AddedAt:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		}},
	}}
	catalog := &stubCatalog{products: map[string]*domain.Product{
		"p1": {ID: "p1", Name: "Widget", Price: decimal.NewFromInt(100)},
	}}
	svc := newService(repo, catalog)

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", Quantity: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 {
		t.Fatalf("expected merged single line, got %d", len(cart.Items))
	}
	line := cart.Items[0]
	if line.Quantity != 3 {
		t.Fatalf("expected replaced quantity 3, got %d", line.Quantity)
	}
	if !line.Total.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected total 300, got %s", line.Total)
	}
	if line.ID != "l1" || !line.AddedAt.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected line identity and addedAt preserved, got %+v", line)
	}
}

func TestUpsertRepricesOnWrite(t *testing.T) {
	pid := "p1"
	repo := &stubCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items: []domain.CartItem{{
			ItemType:  domain.ItemProduct,
			ProductID: &pid,
			Quantity:  1,
			Price:     decimal.NewFromInt(100),
			Total:     decimal.NewFromInt(100),
		}},
	}}
	catalog := &stubCatalog{products: map[string]*domain.Product{
		"p1": {ID: "p1", Price: decimal.NewFromInt(100), DiscountedPrice: dec(80)},
	}}
	svc := newService(repo, catalog)

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.Items[0].Price.Equal(decimal.NewFromInt(80)) {
		t.Fatalf("expected current catalog price 80, got %s", cart.Items[0].Price)
	}
}

func TestUpsertZeroQuantityOnMissingCartIsNoop(t *testing.T) {
	repo := &stubCartRepo{}
	svc := newService(repo, &stubCatalog{})

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", Quantity: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.IsActive() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
	if repo.putCalls != 0 {
		t.Fatal("expected no write for a no-op")
	}
}

func TestUpsertZeroQuantityOnMissingLineIsNoop(t *testing.T) {
	other := "p2"
	repo := &stubCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items: []domain.CartItem{{
			ItemType:  domain.ItemProduct,
			ProductID: &other,
			Quantity:  1,
			Price:     decimal.NewFromInt(50),
			Total:     decimal.NewFromInt(50),
		}},
	}}
	svc := newService(repo, &stubCatalog{})

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", Quantity: -1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cart.Items) != 1 || repo.putCalls != 0 {
		t.Fatalf("expected untouched cart, items=%d puts=%d", len(cart.Items), repo.putCalls)
	}
}

func TestUpsertRemovingLastLineEmptiesCart(t *testing.T) {
	pid := "p1"
	repo := &stubCartRepo{cart: &domain.Cart{
		UserID: "u1",
		Items: []domain.CartItem{{
			ItemType:  domain.ItemProduct,
			ProductID: &pid,
			Quantity:  2,
			Price:     decimal.NewFromInt(100),
			Total:     decimal.NewFromInt(200),
		}},
	}}
	svc := newService(repo, &stubCatalog{})

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", Quantity: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.IsActive() {
		t.Fatalf("expected inactive cart, got %+v", cart)
	}
	if repo.putCalls != 1 || len(repo.putItems) != 0 {
		t.Fatalf("expected empty item set written, puts=%d items=%d", repo.putCalls, len(repo.putItems))
	}
}

func TestUpsertVariantPriceResolution(t *testing.T) {
	repo := &stubCartRepo{}
	catalog := &stubCatalog{products: map[string]*domain.Product{
		"p1": {
			ID:    "p1",
			Price: decimal.NewFromInt(100),
			Variants: []domain.ProductVariant{
				{SKU: "p1-red", Price: decimal.NewFromInt(120), DiscountedPrice: dec(110)},
			},
		},
	}}
	svc := newService(repo, catalog)

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", VariantSKU: "p1-red", Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.Items[0].Price.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("expected variant discounted price 110, got %s", cart.Items[0].Price)
	}

	_, err = svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "product", ProductID: "p1", VariantSKU: "p1-blue", Quantity: 1})
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error for unknown variant, got %v", err)
	}
}

func TestUpsertBundleRules(t *testing.T) {
	repo := &stubCartRepo{}
	catalog := &stubCatalog{bundles: map[string]*domain.Bundle{
		"b1": {ID: "b1", Price: decimal.NewFromInt(500), IsActive: true},
		"b2": {ID: "b2", Price: decimal.NewFromInt(500), IsActive: false},
		"b3": {ID: "b3", Price: decimal.Zero, IsActive: true},
	}}
	svc := newService(repo, catalog)

	cart, err := svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "bundle", BundleID: "b1", Quantity: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.Items[0].Price.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected bundle price 500, got %s", cart.Items[0].Price)
	}

	_, err = svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "bundle", BundleID: "b2", Quantity: 1})
	var valErr *domain.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected validation error for inactive bundle, got %v", err)
	}

	_, err = svc.UpsertItem(context.Background(), "u1", UpsertInput{ItemType: "bundle", BundleID: "b3", Quantity: 1})
	var compErr *domain.ComputationError
	if !errors.As(err, &compErr) {
		t.Fatalf("expected computation error for zero-priced bundle, got %v", err)
	}
}

func TestGetMissingCartReturnsEmpty(t *testing.T) {
	svc := newService(&stubCartRepo{}, &stubCatalog{})
	cart, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.IsActive() || !cart.TotalPrice.IsZero() {
		t.Fatalf("expected empty cart, got %+v", cart)
	}
}

func TestClearMissingCartIsNoop(t *testing.T) {
	repo := &stubCartRepo{deleteErr: &domain.NotFoundError{Resource: "cart"}}
	svc := newService(repo, &stubCatalog{})
	if err := svc.Clear(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
