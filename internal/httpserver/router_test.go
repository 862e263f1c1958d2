package httpserver

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commerce-engine/internal/domain"
	cartsvc "commerce-engine/internal/service/cart"
	ordersvc "commerce-engine/internal/service/order"
	zonesvc "commerce-engine/internal/service/zone"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

var testSecret = []byte("test-secret")

func logDiscard() *log.Logger { return log.New(io.Discard, "", 0) }

func signToken(t *testing.T, sub, role string) string {
	t.Helper()
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

type stubZoneService struct {
	zone *domain.DeliveryZone
	err  error
}

func (s *stubZoneService) Create(_ context.Context, _ zonesvc.Input) (*domain.DeliveryZone, error) {
	return s.zone, s.err
}
func (s *stubZoneService) Update(_ context.Context, _ string, _ zonesvc.Input) (*domain.DeliveryZone, error) {
	return s.zone, s.err
}
func (s *stubZoneService) Delete(_ context.Context, _ string) error { return s.err }
func (s *stubZoneService) Get(_ context.Context, _ string) (*domain.DeliveryZone, error) {
	return s.zone, s.err
}
func (s *stubZoneService) List(_ context.Context) ([]domain.DeliveryZone, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.DeliveryZone{}, nil
}
func (s *stubZoneService) SetDefault(_ context.Context, _ string) error { return s.err }

type stubCartService struct {
	cart       *domain.Cart
	err        error
	lastUserID string
}

func (s *stubCartService) Get(_ context.Context, userID string) (*domain.Cart, error) {
	s.lastUserID = userID
	return s.cart, s.err
}
func (s *stubCartService) UpsertItem(_ context.Context, userID string, _ cartsvc.UpsertInput) (*domain.Cart, error) {
	s.lastUserID = userID
	return s.cart, s.err
}
func (s *stubCartService) Clear(_ context.Context, userID string) error {
	s.lastUserID = userID
	return s.err
}

type stubOrderService struct {
	order *domain.Order
	err   error
}

func (s *stubOrderService) Create(_ context.Context, _, _, _ string) (*domain.Order, error) {
	return s.order, s.err
}
func (s *stubOrderService) Edit(_ context.Context, _, _ string, _ ordersvc.EditInput) (*domain.Order, error) {
	return s.order, s.err
}
func (s *stubOrderService) UpdateStatus(_ context.Context, _, _ string) (*domain.Order, error) {
	return s.order, s.err
}
func (s *stubOrderService) AdminUpdate(_ context.Context, _ string, _ ordersvc.AdminUpdateInput) (*domain.Order, error) {
	return s.order, s.err
}
func (s *stubOrderService) Get(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.err
}
func (s *stubOrderService) GetForUser(_ context.Context, _, _ string) (*domain.Order, error) {
	return s.order, s.err
}
func (s *stubOrderService) ListForUser(_ context.Context, _ string) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Order{}, nil
}
func (s *stubOrderService) List(_ context.Context) ([]domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []domain.Order{}, nil
}

type stubQuoter struct {
	cost    decimal.Decimal
	details *domain.ShippingDetails
	err     error
}

func (s *stubQuoter) ByPincode(_ context.Context, _ string, _ int64) (decimal.Decimal, *domain.ShippingDetails, error) {
	return s.cost, s.details, s.err
}

type testDeps struct {
	zones    *stubZoneService
	carts    *stubCartService
	orders   *stubOrderService
	shipping *stubQuoter
}

func newTestRouter() (*gin.Engine, *testDeps) {
	gin.SetMode(gin.TestMode)
	d := &testDeps{
		zones:    &stubZoneService{zone: &domain.DeliveryZone{ID: "zone-1", ZoneName: "Metro"}},
		carts:    &stubCartService{cart: &domain.Cart{ID: "cart-1"}},
		orders:   &stubOrderService{order: &domain.Order{ID: "ord-1", Status: domain.StatusPending}},
		shipping: &stubQuoter{cost: decimal.NewFromInt(80)},
	}
	router := buildRouter(logDiscard(), nil, Deps{
		Zones:     d.zones,
		Carts:     d.carts,
		Orders:    d.orders,
		Shipping:  d.shipping,
		JWTSecret: testSecret,
	})
	return router, d
}

func doRequest(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/cart", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAuth_BadToken(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/cart", "", "not-a-jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_WrongSecret(t *testing.T) {
	router, _ := newTestRouter()
	claims := jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	rec := doRequest(router, http.MethodGet, "/api/cart", "", token)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuth_PrincipalBoundToSubject(t *testing.T) {
	router, deps := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/cart", "", signToken(t, "user-42", "user"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if deps.carts.lastUserID != "user-42" {
		t.Fatalf("service called with user %q, want user-42", deps.carts.lastUserID)
	}
}

func TestAuth_AdminRouteForbiddenForUser(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/admin/zones", "", signToken(t, "user-1", "user"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAuth_AdminRouteAllowsAdmin(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/admin/zones", "", signToken(t, "admin-1", "admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateZone_Created(t *testing.T) {
	router, _ := newTestRouter()
	body := `{"zoneName":"Metro","pincodes":["110001"],"pricingType":"free"}`
	rec := doRequest(router, http.MethodPost, "/api/admin/zones", body, signToken(t, "admin-1", "admin"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"success":true`) {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestCreateZone_ConflictMapped(t *testing.T) {
	router, deps := newTestRouter()
	deps.zones.err = &domain.ConflictError{
		Code:      domain.ConflictDuplicatePincodes,
		Msg:       "pincodes already assigned",
		Conflicts: map[string]string{"110001": "Metro"},
	}
	body := `{"zoneName":"South","pincodes":["110001"],"pricingType":"free"}`
	rec := doRequest(router, http.MethodPost, "/api/admin/zones", body, signToken(t, "admin-1", "admin"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), domain.ConflictDuplicatePincodes) {
		t.Fatalf("conflict code missing: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"110001":"Metro"`) {
		t.Fatalf("conflict map missing: %s", rec.Body.String())
	}
}

func TestCreateZone_ValidationMapped(t *testing.T) {
	router, deps := newTestRouter()
	deps.zones.err = domain.Validationf("pricingType is required")
	body := `{"zoneName":"South","pincodes":["110001"]}`
	rec := doRequest(router, http.MethodPost, "/api/admin/zones", body, signToken(t, "admin-1", "admin"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestShippingQuote_Public(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/shipping/quote?pincode=110001&weight=1200", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"shippingCost":"80"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestShippingQuote_BadWeight(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/shipping/quote?pincode=110001&weight=-5", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestShippingQuote_MissingPincode(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodGet, "/api/shipping/quote?weight=100", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestShippingQuote_ComputationMapped(t *testing.T) {
	router, deps := newTestRouter()
	deps.shipping.err = domain.Computationf("flat rate zone has no weight unit")
	rec := doRequest(router, http.MethodGet, "/api/shipping/quote?pincode=110001&weight=100", "", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestCreateOrder_Created(t *testing.T) {
	router, _ := newTestRouter()
	body := `{"cartId":"cart-1","addressId":"addr-1"}`
	rec := doRequest(router, http.MethodPost, "/api/orders", body, signToken(t, "user-1", "user"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateOrder_MissingFields(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodPost, "/api/orders", `{"cartId":"cart-1"}`, signToken(t, "user-1", "user"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateOrder_NotFoundMapped(t *testing.T) {
	router, deps := newTestRouter()
	deps.orders.err = &domain.NotFoundError{Resource: "cart", ID: "cart-9"}
	body := `{"cartId":"cart-9","addressId":"addr-1"}`
	rec := doRequest(router, http.MethodPost, "/api/orders", body, signToken(t, "user-1", "user"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEditOrder_StateMapped(t *testing.T) {
	router, deps := newTestRouter()
	deps.orders.err = &domain.StateError{From: domain.StatusShipped, Msg: "only pending orders can be edited"}
	rec := doRequest(router, http.MethodPatch, "/api/orders/ord-1", `{"addressId":"addr-2"}`, signToken(t, "user-1", "user"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	// Message-style state errors have no transition pair to report.
	if strings.Contains(rec.Body.String(), `"to"`) {
		t.Fatalf("unexpected transition payload: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "only pending orders can be edited") {
		t.Fatalf("message missing: %s", rec.Body.String())
	}
}

func TestUpdateOrderStatus_IllegalTransitionPayload(t *testing.T) {
	router, deps := newTestRouter()
	deps.orders.err = &domain.StateError{From: domain.StatusDelivered, To: domain.StatusPending}
	rec := doRequest(router, http.MethodPatch, "/api/admin/orders/ord-1/status", `{"status":"pending"}`, signToken(t, "admin-1", "admin"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"from":"delivered"`) || !strings.Contains(body, `"to":"pending"`) {
		t.Fatalf("transition pair missing: %s", body)
	}
}

func TestAdminUpdateOrder_StaleVersionMapped(t *testing.T) {
	router, deps := newTestRouter()
	deps.orders.err = &domain.ConflictError{Code: domain.ConflictStaleVersion, Msg: "order was modified since it was read"}
	rec := doRequest(router, http.MethodPatch, "/api/admin/orders/ord-1", `{"version":1}`, signToken(t, "admin-1", "admin"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), domain.ConflictStaleVersion) {
		t.Fatalf("conflict code missing: %s", rec.Body.String())
	}
}

func TestUpdateOrderStatus_AdminOnly(t *testing.T) {
	router, _ := newTestRouter()
	rec := doRequest(router, http.MethodPatch, "/api/admin/orders/ord-1/status", `{"status":"confirmed"}`, signToken(t, "user-1", "user"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec = doRequest(router, http.MethodPatch, "/api/admin/orders/ord-1/status", `{"status":"confirmed"}`, signToken(t, "admin-1", "admin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestUnknownErrorIsOpaque(t *testing.T) {
	router, deps := newTestRouter()
	deps.carts.err = io.ErrUnexpectedEOF
	rec := doRequest(router, http.MethodGet, "/api/cart", "", signToken(t, "user-1", "user"))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "unexpected EOF") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}
