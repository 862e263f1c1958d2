package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"commerce-engine/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubZones struct {
	byID  map[string]*domain.DeliveryZone
	byPin map[string]*domain.DeliveryZone
	def   *domain.DeliveryZone
}

func (s *stubZones) Get(_ context.Context, id string) (*domain.DeliveryZone, error) {
	if z, ok := s.byID[id]; ok {
		return z, nil
	}
	return nil, &domain.NotFoundError{Resource: "delivery zone", ID: id}
}

func (s *stubZones) GetActiveByPincode(_ context.Context, pincode string) (*domain.DeliveryZone, error) {
	if z, ok := s.byPin[pincode]; ok {
		return z, nil
	}
	return nil, &domain.NotFoundError{Resource: "delivery zone for pincode", ID: pincode}
}

func (s *stubZones) GetActiveDefault(_ context.Context) (*domain.DeliveryZone, error) {
	if s.def != nil {
		return s.def, nil
	}
	return nil, &domain.NotFoundError{Resource: "default delivery zone"}
}

func i64(v int64) *int64 { return &v }

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func flatRateZone(id string, unitGrams, price int64) *domain.DeliveryZone {
	return &domain.DeliveryZone{
		ID:              id,
		ZoneName:        "Zone " + id,
		PricingType:     domain.PricingFlatRate,
		WeightUnitGrams: i64(unitGrams),
		Price:           dec(price),
		IsActive:        true,
	}
}

func newCalculator(zones *stubZones) *Calculator {
	c := New(zones, nil, nil)
	c.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestCeilingBilling(t *testing.T) {
	zone := flatRateZone("z1", 500, 50)
	calc := newCalculator(&stubZones{byPin: map[string]*domain.DeliveryZone{"110001": zone}})

	cases := []struct {
		weight int64
		want   int64
	}{
		{500, 50},
		{501, 100},
		{0, 0},
		{1, 50},
	}
	for _, tc := range cases {
		cost, details, err := calc.ByPincode(context.Background(), "110001", tc.weight)
		require.NoError(t, err)
		require.True(t, cost.Equal(decimal.NewFromInt(tc.want)), "weight %d: got %s", tc.weight, cost)
		require.NotNil(t, details)
		require.False(t, details.IsManual)
		require.Equal(t, "z1", details.DeliveryZoneID)
	}
}

func TestFreeAndFixedRatePricing(t *testing.T) {
	free := &domain.DeliveryZone{ID: "zf", ZoneName: "Free", PricingType: domain.PricingFree, IsActive: true}
	fixed := &domain.DeliveryZone{ID: "zx", ZoneName: "Fixed", PricingType: domain.PricingFixedRate, FixedAmount: dec(99), IsActive: true}
	calc := newCalculator(&stubZones{byPin: map[string]*domain.DeliveryZone{
		"100000": free,
		"200000": fixed,
	}})

	cost, _, err := calc.ByPincode(context.Background(), "100000", 5000)
	require.NoError(t, err)
	require.True(t, cost.IsZero())

	cost, details, err := calc.ByPincode(context.Background(), "200000", 5000)
	require.NoError(t, err)
	require.True(t, cost.Equal(decimal.NewFromInt(99)))
	require.Equal(t, domain.PricingFixedRate, details.PricingType)
}

func TestFallbackToDefaultZone(t *testing.T) {
	def := &domain.DeliveryZone{ID: "zd", ZoneName: "Rest of Country", PricingType: domain.PricingFixedRate, FixedAmount: dec(120), IsDefault: true, IsActive: true}
	calc := newCalculator(&stubZones{def: def})

	cost, details, err := calc.ByPincode(context.Background(), "999999", 100)
	require.NoError(t, err)
	require.True(t, cost.Equal(decimal.NewFromInt(120)))
	require.Equal(t, "zd", details.DeliveryZoneID)
}

func TestUnconfiguredShippingIsZeroNotError(t *testing.T) {
	calc := newCalculator(&stubZones{})

	cost, details, err := calc.ByPincode(context.Background(), "999999", 100)
	require.NoError(t, err)
	require.True(t, cost.IsZero())
	require.Nil(t, details)
}

func TestFlatRateMissingConfigIsComputationError(t *testing.T) {
	broken := &domain.DeliveryZone{ID: "zb", ZoneName: "Broken", PricingType: domain.PricingFlatRate, IsActive: true}
	calc := newCalculator(&stubZones{byPin: map[string]*domain.DeliveryZone{"110001": broken}})

	_, _, err := calc.ByPincode(context.Background(), "110001", 100)
	var compErr *domain.ComputationError
	require.True(t, errors.As(err, &compErr))
}

func TestByZoneRejectsInactiveZone(t *testing.T) {
	inactive := flatRateZone("z1", 500, 50)
	inactive.IsActive = false
	calc := newCalculator(&stubZones{byID: map[string]*domain.DeliveryZone{"z1": inactive}})

	_, _, err := calc.ByZone(context.Background(), "z1", 100)
	var nfErr *domain.NotFoundError
	require.True(t, errors.As(err, &nfErr))

	_, _, err = calc.ByZone(context.Background(), "missing", 100)
	require.True(t, errors.As(err, &nfErr))
}

func TestByZonePricesExplicitZone(t *testing.T) {
	zone := flatRateZone("z1", 1000, 40)
	calc := newCalculator(&stubZones{byID: map[string]*domain.DeliveryZone{"z1": zone}})

	cost, details, err := calc.ByZone(context.Background(), "z1", 1200)
	require.NoError(t, err)
	require.True(t, cost.Equal(decimal.NewFromInt(80)))
	require.Equal(t, "z1", details.DeliveryZoneID)
}
