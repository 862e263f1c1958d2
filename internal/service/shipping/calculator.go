package shipping

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"commerce-engine/internal/domain"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// pincodeCacheTTL bounds how stale a cached pincode resolution can get
// if an invalidation is missed.
const pincodeCacheTTL = 10 * time.Minute

// PincodeCacheKey is the redis key caching pincode -> zone id. The zone
// service deletes these keys when a zone's pincodes change.
func PincodeCacheKey(pincode string) string {
	return "shipzone:pin:" + pincode
}

type zoneResolver interface {
	Get(ctx context.Context, id string) (*domain.DeliveryZone, error)
	GetActiveByPincode(ctx context.Context, pincode string) (*domain.DeliveryZone, error)
	GetActiveDefault(ctx context.Context) (*domain.DeliveryZone, error)
}

// Calculator derives shipping cost from a resolved zone and a total
// weight. It is pure apart from zone lookup; the redis cache only
// short-circuits pincode resolution and is skipped when nil.
type Calculator struct {
	zones  zoneResolver
	cache  *redis.Client
	logger *log.Logger
	now    func() time.Time
}

func New(zones zoneResolver, cache *redis.Client, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Calculator{zones: zones, cache: cache, logger: logger, now: time.Now}
}

// ByPincode resolves a zone for the pincode among active zones, falling
// back to the active default zone. When no zone applies, shipping is
// unconfigured: cost 0 and a nil snapshot, not an error.
func (c *Calculator) ByPincode(ctx context.Context, pincode string, weightGrams int64) (decimal.Decimal, *domain.ShippingDetails, error) {
	zone, err := c.resolve(ctx, pincode)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if zone == nil {
		zone, err = c.fallbackDefault(ctx)
		if err != nil {
			return decimal.Zero, nil, err
		}
	}
	if zone == nil {
		return decimal.Zero, nil, nil
	}
	return c.price(zone, weightGrams)
}

// ByZone prices against an explicit zone, bypassing pincode resolution.
// Used for administrator-driven re-pricing.
func (c *Calculator) ByZone(ctx context.Context, zoneID string, weightGrams int64) (decimal.Decimal, *domain.ShippingDetails, error) {
	zone, err := c.zones.Get(ctx, zoneID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if !zone.IsActive {
		return decimal.Zero, nil, &domain.NotFoundError{Resource: "active delivery zone", ID: zoneID}
	}
	return c.price(zone, weightGrams)
}

func (c *Calculator) resolve(ctx context.Context, pincode string) (*domain.DeliveryZone, error) {
	if zone := c.cachedZone(ctx, pincode); zone != nil {
		return zone, nil
	}
	zone, err := c.zones.GetActiveByPincode(ctx, pincode)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	c.cacheZone(ctx, pincode, zone.ID)
	return zone, nil
}

func (c *Calculator) fallbackDefault(ctx context.Context) (*domain.DeliveryZone, error) {
	zone, err := c.zones.GetActiveDefault(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return zone, nil
}

func (c *Calculator) price(zone *domain.DeliveryZone, weightGrams int64) (decimal.Decimal, *domain.ShippingDetails, error) {
	var cost decimal.Decimal
	switch zone.PricingType {
	case domain.PricingFree:
		cost = decimal.Zero
	case domain.PricingFixedRate:
		if zone.FixedAmount == nil {
			return decimal.Zero, nil, domain.Computationf("zone %s: fixed_rate pricing without fixed_amount", zone.ZoneName)
		}
		cost = *zone.FixedAmount
	case domain.PricingFlatRate:
		if zone.WeightUnitGrams == nil || *zone.WeightUnitGrams <= 0 || zone.Price == nil {
			return decimal.Zero, nil, domain.Computationf("zone %s: flat_rate pricing without weight_unit_grams and price", zone.ZoneName)
		}
		units := domain.BillableUnits(weightGrams, *zone.WeightUnitGrams)
		cost = zone.Price.Mul(decimal.NewFromInt(units))
	default:
		return decimal.Zero, nil, domain.Computationf("zone %s: unknown pricing type %q", zone.ZoneName, string(zone.PricingType))
	}

	details := &domain.ShippingDetails{
		DeliveryZoneID: zone.ID,
		ZoneName:       zone.ZoneName,
		PricingType:    zone.PricingType,
		IsManual:       false,
		CalculatedAt:   c.now().UTC(),
	}
	return domain.ClampMoney(cost), details, nil
}

func (c *Calculator) cachedZone(ctx context.Context, pincode string) *domain.DeliveryZone {
	if c.cache == nil {
		return nil
	}
	zoneID, err := c.cache.Get(ctx, PincodeCacheKey(pincode)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Printf("shipping: cache get pincode=%s error=%v", pincode, err)
		}
		return nil
	}
	zone, err := c.zones.Get(ctx, zoneID)
	if err != nil || !zone.IsActive || !zone.HasPincode(pincode) {
		// Stale entry; fall through to a fresh resolution.
		c.cache.Del(ctx, PincodeCacheKey(pincode))
		return nil
	}
	return zone
}

func (c *Calculator) cacheZone(ctx context.Context, pincode, zoneID string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, PincodeCacheKey(pincode), zoneID, pincodeCacheTTL).Err(); err != nil {
		c.logger.Printf("shipping: cache set pincode=%s error=%v", pincode, err)
	}
}
