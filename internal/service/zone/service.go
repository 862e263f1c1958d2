package zone

import (
	"context"
	"io"
	"log"
	"strings"

	"commerce-engine/internal/domain"
	zonerepo "commerce-engine/internal/repository/zone"
	"commerce-engine/internal/service/shipping"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

type zoneRepo interface {
	Create(ctx context.Context, zone domain.DeliveryZone) (*domain.DeliveryZone, error)
	Update(ctx context.Context, zone domain.DeliveryZone) (*domain.DeliveryZone, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.DeliveryZone, error)
	List(ctx context.Context) ([]domain.DeliveryZone, error)
	SetDefault(ctx context.Context, id string) error
	FindNameOwner(ctx context.Context, name, excludeZoneID string) (string, error)
	FindPincodeOwners(ctx context.Context, pincodes []string, excludeZoneID string) (map[string]string, error)
}

// Service owns delivery zone administration: validation, duplicate
// checks, the single-default invariant and pincode cache invalidation.
type Service struct {
	repo   zoneRepo
	cache  *redis.Client
	logger *log.Logger
}

func New(repo zonerepo.Repository, cache *redis.Client, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Input carries the writable zone fields. Pointer fields distinguish
// "absent" from zero values on update.
type Input struct {
	ZoneName        string           `json:"zoneName"`
	Pincodes        []string         `json:"pincodes"`
	PricingType     string           `json:"pricingType"`
	WeightUnitGrams *int64           `json:"weightUnitGrams,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	FixedAmount     *decimal.Decimal `json:"fixedAmount,omitempty"`
	IsDefault       *bool            `json:"isDefault,omitempty"`
	IsActive        *bool            `json:"isActive,omitempty"`
}

func (s *Service) Create(ctx context.Context, in Input) (*domain.DeliveryZone, error) {
	zone, err := buildZone(in, domain.DeliveryZone{IsActive: true})
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, *zone)
	if err != nil {
		return nil, err
	}
	if created.IsDefault {
		if err := s.repo.SetDefault(ctx, created.ID); err != nil {
			return nil, err
		}
	}
	s.invalidatePincodes(ctx, created.Pincodes)
	s.logger.Printf("zone service: created id=%s name=%s pincodes=%d", created.ID, created.ZoneName, len(created.Pincodes))
	return created, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*domain.DeliveryZone, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	zone, err := buildZone(in, *existing)
	if err != nil {
		return nil, err
	}
	zone.ID = id
	updated, err := s.repo.Update(ctx, *zone)
	if err != nil {
		return nil, err
	}
	if updated.IsDefault && !existing.IsDefault {
		if err := s.repo.SetDefault(ctx, updated.ID); err != nil {
			return nil, err
		}
	}
	s.invalidatePincodes(ctx, existing.Pincodes)
	s.invalidatePincodes(ctx, updated.Pincodes)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidatePincodes(ctx, existing.Pincodes)
	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.DeliveryZone, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.DeliveryZone, error) {
	return s.repo.List(ctx)
}

// SetDefault makes the zone the single default. The repository clears
// every other default first; the flip is not atomic, which is accepted
// for a rare administrative action.
func (s *Service) SetDefault(ctx context.Context, id string) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	return s.repo.SetDefault(ctx, id)
}

// CheckDuplicateZoneName reports whether a different zone already uses
// the name, case-insensitively.
func (s *Service) CheckDuplicateZoneName(ctx context.Context, name, excludeZoneID string) (bool, error) {
	owner, err := s.repo.FindNameOwner(ctx, strings.TrimSpace(name), excludeZoneID)
	if err != nil {
		return false, err
	}
	return owner != "", nil
}

// CheckDuplicatePincodes maps each pincode already owned by another
// active zone to that zone's name. An empty map means no conflicts.
func (s *Service) CheckDuplicatePincodes(ctx context.Context, pincodes []string, excludeZoneID string) (map[string]string, error) {
	return s.repo.FindPincodeOwners(ctx, normalizePincodes(pincodes), excludeZoneID)
}

func (s *Service) invalidatePincodes(ctx context.Context, pincodes []string) {
	if s.cache == nil || len(pincodes) == 0 {
		return
	}
	keys := make([]string, len(pincodes))
	for i, pin := range pincodes {
		keys[i] = shipping.PincodeCacheKey(pin)
	}
	if err := s.cache.Del(ctx, keys...).Err(); err != nil {
		s.logger.Printf("zone service: cache invalidate error=%v", err)
	}
}

// buildZone merges the input over a base zone (zero value on create, the
// existing zone on update), normalizes and validates.
func buildZone(in Input, base domain.DeliveryZone) (*domain.DeliveryZone, error) {
	zone := base

	if name := strings.TrimSpace(in.ZoneName); name != "" {
		zone.ZoneName = name
	}
	if zone.ZoneName == "" {
		return nil, domain.Validationf("zone name is required")
	}

	if in.Pincodes != nil {
		zone.Pincodes = normalizePincodes(in.Pincodes)
	}
	if len(zone.Pincodes) == 0 {
		return nil, domain.Validationf("at least one pincode is required")
	}

	if in.PricingType != "" {
		zone.PricingType = domain.PricingType(in.PricingType)
	}
	if !zone.PricingType.Valid() {
		return nil, domain.Validationf("invalid pricing type %q", in.PricingType)
	}

	if in.WeightUnitGrams != nil {
		zone.WeightUnitGrams = in.WeightUnitGrams
	}
	if in.Price != nil {
		zone.Price = in.Price
	}
	if in.FixedAmount != nil {
		zone.FixedAmount = in.FixedAmount
	}
	if in.IsDefault != nil {
		zone.IsDefault = *in.IsDefault
	}
	if in.IsActive != nil {
		zone.IsActive = *in.IsActive
	}

	switch zone.PricingType {
	case domain.PricingFlatRate:
		if zone.WeightUnitGrams == nil || *zone.WeightUnitGrams <= 0 {
			return nil, domain.Validationf("flat_rate pricing requires weight_unit_grams > 0")
		}
		if zone.Price == nil || zone.Price.IsNegative() {
			return nil, domain.Validationf("flat_rate pricing requires price >= 0")
		}
		zone.FixedAmount = nil
	case domain.PricingFixedRate:
		if zone.FixedAmount == nil || zone.FixedAmount.IsNegative() {
			return nil, domain.Validationf("fixed_rate pricing requires fixed_amount >= 0")
		}
		zone.WeightUnitGrams = nil
		zone.Price = nil
	case domain.PricingFree:
		zone.WeightUnitGrams = nil
		zone.Price = nil
		zone.FixedAmount = nil
	}

	return &zone, nil
}

// normalizePincodes trims, drops empties and deduplicates while
// preserving submission order.
func normalizePincodes(pincodes []string) []string {
	seen := make(map[string]struct{}, len(pincodes))
	out := make([]string, 0, len(pincodes))
	for _, pin := range pincodes {
		pin = strings.TrimSpace(pin)
		if pin == "" {
			continue
		}
		if _, dup := seen[pin]; dup {
			continue
		}
		seen[pin] = struct{}{}
		out = append(out, pin)
	}
	return out
}
