package notify

import "commerce-engine/internal/domain"

// Notifier receives order facts after a successful commit. Delivery
// guarantees belong to the consumer; implementations must never block
// the request that emitted the fact.
type Notifier interface {
	OrderCreated(order domain.Order)
	OrderStatusChanged(order domain.Order, previous domain.OrderStatus)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) OrderCreated(domain.Order)                          {}
func (Nop) OrderStatusChanged(domain.Order, domain.OrderStatus) {}
