// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/zaikaapp/session-bfa-go/internal/domain"
)

// SessionStore is the durable key/value store shared across all browser
// contexts of one customer. Absence of a key is a valid state meaning "not
// yet known". Implementations must treat unparsable stored values as absent
// rather than failing the read path.
//
// Subscribe is the cross-tab channel: every mutation made through any
// context is published to all subscribers, with no key filtering.
type SessionStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error

	// Subscribe registers for mutation signals. The returned cancel func
	// stops delivery and releases the subscription.
	Subscribe(ctx context.Context) (<-chan domain.StoreSignal, func(), error)

	// Origin identifies this store context in the signals it publishes,
	// letting a listener skip its own writes the way browser storage
	// events only fire in other tabs.
	Origin() string
}

// CustomerFetcher retrieves a customer profile by id.
type CustomerFetcher interface {
	GetCustomer(ctx context.Context, customerID string) (*domain.CustomerProfile, error)
}

// CustomerUpdater updates the customer's phone number and returns the
// refreshed profile.
type CustomerUpdater interface {
	UpdateCustomerPhone(ctx context.Context, customerID, phone string) (*domain.CustomerProfile, error)
}

// AreaFetcher retrieves the list of deliverable areas.
type AreaFetcher interface {
	GetAreas(ctx context.Context) ([]domain.Area, error)
}

// RestaurantFetcher retrieves a restaurant by id (detail-page proxy).
type RestaurantFetcher interface {
	GetRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
}

// Geocoder resolves a coordinate pair into a human-readable address.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
