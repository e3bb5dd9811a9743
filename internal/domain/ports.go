package domain

import "context"

type UserRepository interface {
	// GetUserWithEmail and GetUserWithID return (nil, nil) when no row matches.
	GetUserWithEmail(ctx context.Context, email string) (*User, error)
	GetUserWithID(ctx context.Context, id int64) (*User, error)
	AddUser(ctx context.Context, u NewUser) (User, error)
}

type ReservationRepository interface {
	GetAllReservations(ctx context.Context, guestID int64, limit int) ([]UpcomingReservation, error)
}

type PropertyRepository interface {
	SearchProperties(ctx context.Context, f PropertyFilter, limit int) ([]PropertyListing, error)
}

// PropertyWriter is the non-persistent store used by the add-property path.
// It is not shared with PropertyRepository.
type PropertyWriter interface {
	AddProperty(ctx context.Context, p Property) (Property, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
