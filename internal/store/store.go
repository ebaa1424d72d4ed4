// Package store defines the narrow persistence interfaces the services are
// built against, plus the gorm-backed implementation used in production.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/loadlink/loadlink-backend/internal/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("record not found")

// UserStore reads and writes user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// LoadStore reads and writes loads. Status transitions go through
// UpdateLoadInStatus, a conditional single-row update that only applies when
// the current status is one of the expected ones.
type LoadStore interface {
	CreateLoad(ctx context.Context, load *models.Load) error
	GetLoad(ctx context.Context, id uint) (*models.Load, error)
	ListLoadsByStatus(ctx context.Context, status models.LoadStatus) ([]models.Load, error)
	ListLoadsByCustomer(ctx context.Context, customerID uint) ([]models.Load, error)
	ListLoadsByDriver(ctx context.Context, driverID uint, statuses ...models.LoadStatus) ([]models.Load, error)
	// UpdateLoadInStatus applies fields to the load iff its status is in from.
	// It reports whether a row was updated; false means the precondition no
	// longer held when the update ran.
	UpdateLoadInStatus(ctx context.Context, id uint, from []models.LoadStatus, fields map[string]any) (bool, error)
	UpdateLoadFields(ctx context.Context, id uint, fields map[string]any) error
}

// BookingStore reads and writes driver claim records.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	SetBookingStatusForLoad(ctx context.Context, loadID uint, status models.BookingStatus) error
	ListBookingsByDriver(ctx context.Context, driverID uint) ([]models.Booking, error)
	ListBookingsByCustomer(ctx context.Context, customerID uint) ([]models.Booking, error)
}

// LocationStore appends and queries GPS samples.
type LocationStore interface {
	CreateLocationUpdate(ctx context.Context, sample *models.LocationUpdate) error
	LatestLocationUpdate(ctx context.Context, driverID uint) (*models.LocationUpdate, error)
	DeleteLocationUpdatesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationStore persists notification rows and their read flags.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error)
	CountUnreadNotifications(ctx context.Context, userID uint) (int64, error)
	MarkNotificationRead(ctx context.Context, userID, id uint) error
	MarkAllNotificationsRead(ctx context.Context, userID uint) error
}

// RatingStore reads and writes load ratings.
type RatingStore interface {
	CreateRating(ctx context.Context, rating *models.Rating) error
	GetRatingByLoad(ctx context.Context, loadID uint) (*models.Rating, error)
	UpdateRating(ctx context.Context, rating *models.Rating) error
	DeleteRating(ctx context.Context, id uint) error
}

// Store is the full persistence surface, implemented by the gorm store.
type Store interface {
	UserStore
	LoadStore
	BookingStore
	LocationStore
	NotificationStore
	RatingStore
}
