package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/loadlink/loadlink-backend/internal/models"
)

type gormStore struct {
	db *gorm.DB
}

// New returns a Store backed by the given gorm database handle.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- users ---

func (s *gormStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *gormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *gormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// --- loads ---

func (s *gormStore) CreateLoad(ctx context.Context, load *models.Load) error {
	return s.db.WithContext(ctx).Create(load).Error
}

func (s *gormStore) GetLoad(ctx context.Context, id uint) (*models.Load, error) {
	var load models.Load
	if err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Driver").
		First(&load, id).Error; err != nil {
		return nil, translate(err)
	}
	return &load, nil
}

func (s *gormStore) ListLoadsByStatus(ctx context.Context, status models.LoadStatus) ([]models.Load, error) {
	var loads []models.Load
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("status = ?", status).
		Order("pickup_date ASC").
		Find(&loads).Error
	return loads, err
}

func (s *gormStore) ListLoadsByCustomer(ctx context.Context, customerID uint) ([]models.Load, error) {
	var loads []models.Load
	err := s.db.WithContext(ctx).
		Preload("Driver").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&loads).Error
	return loads, err
}

func (s *gormStore) ListLoadsByDriver(ctx context.Context, driverID uint, statuses ...models.LoadStatus) ([]models.Load, error) {
	var loads []models.Load
	q := s.db.WithContext(ctx).
		Preload("Customer").
		Where("driver_id = ?", driverID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	err := q.Order("created_at DESC").Find(&loads).Error
	return loads, err
}

func (s *gormStore) UpdateLoadInStatus(ctx context.Context, id uint, from []models.LoadStatus, fields map[string]any) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *gormStore) UpdateLoadFields(ctx context.Context, id uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).
		Model(&models.Load{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- bookings ---

func (s *gormStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return s.db.WithContext(ctx).Create(booking).Error
}

func (s *gormStore) SetBookingStatusForLoad(ctx context.Context, loadID uint, status models.BookingStatus) error {
	return s.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("load_id = ?", loadID).
		Update("status", status).Error
}

func (s *gormStore) ListBookingsByDriver(ctx context.Context, driverID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Load").
		Preload("Load.Customer").
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

func (s *gormStore) ListBookingsByCustomer(ctx context.Context, customerID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ctx).
		Preload("Load").
		Preload("Driver").
		Joins("JOIN loads ON loads.id = bookings.load_id").
		Where("loads.customer_id = ?", customerID).
		Order("bookings.created_at DESC").
		Find(&bookings).Error
	return bookings, err
}

// --- location updates ---

func (s *gormStore) CreateLocationUpdate(ctx context.Context, sample *models.LocationUpdate) error {
	return s.db.WithContext(ctx).Create(sample).Error
}

func (s *gormStore) LatestLocationUpdate(ctx context.Context, driverID uint) (*models.LocationUpdate, error) {
	var sample models.LocationUpdate
	if err := s.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("recorded_at DESC").
		First(&sample).Error; err != nil {
		return nil, translate(err)
	}
	return &sample, nil
}

func (s *gormStore) DeleteLocationUpdatesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("recorded_at < ?", cutoff).
		Delete(&models.LocationUpdate{})
	return res.RowsAffected, res.Error
}

// --- notifications ---

func (s *gormStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *gormStore) ListNotifications(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (s *gormStore) CountUnreadNotifications(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (s *gormStore) MarkNotificationRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) MarkAllNotificationsRead(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

// --- ratings ---

func (s *gormStore) CreateRating(ctx context.Context, rating *models.Rating) error {
	return s.db.WithContext(ctx).Create(rating).Error
}

func (s *gormStore) GetRatingByLoad(ctx context.Context, loadID uint) (*models.Rating, error) {
	var rating models.Rating
	if err := s.db.WithContext(ctx).Where("load_id = ?", loadID).First(&rating).Error; err != nil {
		return nil, translate(err)
	}
	return &rating, nil
}

func (s *gormStore) UpdateRating(ctx context.Context, rating *models.Rating) error {
	return s.db.WithContext(ctx).Save(rating).Error
}

func (s *gormStore) DeleteRating(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Rating{}, id).Error
}
