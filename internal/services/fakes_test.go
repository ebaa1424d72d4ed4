package services

import (
	"context"
	"sync"
	"time"

	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/store"
)

// In-memory store fakes used across the service tests.

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uint]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[uint]*models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *fakeUserStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

type fakeLoadStore struct {
	mu    sync.Mutex
	loads map[uint]*models.Load
}

func newFakeLoadStore(loads ...*models.Load) *fakeLoadStore {
	s := &fakeLoadStore{loads: make(map[uint]*models.Load)}
	for _, l := range loads {
		s.loads[l.ID] = l
	}
	return s
}

func (s *fakeLoadStore) CreateLoad(_ context.Context, load *models.Load) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads[load.ID] = load
	return nil
}

func (s *fakeLoadStore) GetLoad(_ context.Context, id uint) (*models.Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	load, ok := s.loads[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *load
	return &copied, nil
}

func (s *fakeLoadStore) ListLoadsByStatus(_ context.Context, status models.LoadStatus) ([]models.Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Load
	for _, l := range s.loads {
		if l.Status == status {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *fakeLoadStore) ListLoadsByCustomer(_ context.Context, customerID uint) ([]models.Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Load
	for _, l := range s.loads {
		if l.CustomerID == customerID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *fakeLoadStore) ListLoadsByDriver(_ context.Context, driverID uint, statuses ...models.LoadStatus) ([]models.Load, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Load
	for _, l := range s.loads {
		if l.DriverID == nil || *l.DriverID != driverID {
			continue
		}
		if len(statuses) == 0 {
			out = append(out, *l)
			continue
		}
		for _, st := range statuses {
			if l.Status == st {
				out = append(out, *l)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeLoadStore) UpdateLoadInStatus(_ context.Context, id uint, from []models.LoadStatus, fields map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	load, ok := s.loads[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, st := range from {
		if load.Status == st {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	applyLoadFields(load, fields)
	return true, nil
}

func (s *fakeLoadStore) UpdateLoadFields(_ context.Context, id uint, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	load, ok := s.loads[id]
	if !ok {
		return store.ErrNotFound
	}
	applyLoadFields(load, fields)
	return nil
}

func applyLoadFields(load *models.Load, fields map[string]any) {
	for key, value := range fields {
		switch key {
		case "status":
			load.Status = value.(models.LoadStatus)
		case "driver_id":
			id := value.(uint)
			load.DriverID = &id
		case "eta_minutes":
			load.EtaMinutes = value.(int)
		case "accepted_at":
			t := value.(time.Time)
			load.AcceptedAt = &t
		case "picked_up_at":
			t := value.(time.Time)
			load.PickedUpAt = &t
		case "delivered_at":
			t := value.(time.Time)
			load.DeliveredAt = &t
		case "completed_at":
			t := value.(time.Time)
			load.CompletedAt = &t
		}
	}
}

type fakeBookingStore struct {
	mu       sync.Mutex
	bookings []*models.Booking
}

func (s *fakeBookingStore) CreateBooking(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, booking)
	return nil
}

func (s *fakeBookingStore) SetBookingStatusForLoad(_ context.Context, loadID uint, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.LoadID == loadID {
			b.Status = status
		}
	}
	return nil
}

func (s *fakeBookingStore) ListBookingsByDriver(_ context.Context, driverID uint) ([]models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Booking
	for _, b := range s.bookings {
		if b.DriverID == driverID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *fakeBookingStore) ListBookingsByCustomer(_ context.Context, _ uint) ([]models.Booking, error) {
	return nil, nil
}

func (s *fakeBookingStore) forLoad(loadID uint) *models.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.LoadID == loadID {
			return b
		}
	}
	return nil
}

type fakeLocationStore struct {
	mu      sync.Mutex
	samples []*models.LocationUpdate
}

func (s *fakeLocationStore) CreateLocationUpdate(_ context.Context, sample *models.LocationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, sample)
	return nil
}

func (s *fakeLocationStore) LatestLocationUpdate(_ context.Context, driverID uint) (*models.LocationUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *models.LocationUpdate
	for _, sample := range s.samples {
		if sample.DriverID != driverID {
			continue
		}
		if latest == nil || sample.RecordedAt.After(latest.RecordedAt) {
			latest = sample
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	copied := *latest
	return &copied, nil
}

func (s *fakeLocationStore) DeleteLocationUpdatesBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []*models.LocationUpdate
	var removed int64
	for _, sample := range s.samples {
		if sample.RecordedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, sample)
	}
	s.samples = kept
	return removed, nil
}

type fakeNotificationStore struct {
	mu   sync.Mutex
	rows []*models.Notification
}

func (s *fakeNotificationStore) CreateNotification(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = uint(len(s.rows) + 1)
	s.rows = append(s.rows, n)
	return nil
}

func (s *fakeNotificationStore) ListNotifications(_ context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.rows {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, *n)
	}
	return out, nil
}

func (s *fakeNotificationStore) CountUnreadNotifications(_ context.Context, userID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, n := range s.rows {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationStore) MarkNotificationRead(_ context.Context, userID, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.rows {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *fakeNotificationStore) MarkAllNotificationsRead(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.rows {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *fakeNotificationStore) forUser(userID uint) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, n := range s.rows {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// publishedEvent is one recorded Publish call.
type publishedEvent struct {
	topic     string
	eventType string
	data      any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(topic, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, eventType: eventType, data: data})
}

func (p *fakePublisher) onTopic(topic string) []publishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedEvent
	for _, e := range p.events {
		if e.topic == topic {
			out = append(out, e)
		}
	}
	return out
}
