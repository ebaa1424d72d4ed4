package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/loadlink/loadlink-backend/internal/metrics"
	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/store"
)

// LoadLifecycle owns every status transition of a load. Each operation is an
// authorization check, one conditional row update, and notification
// side-effects, in that order. A failed precondition is a terminal rejection,
// never retried. Races between concurrent transitions are settled by the
// conditional update: the loser sees zero rows affected and gets the same
// rejection as a stale precondition.
type LoadLifecycle struct {
	loads     store.LoadStore
	bookings  store.BookingStore
	users     store.UserStore
	locations *LocationTracker
	notifier  *Notifier
	log       *zap.Logger
}

func NewLoadLifecycle(loads store.LoadStore, bookings store.BookingStore, users store.UserStore, locations *LocationTracker, notifier *Notifier, log *zap.Logger) *LoadLifecycle {
	return &LoadLifecycle{
		loads:     loads,
		bookings:  bookings,
		users:     users,
		locations: locations,
		notifier:  notifier,
		log:       log,
	}
}

func (l *LoadLifecycle) observe(op string, err error) {
	switch {
	case err == nil:
		metrics.TransitionsTotal.WithLabelValues(op, "ok").Inc()
	case IsRejection(err):
		metrics.TransitionsTotal.WithLabelValues(op, "rejected").Inc()
	default:
		metrics.TransitionsTotal.WithLabelValues(op, "error").Inc()
	}
}

func (l *LoadLifecycle) getLoad(ctx context.Context, loadID uint) (*models.Load, error) {
	load, err := l.loads.GetLoad(ctx, loadID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrLoadNotFound
	}
	return load, err
}

// requireAssigned verifies the actor is the load's assigned driver.
func requireAssigned(load *models.Load, driverID uint) error {
	if load.DriverID == nil || *load.DriverID != driverID {
		return ErrNotAssigned
	}
	return nil
}

// driverName resolves a display name for notifications; lookups that fail
// fall back to a neutral label rather than blocking the transition.
func (l *LoadLifecycle) driverName(ctx context.Context, driverID uint) string {
	driver, err := l.users.GetUser(ctx, driverID)
	if err != nil {
		l.log.Warn("driver lookup for notification", zap.Uint("driverId", driverID), zap.Error(err))
		return "Your driver"
	}
	return driver.Username
}

// Accept assigns the load to the driver. Only an Available load can be
// accepted; the conditional update makes the first of two racing drivers win
// and rejects the second with the same "no longer available" message.
func (l *LoadLifecycle) Accept(ctx context.Context, loadID, driverID uint) (load *models.Load, err error) {
	defer func() { l.observe("accept", err) }()

	load, err = l.getLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if load.Status != models.LoadStatusAvailable {
		return nil, ErrNotAvailable
	}

	// Initial estimate: driver's latest position to the pickup point. Zero
	// means the driver has not reported a position yet.
	eta := l.locations.EstimateMinutes(ctx, driverID, load.PickupLat, load.PickupLng, 0)

	now := time.Now()
	ok, err := l.loads.UpdateLoadInStatus(ctx, loadID,
		[]models.LoadStatus{models.LoadStatusAvailable},
		map[string]any{
			"status":      models.LoadStatusAccepted,
			"driver_id":   driverID,
			"accepted_at": now,
			"eta_minutes": eta,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAvailable
	}

	load.Status = models.LoadStatusAccepted
	load.DriverID = &driverID
	load.AcceptedAt = &now
	load.EtaMinutes = eta

	booking := &models.Booking{
		DriverID: driverID,
		LoadID:   loadID,
		Status:   models.BookingStatusAccepted,
	}
	if err := l.bookings.CreateBooking(ctx, booking); err != nil {
		// The transition already committed; the booking mirror is repairable.
		l.log.Error("create booking for accepted load", zap.Uint("loadId", loadID), zap.Error(err))
	}

	l.notifier.LoadAccepted(ctx, load, l.driverName(ctx, driverID), eta)
	l.log.Info("load accepted", zap.Uint("loadId", loadID), zap.Uint("driverId", driverID), zap.Int("eta", eta))
	return load, nil
}

// NotifyArrivalAtPickup records no status change; it only tells the customer
// the driver is waiting at the pickup address.
func (l *LoadLifecycle) NotifyArrivalAtPickup(ctx context.Context, loadID, driverID uint) (err error) {
	defer func() { l.observe("notify_arrival_pickup", err) }()

	load, err := l.getLoad(ctx, loadID)
	if err != nil {
		return err
	}
	if err := requireAssigned(load, driverID); err != nil {
		return err
	}
	if load.Status != models.LoadStatusAccepted {
		return &StateError{Op: "announce pickup arrival for", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusAccepted}}
	}

	l.notifier.DriverAtPickup(ctx, load, l.driverName(ctx, driverID))
	return nil
}

// PickUp marks the cargo as on the truck.
func (l *LoadLifecycle) PickUp(ctx context.Context, loadID, driverID uint) (load *models.Load, err error) {
	defer func() { l.observe("pickup", err) }()

	load, err = l.getLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if err := requireAssigned(load, driverID); err != nil {
		return nil, err
	}
	if load.Status != models.LoadStatusAccepted {
		return nil, &StateError{Op: "pick up", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusAccepted}}
	}

	now := time.Now()
	ok, err := l.loads.UpdateLoadInStatus(ctx, loadID,
		[]models.LoadStatus{models.LoadStatusAccepted},
		map[string]any{
			"status":       models.LoadStatusPickedUp,
			"picked_up_at": now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StateError{Op: "pick up", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusAccepted}}
	}

	load.Status = models.LoadStatusPickedUp
	load.PickedUpAt = &now

	l.notifier.LoadPickedUp(ctx, load)
	l.log.Info("load picked up", zap.Uint("loadId", loadID), zap.Uint("driverId", driverID))
	return load, nil
}

// StartTransit moves the load onto the road. The ETA is recomputed from the
// driver's latest sample; when no sample exists the prior estimate stands.
func (l *LoadLifecycle) StartTransit(ctx context.Context, loadID, driverID uint) (load *models.Load, err error) {
	defer func() { l.observe("start_transit", err) }()

	load, err = l.getLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if err := requireAssigned(load, driverID); err != nil {
		return nil, err
	}
	if load.Status != models.LoadStatusPickedUp {
		return nil, &StateError{Op: "start transit for", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusPickedUp}}
	}

	eta := l.locations.EstimateMinutes(ctx, driverID, load.DropoffLat, load.DropoffLng, 0)
	if eta == 0 {
		// No usable sample; keep the previous estimate rather than zeroing it.
		eta = load.EtaMinutes
		l.log.Warn("eta refresh failed, keeping prior estimate",
			zap.Uint("loadId", loadID), zap.Int("eta", eta))
	}

	ok, err := l.loads.UpdateLoadInStatus(ctx, loadID,
		[]models.LoadStatus{models.LoadStatusPickedUp},
		map[string]any{
			"status":      models.LoadStatusInTransit,
			"eta_minutes": eta,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StateError{Op: "start transit for", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusPickedUp}}
	}

	load.Status = models.LoadStatusInTransit
	load.EtaMinutes = eta

	l.notifier.TransitStarted(ctx, load)
	l.log.Info("transit started", zap.Uint("loadId", loadID), zap.Int("eta", eta))
	return load, nil
}

// NotifyArrivalAtDropoff tells the customer the truck reached the dropoff
// address; no status change.
func (l *LoadLifecycle) NotifyArrivalAtDropoff(ctx context.Context, loadID, driverID uint) (err error) {
	defer func() { l.observe("notify_arrival_dropoff", err) }()

	load, err := l.getLoad(ctx, loadID)
	if err != nil {
		return err
	}
	if err := requireAssigned(load, driverID); err != nil {
		return err
	}
	if load.Status != models.LoadStatusPickedUp && load.Status != models.LoadStatusInTransit {
		return &StateError{Op: "announce dropoff arrival for", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusPickedUp, models.LoadStatusInTransit}}
	}

	l.notifier.DriverAtDropoff(ctx, load, l.driverName(ctx, driverID))
	return nil
}

// Deliver marks the cargo as dropped off, from either PickedUp or InTransit.
func (l *LoadLifecycle) Deliver(ctx context.Context, loadID, driverID uint) (load *models.Load, err error) {
	defer func() { l.observe("deliver", err) }()

	load, err = l.getLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if err := requireAssigned(load, driverID); err != nil {
		return nil, err
	}
	allowed := []models.LoadStatus{models.LoadStatusPickedUp, models.LoadStatusInTransit}
	if load.Status != models.LoadStatusPickedUp && load.Status != models.LoadStatusInTransit {
		return nil, &StateError{Op: "deliver", Current: load.Status, Required: allowed}
	}

	now := time.Now()
	ok, err := l.loads.UpdateLoadInStatus(ctx, loadID, allowed,
		map[string]any{
			"status":       models.LoadStatusDelivered,
			"delivered_at": now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StateError{Op: "deliver", Current: load.Status, Required: allowed}
	}

	load.Status = models.LoadStatusDelivered
	load.DeliveredAt = &now

	l.notifier.LoadDelivered(ctx, load)
	l.log.Info("load delivered", zap.Uint("loadId", loadID), zap.Uint("driverId", driverID))
	return load, nil
}

// Complete is the customer's confirmation of delivery; it closes the load and
// its booking.
func (l *LoadLifecycle) Complete(ctx context.Context, loadID, customerID uint) (load *models.Load, err error) {
	defer func() { l.observe("complete", err) }()

	load, err = l.getLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}
	if load.CustomerID != customerID {
		return nil, ErrNotOwner
	}
	if load.Status != models.LoadStatusDelivered {
		return nil, &StateError{Op: "complete", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusDelivered}}
	}

	now := time.Now()
	ok, err := l.loads.UpdateLoadInStatus(ctx, loadID,
		[]models.LoadStatus{models.LoadStatusDelivered},
		map[string]any{
			"status":       models.LoadStatusCompleted,
			"completed_at": now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &StateError{Op: "complete", Current: load.Status,
			Required: []models.LoadStatus{models.LoadStatusDelivered}}
	}

	load.Status = models.LoadStatusCompleted
	load.CompletedAt = &now

	if err := l.bookings.SetBookingStatusForLoad(ctx, loadID, models.BookingStatusCompleted); err != nil {
		l.log.Error("complete booking mirror", zap.Uint("loadId", loadID), zap.Error(err))
	}

	l.notifier.LoadCompleted(ctx, load)
	l.log.Info("load completed", zap.Uint("loadId", loadID), zap.Uint("customerId", customerID))
	return load, nil
}

// Cancel aborts the load from any state but Completed. Either the owning
// customer or the assigned driver may cancel; the other party is notified
// with the reason.
func (l *LoadLifecycle) Cancel(ctx context.Context, loadID, actorID uint, reason string) (load *models.Load, err error) {
	defer func() { l.observe("cancel", err) }()

	load, err = l.getLoad(ctx, loadID)
	if err != nil {
		return nil, err
	}

	isOwner := load.CustomerID == actorID
	isDriver := load.DriverID != nil && *load.DriverID == actorID
	if !isOwner && !isDriver {
		return nil, ErrNotParticipant
	}
	if load.Status == models.LoadStatusCompleted {
		return nil, &StateError{Op: "cancel", Current: load.Status,
			Required: []models.LoadStatus{
				models.LoadStatusAvailable, models.LoadStatusAccepted,
				models.LoadStatusPickedUp, models.LoadStatusInTransit,
				models.LoadStatusDelivered,
			}}
	}

	if load.Status == models.LoadStatusCancelled {
		// Duplicate cancel; nothing left to do.
		return load, nil
	}

	ok, err := l.loads.UpdateLoadInStatus(ctx, loadID,
		[]models.LoadStatus{
			models.LoadStatusAvailable, models.LoadStatusAccepted,
			models.LoadStatusPickedUp, models.LoadStatusInTransit,
			models.LoadStatusDelivered,
		},
		map[string]any{"status": models.LoadStatusCancelled})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race against Complete or another Cancel; re-read to decide.
		fresh, ferr := l.getLoad(ctx, loadID)
		if ferr != nil {
			return nil, ferr
		}
		if fresh.Status == models.LoadStatusCancelled {
			return fresh, nil
		}
		return nil, &StateError{Op: "cancel", Current: fresh.Status,
			Required: []models.LoadStatus{
				models.LoadStatusAvailable, models.LoadStatusAccepted,
				models.LoadStatusPickedUp, models.LoadStatusInTransit,
				models.LoadStatusDelivered,
			}}
	}

	load.Status = models.LoadStatusCancelled

	if err := l.bookings.SetBookingStatusForLoad(ctx, loadID, models.BookingStatusCancelled); err != nil {
		l.log.Error("cancel booking mirror", zap.Uint("loadId", loadID), zap.Error(err))
	}

	// Notify the party that did not cancel.
	if isOwner {
		if load.DriverID != nil {
			l.notifier.LoadCancelled(ctx, load, *load.DriverID, reason)
		}
	} else {
		l.notifier.LoadCancelled(ctx, load, load.CustomerID, reason)
	}

	l.log.Info("load cancelled", zap.Uint("loadId", loadID), zap.Uint("actorId", actorID), zap.String("reason", reason))
	return load, nil
}

// UpdateETA lets the assigned driver push a fresh minutes-remaining figure.
// No status precondition; the customer is notified of the new estimate.
func (l *LoadLifecycle) UpdateETA(ctx context.Context, loadID, driverID uint, minutes int) (err error) {
	defer func() { l.observe("update_eta", err) }()

	load, err := l.getLoad(ctx, loadID)
	if err != nil {
		return err
	}
	if err := requireAssigned(load, driverID); err != nil {
		return err
	}

	if err := l.loads.UpdateLoadFields(ctx, loadID, map[string]any{"eta_minutes": minutes}); err != nil {
		return err
	}
	load.EtaMinutes = minutes

	l.notifier.ETAUpdated(ctx, load, minutes)
	return nil
}
