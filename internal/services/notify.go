package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/store"
)

// Notifier persists notification rows and pushes them to the recipient's
// topic. The push is fire-and-forget; the row is the durable record.
type Notifier struct {
	store store.NotificationStore
	pub   Publisher
	log   *zap.Logger
}

func NewNotifier(st store.NotificationStore, pub Publisher, log *zap.Logger) *Notifier {
	return &Notifier{store: st, pub: pub, log: log}
}

// Notify persists one notification row, then publishes the same payload to
// the recipient's user topic. The publish never fails the caller.
func (n *Notifier) Notify(ctx context.Context, userID uint, title, message, category, actionLink string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:     userID,
		Title:      title,
		Message:    message,
		Category:   category,
		ActionLink: actionLink,
	}

	if err := n.store.CreateNotification(ctx, notification); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	n.pub.Publish(UserTopic(userID), EventNotification, notification)
	return notification, nil
}

func loadLink(loadID uint) string {
	return fmt.Sprintf("/loads/%d", loadID)
}

// statusChanged broadcasts a status event on the load topic for anyone
// watching that load.
func (n *Notifier) statusChanged(load *models.Load) {
	n.pub.Publish(LoadTopic(load.ID), EventStatusChanged, map[string]any{
		"loadId":     load.ID,
		"status":     load.Status,
		"driverId":   load.DriverID,
		"etaMinutes": load.EtaMinutes,
	})
}

// LoadAccepted tells the customer a driver took their load.
func (n *Notifier) LoadAccepted(ctx context.Context, load *models.Load, driverName string, etaMinutes int) {
	message := fmt.Sprintf("%s accepted your load %q and is about %d minutes from pickup.",
		driverName, load.Title, etaMinutes)
	if _, err := n.Notify(ctx, load.CustomerID, "Load accepted", message,
		models.NotificationLoadAccepted, loadLink(load.ID)); err != nil {
		n.log.Warn("notify load accepted", zap.Uint("loadId", load.ID), zap.Error(err))
	}
	n.statusChanged(load)
}

// DriverAtPickup tells the customer the driver is at the pickup address.
func (n *Notifier) DriverAtPickup(ctx context.Context, load *models.Load, driverName string) {
	message := fmt.Sprintf("%s has arrived at the pickup location for %q.", driverName, load.Title)
	if _, err := n.Notify(ctx, load.CustomerID, "Driver at pickup", message,
		models.NotificationDriverAtPickup, loadLink(load.ID)); err != nil {
		n.log.Warn("notify driver at pickup", zap.Uint("loadId", load.ID), zap.Error(err))
	}
}

// LoadPickedUp tells the customer their cargo is on the truck.
func (n *Notifier) LoadPickedUp(ctx context.Context, load *models.Load) {
	message := fmt.Sprintf("Your load %q has been picked up.", load.Title)
	if _, err := n.Notify(ctx, load.CustomerID, "Load picked up", message,
		models.NotificationLoadPickedUp, loadLink(load.ID)); err != nil {
		n.log.Warn("notify load picked up", zap.Uint("loadId", load.ID), zap.Error(err))
	}
	n.statusChanged(load)
}

// TransitStarted tells the customer the truck is rolling toward dropoff.
func (n *Notifier) TransitStarted(ctx context.Context, load *models.Load) {
	message := fmt.Sprintf("Your load %q is now in transit. Estimated arrival in %d minutes.",
		load.Title, load.EtaMinutes)
	if _, err := n.Notify(ctx, load.CustomerID, "In transit", message,
		models.NotificationInTransit, loadLink(load.ID)); err != nil {
		n.log.Warn("notify transit started", zap.Uint("loadId", load.ID), zap.Error(err))
	}
	n.statusChanged(load)
}

// DriverAtDropoff tells the customer the driver reached the dropoff address.
func (n *Notifier) DriverAtDropoff(ctx context.Context, load *models.Load, driverName string) {
	message := fmt.Sprintf("%s has arrived at the dropoff location for %q.", driverName, load.Title)
	if _, err := n.Notify(ctx, load.CustomerID, "Driver at dropoff", message,
		models.NotificationAtDropoff, loadLink(load.ID)); err != nil {
		n.log.Warn("notify driver at dropoff", zap.Uint("loadId", load.ID), zap.Error(err))
	}
}

// LoadDelivered tells the customer the cargo arrived.
func (n *Notifier) LoadDelivered(ctx context.Context, load *models.Load) {
	message := fmt.Sprintf("Your load %q has been delivered. Please confirm completion.", load.Title)
	if _, err := n.Notify(ctx, load.CustomerID, "Load delivered", message,
		models.NotificationLoadDelivered, loadLink(load.ID)); err != nil {
		n.log.Warn("notify load delivered", zap.Uint("loadId", load.ID), zap.Error(err))
	}
	n.statusChanged(load)
}

// LoadCompleted tells the driver the customer confirmed delivery.
func (n *Notifier) LoadCompleted(ctx context.Context, load *models.Load) {
	if load.DriverID == nil {
		return
	}
	message := fmt.Sprintf("The customer confirmed delivery of %q. The job is complete.", load.Title)
	if _, err := n.Notify(ctx, *load.DriverID, "Load completed", message,
		models.NotificationLoadCompleted, loadLink(load.ID)); err != nil {
		n.log.Warn("notify load completed", zap.Uint("loadId", load.ID), zap.Error(err))
	}
	n.statusChanged(load)
}

// LoadCancelled tells the other party the load was cancelled, with the
// canceller's reason.
func (n *Notifier) LoadCancelled(ctx context.Context, load *models.Load, recipientID uint, reason string) {
	message := fmt.Sprintf("Load %q was cancelled.", load.Title)
	if reason != "" {
		message = fmt.Sprintf("Load %q was cancelled: %s", load.Title, reason)
	}
	if _, err := n.Notify(ctx, recipientID, "Load cancelled", message,
		models.NotificationLoadCancelled, loadLink(load.ID)); err != nil {
		n.log.Warn("notify load cancelled", zap.Uint("loadId", load.ID), zap.Error(err))
	}
	n.statusChanged(load)
}

// ETAUpdated tells the customer the driver's new estimate and broadcasts it
// on the load topic.
func (n *Notifier) ETAUpdated(ctx context.Context, load *models.Load, etaMinutes int) {
	message := fmt.Sprintf("New arrival estimate for %q: %d minutes.", load.Title, etaMinutes)
	if _, err := n.Notify(ctx, load.CustomerID, "ETA updated", message,
		models.NotificationETAUpdated, loadLink(load.ID)); err != nil {
		n.log.Warn("notify eta updated", zap.Uint("loadId", load.ID), zap.Error(err))
	}
	n.pub.Publish(LoadTopic(load.ID), EventETAUpdated, map[string]any{
		"loadId":     load.ID,
		"etaMinutes": etaMinutes,
	})
}
