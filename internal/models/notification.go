package models

import (
	"time"

	"gorm.io/gorm"
)

// Notification categories used by the lifecycle helpers.
const (
	NotificationLoadAccepted   = "load_accepted"
	NotificationDriverAtPickup = "driver_at_pickup"
	NotificationLoadPickedUp   = "load_picked_up"
	NotificationInTransit      = "in_transit"
	NotificationAtDropoff      = "driver_at_dropoff"
	NotificationLoadDelivered  = "load_delivered"
	NotificationLoadCompleted  = "load_completed"
	NotificationLoadCancelled  = "load_cancelled"
	NotificationETAUpdated     = "eta_updated"
)

// Notification is the durable record of an event sent to a user. IsRead is the
// only field that changes after creation.
type Notification struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"userId" gorm:"not null;index"`
	Title      string         `json:"title" gorm:"not null"`
	Message    string         `json:"message" gorm:"not null"`
	Category   string         `json:"category" gorm:"not null"`
	ActionLink string         `json:"actionLink,omitempty"`
	IsRead     bool           `json:"isRead" gorm:"not null;default:false"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	User       *User          `json:"-" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (Notification) TableName() string {
	return "notifications"
}
