package models

import (
	"time"

	"gorm.io/gorm"
)

// LoadStatus is the closed set of states a load moves through.
type LoadStatus string

const (
	LoadStatusAvailable LoadStatus = "available"
	LoadStatusAccepted  LoadStatus = "accepted"
	LoadStatusPickedUp  LoadStatus = "picked_up"
	LoadStatusInTransit LoadStatus = "in_transit"
	LoadStatusDelivered LoadStatus = "delivered"
	LoadStatusCompleted LoadStatus = "completed"
	LoadStatusCancelled LoadStatus = "cancelled"
)

// loadTransitions is the allowed successor set for each status. Cancelled is
// reachable from every non-terminal state and is handled separately.
var loadTransitions = map[LoadStatus][]LoadStatus{
	LoadStatusAvailable: {LoadStatusAccepted},
	LoadStatusAccepted:  {LoadStatusPickedUp},
	LoadStatusPickedUp:  {LoadStatusInTransit, LoadStatusDelivered},
	LoadStatusInTransit: {LoadStatusDelivered},
	LoadStatusDelivered: {LoadStatusCompleted},
	LoadStatusCompleted: nil,
	LoadStatusCancelled: nil,
}

// CanTransitionTo reports whether next is an allowed successor of s.
func (s LoadStatus) CanTransitionTo(next LoadStatus) bool {
	if next == LoadStatusCancelled {
		return s != LoadStatusCompleted
	}
	for _, allowed := range loadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible from s.
func (s LoadStatus) Terminal() bool {
	return s == LoadStatusCompleted || s == LoadStatusCancelled
}

// Valid reports whether s is one of the known statuses.
func (s LoadStatus) Valid() bool {
	_, ok := loadTransitions[s]
	return ok
}

// Load represents a shipment request posted by a customer.
type Load struct {
	gorm.Model
	CustomerID  uint       `json:"customerId" gorm:"not null;index"`
	DriverID    *uint      `json:"driverId,omitempty" gorm:"null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Category    string     `json:"category" gorm:"not null"`
	WeightKg    float64    `json:"weightKg" gorm:"not null"`
	PickupAddr  string     `json:"pickupAddress" gorm:"not null"`
	PickupLat   float64    `json:"pickupLat" gorm:"not null"`
	PickupLng   float64    `json:"pickupLng" gorm:"not null"`
	DropoffAddr string     `json:"dropoffAddress" gorm:"not null"`
	DropoffLat  float64    `json:"dropoffLat" gorm:"not null"`
	DropoffLng  float64    `json:"dropoffLng" gorm:"not null"`
	PickupDate  time.Time  `json:"pickupDate" gorm:"not null"`
	Status      LoadStatus `json:"status" gorm:"not null;default:'available'"`
	EtaMinutes  int        `json:"etaMinutes"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	PickedUpAt  *time.Time `json:"pickedUpAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Customer    *User      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Driver      *User      `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name
func (Load) TableName() string {
	return "loads"
}
