package models

import (
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is a driver's claim record against a load. Its status mirrors the
// subset of load statuses a booking cares about.
type Booking struct {
	gorm.Model
	DriverID uint          `json:"driverId" gorm:"not null;index"`
	Driver   *User         `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	LoadID   uint          `json:"loadId" gorm:"not null;uniqueIndex"`
	Load     *Load         `json:"load,omitempty" gorm:"foreignKey:LoadID"`
	Status   BookingStatus `json:"status" gorm:"not null;default:'requested'"`
}

// TableName specifies the table name
func (Booking) TableName() string {
	return "bookings"
}
