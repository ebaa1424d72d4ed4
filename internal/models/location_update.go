package models

import (
	"time"
)

// LocationUpdate is an immutable GPS sample reported by a driver. Rows are
// append-only; old samples are removed by the retention sweep, never edited.
type LocationUpdate struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	DriverID   uint      `json:"driverId" gorm:"not null;index:idx_location_driver_time,priority:1"`
	LoadID     *uint     `json:"loadId,omitempty" gorm:"null;index"`
	Latitude   float64   `json:"lat" gorm:"not null"`
	Longitude  float64   `json:"lng" gorm:"not null"`
	RecordedAt time.Time `json:"recordedAt" gorm:"not null;index:idx_location_driver_time,priority:2"`
	Driver     *User     `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name
func (LocationUpdate) TableName() string {
	return "location_updates"
}
