package models

import (
	"time"

	"gorm.io/gorm"
)

// RatingGraceWindow is how long a customer can amend or withdraw a rating
// after creating it.
const RatingGraceWindow = 24 * time.Hour

// Rating is a customer's one-time review of a delivered load.
type Rating struct {
	gorm.Model
	LoadID     uint    `json:"loadId" gorm:"not null;uniqueIndex"`
	CustomerID uint    `json:"customerId" gorm:"not null;index"`
	DriverID   uint    `json:"driverId" gorm:"not null;index"`
	Score      float64 `json:"score" gorm:"not null;check:score >= 1 AND score <= 5"`
	Comment    string  `json:"comment,omitempty"`
	Load       *Load   `json:"-" gorm:"foreignKey:LoadID"`
	Customer   *User   `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Driver     *User   `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

// TableName specifies the table name
func (Rating) TableName() string {
	return "ratings"
}

// Amendable reports whether the rating is still inside the grace window.
func (r *Rating) Amendable(now time.Time) bool {
	return now.Sub(r.CreatedAt) <= RatingGraceWindow
}
