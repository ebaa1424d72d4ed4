package database

import (
	"gorm.io/gorm"

	"github.com/loadlink/loadlink-backend/internal/models"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.Load{},
		&models.Booking{},
		&models.LocationUpdate{},
		&models.Notification{},
		&models.Rating{},
	)
	if err != nil {
		return err
	}

	// Update users table
	if db.Migrator().HasTable(&models.User{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS truck_plate text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS truck_make text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS truck_color text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS user_type text DEFAULT 'customer'",
		}

		for _, column := range columns {
			if err := db.Exec("ALTER TABLE users " + column).Error; err != nil {
				return err
			}
		}

		// Update constraint
		db.Exec(`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`)
		db.Exec(`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('customer', 'driver'))`)
	}

	// Keep the status column honest even if rows were edited by hand
	if db.Migrator().HasTable(&models.Load{}) {
		db.Exec(`ALTER TABLE loads DROP CONSTRAINT IF EXISTS loads_status_check`)
		db.Exec(`ALTER TABLE loads ADD CONSTRAINT loads_status_check CHECK (status IN ('available', 'accepted', 'picked_up', 'in_transit', 'delivered', 'completed', 'cancelled'))`)
	}

	if db.Migrator().HasTable(&models.Booking{}) {
		db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`)
		db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('requested', 'accepted', 'completed', 'cancelled'))`)
	}

	return nil
}
