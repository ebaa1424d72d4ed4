package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/store"
)

// GetDriverBookings lists the calling driver's claim records.
func GetDriverBookings(st store.BookingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}

		bookings, err := st.ListBookingsByDriver(c.Request.Context(), driverID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, bookings)
	}
}

// GetCustomerBookings lists bookings against the calling customer's loads.
func GetCustomerBookings(st store.BookingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetUint("userId")
		userType := c.GetString("userType")

		if userType != string(models.UserTypeCustomer) {
			c.JSON(403, gin.H{"error": "Only customers can view their bookings"})
			return
		}

		bookings, err := st.ListBookingsByCustomer(c.Request.Context(), customerID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch bookings"})
			return
		}

		c.JSON(200, bookings)
	}
}
