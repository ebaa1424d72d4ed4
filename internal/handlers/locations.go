package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/services"
)

// RecordLocation handles driver GPS sample submissions.
func RecordLocation(tracker *services.LocationTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}

		var input struct {
			Lat    float64 `json:"lat" binding:"required"`
			Lng    float64 `json:"lng" binding:"required"`
			LoadID *uint   `json:"loadId"`
		}

		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		sample, err := tracker.RecordSample(c.Request.Context(), driverID, input.Lat, input.Lng, input.LoadID)
		if err != nil {
			c.JSON(400, gin.H{"error": "Failed to record location"})
			return
		}

		c.JSON(200, gin.H{
			"message": "Location recorded successfully",
			"location": gin.H{
				"lat":        sample.Latitude,
				"lng":        sample.Longitude,
				"recordedAt": sample.RecordedAt,
			},
		})
	}
}

// GetLatestLocation returns the driver's most recent sample.
func GetLatestLocation(tracker *services.LocationTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}

		sample, err := tracker.LatestSample(c.Request.Context(), driverID)
		if err != nil {
			if errors.Is(err, services.ErrNoSample) {
				c.JSON(404, gin.H{"error": "No location recorded yet"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch location"})
			return
		}

		c.JSON(200, sample)
	}
}

// GetLoadETA recomputes and returns the ETA for a load from the assigned
// driver's latest position.
func GetLoadETA(tracker *services.LocationTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		userType := c.GetString("userType")
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		// Drivers refresh their own ETA; customers read the stored one via
		// the load endpoint, so only drivers land here.
		if userType != string(models.UserTypeDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can refresh the ETA"})
			return
		}

		eta, err := tracker.RefreshLoadETA(c.Request.Context(), loadID, userID)
		if err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{"loadId": loadID, "eta": eta})
	}
}
