package handlers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/store"
	"github.com/loadlink/loadlink-backend/pkg/utils"
)

type CreateLoadInput struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Category    string    `json:"category" binding:"required"`
	WeightKg    float64   `json:"weightKg" binding:"required,gt=0"`
	PickupAddr  string    `json:"pickupAddress" binding:"required"`
	PickupLat   float64   `json:"pickupLat" binding:"required"`
	PickupLng   float64   `json:"pickupLng" binding:"required"`
	DropoffAddr string    `json:"dropoffAddress" binding:"required"`
	DropoffLat  float64   `json:"dropoffLat" binding:"required"`
	DropoffLng  float64   `json:"dropoffLng" binding:"required"`
	PickupDate  time.Time `json:"pickupDate" binding:"required"`
}

// CreateLoad lets a customer post a new load.
func CreateLoad(st store.LoadStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetUint("userId")
		userType := c.GetString("userType")

		if userType != string(models.UserTypeCustomer) {
			c.JSON(403, gin.H{"error": "Only customers can post loads"})
			return
		}

		var input CreateLoadInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if !utils.ValidCoordinates(input.PickupLat, input.PickupLng) ||
			!utils.ValidCoordinates(input.DropoffLat, input.DropoffLng) {
			c.JSON(400, gin.H{"error": "Invalid coordinates"})
			return
		}

		load := models.Load{
			CustomerID:  customerID,
			Title:       input.Title,
			Description: input.Description,
			Category:    input.Category,
			WeightKg:    input.WeightKg,
			PickupAddr:  input.PickupAddr,
			PickupLat:   input.PickupLat,
			PickupLng:   input.PickupLng,
			DropoffAddr: input.DropoffAddr,
			DropoffLat:  input.DropoffLat,
			DropoffLng:  input.DropoffLng,
			PickupDate:  input.PickupDate,
			Status:      models.LoadStatusAvailable,
		}

		if err := st.CreateLoad(c.Request.Context(), &load); err != nil {
			c.JSON(500, gin.H{"error": "Failed to create load"})
			return
		}

		c.JSON(201, load)
	}
}

// GetAvailableLoads lists loads drivers can still accept.
func GetAvailableLoads(st store.LoadStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		loads, err := st.ListLoadsByStatus(c.Request.Context(), models.LoadStatusAvailable)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch loads"})
			return
		}

		c.JSON(200, gin.H{"loads": loads, "count": len(loads)})
	}
}

// GetCustomerLoads lists the calling customer's loads.
func GetCustomerLoads(st store.LoadStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID := c.GetUint("userId")

		loads, err := st.ListLoadsByCustomer(c.Request.Context(), customerID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch loads"})
			return
		}

		c.JSON(200, loads)
	}
}

// GetDriverLoads lists the calling driver's active loads.
func GetDriverLoads(st store.LoadStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetUint("userId")
		userType := c.GetString("userType")

		if userType != string(models.UserTypeDriver) {
			c.JSON(403, gin.H{"error": "Only drivers can view assigned loads"})
			return
		}

		loads, err := st.ListLoadsByDriver(c.Request.Context(), driverID,
			models.LoadStatusAccepted,
			models.LoadStatusPickedUp,
			models.LoadStatusInTransit,
			models.LoadStatusDelivered,
		)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch assigned loads"})
			return
		}

		c.JSON(200, loads)
	}
}

// GetLoad returns one load by ID.
func GetLoad(st store.LoadStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		load, err := st.GetLoad(c.Request.Context(), loadID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(404, gin.H{"error": "Load not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch load"})
			return
		}

		c.JSON(200, load)
	}
}

func parseLoadID(c *gin.Context) (uint, bool) {
	loadID, err := strconv.ParseUint(c.Param("loadId"), 10, 32)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid load ID"})
		return 0, false
	}
	return uint(loadID), true
}
