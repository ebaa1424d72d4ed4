package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/services"
)

// rejectLifecycle maps a business rejection to an HTTP response. Anything
// that is not a recognized rejection is an infrastructure fault.
func rejectLifecycle(c *gin.Context, err error) {
	var stateErr *services.StateError
	switch {
	case errors.Is(err, services.ErrLoadNotFound):
		c.JSON(404, gin.H{"error": "Load not found"})
	case errors.Is(err, services.ErrNotAssigned):
		c.JSON(403, gin.H{"error": "You are not assigned to this load"})
	case errors.Is(err, services.ErrNotOwner):
		c.JSON(403, gin.H{"error": "You are not the owner of this load"})
	case errors.Is(err, services.ErrNotParticipant):
		c.JSON(403, gin.H{"error": "Only the customer or the assigned driver can act on this load"})
	case errors.Is(err, services.ErrNotAvailable):
		c.JSON(400, gin.H{"error": "Load is no longer available"})
	case errors.As(err, &stateErr):
		c.JSON(400, gin.H{"error": stateErr.Error()})
	default:
		c.JSON(500, gin.H{"error": "Internal server error"})
	}
}

func requireDriver(c *gin.Context) (uint, bool) {
	if c.GetString("userType") != string(models.UserTypeDriver) {
		c.JSON(403, gin.H{"error": "Only drivers can perform this action"})
		return 0, false
	}
	return c.GetUint("userId"), true
}

func requireCustomer(c *gin.Context) (uint, bool) {
	if c.GetString("userType") != string(models.UserTypeCustomer) {
		c.JSON(403, gin.H{"error": "Only customers can perform this action"})
		return 0, false
	}
	return c.GetUint("userId"), true
}

// AcceptLoad lets a driver claim an available load.
func AcceptLoad(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		load, err := lifecycle.Accept(c.Request.Context(), loadID, driverID)
		if err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Load accepted successfully",
			"loadId":  load.ID,
			"status":  load.Status,
			"eta":     load.EtaMinutes,
		})
	}
}

// ArrivedAtPickup announces the driver is waiting at the pickup address.
func ArrivedAtPickup(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		if err := lifecycle.NotifyArrivalAtPickup(c.Request.Context(), loadID, driverID); err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{"message": "Arrival announced", "loadId": loadID})
	}
}

// PickUpLoad marks the cargo as on the truck.
func PickUpLoad(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		load, err := lifecycle.PickUp(c.Request.Context(), loadID, driverID)
		if err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Load picked up successfully",
			"loadId":  load.ID,
			"status":  load.Status,
		})
	}
}

// StartTransit moves the load onto the road.
func StartTransit(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		load, err := lifecycle.StartTransit(c.Request.Context(), loadID, driverID)
		if err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Transit started",
			"loadId":  load.ID,
			"status":  load.Status,
			"eta":     load.EtaMinutes,
		})
	}
}

// ArrivedAtDropoff announces the driver reached the dropoff address.
func ArrivedAtDropoff(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		if err := lifecycle.NotifyArrivalAtDropoff(c.Request.Context(), loadID, driverID); err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{"message": "Arrival announced", "loadId": loadID})
	}
}

// DeliverLoad marks the cargo as dropped off.
func DeliverLoad(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		load, err := lifecycle.Deliver(c.Request.Context(), loadID, driverID)
		if err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Load delivered successfully",
			"loadId":  load.ID,
			"status":  load.Status,
		})
	}
}

// CompleteLoad lets the customer confirm delivery and close the load.
func CompleteLoad(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := requireCustomer(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		load, err := lifecycle.Complete(c.Request.Context(), loadID, customerID)
		if err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Load completed successfully",
			"loadId":  load.ID,
			"status":  load.Status,
		})
	}
}

// CancelLoad aborts the load; either party may call it with a reason.
func CancelLoad(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetUint("userId")
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		var input struct {
			Reason string `json:"reason"`
		}
		// Reason is optional; an empty body is fine.
		_ = c.ShouldBindJSON(&input)

		load, err := lifecycle.Cancel(c.Request.Context(), loadID, actorID, input.Reason)
		if err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "Load cancelled",
			"loadId":  load.ID,
			"status":  load.Status,
		})
	}
}

// UpdateLoadETA lets the assigned driver push a new minutes-remaining figure.
func UpdateLoadETA(lifecycle *services.LoadLifecycle) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := requireDriver(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		var input struct {
			Minutes int `json:"minutes" binding:"required,gte=0"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		if err := lifecycle.UpdateETA(c.Request.Context(), loadID, driverID, input.Minutes); err != nil {
			rejectLifecycle(c, err)
			return
		}

		c.JSON(200, gin.H{
			"message": "ETA updated",
			"loadId":  loadID,
			"eta":     input.Minutes,
		})
	}
}
