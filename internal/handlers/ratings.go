package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loadlink/loadlink-backend/internal/models"
	"github.com/loadlink/loadlink-backend/internal/store"
)

type RatingInput struct {
	Score   float64 `json:"score" binding:"required,gte=1,lte=5"`
	Comment string  `json:"comment"`
}

// RateLoad creates the customer's one-time rating for a delivered load.
func RateLoad(loads store.LoadStore, ratings store.RatingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := requireCustomer(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		var input RatingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		load, err := loads.GetLoad(c.Request.Context(), loadID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(404, gin.H{"error": "Load not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch load"})
			return
		}

		if load.CustomerID != customerID {
			c.JSON(403, gin.H{"error": "You are not the owner of this load"})
			return
		}
		if load.Status != models.LoadStatusDelivered && load.Status != models.LoadStatusCompleted {
			c.JSON(400, gin.H{"error": "Load must be delivered before it can be rated"})
			return
		}
		if load.DriverID == nil {
			c.JSON(400, gin.H{"error": "Load has no assigned driver"})
			return
		}

		if _, err := ratings.GetRatingByLoad(c.Request.Context(), loadID); err == nil {
			c.JSON(400, gin.H{"error": "Load has already been rated"})
			return
		} else if !errors.Is(err, store.ErrNotFound) {
			c.JSON(500, gin.H{"error": "Failed to check existing rating"})
			return
		}

		rating := models.Rating{
			LoadID:     loadID,
			CustomerID: customerID,
			DriverID:   *load.DriverID,
			Score:      input.Score,
			Comment:    input.Comment,
		}

		if err := ratings.CreateRating(c.Request.Context(), &rating); err != nil {
			c.JSON(500, gin.H{"error": "Failed to create rating"})
			return
		}

		c.JSON(201, rating)
	}
}

// UpdateRating amends a rating inside the 24-hour grace window.
func UpdateRating(ratings store.RatingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := requireCustomer(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		var input RatingInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		rating, err := ratings.GetRatingByLoad(c.Request.Context(), loadID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(404, gin.H{"error": "Rating not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch rating"})
			return
		}

		if rating.CustomerID != customerID {
			c.JSON(403, gin.H{"error": "You did not create this rating"})
			return
		}
		if !rating.Amendable(time.Now()) {
			c.JSON(400, gin.H{"error": "Rating can no longer be changed"})
			return
		}

		rating.Score = input.Score
		rating.Comment = input.Comment
		if err := ratings.UpdateRating(c.Request.Context(), rating); err != nil {
			c.JSON(500, gin.H{"error": "Failed to update rating"})
			return
		}

		c.JSON(200, rating)
	}
}

// DeleteRating withdraws a rating inside the 24-hour grace window.
func DeleteRating(ratings store.RatingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		customerID, ok := requireCustomer(c)
		if !ok {
			return
		}
		loadID, ok := parseLoadID(c)
		if !ok {
			return
		}

		rating, err := ratings.GetRatingByLoad(c.Request.Context(), loadID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(404, gin.H{"error": "Rating not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to fetch rating"})
			return
		}

		if rating.CustomerID != customerID {
			c.JSON(403, gin.H{"error": "You did not create this rating"})
			return
		}
		if !rating.Amendable(time.Now()) {
			c.JSON(400, gin.H{"error": "Rating can no longer be changed"})
			return
		}

		if err := ratings.DeleteRating(c.Request.Context(), rating.ID); err != nil {
			c.JSON(500, gin.H{"error": "Failed to delete rating"})
			return
		}

		c.JSON(200, gin.H{"message": "Rating deleted"})
	}
}
