package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/loadlink/loadlink-backend/internal/store"
)

// ListNotifications returns the caller's notifications, newest first.
// Pass ?unread=true to filter to unread rows.
func ListNotifications(st store.NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")
		unreadOnly := c.Query("unread") == "true"

		notifications, err := st.ListNotifications(c.Request.Context(), userID, unreadOnly)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to fetch notifications"})
			return
		}

		c.JSON(200, gin.H{
			"notifications": notifications,
			"count":         len(notifications),
		})
	}
}

// GetUnreadCount returns how many notifications the caller has not read.
func GetUnreadCount(st store.NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		count, err := st.CountUnreadNotifications(c.Request.Context(), userID)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to count notifications"})
			return
		}

		c.JSON(200, gin.H{"unread": count})
	}
}

// MarkNotificationRead flips one notification's read flag.
func MarkNotificationRead(st store.NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid notification ID"})
			return
		}

		if err := st.MarkNotificationRead(c.Request.Context(), userID, uint(id)); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(404, gin.H{"error": "Notification not found"})
				return
			}
			c.JSON(500, gin.H{"error": "Failed to mark notification read"})
			return
		}

		c.JSON(200, gin.H{"message": "Notification marked as read"})
	}
}

// MarkAllNotificationsRead flips every unread notification of the caller.
func MarkAllNotificationsRead(st store.NotificationStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		if err := st.MarkAllNotificationsRead(c.Request.Context(), userID); err != nil {
			c.JSON(500, gin.H{"error": "Failed to mark notifications read"})
			return
		}

		c.JSON(200, gin.H{"message": "All notifications marked as read"})
	}
}
