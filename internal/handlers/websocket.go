package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/hall-booking/internal/services"
)

// AvailabilityFeed subscribes a websocket to booking events for ?date=.
func AvailabilityFeed(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		if _, err := time.Parse("2006-01-02", date); err != nil {
			c.JSON(400, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, date)
	}
}
