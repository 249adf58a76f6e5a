package controllers

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ponto-de-fuga/restaurant-api/services"
)

// HeartbeatInterval is how often an idle event stream sends a ping.
var HeartbeatInterval = 25 * time.Second

// StreamEvents handles GET /api/v1/events?topic=orders,tables - a
// Server-Sent Events stream of row changes. Events carry ids and the new
// status only; clients refetch what they display.
func StreamEvents(c *gin.Context) {
	var topics []services.Topic
	if raw := c.Query("topic"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			topic := services.Topic(strings.TrimSpace(t))
			if topic != services.TopicOrders && topic != services.TopicTables {
				respondError(c, http.StatusBadRequest, "INVALID_TOPIC", "topic must be orders or tables")
				return
			}
			topics = append(topics, topic)
		}
	}

	sub := services.GetEventBus().Subscribe(topics...)
	defer sub.Close()

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"topics": topics})
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-sub.Events():
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return true
		case at := <-heartbeat.C:
			c.SSEvent("ping", at.UTC())
			return true
		}
	})
}
