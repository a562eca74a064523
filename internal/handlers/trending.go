package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdy7080/kpop-ranker-sub000/internal/trending"
)

// TrendingResponse is the body of GET /api/trending
type TrendingResponse struct {
	trending.View
	State trending.State `json:"state"`
}

// TrendingHandler serves the home page trending feed
type TrendingHandler struct {
	loader    *trending.Loader
	heartbeat time.Duration
}

// NewTrendingHandler creates a new trending handler
func NewTrendingHandler(loader *trending.Loader) *TrendingHandler {
	return &TrendingHandler{loader: loader, heartbeat: 30 * time.Second}
}

// GetTrending handles GET /api/trending
func (h *TrendingHandler) GetTrending(c *gin.Context) {
	c.JSON(http.StatusOK, TrendingResponse{
		View:  h.loader.Store().View(),
		State: h.loader.State(),
	})
}

// StreamTrending handles GET /api/trending/stream. The current view is sent
// on connect, then every published update until the client goes away.
func (h *TrendingHandler) StreamTrending(c *gin.Context) {
	updates, cancel := h.loader.Store().Subscribe()
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	send := func(view trending.View) {
		c.SSEvent("trending", TrendingResponse{View: view, State: h.loader.State()})
		c.Writer.Flush()
	}
	send(h.loader.Store().View())

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case view, ok := <-updates:
			if !ok {
				return
			}
			send(view)
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
			c.Writer.Flush()
		}
	}
}
