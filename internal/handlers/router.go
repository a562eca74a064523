package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router mounts. Admin is optional.
type Handlers struct {
	Search   *SearchHandler
	Trending *TrendingHandler
	Admin    *AdminHandler
	Health   *HealthHandler
}

// NewRouter builds the gin engine with all routes
func NewRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger())

	if h.Health != nil {
		router.GET("/health", h.Health.Health)
	} else {
		router.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	if h.Search != nil {
		router.GET("/go", h.Search.Go)
	}

	api := router.Group("/api")
	{
		if h.Search != nil {
			api.GET("/suggest", h.Search.Suggest)
			api.GET("/resolve", h.Search.Resolve)
		}
		if h.Trending != nil {
			api.GET("/trending", h.Trending.GetTrending)
			api.GET("/trending/stream", h.Trending.StreamTrending)
		}
	}

	if h.Admin != nil {
		admin := api.Group("/admin")
		{
			admin.GET("/stats", h.Admin.Stats)
			admin.GET("/decisions", h.Admin.Decisions)

			admin.GET("/duplicates", h.Admin.ListDuplicates)
			admin.GET("/duplicates/mappings", h.Admin.Mappings)
			admin.GET("/duplicates/:group/selection", h.Admin.GetSelection)
			admin.PUT("/duplicates/:group/selection", h.Admin.UpdateSelection)
			admin.POST("/duplicates/:group/merge", h.Admin.ExecuteMerge)

			admin.GET("/ai/review-queue", h.Admin.ReviewQueue)
			admin.POST("/ai/:id/approve", h.Admin.ApproveSuggestion)
			admin.POST("/ai/:id/reject", h.Admin.RejectSuggestion)
		}
	}

	return router
}
