package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdy7080/kpop-ranker-sub000/internal/dedup"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/repositories"
)

// AdminHandler handles the duplicate review console
type AdminHandler struct {
	service   *dedup.Service
	decisions repositories.DecisionRepository
}

// NewAdminHandler creates a new admin handler. decisions may be nil when no
// decision log is kept.
func NewAdminHandler(service *dedup.Service, decisions repositories.DecisionRepository) *AdminHandler {
	return &AdminHandler{
		service:   service,
		decisions: decisions,
	}
}

// MergeRequest is the body of POST /api/admin/duplicates/:group/merge
type MergeRequest struct {
	SelectedIDs []string           `json:"selected_ids"`
	MasterID    string             `json:"master_id,omitempty"`
	Action      models.MergeAction `json:"action" binding:"required"`
}

// GroupView is a candidate group with the admin's current selection
type GroupView struct {
	models.DuplicateGroup
	Selection dedup.Selection `json:"selection"`
	InFlight  bool            `json:"in_flight"`
}

// ReviewStats summarises the review backlog
type ReviewStats struct {
	Groups          int                           `json:"groups"`
	ByClass         map[models.Classification]int `json:"by_classification"`
	AutoRecommended int                           `json:"auto_recommended"`
	Decisions       int64                         `json:"decisions"`
	LastUpdated     time.Time                     `json:"last_updated"`
}

// ListDuplicates handles GET /api/admin/duplicates
func (h *AdminHandler) ListDuplicates(c *gin.Context) {
	groups, err := h.service.Load(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load duplicate groups", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load duplicate groups"})
		return
	}

	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		sel, _ := h.service.Selection(g.GroupID)
		views = append(views, GroupView{DuplicateGroup: g, Selection: sel, InFlight: h.service.InFlight(g.GroupID)})
	}
	c.JSON(http.StatusOK, gin.H{"groups": views, "count": len(views)})
}

// GetSelection handles GET /api/admin/duplicates/:group/selection
func (h *AdminHandler) GetSelection(c *gin.Context) {
	sel, err := h.service.Selection(c.Param("group"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

// UpdateSelection handles PUT /api/admin/duplicates/:group/selection
func (h *AdminHandler) UpdateSelection(c *gin.Context) {
	var sel dedup.Selection
	if err := c.ShouldBindJSON(&sel); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.service.SetSelection(c.Param("group"), sel)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ExecuteMerge handles POST /api/admin/duplicates/:group/merge
func (h *AdminHandler) ExecuteMerge(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.service.ExecuteMerge(c.Request.Context(), dedup.MergeCommand{
		GroupID:     c.Param("group"),
		SelectedIDs: req.SelectedIDs,
		MasterID:    req.MasterID,
		Action:      req.Action,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ReviewQueue handles GET /api/admin/ai/review-queue
func (h *AdminHandler) ReviewQueue(c *gin.Context) {
	queue, err := h.service.ReviewQueue(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load AI review queue", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load review queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue, "count": len(queue)})
}

// ApproveSuggestion handles POST /api/admin/ai/:id/approve
func (h *AdminHandler) ApproveSuggestion(c *gin.Context) {
	queue, err := h.service.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue, "count": len(queue)})
}

// RejectSuggestion handles POST /api/admin/ai/:id/reject
func (h *AdminHandler) RejectSuggestion(c *gin.Context) {
	queue, err := h.service.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue, "count": len(queue)})
}

// Mappings handles GET /api/admin/duplicates/mappings
func (h *AdminHandler) Mappings(c *gin.Context) {
	mappings, err := h.service.Mappings(c.Request.Context())
	if err != nil {
		slog.Error("Failed to load mappings", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to load mappings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mappings": mappings, "count": len(mappings)})
}

// Decisions handles GET /api/admin/decisions?group=&limit=
func (h *AdminHandler) Decisions(c *gin.Context) {
	if h.decisions == nil {
		c.JSON(http.StatusOK, gin.H{"decisions": []*models.Decision{}, "count": 0})
		return
	}

	ctx := c.Request.Context()
	var (
		decisions []*models.Decision
		err       error
	)
	if group := c.Query("group"); group != "" {
		decisions, err = h.decisions.FindByGroup(ctx, group)
	} else {
		limit, convErr := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repositories.DefaultRecentLimit)))
		if convErr != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		decisions, err = h.decisions.FindRecent(ctx, limit)
	}
	if err != nil {
		slog.Error("Failed to read decision log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read decision log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"decisions": decisions, "count": len(decisions)})
}

// Stats handles GET /api/admin/stats. It reports on the groups from the
// last load and does not refetch.
func (h *AdminHandler) Stats(c *gin.Context) {
	groups := h.service.Groups()
	stats := ReviewStats{
		Groups:      len(groups),
		ByClass:     make(map[models.Classification]int),
		LastUpdated: time.Now(),
	}
	for _, g := range groups {
		stats.ByClass[g.Classification]++
		if g.AutoRecommended {
			stats.AutoRecommended++
		}
	}

	if h.decisions != nil {
		count, err := h.decisions.Count(c.Request.Context())
		if err != nil {
			slog.Warn("Failed to count decisions", "error", err)
		}
		stats.Decisions = count
	}
	c.JSON(http.StatusOK, stats)
}

// writeError maps review service errors onto HTTP statuses
func (h *AdminHandler) writeError(c *gin.Context, err error) {
	var validation *dedup.ValidationError
	var server *dedup.ServerError

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "field": validation.Field})
	case errors.Is(err, dedup.ErrUnknownGroup):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, dedup.ErrActionInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &server):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": server.Message})
	default:
		slog.Error("Admin action failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Chart backend unavailable"})
	}
}
