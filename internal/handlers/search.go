package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/suggest"
)

// SuggestionSource produces ranked suggestions for a partial query
type SuggestionSource interface {
	GetSuggestions(ctx context.Context, query string) []models.Suggestion
}

// RouteResolver picks the destination page for a submitted query
type RouteResolver interface {
	Resolve(ctx context.Context, query string) models.Route
}

// SuggestResponse is the body of GET /api/suggest
type SuggestResponse struct {
	Query       string              `json:"query"`
	Seq         uint64              `json:"seq,omitempty"`
	Stale       bool                `json:"stale"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// ResolveResponse is the body of GET /api/resolve
type ResolveResponse struct {
	Route     models.Route `json:"route"`
	Path      string       `json:"path,omitempty"`
	Navigates bool         `json:"navigates"`
}

// SearchHandler serves the search box: suggestions while typing and the
// route for a submitted query.
type SearchHandler struct {
	suggestions SuggestionSource
	routes      RouteResolver
	gate        *suggest.Gate
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(suggestions SuggestionSource, routes RouteResolver, gate *suggest.Gate) *SearchHandler {
	if gate == nil {
		gate = suggest.NewGate(0)
	}
	return &SearchHandler{suggestions: suggestions, routes: routes, gate: gate}
}

// Suggest handles GET /api/suggest?q=&session=&seq=
//
// Clients that send a session get sequence checking: a request older than
// one already seen for the session, or a response overtaken while it was
// being fetched, comes back with stale=true and no suggestions.
func (h *SearchHandler) Suggest(c *gin.Context) {
	query := c.Query("q")
	session := c.Query("session")

	if session == "" {
		c.JSON(http.StatusOK, SuggestResponse{
			Query:       query,
			Suggestions: h.suggestions.GetSuggestions(c.Request.Context(), query),
		})
		return
	}

	var seq uint64
	if raw := c.Query("seq"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seq must be a positive integer"})
			return
		}
		seq = n
		if !h.gate.Admit(session, seq) {
			c.JSON(http.StatusOK, staleResponse(query, seq))
			return
		}
	} else {
		seq = h.gate.Next(session)
	}

	suggestions := h.suggestions.GetSuggestions(c.Request.Context(), query)
	if !h.gate.Apply(session, seq) {
		c.JSON(http.StatusOK, staleResponse(query, seq))
		return
	}

	c.JSON(http.StatusOK, SuggestResponse{Query: query, Seq: seq, Suggestions: suggestions})
}

func staleResponse(query string, seq uint64) SuggestResponse {
	return SuggestResponse{Query: query, Seq: seq, Stale: true, Suggestions: []models.Suggestion{}}
}

// Resolve handles GET /api/resolve?q=
func (h *SearchHandler) Resolve(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	route := h.routes.Resolve(c.Request.Context(), query)
	c.JSON(http.StatusOK, ResolveResponse{
		Route:     route,
		Path:      route.Path(),
		Navigates: route.Navigates(),
	})
}

// Go handles GET /go?q=, redirecting to the resolved page. A query with no
// results stays put and gets the notice instead.
func (h *SearchHandler) Go(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	route := h.routes.Resolve(c.Request.Context(), query)
	if !route.Navigates() {
		c.JSON(http.StatusOK, gin.H{"query": query, "notice": route.Notice})
		return
	}
	c.Redirect(http.StatusFound, route.Path())
}
