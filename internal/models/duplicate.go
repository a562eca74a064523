package models

import (
	"time"
)

// Classification is the severity tier of a duplicate candidate group
type Classification string

const (
	ClassClear      Classification = "clear"
	ClassReview     Classification = "review"
	ClassLegitimate Classification = "legitimate"
)

// MergeAction is the admin decision committed for a group
type MergeAction string

const (
	ActionMerge      MergeAction = "merge"
	ActionException  MergeAction = "exception"
	ActionLegitimate MergeAction = "legitimate"
)

// Valid reports whether a is a known merge action.
func (a MergeAction) Valid() bool {
	switch a {
	case ActionMerge, ActionException, ActionLegitimate:
		return true
	}
	return false
}

// DuplicateCandidate is a single chart record inside a candidate group
type DuplicateCandidate struct {
	ID             string    `json:"id"`
	ChartName      string    `json:"chart_name"`
	RankPosition   int       `json:"rank_position"`
	OriginalArtist string    `json:"original_artist"`
	OriginalTrack  string    `json:"original_track"`
	UnifiedArtist  string    `json:"unified_artist"`
	UnifiedTrack   string    `json:"unified_track"`
	CreatedAt      time.Time `json:"created_at"`
}

// Recommendation is the pre-selected merge action for a group
type Recommendation struct {
	SelectedIDs []string `json:"selected_ids"`
	MasterID    string   `json:"master_id,omitempty"`
}

// DuplicateGroup is a cluster of chart records believed to be the same song.
// Classification and AutoRecommended are derived locally from Members.
type DuplicateGroup struct {
	GroupID         string               `json:"group_id"`
	UnifiedArtist   string               `json:"unified_artist"`
	UnifiedTrack    string               `json:"unified_track"`
	Members         []DuplicateCandidate `json:"members"`
	Classification  Classification       `json:"classification"`
	AutoRecommended bool                 `json:"auto_recommended"`
	Recommendation  *Recommendation      `json:"recommendation,omitempty"`
}

// MemberIDs returns the IDs of all members in input order.
func (g *DuplicateGroup) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for _, m := range g.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// HasMember reports whether id belongs to the group.
func (g *DuplicateGroup) HasMember(id string) bool {
	for _, m := range g.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// AIReviewEntry is an AI-suggested merge awaiting triage
type AIReviewEntry struct {
	ID              string    `json:"id"`
	SourceArtist    string    `json:"source_artist"`
	SourceTrack     string    `json:"source_track"`
	SuggestedArtist string    `json:"suggested_artist"`
	SuggestedTrack  string    `json:"suggested_track"`
	Confidence      float64   `json:"confidence"`
	Reason          string    `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Mapping is an active (original → unified) identity mapping
type Mapping struct {
	ID             string    `json:"id"`
	ChartName      string    `json:"chart_name,omitempty"`
	OriginalArtist string    `json:"original_artist"`
	OriginalTrack  string    `json:"original_track"`
	UnifiedArtist  string    `json:"unified_artist"`
	UnifiedTrack   string    `json:"unified_track"`
	CreatedAt      time.Time `json:"created_at"`
}

// MergeResult is the backend's answer to a merge execution
type MergeResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
