package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CurrentSchemaVersion = 1

// DecisionKind identifies which admin action produced a Decision
type DecisionKind string

const (
	DecisionMerge      DecisionKind = "merge"
	DecisionException  DecisionKind = "exception"
	DecisionLegitimate DecisionKind = "legitimate"
	DecisionAIApprove  DecisionKind = "ai_approve"
	DecisionAIReject   DecisionKind = "ai_reject"
)

// DecisionKindFor maps a merge action to its audit kind.
func DecisionKindFor(action MergeAction) DecisionKind {
	switch action {
	case ActionException:
		return DecisionException
	case ActionLegitimate:
		return DecisionLegitimate
	default:
		return DecisionMerge
	}
}

// Decision is an audit record of an admin action against the dedup backend
type Decision struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SchemaVersion int                `bson:"schema_version" json:"schema_version"`

	Kind    DecisionKind `bson:"kind" json:"kind"`
	GroupID string       `bson:"group_id,omitempty" json:"group_id,omitempty"`
	EntryID string       `bson:"entry_id,omitempty" json:"entry_id,omitempty"` // AI review queue entry

	UnifiedArtist string   `bson:"unified_artist,omitempty" json:"unified_artist,omitempty"`
	UnifiedTrack  string   `bson:"unified_track,omitempty" json:"unified_track,omitempty"`
	SelectedIDs   []string `bson:"selected_ids,omitempty" json:"selected_ids,omitempty"`
	MasterID      string   `bson:"master_id,omitempty" json:"master_id,omitempty"`

	Classification Classification `bson:"classification,omitempty" json:"classification,omitempty"`
	Success        bool           `bson:"success" json:"success"`
	Message        string         `bson:"message,omitempty" json:"message,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// NewDecision creates a Decision stamped with the current schema version
func NewDecision(kind DecisionKind) *Decision {
	return &Decision{
		SchemaVersion: CurrentSchemaVersion,
		Kind:          kind,
		CreatedAt:     time.Now(),
	}
}
