package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

// mongoDecisionRepository implements DecisionRepository using MongoDB
type mongoDecisionRepository struct {
	collection *mongo.Collection
}

// NewMongoDecisionRepository creates a MongoDB-backed decision log
func NewMongoDecisionRepository(db *models.Database) DecisionRepository {
	return &mongoDecisionRepository{
		collection: db.DB.Collection(models.DecisionsCollection),
	}
}

// Save appends a decision. Decisions are immutable once written.
func (r *mongoDecisionRepository) Save(ctx context.Context, d *models.Decision) error {
	if !d.ID.IsZero() {
		return fmt.Errorf("decision %s already saved", d.ID.Hex())
	}
	d.SchemaVersion = models.CurrentSchemaVersion
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, d)
	if err != nil {
		return fmt.Errorf("failed to insert decision: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		d.ID = id
	}
	return nil
}

// FindRecent returns the latest decisions across all groups
func (r *mongoDecisionRepository) FindRecent(ctx context.Context, limit int) ([]*models.Decision, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	return r.find(ctx, bson.M{}, opts)
}

// FindByGroup returns every decision recorded against a duplicate group
func (r *mongoDecisionRepository) FindByGroup(ctx context.Context, groupID string) ([]*models.Decision, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"group_id": groupID}, opts)
}

// Count returns the total number of recorded decisions
func (r *mongoDecisionRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count decisions: %w", err)
	}
	return count, nil
}

func (r *mongoDecisionRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Decision, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find decisions: %w", err)
	}
	defer cursor.Close(ctx)

	decisions := []*models.Decision{}
	for cursor.Next(ctx) {
		var d models.Decision
		if err := cursor.Decode(&d); err != nil {
			slog.Error("Failed to decode decision", "error", err)
			continue
		}
		upgradeSchema(&d)
		decisions = append(decisions, &d)
	}

	return decisions, cursor.Err()
}

// upgradeSchema fills in fields missing from documents written by older
// versions. Decisions are append-only, so the stored document is left as is.
func upgradeSchema(d *models.Decision) {
	if d.SchemaVersion >= models.CurrentSchemaVersion {
		return
	}
	if d.Kind == "" {
		d.Kind = models.DecisionMerge
	}
	d.SchemaVersion = models.CurrentSchemaVersion
}
