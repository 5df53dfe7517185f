package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vitalmed/staff-registry/internal/core/domain"
)

// auditRetention bounds how long activity entries are kept. Mongo's TTL
// monitor removes older documents on its own.
const auditRetention = 180 * 24 * time.Hour

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection("audit_events")}
}

// Insert appends one entry to the activity trail.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.AuditEvent) error {
	doc := bson.M{
		"account":     event.Account,
		"action":      event.Action,
		"recorded_at": event.At.UTC(),
	}
	if event.Note != "" {
		doc["note"] = event.Note
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "account", Value: 1}, {Key: "recorded_at", Value: -1}}},
		{Keys: bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(auditRetention / time.Second))},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
