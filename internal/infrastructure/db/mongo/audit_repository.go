package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
	"github.com/courierdesk/ops-dashboard/internal/core/ports"
)

const collectionAuditLogs = "audit_logs"

// AuditRepository is append-only: entries are inserted and listed, never
// updated.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAuditLogs)}
}

func (r *AuditRepository) InsertAuditEntry(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.ID == "" {
		entry.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListAuditEntries returns one page of entries, newest first, plus the total
// number of entries matching filter.
func (r *AuditRepository) ListAuditEntries(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditEntry, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := auditQuery(filter)

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.PerPage)).
		SetLimit(int64(filter.PerPage))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find audit entries: %w", err)
	}
	defer cur.Close(ctx)

	entries := make([]*domain.AuditEntry, 0, filter.PerPage)
	if err := cur.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("decode audit entries: %w", err)
	}
	return entries, total, nil
}

// EnsureIndexes creates the indexes used by the audit browser.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "actor_username", Value: 1}}},
		{Keys: bson.D{{Key: "action", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func auditQuery(filter ports.AuditFilter) bson.M {
	query := bson.M{}
	if filter.Action != "" {
		query["action"] = containsFold(filter.Action)
	}
	if filter.Username != "" {
		query["actor_username"] = containsFold(filter.Username)
	}

	ts := bson.M{}
	if !filter.From.IsZero() {
		ts["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		ts["$lt"] = filter.To
	}
	if len(ts) > 0 {
		query["timestamp"] = ts
	}
	return query
}

func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
