package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/courierdesk/ops-dashboard/internal/core/domain"
)

const collectionDeliveries = "deliveries"

type DeliveryRepository struct {
	col *mongo.Collection
}

func NewDeliveryRepository(db *mongo.Database) *DeliveryRepository {
	return &DeliveryRepository{col: db.Collection(collectionDeliveries)}
}

// InsertDelivery inserts d. The unique display_id index turns a taken display
// id into domain.ErrDuplicateDisplayID.
func (r *DeliveryRepository) InsertDelivery(ctx context.Context, d *domain.Delivery) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if d.ID == "" {
		d.ID = primitive.NewObjectID().Hex()
	}
	if _, err := r.col.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateDisplayID
		}
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// FindDeliveryByDisplayID retrieves a delivery by its display id.
func (r *DeliveryRepository) FindDeliveryByDisplayID(ctx context.Context, displayID string) (*domain.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d domain.Delivery
	if err := r.col.FindOne(ctx, bson.M{"display_id": displayID}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDeliveryNotFound
		}
		return nil, fmt.Errorf("find delivery: %w", err)
	}
	return &d, nil
}

// UpdateDeliveryStatus sets the status and, when deliveryPerson is non-empty,
// the assignee.
func (r *DeliveryRepository) UpdateDeliveryStatus(ctx context.Context, displayID string, status domain.DeliveryStatus, deliveryPerson string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": status}
	if deliveryPerson != "" {
		set["delivery_person"] = deliveryPerson
	}

	res, err := r.col.UpdateOne(ctx, bson.M{"display_id": displayID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update delivery: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}

func (r *DeliveryRepository) DeleteDelivery(ctx context.Context, displayID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"display_id": displayID})
	if err != nil {
		return fmt.Errorf("delete delivery: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDeliveryNotFound
	}
	return nil
}

// CountDeliveriesCreatedBetween counts deliveries with start <= created_at < end.
func (r *DeliveryRepository) CountDeliveriesCreatedBetween(ctx context.Context, start, end time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, createdBetween(start, end))
	if err != nil {
		return 0, fmt.Errorf("count deliveries: %w", err)
	}
	return int(n), nil
}

func (r *DeliveryRepository) DeliveryExistsWithDisplayID(ctx context.Context, displayID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err := r.col.FindOne(ctx, bson.M{"display_id": displayID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("check display id: %w", err)
	}
	return true, nil
}

// ListDeliveriesCreatedBetween returns deliveries with start <= created_at < end, newest first.
func (r *DeliveryRepository) ListDeliveriesCreatedBetween(ctx context.Context, start, end time.Time) ([]*domain.Delivery, error) {
	return r.list(ctx, createdBetween(start, end), 0)
}

// ListUnassignedDeliveries returns up to limit deliveries without a delivery
// person, newest first. Legacy documents may carry "" or "None" instead of
// omitting the field.
func (r *DeliveryRepository) ListUnassignedDeliveries(ctx context.Context, limit int) ([]*domain.Delivery, error) {
	return r.list(ctx, unassignedQuery(), limit)
}

func (r *DeliveryRepository) list(ctx context.Context, query bson.M, limit int) ([]*domain.Delivery, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find deliveries: %w", err)
	}
	defer cur.Close(ctx)

	var deliveries []*domain.Delivery
	if err := cur.All(ctx, &deliveries); err != nil {
		return nil, fmt.Errorf("decode deliveries: %w", err)
	}
	return deliveries, nil
}

func createdBetween(start, end time.Time) bson.M {
	return bson.M{"created_at": bson.M{"$gte": start, "$lt": end}}
}

func unassignedQuery() bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"delivery_person": bson.M{"$exists": false}},
		bson.M{"delivery_person": bson.M{"$in": bson.A{nil, "", "None"}}},
	}}
}

// EnsureIndexes creates the unique display_id index, the created_at index
// used by the daily count and exports, and the delivery_person index.
func (r *DeliveryRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		uniqueIndex("display_id"),
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "delivery_person", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func uniqueIndex(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
}
