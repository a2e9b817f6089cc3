package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	appName        = "ops-dashboard"
	defaultTimeout = 10 * time.Second
)

// Config holds the connection settings of the Mongo record store.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// RecordStore bundles the Mongo repositories behind the store interfaces the
// services depend on.
type RecordStore struct {
	*AccountRepository
	*DeliveryRepository
	*AuditRepository

	client *mongo.Client
}

// Open connects to MongoDB, pings the primary and creates the indexes the
// store relies on. The unique display_id index must exist before the first
// delivery is written.
func Open(ctx context.Context, cfg Config) (*RecordStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := newRecordStore(client, client.Database(cfg.Database))
	if err := s.EnsureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func newRecordStore(client *mongo.Client, db *mongo.Database) *RecordStore {
	return &RecordStore{
		AccountRepository:  NewAccountRepository(db),
		DeliveryRepository: NewDeliveryRepository(db),
		AuditRepository:    NewAuditRepository(db),
		client:             client,
	}
}

// EnsureIndexes creates the indexes of every collection.
func (s *RecordStore) EnsureIndexes(ctx context.Context) error {
	if err := s.AccountRepository.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("account indexes: %w", err)
	}
	if err := s.DeliveryRepository.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("delivery indexes: %w", err)
	}
	if err := s.AuditRepository.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable. Used by the readiness probe.
func (s *RecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *RecordStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
