package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bdimitrov/skladov/internal/domain/models"
)

// Repository defines the archive operations backed by MongoDB. Archiving is
// best effort: callers log failures and carry on.
type Repository interface {
	SaveSaleAudit(ctx context.Context, audit models.SaleAudit) error
	SaveDailySummary(ctx context.Context, summary models.SalesSummary) error
}

const (
	auditCollection   = "sale_audits"
	summaryCollection = "daily_summaries"
)

// MongoDBRepository implements Repository for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository connects and pings the deployment.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{client: client, dbName: dbName}, nil
}

// SaveSaleAudit records one applied sale.
func (r *MongoDBRepository) SaveSaleAudit(ctx context.Context, audit models.SaleAudit) error {
	collection := r.client.Database(r.dbName).Collection(auditCollection)
	if _, err := collection.InsertOne(ctx, audit); err != nil {
		return fmt.Errorf("failed to insert sale audit: %w", err)
	}
	return nil
}

// SaveDailySummary records an aggregated sales summary.
func (r *MongoDBRepository) SaveDailySummary(ctx context.Context, summary models.SalesSummary) error {
	collection := r.client.Database(r.dbName).Collection(summaryCollection)
	if _, err := collection.InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("failed to insert daily summary: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
