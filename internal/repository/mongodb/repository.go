package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/decapage/internal/domain/models"
)

const (
	operationsCollection = "operations"
	reportsCollection    = "operation_reports"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a document with the same ID already exists.
	ErrDuplicate = errors.New("document already exists")
)

// OperationRepository defines the storage operations for logged operations.
type OperationRepository interface {
	InsertOperation(ctx context.Context, op models.Operation) error
	FindOperation(ctx context.Context, id string) (models.Operation, error)
	ListOperations(ctx context.Context, filter models.OperationFilter) ([]models.Operation, error)
}

// ReportRepository defines the interface for report storage.
type ReportRepository interface {
	SaveReport(ctx context.Context, report models.OperationsReport) error
}

// MongoDBRepository implements both repositories on a MongoDB database.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

// InsertOperation stores a new operation. It returns ErrDuplicate when the ID
// is already taken.
func (r *MongoDBRepository) InsertOperation(ctx context.Context, op models.Operation) error {
	_, err := r.collection(operationsCollection).InsertOne(ctx, op)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("operation %s: %w", op.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert operation %s: %w", op.ID, err)
	}
	return nil
}

// FindOperation loads an operation by ID.
func (r *MongoDBRepository) FindOperation(ctx context.Context, id string) (models.Operation, error) {
	var op models.Operation
	err := r.collection(operationsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&op)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Operation{}, ErrNotFound
	}
	if err != nil {
		return models.Operation{}, fmt.Errorf("failed to find operation %s: %w", id, err)
	}
	return op, nil
}

// ListOperations returns operations matching the filter, oldest first.
func (r *MongoDBRepository) ListOperations(ctx context.Context, filter models.OperationFilter) ([]models.Operation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}

	cursor, err := r.collection(operationsCollection).Find(ctx, buildOperationFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	ops := make([]models.Operation, 0)
	if err := cursor.All(ctx, &ops); err != nil {
		return nil, fmt.Errorf("failed to decode operations: %w", err)
	}
	return ops, nil
}

// SaveReport saves an aggregated report to the database.
func (r *MongoDBRepository) SaveReport(ctx context.Context, report models.OperationsReport) error {
	_, err := r.collection(reportsCollection).InsertOne(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to insert operations report: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

func buildOperationFilter(filter models.OperationFilter) bson.M {
	query := bson.M{}

	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		dateRange["$lte"] = filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	if filter.Machine != "" {
		query["machine"] = filter.Machine
	}

	return query
}
