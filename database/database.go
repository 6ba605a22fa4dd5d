package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arbitrable-escrow/escrow-api/database/models"
	"github.com/arbitrable-escrow/escrow-api/types"
)

type Database struct {
	client       *mongo.Client
	databaseName string
	logger       *slog.Logger
}

type DatabaseOpts struct {
	URI          string
	DatabaseName string
	Logger       *slog.Logger
}

const (
	transactionsCollection = "transactions"
	defaultTimeout         = 10 * time.Second
)

func NewDatabase(opts DatabaseOpts) (*Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetMaxPoolSize(100).
		SetMinPoolSize(10).
		SetMaxConnecting(10).
		SetServerSelectionTimeout(5 * time.Second).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Database{
		client:       client,
		databaseName: opts.DatabaseName,
		logger:       opts.Logger,
	}, nil
}

func (db *Database) collection() *mongo.Collection {
	return db.client.Database(db.databaseName).Collection(transactionsCollection)
}

func (db *Database) CreateIndexes(ctx context.Context) error {
	_, err := db.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "track", Value: 1}, {Key: "transaction_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "sender", Value: 1}}},
		{Keys: bson.D{{Key: "receiver", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create transactions indexes: %w", err)
	}
	return nil
}

// UpsertTransactions replaces each aggregate wholesale, keyed by track and
// transaction id. A full replace (not a field update) keeps the stored
// record in lockstep with the last aggregation run.
func (db *Database) UpsertTransactions(ctx context.Context, txs []models.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, len(txs))
	for i, tx := range txs {
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.D{
				{Key: "track", Value: tx.Track},
				{Key: "transaction_id", Value: tx.TransactionID},
			}).
			SetReplacement(tx).
			SetUpsert(true)
	}

	result, err := db.collection().BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to upsert transactions: %w", err)
	}

	db.logger.Debug("upserted transactions",
		"matched", result.MatchedCount,
		"upserted", result.UpsertedCount,
		"modified", result.ModifiedCount)
	return nil
}

// GetTransaction returns one stored aggregate.
func (db *Database) GetTransaction(ctx context.Context, track types.Track, id string) (models.Transaction, error) {
	filter := bson.D{
		{Key: "track", Value: string(track)},
		{Key: "transaction_id", Value: id},
	}

	var tx models.Transaction
	if err := db.collection().FindOne(ctx, filter).Decode(&tx); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Transaction{}, fmt.Errorf("transaction %s on %s track: %w", id, track, types.ErrNotFound)
		}
		return models.Transaction{}, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

func buildFilter(f models.Filter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Sender != "" {
		filter["sender"] = f.Sender
	}
	if f.Receiver != "" {
		filter["receiver"] = f.Receiver
	}
	if f.Track != "" {
		filter["track"] = f.Track
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	return filter
}

// GetTransactions lists stored aggregates newest-first with pagination and
// per-status counts for the directory view.
func (db *Database) GetTransactions(ctx context.Context, filter models.Filter, page, pageSize int64) (*models.PaginatedResult, error) {
	mongoFilter := buildFilter(filter)
	skip := (page - 1) * pageSize

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: mongoFilter}},
		{{Key: "$facet", Value: bson.D{
			{Key: "metadata", Value: bson.A{
				bson.D{{Key: "$count", Value: "total"}},
			}},
			{Key: "pending", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: string(types.StatusPending)}}}},
				bson.D{{Key: "$count", Value: "total"}},
			}},
			{Key: "disputed", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "status", Value: string(types.StatusDisputed)}}}},
				bson.D{{Key: "$count", Value: "total"}},
			}},
			{Key: "transactions", Value: bson.A{
				bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
				bson.D{{Key: "$skip", Value: skip}},
				bson.D{{Key: "$limit", Value: pageSize}},
			}},
		}}},
	}

	opts := options.Aggregate().
		SetMaxTime(30 * time.Second).
		SetAllowDiskUse(true)

	cursor, err := db.collection().Aggregate(ctx, pipeline, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to execute transaction aggregation: %w", err)
	}
	defer cursor.Close(ctx)

	var facets []struct {
		Metadata     []struct{ Total int64 `bson:"total"` } `bson:"metadata"`
		Pending      []struct{ Total int64 `bson:"total"` } `bson:"pending"`
		Disputed     []struct{ Total int64 `bson:"total"` } `bson:"disputed"`
		Transactions []models.Transaction                   `bson:"transactions"`
	}
	if err := cursor.All(ctx, &facets); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	result := &models.PaginatedResult{
		Items:    []models.Transaction{},
		Page:     page,
		PageSize: pageSize,
	}
	if len(facets) == 0 {
		return result, nil
	}

	facet := facets[0]
	result.Items = facet.Transactions
	if result.Items == nil {
		result.Items = []models.Transaction{}
	}
	if len(facet.Metadata) > 0 {
		result.TotalCount = facet.Metadata[0].Total
	}
	if len(facet.Pending) > 0 {
		result.Pending = facet.Pending[0].Total
	}
	if len(facet.Disputed) > 0 {
		result.Disputed = facet.Disputed[0].Total
	}
	return result, nil
}
