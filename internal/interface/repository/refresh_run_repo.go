package repository

import (
	"context"
	"fmt"

	"flight-dashboard/internal/domain/entity"
	"flight-dashboard/internal/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const refreshRunCollection = "refresh_runs"

// MongoRefreshRunRepository implements RefreshRunRepository
type MongoRefreshRunRepository struct {
	collection *mongo.Collection
}

// NewMongoRefreshRunRepository creates a new refresh run repository
func NewMongoRefreshRunRepository(db *mongo.Database) repository.RefreshRunRepository {
	collection := db.Collection(refreshRunCollection)

	// Index on startedAt for listing recent runs
	ctx := context.Background()
	collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"startedAt": -1}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "startedAt", Value: -1},
		}},
	})

	return newMongoRefreshRunRepository(collection)
}

func newMongoRefreshRunRepository(collection *mongo.Collection) *MongoRefreshRunRepository {
	return &MongoRefreshRunRepository{
		collection: collection,
	}
}

// Save inserts a new run or updates an existing one
func (r *MongoRefreshRunRepository) Save(ctx context.Context, run *entity.RefreshRun) error {
	// For new runs
	if run.ID == "" {
		run.ID = primitive.NewObjectID().Hex()
	}

	updateDoc := bson.M{
		"origin":      run.Origin,
		"status":      run.Status,
		"startedAt":   run.StartedAt,
		"finishedAt":  run.FinishedAt,
		"errorDetail": run.ErrorDetail,
		"flightCount": run.FlightCount,
	}

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": run.ID},
		bson.M{"$set": updateDoc},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to save refresh run %s: %w", run.ID, err)
	}
	return nil
}

// ListRecent returns the latest runs, newest first
func (r *MongoRefreshRunRepository) ListRecent(ctx context.Context, limit int) ([]*entity.RefreshRun, error) {
	if limit <= 0 {
		return []*entity.RefreshRun{}, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list refresh runs: %w", err)
	}
	defer cursor.Close(ctx)

	runs := []*entity.RefreshRun{}
	if err := cursor.All(ctx, &runs); err != nil {
		return nil, fmt.Errorf("failed to decode refresh runs: %w", err)
	}
	return runs, nil
}
