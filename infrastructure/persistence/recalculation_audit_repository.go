package persistence

import (
	"context"
	"fmt"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
	"github.com/kvn3toj/beforenostr-sub004/domain/repository"
	"github.com/kvn3toj/beforenostr-sub004/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	recalculationRunsCollection = "duration_recalculation_runs"
	defaultRunsLimit            = 20
	maxRunsLimit                = 200
)

// RecalculationAuditRepository keeps batch summaries in MongoDB. A nil client
// turns it into a no-op store.
type RecalculationAuditRepository struct {
	mongoDb  *mongo.Client
	database string
}

func NewRecalculationAuditRepository(db *mongo.Client, database string) repository.IRecalculationAudit {
	return &RecalculationAuditRepository{mongoDb: db, database: database}
}

func (r *RecalculationAuditRepository) collection() *mongo.Collection {
	return r.mongoDb.Database(r.database).Collection(recalculationRunsCollection)
}

func (r *RecalculationAuditRepository) SaveRun(ctx context.Context, summary *model.RecalculationSummary) error {
	if r.mongoDb == nil {
		logger.GetLogger().Debug("MongoDB client is nil - recalculation run not stored")
		return nil
	}
	if _, err := r.collection().InsertOne(ctx, summary); err != nil {
		return fmt.Errorf("insert recalculation run: %w", err)
	}
	return nil
}

// ListRuns returns the newest runs first.
func (r *RecalculationAuditRepository) ListRuns(ctx context.Context, limit int) ([]model.RecalculationSummary, error) {
	if r.mongoDb == nil {
		return []model.RecalculationSummary{}, nil
	}
	limit = clampRunsLimit(limit)

	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while fetching recalculation runs")
		return nil, err
	}
	defer func(cursor *mongo.Cursor, ctx context.Context) {
		if err := cursor.Close(ctx); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while closing cursor")
		}
	}(cursor, ctx)

	runs := make([]model.RecalculationSummary, 0, limit)
	for cursor.Next(ctx) {
		var run model.RecalculationSummary
		if err := cursor.Decode(&run); err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while decoding")
			continue
		}
		runs = append(runs, run)
	}
	return runs, cursor.Err()
}

func clampRunsLimit(limit int) int {
	if limit <= 0 {
		return defaultRunsLimit
	}
	if limit > maxRunsLimit {
		return maxRunsLimit
	}
	return limit
}
