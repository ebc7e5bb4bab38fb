package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wms-platform/picking-orchestrator/internal/domain"
	pkgmongo "github.com/wms-platform/picking-orchestrator/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WaveCollection is the picking wave collection
const WaveCollection = "picking_waves"

// WaveRepository implements domain.PickingWaveRepository for MongoDB
type WaveRepository struct {
	collection *pkgmongo.InstrumentedCollection
}

// NewWaveRepository creates the repository and ensures its indexes
func NewWaveRepository(ctx context.Context, collection *pkgmongo.InstrumentedCollection) (*WaveRepository, error) {
	repo := &WaveRepository{collection: collection}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *WaveRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "waveId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "waveNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "zone", Value: 1}}},
	}
	if err := r.collection.CreateIndexes(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create wave indexes: %w", err)
	}
	return nil
}

// Save upserts a wave
func (r *WaveRepository) Save(ctx context.Context, wave *domain.PickingWave) error {
	wave.UpdatedAt = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"waveId": wave.WaveID}
	update := bson.M{"$set": wave}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save wave: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when the wave does not exist
func (r *WaveRepository) FindByID(ctx context.Context, waveID string) (*domain.PickingWave, error) {
	var wave domain.PickingWave
	err := r.collection.FindOne(ctx, bson.M{"waveId": waveID}).Decode(&wave)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wave: %w", err)
	}
	return &wave, nil
}

// FindByStatus lists waves newest first; an empty status lists all
func (r *WaveRepository) FindByStatus(ctx context.Context, status domain.WaveStatus, limit int) ([]*domain.PickingWave, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find waves: %w", err)
	}
	defer cursor.Close(ctx)

	waves := make([]*domain.PickingWave, 0)
	if err := cursor.All(ctx, &waves); err != nil {
		return nil, fmt.Errorf("failed to decode waves: %w", err)
	}
	return waves, nil
}
