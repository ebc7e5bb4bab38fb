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

// TaskCollection is the pick task collection
const TaskCollection = "pick_tasks"

var terminalStatuses = bson.A{
	domain.PickTaskStatusCompleted,
	domain.PickTaskStatusShort,
	domain.PickTaskStatusDamaged,
}

// TaskRepository implements domain.PickTaskRepository for MongoDB
type TaskRepository struct {
	collection *pkgmongo.InstrumentedCollection
}

// NewTaskRepository creates the repository and ensures its indexes
func NewTaskRepository(ctx context.Context, collection *pkgmongo.InstrumentedCollection) (*TaskRepository, error) {
	repo := &TaskRepository{collection: collection}
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *TaskRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "taskId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "waveId", Value: 1}, {Key: "sequence", Value: 1}}},
		{Keys: bson.D{{Key: "assignee", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "zone", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "zone", Value: 1}, {Key: "completedAt", Value: -1}}},
		{Keys: bson.D{{Key: "assignee", Value: 1}, {Key: "completedAt", Value: -1}}},
	}
	if err := r.collection.CreateIndexes(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create pick task indexes: %w", err)
	}
	return nil
}

// Save upserts a pick task
func (r *TaskRepository) Save(ctx context.Context, task *domain.PickTask) error {
	task.UpdatedAt = time.Now()

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"taskId": task.TaskID}
	update := bson.M{"$set": task}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save pick task: %w", err)
	}
	return nil
}

// SaveAll upserts tasks in one bulk write
func (r *TaskRepository) SaveAll(ctx context.Context, tasks []*domain.PickTask) error {
	if len(tasks) == 0 {
		return nil
	}

	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(tasks))
	for _, task := range tasks {
		task.UpdatedAt = now
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"taskId": task.TaskID}).
			SetUpdate(bson.M{"$set": task}).
			SetUpsert(true))
	}

	if _, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to save pick tasks: %w", err)
	}
	return nil
}

// DeleteByWaveID removes every task of the wave
func (r *TaskRepository) DeleteByWaveID(ctx context.Context, waveID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"waveId": waveID}); err != nil {
		return fmt.Errorf("failed to delete wave tasks: %w", err)
	}
	return nil
}

// FindByID returns nil, nil when the task does not exist
func (r *TaskRepository) FindByID(ctx context.Context, taskID string) (*domain.PickTask, error) {
	var task domain.PickTask
	err := r.collection.FindOne(ctx, bson.M{"taskId": taskID}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pick task: %w", err)
	}
	return &task, nil
}

// FindByWaveID returns the wave's tasks ordered by sequence
func (r *TaskRepository) FindByWaveID(ctx context.Context, waveID string) ([]*domain.PickTask, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	return r.find(ctx, bson.M{"waveId": waveID}, opts)
}

// FindByPickerID returns the picker's tasks, newest first
func (r *TaskRepository) FindByPickerID(ctx context.Context, pickerID string) ([]*domain.PickTask, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"assignee": pickerID}, opts)
}

// FindByZoneAndStatus returns a zone's tasks in the given status
func (r *TaskRepository) FindByZoneAndStatus(ctx context.Context, zone string, status domain.PickTaskStatus) ([]*domain.PickTask, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.find(ctx, bson.M{"zone": zone, "status": status}, opts)
}

// FindCompletedByZone returns terminal tasks completed at or after since
func (r *TaskRepository) FindCompletedByZone(ctx context.Context, zone string, since time.Time) ([]*domain.PickTask, error) {
	filter := bson.M{
		"zone":        zone,
		"status":      bson.M{"$in": terminalStatuses},
		"completedAt": bson.M{"$gte": since},
	}
	return r.find(ctx, filter)
}

// FindCompletedByPicker returns terminal tasks completed within period
func (r *TaskRepository) FindCompletedByPicker(ctx context.Context, pickerID string, period domain.Period) ([]*domain.PickTask, error) {
	filter := bson.M{
		"assignee":    pickerID,
		"status":      bson.M{"$in": terminalStatuses},
		"completedAt": bson.M{"$gte": period.From, "$lt": period.To},
	}
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *TaskRepository) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]*domain.PickTask, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to find pick tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]*domain.PickTask, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode pick tasks: %w", err)
	}
	return tasks, nil
}
