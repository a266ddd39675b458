// internal/service/negotiation/infrastructure/adapter/activity_mongo_adapter.go
package adapter

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"haggle/internal/service/negotiation/domain"
)

const activityCollection = "offer_activity"

// ActivityMongoAdapter implements port.ActivityRecorder by appending audit
// documents to a mongo collection. Append-only; reads happen in analytics
// tooling, not here.
type ActivityMongoAdapter struct {
	collection *mongo.Collection
}

// NewActivityMongoAdapter connects to mongo and binds the activity
// collection.
func NewActivityMongoAdapter(uri, database string) (*ActivityMongoAdapter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return &ActivityMongoAdapter{
		collection: client.Database(database).Collection(activityCollection),
	}, nil
}

func (a *ActivityMongoAdapter) Record(ctx context.Context, entry *domain.ActivityEntry) error {
	_, err := a.collection.InsertOne(ctx, entry)
	return err
}

// Close disconnects the underlying mongo client.
func (a *ActivityMongoAdapter) Close(ctx context.Context) error {
	return a.collection.Database().Client().Disconnect(ctx)
}
