package loader

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"registration-analytics/internal/logger"
	"registration-analytics/internal/model"
)

// Connect opens and pings a MongoDB client
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("database connection URL is empty")
	}

	clientOptions := options.Client().ApplyURI(uri).
		SetMaxPoolSize(10).
		SetConnectTimeout(5 * time.Second).
		SetSocketTimeout(30 * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancelPing := context.WithTimeout(ctx, 2*time.Second)
	defer cancelPing()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.GetAppLogger().Info("Successfully connected to MongoDB")
	return client, nil
}

// Disconnect closes the MongoDB client connection
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.GetAppLogger().WithError(err).Error("Failed to disconnect MongoDB client")
		return err
	}
	logger.GetAppLogger().Info("Successfully disconnected from MongoDB")
	return nil
}

// MongoLoader reads a whole collection from one database
type MongoLoader struct {
	db        *mongo.Database
	batchSize int32
}

// NewMongoLoader returns a loader for the named database
func NewMongoLoader(client *mongo.Client, dbName string) *MongoLoader {
	return &MongoLoader{db: client.Database(dbName), batchSize: 500}
}

// Load implements Loader
func (l *MongoLoader) Load(ctx context.Context, collection string) ([]model.RawRecord, error) {
	names, err := l.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: collection}})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: collection %s", ErrNotFound, collection)
	}

	opts := options.Find().SetBatchSize(l.batchSize)
	cursor, err := l.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", collection, err)
	}

	records := make([]model.RawRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, toRawRecord(doc))
	}

	logger.GetAppLogger().WithField("collection", collection).Infof("Loaded %d records", len(records))
	return records, nil
}

// toRawRecord converts BSON wire types to plain values and exposes _id as id
func toRawRecord(doc bson.M) model.RawRecord {
	rec := make(model.RawRecord, len(doc))
	for k, v := range doc {
		rec[k] = plainValue(v)
	}
	if _, ok := rec[model.FieldID]; !ok {
		if id, ok := rec["_id"]; ok {
			rec[model.FieldID] = id
		}
	}
	delete(rec, "_id")
	return rec
}

func plainValue(v interface{}) interface{} {
	switch val := v.(type) {
	case primitive.ObjectID:
		return val.Hex()
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Timestamp:
		return time.Unix(int64(val.T), 0).UTC()
	case bson.M:
		return plainMap(val)
	case bson.D:
		out := make(map[string]interface{}, len(val))
		for _, e := range val {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = plainValue(item)
		}
		return out
	default:
		return v
	}
}

// plainMap converts a nested sub-document, keeping its keys as stored
func plainMap(doc bson.M) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = plainValue(v)
	}
	return out
}
