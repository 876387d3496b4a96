package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/scholarshare/scholarshare/pkg/errors"
)

// Collection names.
const (
	collPapers  = "papers"
	collContent = "generated_content"
	collPublish = "publishing_logs"
)

// MongoStore is the MongoDB backend.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to the MongoDB instance at uri and uses dbName
// (default "scholarshare").
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	if dbName == "" {
		dbName = "scholarshare"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}
	return &MongoStore{client: client, db: client.Database(dbName)}, nil
}

// SavePaper implements Store.
func (s *MongoStore) SavePaper(ctx context.Context, rec *PaperRecord) error {
	ensureID(&rec.ID)
	ensureTime(&rec.CreatedAt)

	_, err := s.db.Collection(collPapers).InsertOne(ctx, rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "insert paper")
	}
	return nil
}

// GetPaper implements Store.
func (s *MongoStore) GetPaper(ctx context.Context, id string) (PaperRecord, error) {
	var rec PaperRecord
	err := s.db.Collection(collPapers).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return PaperRecord{}, errors.New(errors.ErrCodeNotFound, "paper %s not found", id)
	}
	if err != nil {
		return PaperRecord{}, errors.Wrap(errors.ErrCodeInternal, err, "fetch paper")
	}
	return rec, nil
}

// ListPapers implements Store.
func (s *MongoStore) ListPapers(ctx context.Context, limit int) ([]PaperRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := s.db.Collection(collPapers).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list papers")
	}
	var out []PaperRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode papers")
	}
	return out, nil
}

// SaveContent implements Store.
func (s *MongoStore) SaveContent(ctx context.Context, rec *ContentRecord) error {
	ensureID(&rec.ID)
	ensureTime(&rec.CreatedAt)

	_, err := s.db.Collection(collContent).InsertOne(ctx, rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "insert content")
	}
	return nil
}

// ListContent implements Store.
func (s *MongoStore) ListContent(ctx context.Context, paperID string) ([]ContentRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.db.Collection(collContent).Find(ctx, bson.M{"paper_id": paperID}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list content")
	}
	var out []ContentRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode content")
	}
	return out, nil
}

// LogPublish implements Store.
func (s *MongoStore) LogPublish(ctx context.Context, rec *PublishRecord) error {
	ensureID(&rec.ID)
	ensureTime(&rec.PublishedAt)

	_, err := s.db.Collection(collPublish).InsertOne(ctx, rec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "insert publish log")
	}
	return nil
}

// ListPublishLog implements Store.
func (s *MongoStore) ListPublishLog(ctx context.Context, contentID string) ([]PublishRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}})
	cur, err := s.db.Collection(collPublish).Find(ctx, bson.M{"content_id": contentID}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list publish log")
	}
	var out []PublishRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode publish log")
	}
	return out, nil
}

// Close implements Store.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
