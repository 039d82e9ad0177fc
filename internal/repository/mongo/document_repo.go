package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lucap2714-svg/fisiostudio/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const documentsCollection = "documents"

var _ repository.DocumentBackend = (*DocumentBackend)(nil)

// documentRecord is the stored shape of one root document.
type documentRecord struct {
	Key       string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// DocumentBackend stores payloads in the documents collection keyed by _id.
type DocumentBackend struct {
	uri        string
	dbName     string
	client     *mongo.Client
	collection *mongo.Collection
}

// NewDocumentBackend returns a backend that connects to uri on Open.
func NewDocumentBackend(uri, dbName string) *DocumentBackend {
	return &DocumentBackend{uri: uri, dbName: dbName}
}

// Open connects to MongoDB and binds the documents collection.
func (b *DocumentBackend) Open(ctx context.Context) error {
	if b.client != nil {
		return nil
	}
	client, err := ConnectDB(ctx, b.uri)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	b.client = client
	b.collection = client.Database(b.dbName).Collection(documentsCollection)
	return nil
}

// Get finds the document by key.
func (b *DocumentBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if b.collection == nil {
		return nil, repository.ErrClosed
	}
	var rec documentRecord
	err := b.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rec.Payload, nil
}

// Put replaces the document, inserting it when absent. A single-document
// replace is atomic in MongoDB.
func (b *DocumentBackend) Put(ctx context.Context, key string, payload []byte) error {
	if b.collection == nil {
		return repository.ErrClosed
	}
	rec := documentRecord{Key: key, Payload: payload, UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	if _, err := b.collection.ReplaceOne(ctx, bson.M{"_id": key}, rec, opts); err != nil {
		return fmt.Errorf("replace document %s: %w", key, err)
	}
	return nil
}

// Close disconnects the client.
func (b *DocumentBackend) Close() error {
	if b.client == nil {
		return nil
	}
	err := DisconnectDB(b.client)
	b.client = nil
	b.collection = nil
	return err
}
