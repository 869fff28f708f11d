package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"session-token-service/internal/session/domain"
)

const mongoCollection = "sessions"

// mongoSession is the document stored in the sessions collection, keyed by session id.
type mongoSession struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	ExpiresAt time.Time `bson:"expires_at"`
	Payload   string    `bson:"payload"`
}

// MongoRepository persists sessions in a MongoDB collection.
type MongoRepository struct {
	collection *mongo.Collection
	clock      Clock
}

// NewMongoRepository returns a session repository backed by the "sessions" collection of database.
func NewMongoRepository(database *mongo.Database, clock Clock) *MongoRepository {
	return &MongoRepository{collection: database.Collection(mongoCollection), clock: clock}
}

// EnsureIndexes creates a TTL index on expires_at so MongoDB purges expired sessions on its own.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

// GetByID returns the unexpired session for id, or nil if not found or expired.
func (r *MongoRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: r.clock.now()}}},
	}
	var doc mongoSession
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return mongoSessionToDomain(&doc), nil
}

// Save inserts a new session document. A duplicate id yields ErrSessionExists.
func (r *MongoRepository) Save(ctx context.Context, s *domain.Session) error {
	_, err := r.collection.InsertOne(ctx, domainToMongoSession(s))
	if mongo.IsDuplicateKeyError(err) {
		return ErrSessionExists
	}
	return err
}

// Update replaces the unexpired document for s.ID and reports whether one matched.
func (r *MongoRepository) Update(ctx context.Context, s *domain.Session) (bool, error) {
	filter := bson.D{
		{Key: "_id", Value: s.ID},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: r.clock.now()}}},
	}
	res, err := r.collection.ReplaceOne(ctx, filter, domainToMongoSession(s))
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// Delete removes the session document with the given id.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

// DeleteExpired removes documents that expired at or before the given instant.
func (r *MongoRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	filter := bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: before.UTC()}}}}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func domainToMongoSession(s *domain.Session) *mongoSession {
	return &mongoSession{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
		ExpiresAt: s.ExpiresAt.UTC(),
		Payload:   s.Payload,
	}
}

func mongoSessionToDomain(doc *mongoSession) *domain.Session {
	return &domain.Session{
		ID:        doc.ID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		ExpiresAt: doc.ExpiresAt,
		Payload:   doc.Payload,
	}
}
