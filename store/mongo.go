package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/tailor-connect/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const identitiesCollection = "identities"

// Mongo keeps profiles and identities in one MongoDB database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	log    *zap.Logger
}

// Connect dials uri, pings the server and returns a store bound to database.
func Connect(ctx context.Context, uri, database string, log *zap.Logger) (*Mongo, error) {
	const op = "store.Connect"

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to mongodb: %w", op, err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%s: failed to ping mongodb: %w", op, err)
	}

	log.Info("connected to mongodb", zap.String("database", database))
	return &Mongo{client: client, db: client.Database(database), log: log}, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Apply performs an upserting merge write. created reports whether the document did not exist.
func (m *Mongo) Apply(ctx context.Context, collection, uid string, u Update) (bool, error) {
	const op = "store.Mongo.Apply"

	if uid == "" {
		return false, fmt.Errorf("%s: %w", op, ErrNoUID)
	}

	doc := bson.M{}
	if len(u.Set) > 0 {
		doc["$set"] = bson.M(u.Set)
	}
	if len(u.SetOnInsert) > 0 {
		doc["$setOnInsert"] = bson.M(u.SetOnInsert)
	}
	if len(u.CurrentDate) > 0 {
		dates := bson.M{}
		for _, field := range u.CurrentDate {
			dates[field] = true
		}
		doc["$currentDate"] = dates
	}
	if len(doc) == 0 {
		return false, nil
	}

	res, err := m.db.Collection(collection).UpdateByID(ctx, uid, doc, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res.UpsertedCount > 0, nil
}

// Load reads one profile by uid.
func (m *Mongo) Load(ctx context.Context, collection, uid string) (*models.UserProfile, error) {
	const op = "store.Mongo.Load"

	var profile models.UserProfile
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": uid}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &profile, nil
}

// SaveCode stores a pending code for email, creating the identity with a fresh uid on first use,
// and returns the identity's uid.
func (m *Mongo) SaveCode(ctx context.Context, email string, code Code) (string, error) {
	const op = "store.Mongo.SaveCode"

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"code_hash":  code.Hash,
			"expires_at": code.ExpiresAt,
			"attempts":   0,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"uid":        uuid.NewString(),
			"created_at": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var identity models.Identity
	err := m.db.Collection(identitiesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": email}, update, opts).
		Decode(&identity)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return identity.UID, nil
}

// Identity loads the identity registered for email.
func (m *Mongo) Identity(ctx context.Context, email string) (*models.Identity, error) {
	const op = "store.Mongo.Identity"

	var identity models.Identity
	err := m.db.Collection(identitiesCollection).FindOne(ctx, bson.M{"_id": email}).Decode(&identity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &identity, nil
}

// RecordAttempt counts a failed verification.
func (m *Mongo) RecordAttempt(ctx context.Context, email string) error {
	const op = "store.Mongo.RecordAttempt"

	_, err := m.db.Collection(identitiesCollection).UpdateByID(ctx, email, bson.M{
		"$inc": bson.M{"attempts": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClearCode removes the pending code once it has been used.
func (m *Mongo) ClearCode(ctx context.Context, email string) error {
	const op = "store.Mongo.ClearCode"

	_, err := m.db.Collection(identitiesCollection).UpdateByID(ctx, email, bson.M{
		"$unset": bson.M{"code_hash": "", "expires_at": "", "attempts": ""},
		"$set":   bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
