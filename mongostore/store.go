// Package mongostore implements guardkit.CredentialStore on top of a
// MongoDB collection. Email uniqueness is enforced by a unique index, so
// two concurrent signups with the same email resolve to one insert and one
// duplicate-key error regardless of which server instance they hit.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/guardkit/guardkit"
)

const defaultCollection = "users"

// userDoc is the persisted shape. The engine-facing guardkit.User stays
// storage-agnostic; bson concerns end at this package boundary.
type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password_hash"`
	Verified     bool          `bson:"verified"`
	Admin        bool          `bson:"admin"`
	CreatedAt    time.Time     `bson:"created_at"`
}

func (d userDoc) toUser() *guardkit.User {
	return &guardkit.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Verified:     d.Verified,
		Admin:        d.Admin,
		CreatedAt:    d.CreatedAt,
	}
}

// Store is a CredentialStore over one MongoDB collection of users.
type Store struct {
	users *mongo.Collection
}

// New wraps an existing collection. Call EnsureIndexes once at startup
// before serving traffic.
func New(users *mongo.Collection) *Store {
	return &Store{users: users}
}

// Connect dials uri and returns a Store on database/users plus the client
// for lifecycle management. The unique email index is created before
// returning.
func Connect(ctx context.Context, uri, database string) (*Store, *mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", guardkit.ErrStoreUnavailable, err)
	}

	store := New(client.Database(database).Collection(defaultCollection))
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return store, client, nil
}

// EnsureIndexes creates the unique index on email that backs the
// atomic-create contract. Idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", guardkit.ErrStoreUnavailable, err)
	}
	return nil
}

// Create inserts a new user. A duplicate-key error from the email index
// maps to ErrEmailExists; everything else is a store fault.
func (s *Store) Create(ctx context.Context, email, passwordHash string) (*guardkit.User, error) {
	doc := userDoc{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, guardkit.ErrEmailExists
		}
		return nil, fmt.Errorf("%w: %v", guardkit.ErrStoreUnavailable, err)
	}
	return doc.toUser(), nil
}

// GetByID looks a user up by its hex object id. Ids that cannot be a
// MongoDB object id resolve to ErrUserNotFound, not a store fault.
func (s *Store) GetByID(ctx context.Context, id string) (*guardkit.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, guardkit.ErrUserNotFound
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

// GetByEmail looks a user up by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*guardkit.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (*guardkit.User, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, guardkit.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", guardkit.ErrStoreUnavailable, err)
	}
	return doc.toUser(), nil
}

// Update applies patch in one atomic document update and returns the
// committed record. Document-level atomicity is what serializes
// conflicting writes to the same user id.
func (s *Store) Update(ctx context.Context, id string, patch guardkit.UserPatch) (*guardkit.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, guardkit.ErrUserNotFound
	}

	set := bson.D{}
	if patch.PasswordHash != nil {
		set = append(set, bson.E{Key: "password_hash", Value: *patch.PasswordHash})
	}
	if patch.Verified != nil {
		set = append(set, bson.E{Key: "verified", Value: *patch.Verified})
	}
	if patch.Admin != nil {
		set = append(set, bson.E{Key: "admin", Value: *patch.Admin})
	}
	if len(set) == 0 {
		return s.GetByID(ctx, id)
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, guardkit.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", guardkit.ErrStoreUnavailable, err)
	}
	return doc.toUser(), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return guardkit.ErrUserNotFound
	}

	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("%w: %v", guardkit.ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return guardkit.ErrUserNotFound
	}
	return nil
}
