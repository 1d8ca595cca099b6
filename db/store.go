package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collection names.
const (
	AppointmentOptions = "appointmentOptions"
	Bookings           = "bookings"
	Users              = "users"
	Doctors            = "doctors"
	Payments           = "payments"
	Idempotency        = "idempotency"
)

var (
	ErrNotFound     = errors.New("db: no matching document")
	ErrDuplicateKey = errors.New("db: duplicate key")
)

// Store is a set of named, schemaless collections. Filters are top-level
// equality matches.
type Store interface {
	// Find decodes every matching document into out, a pointer to a slice.
	Find(ctx context.Context, coll string, filter bson.M, out any, opts ...FindOption) error
	// FindOne decodes the first match into out or returns ErrNotFound.
	FindOne(ctx context.Context, coll string, filter bson.M, out any) error
	// InsertOne assigns an _id when the document has none. A unique index
	// violation is reported as ErrDuplicateKey.
	InsertOne(ctx context.Context, coll string, doc any) (InsertResult, error)
	// UpdateOne applies set to the first match as a $set. With upsert and no
	// match a new document is built from the filter and set fields.
	UpdateOne(ctx context.Context, coll string, filter, set bson.M, upsert bool) (UpdateResult, error)
	DeleteOne(ctx context.Context, coll string, filter bson.M) (DeleteResult, error)
	EnsureUnique(ctx context.Context, coll, name string, keys ...string) error
	// WithTransaction runs fn atomically. Store calls inside fn must use the
	// context passed to fn.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Close(ctx context.Context) error
}

// Result shapes mirror what the Node driver returned to the portal clients.

type InsertResult struct {
	Acknowledged bool               `json:"acknowledged"`
	InsertedID   primitive.ObjectID `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool                `json:"acknowledged"`
	MatchedCount  int64               `json:"matchedCount"`
	ModifiedCount int64               `json:"modifiedCount"`
	UpsertedCount int64               `json:"upsertedCount"`
	UpsertedID    *primitive.ObjectID `json:"upsertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type FindOptions struct {
	Projection []string
}

type FindOption func(*FindOptions)

// Project limits returned documents to fields. _id is only returned when
// listed.
func Project(fields ...string) FindOption {
	return func(o *FindOptions) {
		o.Projection = append(o.Projection, fields...)
	}
}

func collectFindOptions(opts []FindOption) FindOptions {
	var fo FindOptions
	for _, opt := range opts {
		opt(&fo)
	}
	return fo
}

func projectionDoc(fields []string) bson.M {
	proj := bson.M{"_id": 0}
	for _, f := range fields {
		proj[f] = 1
	}
	return proj
}
