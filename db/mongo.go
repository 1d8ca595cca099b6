package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the production Store backed by a MongoDB database.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// Connect dials uri, checks the connection and selects database dbName.
// Transactions require a replica set; pass transactions=false against a
// standalone server and WithTransaction runs fn without a session.
func Connect(ctx context.Context, uri, dbName string, transactions bool) (*MongoStore, error) {
	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client:       client,
		db:           client.Database(dbName),
		transactions: transactions,
	}, nil
}

func (s *MongoStore) Find(ctx context.Context, coll string, filter bson.M, out any, opts ...FindOption) error {
	fo := collectFindOptions(opts)
	findOpts := options.Find()
	if len(fo.Projection) > 0 {
		findOpts.SetProjection(projectionDoc(fo.Projection))
	}

	cur, err := s.db.Collection(coll).Find(ctx, filter, findOpts)
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

func (s *MongoStore) FindOne(ctx context.Context, coll string, filter bson.M, out any) error {
	err := s.db.Collection(coll).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find one %s: %w", coll, err)
	}
	return nil
}

func (s *MongoStore) InsertOne(ctx context.Context, coll string, doc any) (InsertResult, error) {
	res, err := s.db.Collection(coll).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return InsertResult{}, ErrDuplicateKey
	}
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert %s: %w", coll, err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (s *MongoStore) UpdateOne(ctx context.Context, coll string, filter, set bson.M, upsert bool) (UpdateResult, error) {
	res, err := s.db.Collection(coll).UpdateOne(ctx, filter,
		bson.M{"$set": set},
		options.Update().SetUpsert(upsert),
	)
	if mongo.IsDuplicateKeyError(err) {
		return UpdateResult{}, ErrDuplicateKey
	}
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update %s: %w", coll, err)
	}

	out := UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if id, ok := res.UpsertedID.(primitive.ObjectID); ok {
		out.UpsertedID = &id
	}
	return out, nil
}

func (s *MongoStore) DeleteOne(ctx context.Context, coll string, filter bson.M) (DeleteResult, error) {
	res, err := s.db.Collection(coll).DeleteOne(ctx, filter)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete %s: %w", coll, err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (s *MongoStore) EnsureUnique(ctx context.Context, coll, name string, keys ...string) error {
	model := bson.D{}
	for _, k := range keys {
		model = append(model, bson.E{Key: k, Value: 1})
	}
	_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    model,
		Options: options.Index().SetUnique(true).SetName(name),
	})
	return err
}

func (s *MongoStore) EnsureTTL(ctx context.Context, coll, name, field string) error {
	_, err := s.db.Collection(coll).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0).SetName(name),
	})
	return err
}

func (s *MongoStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.transactions {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
