// Package mongo implements OrderStore on a MongoDB collection. Every
// document carries the sort key of each field under _sort. Each indexed field
// gets a compound (_sort.field, _id) index; range scans are hinted onto it so
// a missing index fails fast instead of degrading into a collection scan.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/orderdesk/orderdesk/internal/storage"
	"github.com/orderdesk/orderdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// orderDocument is the stored shape of a record.
type orderDocument struct {
	model.OrderRecord `bson:",inline"`
	Sort              map[string]string `bson:"_sort"`
}

// ErrTransactionsUnsupported is returned by Connect when transactions are
// requested on a standalone server.
var ErrTransactionsUnsupported = errors.New("mongo deployment does not support transactions; run a replica set or set storage.mongo.allow_non_atomic_writes")

type orderStore struct {
	client       *mongo.Client
	coll         *mongo.Collection
	indexes      []model.Field
	transactions bool
}

// Options configures a store built on an existing client.
type Options struct {
	Collection string
	Indexes    []model.Field
	// Transactions wraps batch writes in a multi-document transaction so a
	// batch lands whole or not at all. Requires a replica set or sharded
	// cluster. Without it a failed batch can be partly applied.
	Transactions bool
}

// NewOrderStore wraps an existing database handle.
func NewOrderStore(client *mongo.Client, db *mongo.Database, opts Options) storage.OrderStore {
	return &orderStore{
		client:       client,
		coll:         db.Collection(opts.Collection),
		indexes:      opts.Indexes,
		transactions: opts.Transactions,
	}
}

// Connect dials uri, verifies the connection and returns a store on dbName.
func Connect(ctx context.Context, uri, dbName string, opts Options) (storage.OrderStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if opts.Transactions {
		ok, err := supportsTransactions(ctx, client)
		if err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		if !ok {
			_ = client.Disconnect(ctx)
			return nil, ErrTransactionsUnsupported
		}
	}

	return NewOrderStore(client, client.Database(dbName), opts), nil
}

func (s *orderStore) Range(ctx context.Context, q storage.RangeQuery) ([]model.OrderRecord, error) {
	orderField := sortField(q.OrderBy)

	filter := bson.M{}
	if q.EndAt != nil {
		key := model.SortKey(q.EndAt.Value)
		filter["$or"] = bson.A{
			bson.M{orderField: bson.M{"$lt": key}},
			bson.M{orderField: key, "_id": bson.M{"$lte": q.EndAt.Key}},
		}
	}
	if q.Equal != nil {
		filter[bsonField(q.Equal.Field)] = q.Equal.Value
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: orderField, Value: -1}, {Key: "_id", Value: -1}}).
		SetHint(indexName(q.OrderBy))
	if q.LimitToLast > 0 {
		findOpts.SetLimit(int64(q.LimitToLast))
	}

	cursor, err := s.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, s.rangeError(q, err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, s.rangeError(q, err)
	}
	out := make([]model.OrderRecord, len(docs))
	for i, d := range docs {
		out[i] = d.OrderRecord
	}
	return out, nil
}

func (s *orderStore) rangeError(q storage.RangeQuery, err error) error {
	if isBadHint(err) {
		return &model.MissingIndexError{Field: q.OrderBy.Label()}
	}
	return err
}

func (s *orderStore) Update(ctx context.Context, records map[string]model.OrderRecord) error {
	if len(records) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(records))
	for path, rec := range records {
		code, err := storage.CodeFromPath(path)
		if err != nil {
			return err
		}
		if rec.Code != code {
			return fmt.Errorf("record code %q does not match path %q", rec.Code, path)
		}
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": code}).
			SetReplacement(orderDocument{OrderRecord: rec, Sort: rec.SortKeys()}).
			SetUpsert(true))
	}

	if !s.transactions {
		_, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
		return err
	}

	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return s.coll.BulkWrite(sessCtx, writes, options.BulkWrite().SetOrdered(false))
	})
	return err
}

// EnsureIndexes creates a (_sort.field desc, _id desc) index for every configured field.
func (s *orderStore) EnsureIndexes(ctx context.Context) error {
	models := make([]mongo.IndexModel, 0, len(s.indexes))
	for _, f := range s.indexes {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: sortField(f), Value: -1}, {Key: "_id", Value: -1}},
			Options: options.Index().SetName(indexName(f)),
		})
	}
	if len(models) == 0 {
		return nil
	}
	_, err := s.coll.Indexes().CreateMany(ctx, models)
	return err
}

func (s *orderStore) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Disconnect(ctx)
	}
	return nil
}
