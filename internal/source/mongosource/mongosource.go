// Package mongosource keeps the product collection in a MongoDB collection.
package mongosource

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/five82/stockgrid/internal/product"
	"github.com/five82/stockgrid/internal/state"
)

var _ state.Loader = (*Source)(nil)

const (
	DefaultDatabase   = "stockgrid"
	DefaultCollection = "products"
	idField           = "ProductID"
)

// Source reads and writes products in one MongoDB collection.
type Source struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri and verifies the connection with a ping.
func Open(ctx context.Context, uri, database, collection string) (*Source, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Source{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}, nil
}

// Fetch returns every product ordered by id.
func (s *Source) Fetch(ctx context.Context) ([]product.Product, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: idField, Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	items := []product.Product{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return items, nil
}

// Save makes the collection match items: each product is upserted by id and
// documents whose id is not in items are removed.
func (s *Source) Save(ctx context.Context, items []product.Product) error {
	models, keep := replaceModels(items)
	if len(models) > 0 {
		if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("upsert products: %w", err)
		}
	}
	if _, err := s.coll.DeleteMany(ctx, staleFilter(keep)); err != nil {
		return fmt.Errorf("delete removed products: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Source) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func replaceModels(items []product.Product) ([]mongo.WriteModel, []int) {
	models := make([]mongo.WriteModel, 0, len(items))
	ids := make([]int, 0, len(items))
	for _, p := range items {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.D{{Key: idField, Value: p.ID}}).
			SetReplacement(p).
			SetUpsert(true))
		ids = append(ids, p.ID)
	}
	return models, ids
}

func staleFilter(keep []int) bson.D {
	return bson.D{{Key: idField, Value: bson.D{{Key: "$nin", Value: keep}}}}
}
