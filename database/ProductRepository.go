package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"catalog-api/models"
	"catalog-api/query"
)

// ProductStore is the persistence contract for products. Every read returns
// products with their owner joined from the users collection.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context, q query.Query) ([]models.Product, int64, error)
	Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

type productStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewProductStore(db *mongo.Database) ProductStore {
	return &productStore{collection: db.Collection(ProductsCollection), now: time.Now}
}

// populateOwner joins the public fields of the creating user as "owner".
var populateOwner = mongo.Pipeline{
	{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: UsersCollection},
		{Key: "localField", Value: "createdBy"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "owner"},
		{Key: "pipeline", Value: bson.A{
			bson.D{{Key: "$project", Value: bson.D{
				{Key: "firstName", Value: 1},
				{Key: "lastName", Value: 1},
				{Key: "email", Value: 1},
			}}},
		}},
	}}},
	{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: "$owner"},
		{Key: "preserveNullAndEmptyArrays", Value: true},
	}}},
}

// Create inserts product and reads it back with its owner.
func (s *productStore) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	now := s.now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, product); err != nil {
		return nil, mapError(err)
	}
	return s.FindByID(ctx, product.ID.Hex())
}

func (s *productStore) FindByID(ctx context.Context, id string) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	products, err := s.aggregate(ctx, append(mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
		{{Key: "$limit", Value: 1}},
	}, populateOwner...))
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, &StoreError{Sentinel: ErrNotFound, Cause: mongo.ErrNoDocuments}
	}
	return &products[0], nil
}

func (s *productStore) List(ctx context.Context, q query.Query) ([]models.Product, int64, error) {
	filter := q.Filter()
	products, err := s.aggregate(ctx, append(mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: q.Sort()}},
		{{Key: "$skip", Value: q.Offset}},
		{{Key: "$limit", Value: q.Limit}},
	}, populateOwner...))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

func (s *productStore) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.Product, error) {
	cursor, err := s.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate products: %w", mapError(err))
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// Update applies patch and reads the product back with its owner.
func (s *productStore) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	result, err := s.collection.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		productUpdate(patch, s.now().UTC()),
	)
	if err != nil {
		return nil, mapError(err)
	}
	if result.MatchedCount == 0 {
		return nil, &StoreError{Sentinel: ErrNotFound, Cause: mongo.ErrNoDocuments}
	}
	return s.FindByID(ctx, id)
}

func (s *productStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return mapError(err)
	}
	if result.DeletedCount == 0 {
		return &StoreError{Sentinel: ErrNotFound, Cause: mongo.ErrNoDocuments}
	}
	return nil
}

// productUpdate builds the update document; a cleared discontinue date is
// removed with $unset.
func productUpdate(p models.ProductPatch, now time.Time) bson.D {
	update := bson.D{{Key: "$set", Value: productSet(p, now)}}
	if p.ClearDiscontinueDate {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "discontinueDate", Value: ""}}})
	}
	return update
}

func productSet(p models.ProductPatch, now time.Time) bson.D {
	set := bson.D{}
	add := func(key string, value any) { set = append(set, bson.E{Key: key, Value: value}) }
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Brand != nil {
		add("brand", *p.Brand)
	}
	if p.Stock != nil {
		add("stock", *p.Stock)
	}
	if p.SKU != nil {
		add("sku", *p.SKU)
	}
	if p.Weight != nil {
		add("weight", *p.Weight)
	}
	if p.Dimensions != nil {
		add("dimensions", *p.Dimensions)
	}
	if p.ReleaseDate != nil {
		add("releaseDate", *p.ReleaseDate)
	}
	if p.DiscontinueDate != nil && !p.ClearDiscontinueDate {
		add("discontinueDate", *p.DiscontinueDate)
	}
	if p.IsActive != nil {
		add("isActive", *p.IsActive)
	}
	if p.Tags != nil {
		add("tags", *p.Tags)
	}
	add("updatedAt", now)
	return set
}
