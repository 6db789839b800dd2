package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"catalog-api/models"
	"catalog-api/query"
)

// UserStore is the persistence contract for users. Ids are hex ObjectIDs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, q query.Query) ([]models.User, int64, error)
	Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userStore struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewUserStore(db *mongo.Database) UserStore {
	return &userStore{collection: db.Collection(UsersCollection), now: time.Now}
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	now := s.now().UTC()
	user.ID = primitive.NewObjectID()
	user.CreatedAt = now
	user.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, user); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *userStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *userStore) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var user models.User
	if err := s.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (s *userStore) List(ctx context.Context, q query.Query) ([]models.User, int64, error) {
	filter := q.Filter()
	opts := options.Find().
		SetSort(q.Sort()).
		SetSkip(q.Offset).
		SetLimit(q.Limit).
		SetProjection(bson.D{{Key: "password", Value: 0}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", mapError(err))
	}
	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	total, err := s.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

func (s *userStore) Update(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var user models.User
	err = s.collection.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: userSet(patch, s.now().UTC())}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func (s *userStore) Delete(ctx context.Context, id string) error {
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

func userSet(p models.UserPatch, now time.Time) bson.D {
	set := bson.D{}
	add := func(key string, value any) { set = append(set, bson.E{Key: key, Value: value}) }
	if p.FirstName != nil {
		add("firstName", *p.FirstName)
	}
	if p.LastName != nil {
		add("lastName", *p.LastName)
	}
	if p.Email != nil {
		add("email", *p.Email)
	}
	if p.Password != nil {
		add("password", *p.Password)
	}
	if p.Phone != nil {
		add("phone", *p.Phone)
	}
	if p.DateOfBirth != nil {
		add("dateOfBirth", *p.DateOfBirth)
	}
	if p.Role != nil {
		add("role", *p.Role)
	}
	if p.IsActive != nil {
		add("isActive", *p.IsActive)
	}
	add("updatedAt", now)
	return set
}
