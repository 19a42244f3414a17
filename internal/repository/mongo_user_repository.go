package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poll-be/internal/domain"
	"poll-be/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *database.MongoDB) *MongoUserRepository {
	return &MongoUserRepository{coll: db.DB.Collection(UserCollection)}
}

// Create upserts a user, keeping the bookmark set of an existing document
func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	bookmarks := user.BookmarkedPolls
	if bookmarks == nil {
		bookmarks = []string{}
	}
	update := bson.M{
		"$set": bson.M{
			"fullName":        user.FullName,
			"userName":        user.UserName,
			"email":           user.Email,
			"profileImageUrl": user.ProfileImageURL,
		},
		"$setOnInsert": bson.M{
			"bookmarkedPolls": bookmarks,
			"createdAt":       user.CreatedAt,
		},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": user.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID gets a user by ID
func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.BookmarkedPolls == nil {
		u.BookmarkedPolls = []string{}
	}
	return &u, nil
}

// GetSummaries gets display metadata for the given users
func (r *MongoUserRepository) GetSummaries(ctx context.Context, ids []string) (map[string]domain.UserSummary, error) {
	out := make(map[string]domain.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{
		"fullName":        1,
		"userName":        1,
		"profileImageUrl": 1,
	})
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	defer cur.Close(ctx)

	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode user summaries: %w", err)
	}
	for i := range users {
		out[users[i].ID] = users[i].Summary()
	}
	return out, nil
}

// ToggleBookmark flips pollID in the bookmark set with one pipeline update
func (r *MongoUserRepository) ToggleBookmark(ctx context.Context, userID, pollID string) (bool, []string, error) {
	current := bson.D{{Key: "$ifNull", Value: bson.A{"$bookmarkedPolls", bson.A{}}}}
	literal := bson.D{{Key: "$literal", Value: pollID}}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{{Key: "bookmarkedPolls", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{literal, current}}},
			bson.D{{Key: "$filter", Value: bson.D{
				{Key: "input", Value: current},
				{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$this", literal}}}},
			}}},
			bson.D{{Key: "$concatArrays", Value: bson.A{current, bson.A{literal}}}},
		}}}}}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"bookmarkedPolls": 1})

	var updated domain.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil, domain.ErrUserNotFound
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to toggle bookmark: %w", err)
	}
	set := updated.BookmarkedPolls
	if set == nil {
		set = []string{}
	}
	return contains(set, pollID), set, nil
}

// RemoveBookmarkEverywhere drops pollID from every user's bookmarks
func (r *MongoUserRepository) RemoveBookmarkEverywhere(ctx context.Context, pollID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"bookmarkedPolls": pollID},
		bson.M{"$pull": bson.M{"bookmarkedPolls": pollID}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove bookmarks: %w", err)
	}
	return nil
}

// EnsureUserIndexes creates the indexes the user queries rely on
func EnsureUserIndexes(ctx context.Context, db *database.MongoDB) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{Keys: bson.D{{Key: "bookmarkedPolls", Value: 1}}},
	}
	if _, err := db.DB.Collection(UserCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}
