package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"poll-be/internal/domain"
	"poll-be/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PollCollection = "polls"
	UserCollection = "users"
)

type MongoPollRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoPollRepository(db *database.MongoDB) *MongoPollRepository {
	return &MongoPollRepository{coll: db.DB.Collection(PollCollection), now: time.Now}
}

func pollFilterDoc(f domain.PollFilter) bson.M {
	doc := bson.M{}
	if f.Type != "" {
		doc["type"] = string(f.Type)
	}
	if f.CreatorID != "" {
		doc["creatorId"] = f.CreatorID
	}
	if f.VoterID != "" {
		doc["voters"] = f.VoterID
	}
	if f.IDs != nil {
		doc["_id"] = bson.M{"$in": f.IDs}
	}
	return doc
}

// Create inserts a new poll document
func (r *MongoPollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	poll.Normalize()
	if _, err := r.coll.InsertOne(ctx, poll); err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}
	return nil
}

// FindByID gets a poll by ID
func (r *MongoPollRepository) FindByID(ctx context.Context, id string) (*domain.Poll, error) {
	var p domain.Poll
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	p.Normalize()
	return &p, nil
}

// List returns a page of polls, newest first
func (r *MongoPollRepository) List(ctx context.Context, filter domain.PollFilter, page domain.PageRequest) ([]*domain.Poll, int, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || page.Offset() >= total {
		return []*domain.Poll{}, total, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Limit))

	cur, err := r.coll.Find(ctx, pollFilterDoc(filter), opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list polls: %w", err)
	}
	defer cur.Close(ctx)

	var polls []*domain.Poll
	if err := cur.All(ctx, &polls); err != nil {
		return nil, 0, fmt.Errorf("failed to decode polls: %w", err)
	}
	for _, p := range polls {
		p.Normalize()
	}
	if polls == nil {
		polls = []*domain.Poll{}
	}
	return polls, total, nil
}

// Count returns the number of matching polls
func (r *MongoPollRepository) Count(ctx context.Context, filter domain.PollFilter) (int, error) {
	n, err := r.coll.CountDocuments(ctx, pollFilterDoc(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count polls: %w", err)
	}
	return int(n), nil
}

// CountByType groups matching polls by type with an aggregation
func (r *MongoPollRepository) CountByType(ctx context.Context, filter domain.PollFilter) (map[domain.PollType]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: pollFilterDoc(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to count polls by type: %w", err)
	}
	defer cur.Close(ctx)

	var groups []struct {
		Type  string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode type counts: %w", err)
	}

	counts := make(map[domain.PollType]int, len(groups))
	for _, g := range groups {
		counts[domain.PollType(g.Type)] = g.Count
	}
	return counts, nil
}

// CastVote records a ballot with a single FindOneAndUpdate whose filter
// excludes closed polls and polls the voter is already in.
func (r *MongoPollRepository) CastVote(ctx context.Context, pollID string, ballot domain.Ballot) (*domain.Poll, error) {
	current, err := r.FindByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := current.CheckVote(ballot); err != nil {
		return nil, err
	}

	filter, update := voteFilterUpdate(current.Type, pollID, ballot, r.now().UTC())
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.Poll
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.classifyRejectedVote(ctx, pollID, ballot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}
	updated.Normalize()
	return &updated, nil
}

// voteFilterUpdate builds the guarded filter and the update of one ballot.
// The filter matches nothing once the poll is closed or the voter is in.
func voteFilterUpdate(pollType domain.PollType, pollID string, ballot domain.Ballot, now time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"_id":    pollID,
		"closed": false,
		"voters": bson.M{"$ne": ballot.VoterID},
	}
	if pollType.AcceptsResponses() {
		filter["type"] = string(domain.PollTypeOpenEnded)
		return filter, bson.M{
			"$push": bson.M{
				"voters": ballot.VoterID,
				"responses": domain.PollResponse{
					VoterID:   ballot.VoterID,
					Text:      strings.TrimSpace(ballot.ResponseText),
					CreatedAt: now,
				},
			},
			"$inc": bson.M{"version": 1},
		}
	}

	field := "options." + strconv.Itoa(*ballot.OptionIndex)
	filter["type"] = bson.M{"$ne": string(domain.PollTypeOpenEnded)}
	filter[field] = bson.M{"$exists": true}
	return filter, bson.M{
		"$push": bson.M{"voters": ballot.VoterID},
		"$inc":  bson.M{field + ".votes": 1, "version": 1},
	}
}

func (r *MongoPollRepository) classifyRejectedVote(ctx context.Context, pollID string, ballot domain.Ballot) error {
	current, err := r.FindByID(ctx, pollID)
	if err != nil {
		return err
	}
	if err := current.CheckVote(ballot); err != nil {
		return err
	}
	return fmt.Errorf("vote on poll %s was not applied", pollID)
}

// Close marks a poll closed if requesterID created it
func (r *MongoPollRepository) Close(ctx context.Context, pollID, requesterID string) (*domain.Poll, error) {
	filter := bson.M{"_id": pollID, "creatorId": requesterID, "closed": false}
	update := bson.M{
		"$set": bson.M{"closed": true},
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated domain.Poll
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		current, err := r.FindByID(ctx, pollID)
		if err != nil {
			return nil, err
		}
		if current.CreatorID != requesterID {
			return nil, domain.ErrNotCreator
		}
		return current, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close poll: %w", err)
	}
	updated.Normalize()
	return &updated, nil
}

// Delete removes a poll if requesterID created it
func (r *MongoPollRepository) Delete(ctx context.Context, pollID, requesterID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": pollID, "creatorId": requesterID})
	if err != nil {
		return fmt.Errorf("failed to delete poll: %w", err)
	}
	if res.DeletedCount == 0 {
		if _, err := r.FindByID(ctx, pollID); err != nil {
			return err
		}
		return domain.ErrNotCreator
	}
	return nil
}

// EnsurePollIndexes creates the indexes the poll queries rely on
func EnsurePollIndexes(ctx context.Context, db *database.MongoDB) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "creatorId", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "voters", Value: 1}}},
	}
	if _, err := db.DB.Collection(PollCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create poll indexes: %w", err)
	}
	return nil
}
