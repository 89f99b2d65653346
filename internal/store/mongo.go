package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/microblog/internal/models"
)

// MongoStore holds the blog content collections: posts, comments, and
// the tag registry.
type MongoStore struct {
	posts    *mongo.Collection
	comments *mongo.Collection
	tags     *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
		tags:     db.Collection("tags"),
	}
}

// ── Posts ────────────────────────────────────────────────────────────

func (s *MongoStore) InsertPost(ctx context.Context, post *models.Post) (string, error) {
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	res, err := s.posts.InsertOne(ctx, post)
	if err != nil {
		return "", fmt.Errorf("mongo insert post: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (s *MongoStore) ListPosts(ctx context.Context) ([]models.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var posts []models.Post
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *MongoStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *MongoStore) UpdatePost(ctx context.Context, id string, params models.PostParams) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":      params.Title,
		"body":       params.Body,
		"tags":       params.Tags,
		"updated_at": time.Now(),
	}})
	return err
}

func (s *MongoStore) SetPostAttachment(ctx context.Context, id, key string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.posts.UpdateOne(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"attachment_key": key, "updated_at": time.Now()}})
	return err
}

// DeletePost removes a post and all of its comments.
func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	if _, err := s.comments.DeleteMany(ctx, bson.M{"post_id": oid}); err != nil {
		return err
	}
	_, err = s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// ── Comments ─────────────────────────────────────────────────────────

func (s *MongoStore) InsertComment(ctx context.Context, comment *models.Comment) (string, error) {
	comment.CreatedAt = time.Now()
	res, err := s.comments.InsertOne(ctx, comment)
	if err != nil {
		return "", fmt.Errorf("mongo insert comment: %w", err)
	}
	oid := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (s *MongoStore) ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.comments.Find(ctx, bson.M{"post_id": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var comments []models.Comment
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (s *MongoStore) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %w", err)
	}
	var comment models.Comment
	if err := s.comments.FindOne(ctx, bson.M{"_id": oid}).Decode(&comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *MongoStore) DeleteComment(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	_, err = s.comments.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

// ── Tags ─────────────────────────────────────────────────────────────

// UpsertTags registers any tag names not yet in the registry. Called
// when a post is created or updated with tags.
func (s *MongoStore) UpsertTags(ctx context.Context, names []string) error {
	for _, name := range names {
		_, err := s.tags.UpdateOne(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{"name": name, "created_at": time.Now()}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("mongo upsert tag %q: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore) ListTags(ctx context.Context) ([]models.Tag, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.tags.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tags []models.Tag
	if err := cur.All(ctx, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func (s *MongoStore) DeleteTagByName(ctx context.Context, name string) error {
	_, err := s.tags.DeleteOne(ctx, bson.M{"name": name})
	return err
}
