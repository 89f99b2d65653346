package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a blog post stored in MongoDB.
type Post struct {
	ID            primitive.ObjectID `json:"id"             bson:"_id,omitempty"`
	AuthorID      string             `json:"author_id"      bson:"author_id"`
	Title         string             `json:"title"          bson:"title"`
	Body          string             `json:"body"           bson:"body"`
	Tags          []string           `json:"tags"           bson:"tags"`
	AttachmentKey string             `json:"attachment_key" bson:"attachment_key"`
	CreatedAt     time.Time          `json:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"     bson:"updated_at"`
}

// Comment belongs to a post.
type Comment struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	PostID    primitive.ObjectID `json:"post_id"    bson:"post_id"`
	AuthorID  string             `json:"author_id"  bson:"author_id"`
	Body      string             `json:"body"       bson:"body"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Tag is an entry in the tag registry. Posts reference tags by name.
type Tag struct {
	ID        primitive.ObjectID `json:"id"         bson:"_id,omitempty"`
	Name      string             `json:"name"       bson:"name"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// PostParams is the JSON body for creating or updating a post.
type PostParams struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// CommentParams is the JSON body for creating a comment.
type CommentParams struct {
	Body string `json:"body"`
}
