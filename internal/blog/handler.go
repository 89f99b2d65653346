package blog

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ayush/microblog/internal/auth"
	"github.com/ayush/microblog/internal/models"
	"github.com/ayush/microblog/internal/web"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ContentStore defines the interface for blog content persistence.
type ContentStore interface {
	InsertPost(ctx context.Context, post *models.Post) (string, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	UpdatePost(ctx context.Context, id string, params models.PostParams) error
	SetPostAttachment(ctx context.Context, id, key string) error
	DeletePost(ctx context.Context, id string) error

	InsertComment(ctx context.Context, comment *models.Comment) (string, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]models.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	UpsertTags(ctx context.Context, names []string) error
	ListTags(ctx context.Context) ([]models.Tag, error)
	DeleteTagByName(ctx context.Context, name string) error
}

// FileStore defines the interface for attachment storage. Save owns
// key construction; the handler only records the returned key.
type FileStore interface {
	Save(ctx context.Context, postID, filename string, r io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, key string) error
}

// UserGetter resolves user IDs for the home page.
type UserGetter interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds the blog HTTP handlers.
type Handler struct {
	content ContentStore
	files   FileStore
	users   UserGetter
	view    *web.Renderer
}

func NewHandler(content ContentStore, files FileStore, users UserGetter, view *web.Renderer) *Handler {
	return &Handler{content: content, files: files, users: users, view: view}
}

// Home renders the root page: recent posts for the signed-in user.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	data := web.HomeData{Notice: web.PopFlash(w, r)}

	if user, err := h.users.GetUserByID(r.Context(), auth.UserID(r.Context())); err == nil {
		data.UserName = user.Name
	}

	posts, err := h.content.ListPosts(r.Context())
	if err != nil {
		log.Printf("list posts: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	data.Posts = posts

	h.view.Render(w, http.StatusOK, "home.html", data)
}

// ── Posts ────────────────────────────────────────────────────────────

// CreatePost stores a new post authored by the current user.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var params models.PostParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(params.Title) == "" {
		http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
		return
	}

	post := &models.Post{
		AuthorID: auth.UserID(r.Context()),
		Title:    params.Title,
		Body:     params.Body,
		Tags:     params.Tags,
	}
	postID, err := h.content.InsertPost(r.Context(), post)
	if err != nil {
		log.Printf("insert post: %v", err)
		http.Error(w, `{"error":"failed to save post"}`, http.StatusInternalServerError)
		return
	}
	if len(params.Tags) > 0 {
		if err := h.content.UpsertTags(r.Context(), params.Tags); err != nil {
			log.Printf("upsert tags: %v", err)
		}
	}

	saved, err := h.content.GetPostByID(r.Context(), postID)
	if err != nil {
		// The insert committed; respond with what we wrote.
		log.Printf("reload post %s: %v", postID, err)
		if oid, idErr := primitive.ObjectIDFromHex(postID); idErr == nil {
			post.ID = oid
		}
		saved = post
	}
	writeJSON(w, http.StatusCreated, saved)
}

// ListPosts returns all posts, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListPosts(r.Context())
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// GetPost returns a single post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// UpdatePost replaces a post's title, body, and tags. Author only.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.content.GetPostByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if post.AuthorID != auth.UserID(r.Context()) {
		http.Error(w, `{"error":"not your post"}`, http.StatusForbidden)
		return
	}

	var params models.PostParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(params.Title) == "" {
		http.Error(w, `{"error":"title is required"}`, http.StatusBadRequest)
		return
	}

	if err := h.content.UpdatePost(r.Context(), id, params); err != nil {
		http.Error(w, `{"error":"update failed"}`, http.StatusInternalServerError)
		return
	}
	if len(params.Tags) > 0 {
		if err := h.content.UpsertTags(r.Context(), params.Tags); err != nil {
			log.Printf("upsert tags: %v", err)
		}
	}

	saved, err := h.content.GetPostByID(r.Context(), id)
	if err != nil {
		log.Printf("reload post %s: %v", id, err)
		post.Title, post.Body, post.Tags = params.Title, params.Body, params.Tags
		saved = post
	}
	writeJSON(w, http.StatusOK, saved)
}

// DeletePost removes a post, its comments, and its attachment. Author only.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.content.GetPostByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if post.AuthorID != auth.UserID(r.Context()) {
		http.Error(w, `{"error":"not your post"}`, http.StatusForbidden)
		return
	}

	if post.AttachmentKey != "" {
		h.files.Remove(r.Context(), post.AttachmentKey)
	}
	if err := h.content.DeletePost(r.Context(), id); err != nil {
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ── Comments ─────────────────────────────────────────────────────────

// CreateComment adds a comment to a post.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	var params models.CommentParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(params.Body) == "" {
		http.Error(w, `{"error":"body is required"}`, http.StatusBadRequest)
		return
	}

	comment := &models.Comment{
		PostID:   post.ID,
		AuthorID: auth.UserID(r.Context()),
		Body:     params.Body,
	}
	commentID, err := h.content.InsertComment(r.Context(), comment)
	if err != nil {
		log.Printf("insert comment: %v", err)
		http.Error(w, `{"error":"failed to save comment"}`, http.StatusInternalServerError)
		return
	}

	saved, err := h.content.GetCommentByID(r.Context(), commentID)
	if err != nil {
		log.Printf("reload comment %s: %v", commentID, err)
		if oid, idErr := primitive.ObjectIDFromHex(commentID); idErr == nil {
			comment.ID = oid
		}
		saved = comment
	}
	writeJSON(w, http.StatusCreated, saved)
}

// ListComments returns a post's comments, oldest first.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, err := h.content.GetPostByID(r.Context(), chi.URLParam(r, "id")); err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}

	comments, err := h.content.ListCommentsByPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// DeleteComment removes a comment. Author only.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	comment, err := h.content.GetCommentByID(r.Context(), chi.URLParam(r, "commentID"))
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if comment.AuthorID != auth.UserID(r.Context()) {
		http.Error(w, `{"error":"not your comment"}`, http.StatusForbidden)
		return
	}

	if err := h.content.DeleteComment(r.Context(), comment.ID.Hex()); err != nil {
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ── Tags ─────────────────────────────────────────────────────────────

// ListTags returns the tag registry, alphabetical.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.content.ListTags(r.Context())
	if err != nil {
		http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
		return
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}

// CreateTag registers a tag name.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(params.Name) == "" {
		http.Error(w, `{"error":"name is required"}`, http.StatusBadRequest)
		return
	}

	if err := h.content.UpsertTags(r.Context(), []string{params.Name}); err != nil {
		http.Error(w, `{"error":"failed to save tag"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": params.Name})
}

// DeleteTag removes a tag from the registry. Posts keep the name in
// their own tag list; the registry only drives discovery.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeleteTagByName(r.Context(), chi.URLParam(r, "name")); err != nil {
		http.Error(w, `{"error":"delete failed"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

// ── Attachments ──────────────────────────────────────────────────────

// UploadAttachment stores one attachment per post in object storage.
// Re-uploading replaces the previous object. Author only.
func (h *Handler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := h.content.GetPostByID(r.Context(), id)
	if err != nil {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
		return
	}
	if post.AuthorID != auth.UserID(r.Context()) {
		http.Error(w, `{"error":"not your post"}`, http.StatusForbidden)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"file is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	key, err := h.files.Save(r.Context(), post.ID.Hex(), header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("attachment upload: %v", err)
		http.Error(w, `{"error":"upload failed"}`, http.StatusInternalServerError)
		return
	}

	if post.AttachmentKey != "" && post.AttachmentKey != key {
		h.files.Remove(r.Context(), post.AttachmentKey)
	}
	if err := h.content.SetPostAttachment(r.Context(), id, key); err != nil {
		http.Error(w, `{"error":"failed to save attachment"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"attachment_key": key})
}

// DownloadAttachment streams a post's attachment.
func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil || post.AttachmentKey == "" {
		http.Error(w, `{"error":"attachment not available"}`, http.StatusNotFound)
		return
	}

	rc, contentType, err := h.files.Open(r.Context(), post.AttachmentKey)
	if err != nil {
		http.Error(w, `{"error":"download failed"}`, http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	io.Copy(w, rc)
}
