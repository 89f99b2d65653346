package store

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// AttachmentStore keeps post attachments in a MinIO bucket, one
// object per post under the key <postID>/<filename>.
type AttachmentStore struct {
	client *minio.Client
	bucket string
}

func NewAttachmentStore(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*AttachmentStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("minio bucket check: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio make bucket: %w", err)
		}
	}

	return &AttachmentStore{client: client, bucket: bucket}, nil
}

// Save streams an attachment into the bucket and returns its object
// key. The filename is flattened to its base so the key stays under
// the post's prefix whatever the client sent.
func (s *AttachmentStore) Save(ctx context.Context, postID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	key := attachmentKey(postID, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: defaultContentType(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("minio put %s: %w", key, err)
	}
	return key, nil
}

// Open returns a reader over the stored attachment and its content
// type. The caller closes the reader.
func (s *AttachmentStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", err
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, "", err
	}
	return obj, info.ContentType, nil
}

// Remove deletes an attachment object.
func (s *AttachmentStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func attachmentKey(postID, filename string) string {
	return path.Join(postID, path.Base(path.Clean("/"+filename)))
}

func defaultContentType(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
