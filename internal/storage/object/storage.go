package object

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage provides an S3-compatible storage backend using MinIO.
// Output directories become object name prefixes inside a single bucket.
type Storage struct {
	client     *minio.Client
	bucketName string
}

// NewStorage creates a new Storage instance connected to the specified MinIO server.
// If the bucket does not exist, it will be created automatically.
func NewStorage(ctx context.Context, endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*Storage, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Prepare is a no-op: prefixes exist implicitly and the bucket is created in NewStorage.
func (s *Storage) Prepare(context.Context, string) error {
	return nil
}

// Save uploads src as dir/filename and returns the object name.
// The content type is sniffed from the data, not the filename: overlay outputs
// keep the base file's name but are always PNG.
func (s *Storage) Save(ctx context.Context, dir, filename string, src io.Reader) (string, error) {
	objectName := ObjectName(dir, filename)

	contentType, body, err := sniff(src)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	_, err = s.client.PutObject(ctx, s.bucketName, objectName, body, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return objectName, nil
}

// ObjectName joins an output directory and a filename into a slash-separated
// object key without leading "./" or "/".
func ObjectName(dir, filename string) string {
	name := path.Join(filepath.ToSlash(dir), filename)
	for len(name) > 0 && name[0] == '/' {
		name = name[1:]
	}

	return name
}

// sniff detects the content type from the first bytes of src and returns a
// reader that still yields the whole stream.
func sniff(src io.Reader) (string, io.Reader, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]

	return http.DetectContentType(head), io.MultiReader(bytes.NewReader(head), src), nil
}
