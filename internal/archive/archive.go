package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ErrDisabled is returned by Noop when no archive bucket is configured.
var ErrDisabled = errors.New("export archive is disabled")

// Object describes an archived file.
type Object struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Created     time.Time `json:"created"`
}

// Store keeps exported artifacts.
type Store interface {
	// Put stores data under name and returns its location.
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
	List(ctx context.Context, prefix string) ([]Object, error)
	Close() error
}

// ObjectName groups artifacts by watchlist and date, e.g.
// "celulares/2024-05-31/tendencias_CL_2024-05-31.csv".
func ObjectName(group string, date time.Time, fileName string) string {
	group = strings.Trim(strings.ReplaceAll(group, " ", "-"), "/")
	if group == "" {
		group = "manual"
	}
	return fmt.Sprintf("%s/%s/%s", group, date.Format("2006-01-02"), fileName)
}

// GCSStore writes artifacts to a Cloud Storage bucket.
type GCSStore struct {
	client     *storage.Client
	bucketName string
	prefix     string
}

// NewGCSStore creates a store on bucketName. opts are passed to the storage
// client.
func NewGCSStore(ctx context.Context, bucketName string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	return &GCSStore{client: client, bucketName: bucketName, prefix: "exports/"}, nil
}

// Put uploads data and returns its gs:// URL.
func (s *GCSStore) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectName := s.prefix + name
	writer := s.client.Bucket(s.bucketName).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return "", fmt.Errorf("writing object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("closing object writer: %w", err)
	}
	return s.url(objectName), nil
}

// List returns archived objects whose name starts with prefix.
func (s *GCSStore) List(ctx context.Context, prefix string) ([]Object, error) {
	it := s.client.Bucket(s.bucketName).Objects(ctx, &storage.Query{Prefix: s.prefix + prefix})

	objects := []Object{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		objects = append(objects, Object{
			Name:        strings.TrimPrefix(attrs.Name, s.prefix),
			URL:         s.url(attrs.Name),
			ContentType: attrs.ContentType,
			Size:        attrs.Size,
			Created:     attrs.Created,
		})
	}
	return objects, nil
}

func (s *GCSStore) url(objectName string) string {
	return fmt.Sprintf("gs://%s/%s", s.bucketName, objectName)
}

// Close closes the Cloud Storage client.
func (s *GCSStore) Close() error {
	return s.client.Close()
}

// Noop is used when archiving is not configured.
type Noop struct{}

func (Noop) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	return "", ErrDisabled
}

func (Noop) List(ctx context.Context, prefix string) ([]Object, error) {
	return nil, ErrDisabled
}

func (Noop) Close() error { return nil }
