package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/deojon/studio/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSBucket stores envelopes in a Google Cloud Storage bucket.
type GCSBucket struct {
	client    *storage.Client
	handle    *storage.BucketHandle
	name      string
	projectID string
}

func NewGCSBucket(ctx context.Context, cfg config.GCSConfig) (*GCSBucket, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSBucket{
		client:    client,
		handle:    client.Bucket(cfg.Bucket),
		name:      cfg.Bucket,
		projectID: cfg.ProjectID,
	}, nil
}

// EnsureBucket creates the bucket when it is missing, which needs a
// project id.
func (g *GCSBucket) EnsureBucket(ctx context.Context) error {
	_, err := g.handle.Attrs(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, storage.ErrBucketNotExist):
		return err
	case strings.TrimSpace(g.projectID) == "":
		return errors.New("gcs project id is required to create bucket")
	}
	return g.handle.Create(ctx, g.projectID, nil)
}

func (g *GCSBucket) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	w := g.handle.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (g *GCSBucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := g.handle.Object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrObjectNotFound
	}
	return r, err
}

func (g *GCSBucket) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	attrs, err := g.handle.Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ObjectInfo{}, ErrObjectNotFound
	}
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Key: attrs.Name, Size: attrs.Size, LastModified: attrs.Updated}, nil
}

func (g *GCSBucket) Delete(ctx context.Context, key string) error {
	err := g.handle.Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCSBucket) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	it := g.handle.Objects(ctx, &storage.Query{Prefix: prefix})
	var objects []ObjectInfo
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return objects, nil
		}
		if err != nil {
			return nil, err
		}
		objects = append(objects, ObjectInfo{Key: attrs.Name, Size: attrs.Size, LastModified: attrs.Updated})
	}
}

func (g *GCSBucket) Bucket() string {
	return g.name
}

// Close releases the GCS client.
func (g *GCSBucket) Close() error {
	return g.client.Close()
}
