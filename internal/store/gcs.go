package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSPersister keeps the blob in a single Cloud Storage object.
type GCSPersister struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSPersister creates the storage client. Without a credentials file
// Application Default Credentials are used.
func NewGCSPersister(ctx context.Context, bucket, object, credentialsFile string) (*GCSPersister, error) {
	if bucket == "" || object == "" {
		return nil, errors.New("NewGCSPersister: bucket and object are required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewGCSPersister: create storage client: %w", err)
	}
	return &GCSPersister{client: client, bucket: bucket, object: object}, nil
}

func (p *GCSPersister) Load(ctx context.Context) ([]byte, error) {
	r, err := p.client.Bucket(p.bucket).Object(p.object).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GCSPersister.Load: open object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("GCSPersister.Load: read object: %w", err)
	}
	return data, nil
}

func (p *GCSPersister) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := p.client.Bucket(p.bucket).Object(p.object).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("GCSPersister.Save: write object: %w", err)
	}
	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("GCSPersister.Save: finalize upload: %w", err)
	}
	return nil
}

func (p *GCSPersister) Close() error {
	return p.client.Close()
}
