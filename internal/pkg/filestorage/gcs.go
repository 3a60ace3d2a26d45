package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"google.golang.org/api/option"
)

// GCSStorage stores images as objects in a Google Cloud Storage bucket
type GCSStorage struct {
	client        *storage.Client
	bucketName    string
	publicBaseURL string
}

var _ ImageStorage = (*GCSStorage)(nil)

// NewGCSStorage creates a bucket-backed storage. An empty credentialsFile
// uses Application Default Credentials.
func NewGCSStorage(ctx context.Context, bucketName, credentialsFile, publicBaseURL string) (*GCSStorage, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		if _, err := os.Stat(credentialsFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("service account key not found at path: %s", credentialsFile)
		}
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com/" + bucketName
	}

	return &GCSStorage{
		client:        client,
		bucketName:    bucketName,
		publicBaseURL: publicBaseURL,
	}, nil
}

// SaveImage uploads data as object name and returns its public URL
func (g *GCSStorage) SaveImage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	objectName, err := CleanObjectName(name)
	if err != nil {
		return "", err
	}

	writer := g.client.Bucket(g.bucketName).Object(objectName).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=31536000"

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("failed to write GCS object %s: %w", objectName, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer for %s: %w", objectName, err)
	}

	url := joinURL(g.publicBaseURL, objectName)
	logger.Info().Str("bucket", g.bucketName).Str("object", objectName).Msg("Image uploaded to GCS")
	return url, nil
}

// Close releases the underlying client
func (g *GCSStorage) Close() error {
	return g.client.Close()
}
