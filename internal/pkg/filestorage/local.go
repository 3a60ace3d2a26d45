package filestorage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/edutrack/adminportal/internal/pkg/logger"
)

// LocalStorage handles saving files to the local filesystem.
type LocalStorage struct {
	basePath string // The root directory where files will be stored
	baseURL  string // The base URL the root directory is served under
}

var _ ImageStorage = (*LocalStorage)(nil)

// NewLocalStorage creates a new LocalStorage instance.
// basePath is the directory on the server; baseURL is prepended to returned paths.
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		logger.Error().Err(err).Str("path", basePath).Msg("Failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	logger.Info().Str("path", basePath).Msg("Local storage directory ensured")

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}, nil
}

// BasePath returns the root directory files are written to
func (ls *LocalStorage) BasePath() string {
	return ls.basePath
}

// SaveImage writes data to basePath/name and returns its URL
func (ls *LocalStorage) SaveImage(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	objectName, err := CleanObjectName(name)
	if err != nil {
		return "", err
	}

	dstPath := filepath.Join(ls.basePath, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to create subdirectory")
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}

	if err := os.WriteFile(dstPath, data, 0o644); err != nil {
		logger.Error().Err(err).Str("path", dstPath).Msg("Failed to write image")
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to save file content: %w", err)
	}

	accessiblePath := "/uploads/" + objectName
	if ls.baseURL != "" {
		accessiblePath = joinURL(ls.baseURL, "uploads/"+objectName)
	}

	logger.Info().Str("saved_as", objectName).Str("contentType", contentType).Str("accessible_path", accessiblePath).Msg("File saved successfully")
	return accessiblePath, nil
}
