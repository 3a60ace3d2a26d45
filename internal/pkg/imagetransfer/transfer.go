// Package imagetransfer copies images referenced by external share links into
// the application's own image storage.
package imagetransfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/edutrack/adminportal/internal/pkg/filestorage"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	_ "golang.org/x/image/webp"
	"golang.org/x/time/rate"
)

// Errors returned by TransferExternalImage
var (
	ErrNotDriveLink  = errors.New("not a Google Drive link")
	ErrDownload      = errors.New("failed to download image")
	ErrNotAnImage    = errors.New("downloaded content is not an image")
	ErrUpload        = errors.New("failed to upload image")
	ErrImageTooLarge = errors.New("image exceeds size limit")
)

const (
	maxRedirects = 5

	// photos are stored no larger than this on either side
	maxDimension = 1024
	jpegQuality  = 85
)

// Config bounds a transfer
type Config struct {
	DownloadTimeout time.Duration
	UploadTimeout   time.Duration
	MaxBytes        int64
	// RatePerSecond limits downloads; zero disables the limit
	RatePerSecond float64
}

// Transferer downloads Drive images and stores them as JPEG
type Transferer struct {
	client      *http.Client
	storage     filestorage.ImageStorage
	config      Config
	limiter     *rate.Limiter
	downloadURL func(fileID string) string
}

// NewTransferer creates a Transferer writing into storage
func NewTransferer(storage filestorage.ImageStorage, config Config) *Transferer {
	t := &Transferer{
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		storage:     storage,
		config:      config,
		downloadURL: DirectDownloadURL,
	}
	if config.RatePerSecond > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(config.RatePerSecond), 1)
	}
	return t
}

// TransferExternalImage copies the image behind a Drive share link to storage
// under name and returns the permanent URL.
func (t *Transferer) TransferExternalImage(ctx context.Context, sourceURL, name string) (string, error) {
	fileID, ok := ExtractDriveFileID(sourceURL)
	if !ok {
		return "", ErrNotDriveLink
	}

	data, err := t.download(ctx, t.downloadURL(fileID))
	if err != nil {
		return "", err
	}

	jpeg, err := normalize(data)
	if err != nil {
		return "", err
	}

	uploadCtx, cancel := context.WithTimeout(ctx, t.config.UploadTimeout)
	defer cancel()

	url, err := t.storage.SaveImage(uploadCtx, name, "image/jpeg", jpeg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	logger.Debug().Str("fileID", fileID).Str("url", url).Int("bytes", len(jpeg)).Msg("Image transferred")
	return url, nil
}

func (t *Transferer) download(ctx context.Context, source string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.DownloadTimeout)
	defer cancel()

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDownload, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrDownload, resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if t.config.MaxBytes > 0 {
		body = io.LimitReader(resp.Body, t.config.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownload, err)
	}
	if t.config.MaxBytes > 0 && int64(len(data)) > t.config.MaxBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// normalize decodes any supported image format, applies EXIF orientation,
// shrinks it to fit maxDimension and re-encodes it as JPEG.
func normalize(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	if b := img.Bounds(); b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
