// Package minio stores user photos and tour images in an S3-compatible bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"tourbook/internal/config"
	"tourbook/internal/domain/media"

	mclient "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var extensions = map[string]string{
	"image/jpeg": ".jpeg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ImageStore implements media.ImageStore on a MinIO bucket
type ImageStore struct {
	client  *mclient.Client
	bucket  string
	baseURL string
}

// New connects to the endpoint and checks that the bucket exists
func New(ctx context.Context, cfg config.S3Config) (*ImageStore, error) {
	const op = "storage/minio/New"

	endpoint := cfg.Endpoint
	secure := strings.HasPrefix(endpoint, "https://")
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" {
		endpoint = u.Host
		secure = u.Scheme == "https"
	}

	client, err := mclient.New(endpoint, &mclient.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: bucket %q does not exist", op, cfg.Bucket)
	}

	base := cfg.PublicBaseURL
	if base == "" {
		base = client.EndpointURL().String() + "/" + cfg.Bucket
	}
	return &ImageStore{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(base, "/")}, nil
}

// sniff returns the content type and file extension of a supported image
func sniff(data []byte) (contentType, ext string, err error) {
	contentType = http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		return "", "", media.ErrUnsupportedImage
	}
	return contentType, ext, nil
}

func objectKey(folder, id, ext string) string {
	return path.Join(folder, id+ext)
}

// Upload stores data under folder/id and returns its public URL. Re-uploading the
// same id replaces the previous object.
func (s *ImageStore) Upload(ctx context.Context, data []byte, folder, id string) (string, error) {
	const op = "storage/minio/Upload"

	contentType, ext, err := sniff(data)
	if err != nil {
		return "", err
	}

	key := objectKey(folder, id, ext)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), mclient.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=86400",
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.baseURL + "/" + key, nil
}

var _ media.ImageStore = (*ImageStore)(nil)
