package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/sync/errgroup"
)

// ScanObjects are the stored copies of one scanned photo
type ScanObjects struct {
	ImageKey     string `json:"image_key"`
	ThumbnailKey string `json:"thumbnail_key"`
}

// ImageStore keeps scan photos and thumbnails in an S3-compatible bucket,
// keyed by image hash so a re-scanned photo overwrites its earlier copy.
type ImageStore struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewImageStore creates a new S3 image store
func NewImageStore(endpoint, accessKey, secretKey, bucketName, region string, useSSL bool) (*ImageStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &ImageStore{
		client:     client,
		bucketName: bucketName,
		region:     region,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ImageStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{
			Region: s.region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ScanObjectKeys returns the object keys used for an image hash
func ScanObjectKeys(imageHash, contentType string) ScanObjects {
	ext := ".jpg"
	switch contentType {
	case "image/png":
		ext = ".png"
	case "image/webp":
		ext = ".webp"
	case "image/gif":
		ext = ".gif"
	}
	return ScanObjects{
		ImageKey:     "scans/" + imageHash + "/original" + ext,
		ThumbnailKey: "scans/" + imageHash + "/thumb.jpg",
	}
}

// SaveScan uploads the original photo and its thumbnail concurrently
func (s *ImageStore) SaveScan(ctx context.Context, imageHash string, original []byte, contentType string, thumbnail []byte) (*ScanObjects, error) {
	keys := ScanObjectKeys(imageHash, contentType)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.put(gctx, keys.ImageKey, original, contentType)
	})
	g.Go(func() error {
		return s.put(gctx, keys.ThumbnailKey, thumbnail, "image/jpeg")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &keys, nil
}

func (s *ImageStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

// GetPresignedURL generates a presigned URL for downloading an object
func (s *ImageStore) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

// DeleteScan removes the stored objects of a scan
func (s *ImageStore) DeleteScan(ctx context.Context, keys ...string) error {
	objectsCh := make(chan minio.ObjectInfo)

	go func() {
		defer close(objectsCh)
		for _, key := range keys {
			if key == "" {
				continue
			}
			select {
			case objectsCh <- minio.ObjectInfo{Key: key}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var errs []error
	for err := range s.client.RemoveObjects(ctx, s.bucketName, objectsCh, minio.RemoveObjectsOptions{}) {
		if err.Err != nil {
			errs = append(errs, fmt.Errorf("failed to delete object %s: %w", err.ObjectName, err.Err))
		}
	}

	return errors.Join(errs...)
}
