package storage

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/segmentio/ksuid"

	"github.com/stemhub-africa/stemhub-service/internal/config"
)

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Presigner issues upload URLs for past paper files
type Presigner interface {
	PresignUpload(ctx context.Context, ownerID, fileName string) (key string, uploadURL string, expiresAt time.Time, err error)
	Exists(ctx context.Context, key string) (bool, error)
}

type ObjectStore struct {
	client *minio.Client
	cfg    config.StorageConfig
}

func NewObjectStore(cfg config.StorageConfig) (*ObjectStore, error) {
	endpoint := cfg.Endpoint
	useSSL := cfg.UseSSL

	if strings.HasPrefix(endpoint, "http") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint: %w", err)
		}
		endpoint = u.Host
		useSSL = u.Scheme == "https"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	return &ObjectStore{client: client, cfg: cfg}, nil
}

func (s *ObjectStore) EnsureBuckets(ctx context.Context) error {
	bucket := s.cfg.BucketPastPapers
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
	}
	return nil
}

// PresignUpload returns a PUT URL for a new object under the owner's prefix
func (s *ObjectStore) PresignUpload(ctx context.Context, ownerID, fileName string) (string, string, time.Time, error) {
	key := ObjectKey(ownerID, fileName)
	ttl := s.cfg.UploadURLTTL

	u, err := s.client.PresignedPutObject(ctx, s.cfg.BucketPastPapers, key, ttl)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("presign put %s: %w", key, err)
	}
	return key, u.String(), time.Now().Add(ttl), nil
}

func (s *ObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, s.cfg.BucketPastPapers, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return true, nil
}

// ObjectKey builds past-papers/<owner>/<ksuid>-<file>. Keys sort by upload time.
func ObjectKey(ownerID, fileName string) string {
	base := unsafeFileChars.ReplaceAllString(path.Base(fileName), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "paper.pdf"
	}
	return fmt.Sprintf("past-papers/%s/%s-%s", ownerID, ksuid.New().String(), base)
}

// OwnsKey reports whether key was issued for ownerID
func OwnsKey(ownerID, key string) bool {
	return strings.HasPrefix(key, "past-papers/"+ownerID+"/") && !strings.Contains(key, "..")
}
