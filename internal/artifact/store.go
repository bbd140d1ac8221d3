// Package artifact resolves where the trained model lives: a local JSON file
// baked into the image, or an object store shared between the trainer and the
// inference service.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"cardiod/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store reads and writes one model artifact.
type Store interface {
	// Location describes the artifact source for logs and health payloads.
	Location() string
	Fetch(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, data []byte) error
}

const DefaultModelPath = "models/cardio-logistic.json"

// FromEnv picks the object store when MODEL_OBJECT_ENDPOINT is set, otherwise
// the local file at MODEL_PATH.
func FromEnv() (Store, error) {
	if endpoint := config.EnvString("MODEL_OBJECT_ENDPOINT", ""); endpoint != "" {
		cfg, err := ObjectConfigFromEnv()
		if err != nil {
			return nil, err
		}
		return NewObjectStore(cfg)
	}
	return NewFileStore(config.EnvString("MODEL_PATH", DefaultModelPath)), nil
}

// FileStore is a single file on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Location() string { return s.path }

func (s *FileStore) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) Put(ctx context.Context, data []byte) error {
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write model %s: %w", s.path, err)
	}
	return nil
}

// ObjectConfig describes the MinIO/S3 bucket holding model artifacts.
type ObjectConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Key       string
	Region    string
	UseSSL    bool
}

func ObjectConfigFromEnv() (ObjectConfig, error) {
	useSSL, err := config.EnvBool("MODEL_OBJECT_USE_SSL", false)
	if err != nil {
		return ObjectConfig{}, err
	}
	cfg := ObjectConfig{
		Endpoint:  config.EnvString("MODEL_OBJECT_ENDPOINT", ""),
		AccessKey: config.EnvString("MODEL_OBJECT_ACCESS_KEY", ""),
		SecretKey: config.EnvString("MODEL_OBJECT_SECRET_KEY", ""),
		Bucket:    config.EnvString("MODEL_OBJECT_BUCKET", "cardio-models"),
		Key:       config.EnvString("MODEL_OBJECT_KEY", "cardio-logistic.json"),
		Region:    config.EnvString("MODEL_OBJECT_REGION", ""),
		UseSSL:    useSSL,
	}
	if err := cfg.Validate(); err != nil {
		return ObjectConfig{}, err
	}
	return cfg, nil
}

func (c ObjectConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("MODEL_OBJECT_ENDPOINT is required")
	}
	if c.AccessKey == "" || c.SecretKey == "" {
		return errors.New("MODEL_OBJECT_ACCESS_KEY and MODEL_OBJECT_SECRET_KEY are required")
	}
	if c.Bucket == "" {
		return errors.New("MODEL_OBJECT_BUCKET is required")
	}
	if c.Key == "" {
		return errors.New("MODEL_OBJECT_KEY is required")
	}
	return nil
}

// ObjectStore keeps the artifact in a bucket.
type ObjectStore struct {
	client *minio.Client
	cfg    ObjectConfig
}

func NewObjectStore(cfg ObjectConfig) (*ObjectStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Region:    cfg.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("object store client: %w", err)
	}
	return &ObjectStore{client: client, cfg: cfg}, nil
}

func (s *ObjectStore) Location() string {
	return fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, s.cfg.Key)
}

func (s *ObjectStore) Fetch(ctx context.Context) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.cfg.Bucket, s.cfg.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.Location(), err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Location(), err)
	}
	return data, nil
}

func (s *ObjectStore) Put(ctx context.Context, data []byte) error {
	if err := s.ensureBucket(ctx); err != nil {
		return err
	}
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, s.cfg.Key,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.Location(), err)
	}
	return nil
}

func (s *ObjectStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("bucket exists %s: %w", s.cfg.Bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{Region: s.cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
