package artifact

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	s := NewFileStore(path)

	if s.Location() != path {
		t.Errorf("Location = %q", s.Location())
	}

	want := []byte(`{"schema":"test"}`)
	if err := s.Put(context.Background(), want); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Fetch = %q, want %q", got, want)
	}
}

func TestFileStoreFetchMissing(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := s.Fetch(context.Background()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Fetch missing file: %v", err)
	}
}

func TestFromEnvDefaultsToFileStore(t *testing.T) {
	t.Setenv("MODEL_OBJECT_ENDPOINT", "")
	t.Setenv("MODEL_PATH", "custom/model.json")

	s, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	fs, ok := s.(*FileStore)
	if !ok {
		t.Fatalf("FromEnv returned %T, want *FileStore", s)
	}
	if fs.Location() != "custom/model.json" {
		t.Errorf("Location = %q", fs.Location())
	}
}

func TestFromEnvObjectStore(t *testing.T) {
	t.Setenv("MODEL_OBJECT_ENDPOINT", "minio.internal:9000")
	t.Setenv("MODEL_OBJECT_ACCESS_KEY", "key")
	t.Setenv("MODEL_OBJECT_SECRET_KEY", "secret")

	s, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	obj, ok := s.(*ObjectStore)
	if !ok {
		t.Fatalf("FromEnv returned %T, want *ObjectStore", s)
	}
	if obj.Location() != "s3://cardio-models/cardio-logistic.json" {
		t.Errorf("Location = %q", obj.Location())
	}
}

func TestFromEnvObjectStoreMissingCredentials(t *testing.T) {
	t.Setenv("MODEL_OBJECT_ENDPOINT", "minio.internal:9000")
	t.Setenv("MODEL_OBJECT_ACCESS_KEY", "")
	t.Setenv("MODEL_OBJECT_SECRET_KEY", "")

	if _, err := FromEnv(); err == nil || !strings.Contains(err.Error(), "ACCESS_KEY") {
		t.Errorf("FromEnv = %v, want credentials error", err)
	}
}

func TestObjectConfigValidate(t *testing.T) {
	valid := ObjectConfig{
		Endpoint:  "minio:9000",
		AccessKey: "k",
		SecretKey: "s",
		Bucket:    "b",
		Key:       "m.json",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	for name, mutate := range map[string]func(*ObjectConfig){
		"endpoint": func(c *ObjectConfig) { c.Endpoint = "" },
		"secret":   func(c *ObjectConfig) { c.SecretKey = "" },
		"bucket":   func(c *ObjectConfig) { c.Bucket = "" },
		"key":      func(c *ObjectConfig) { c.Key = "" },
	} {
		c := valid
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: invalid config accepted", name)
		}
	}
}
