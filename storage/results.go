// Package storage keeps the latest member order report per file in a NATS
// KV bucket, so other tools can read current results without replaying the
// report stream.
package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/memberorder/report"
)

// DefaultBucket is used when no bucket name is configured.
const DefaultBucket = "MEMBERORDER_RESULTS"

const (
	filePrefix = "file."
	summaryKey = "summary"
)

// ErrNotFound is returned when no report is stored for a path.
var ErrNotFound = errors.New("report not found")

// bucket is the part of a KV bucket the store needs.
type bucket interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Store holds reports keyed by file path.
type Store struct {
	kv bucket
}

// Open binds to the named bucket, creating it when missing.
func Open(ctx context.Context, js jetstream.JetStream, name string) (*Store, error) {
	if name == "" {
		name = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, name)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	return newStore(kvBucket{kv: kv}), nil
}

func newStore(b bucket) *Store {
	return &Store{kv: b}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	if !errors.Is(err, jetstream.ErrBucketNotFound) {
		return nil, err
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Latest member order report per file",
		History:     5,
	})
}

// Key returns the KV key for a report path. Paths are encoded because KV
// keys cannot hold separators such as '/' or spaces.
func Key(path string) string {
	return filePrefix + base64.RawURLEncoding.EncodeToString([]byte(filepath.ToSlash(path)))
}

// PathFromKey reverses Key.
func PathFromKey(key string) (string, error) {
	enc, ok := strings.CutPrefix(key, filePrefix)
	if !ok {
		return "", fmt.Errorf("not a file key: %s", key)
	}
	raw, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode key %s: %w", key, err)
	}
	return string(raw), nil
}

// Put stores r, replacing the previous report for the same path.
func (s *Store) Put(ctx context.Context, r report.FileReport) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.kv.Put(ctx, Key(r.Path), data); err != nil {
		return fmt.Errorf("store report for %s: %w", r.Path, err)
	}
	return nil
}

// Get returns the latest report for path.
func (s *Store) Get(ctx context.Context, path string) (*report.FileReport, error) {
	data, err := s.kv.Get(ctx, Key(path))
	if err != nil {
		return nil, err
	}
	var r report.FileReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal report for %s: %w", path, err)
	}
	return &r, nil
}

// Delete drops the report for path, e.g. after the file was removed.
func (s *Store) Delete(ctx context.Context, path string) error {
	if err := s.kv.Delete(ctx, Key(path)); err != nil {
		return fmt.Errorf("delete report for %s: %w", path, err)
	}
	return nil
}

// LastSummary returns the summary of the most recent run.
func (s *Store) LastSummary(ctx context.Context) (*report.Summary, error) {
	data, err := s.kv.Get(ctx, summaryKey)
	if err != nil {
		return nil, err
	}
	var sum report.Summary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("unmarshal summary: %w", err)
	}
	return &sum, nil
}

// Report implements report.Sink.
func (s *Store) Report(ctx context.Context, r report.FileReport) error {
	return s.Put(ctx, r)
}

// Summary implements report.Sink.
func (s *Store) Summary(ctx context.Context, sum report.Summary) error {
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := s.kv.Put(ctx, summaryKey, data); err != nil {
		return fmt.Errorf("store summary: %w", err)
	}
	return nil
}

// kvBucket adapts jetstream.KeyValue.
type kvBucket struct {
	kv jetstream.KeyValue
}

func (b kvBucket) Put(ctx context.Context, key string, value []byte) error {
	_, err := b.kv.Put(ctx, key, value)
	return err
}

func (b kvBucket) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := b.kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) || errors.Is(err, jetstream.ErrKeyDeleted) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return entry.Value(), nil
}

func (b kvBucket) Delete(ctx context.Context, key string) error {
	return b.kv.Delete(ctx, key)
}
