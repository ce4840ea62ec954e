package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrObjectNotFound is returned by MemoryStorage for missing objects.
var ErrObjectNotFound = errors.New("object not found")

// MemoryStorage is an in-process ObjectStorage used when no object store is
// configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryObject
}

type memoryObject struct {
	data []byte
	opts PutOptions
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{buckets: make(map[string]map[string]memoryObject)}
}

func (s *MemoryStorage) GetObject(_ context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.buckets[bucket][objectKey]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", bucket, objectKey, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStorage) PutObject(_ context.Context, bucket, objectKey string, reader io.Reader, sizeBytes int64, opts PutOptions) error {
	if sizeBytes >= 0 {
		reader = io.LimitReader(reader, sizeBytes)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if sizeBytes >= 0 && int64(len(data)) != sizeBytes {
		return fmt.Errorf("short object: read %d of %d bytes", len(data), sizeBytes)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	objects, ok := s.buckets[bucket]
	if !ok {
		objects = make(map[string]memoryObject)
		s.buckets[bucket] = objects
	}
	objects[objectKey] = memoryObject{data: data, opts: opts}
	return nil
}

func (s *MemoryStorage) StatObject(_ context.Context, bucket, objectKey string) (ObjectStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.buckets[bucket][objectKey]
	if !ok {
		return ObjectStat{}, fmt.Errorf("%s/%s: %w", bucket, objectKey, ErrObjectNotFound)
	}
	return ObjectStat{
		SizeBytes:   int64(len(obj.data)),
		ContentType: obj.opts.ContentType,
		Metadata:    obj.opts.Metadata,
	}, nil
}

func (s *MemoryStorage) RemoveObject(_ context.Context, bucket, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets[bucket], objectKey)
	return nil
}

func (s *MemoryStorage) EnsureBucket(_ context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]memoryObject)
	}
	return nil
}
