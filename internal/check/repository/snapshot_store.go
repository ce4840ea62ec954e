package repository

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"structcheck/internal/check/kind"
	"structcheck/internal/common/storage"
	appErr "structcheck/pkg/errors"

	"github.com/klauspost/compress/zstd"
)

const (
	snapshotContentType     = "text/x-go"
	snapshotContentEncoding = "zstd"
	defaultMaxSnapshotBytes = 1 << 20
)

// SnapshotStore keeps zstd-compressed copies of submitted sources in object
// storage for asynchronous checks.
type SnapshotStore struct {
	storage  storage.ObjectStorage
	bucket   string
	maxBytes int64
	encoder  *zstd.Encoder
}

// NewSnapshotStore creates a store writing to bucket. Sources larger than
// maxBytes are rejected on read.
func NewSnapshotStore(objectStorage storage.ObjectStorage, bucket string, maxBytes int64) (*SnapshotStore, error) {
	if objectStorage == nil {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("object storage is required")
	}
	if bucket == "" {
		return nil, appErr.New(appErr.InvalidParams).WithMessage("snapshot bucket is required")
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxSnapshotBytes
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.StorageError, "create zstd encoder failed")
	}
	return &SnapshotStore{storage: objectStorage, bucket: bucket, maxBytes: maxBytes, encoder: encoder}, nil
}

// SnapshotKey returns the object key of a check's source.
func SnapshotKey(k kind.Kind, checkID string) string {
	return fmt.Sprintf("sources/%s/%s.go.zst", strings.ToLower(string(k)), checkID)
}

// Put uploads source and returns its key and the sha256 hex of the plain text.
func (s *SnapshotStore) Put(ctx context.Context, k kind.Kind, checkID, source string) (string, string, error) {
	sum := sha256.Sum256([]byte(source))
	hash := hex.EncodeToString(sum[:])
	key := SnapshotKey(k, checkID)

	compressed := s.encoder.EncodeAll([]byte(source), nil)
	err := s.storage.PutObject(ctx, s.bucket, key, bytes.NewReader(compressed), int64(len(compressed)), storage.PutOptions{
		ContentType:     snapshotContentType,
		ContentEncoding: snapshotContentEncoding,
		Metadata:        map[string]string{"sha256": hash, "kind": string(k)},
	})
	if err != nil {
		return "", "", appErr.Wrapf(err, appErr.StorageError, "upload source failed")
	}
	return key, hash, nil
}

// Get downloads and decompresses the source at key. A non-empty hash must
// match the sha256 of the decompressed text.
func (s *SnapshotStore) Get(ctx context.Context, key, hash string) (string, error) {
	reader, err := s.storage.GetObject(ctx, s.bucket, key)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "download source failed")
	}
	defer reader.Close()

	decoder, err := zstd.NewReader(reader, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "open zstd stream failed")
	}
	defer decoder.Close()

	hasher := sha256.New()
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.TeeReader(io.LimitReader(decoder, s.maxBytes+1), hasher))
	if err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "decompress source failed")
	}
	if n > s.maxBytes {
		return "", appErr.Newf(appErr.CodeTooLarge, "source exceeds %d bytes", s.maxBytes)
	}
	if hash != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if !strings.EqualFold(actual, hash) {
			return "", appErr.New(appErr.InvalidParams).WithMessage("source hash mismatch")
		}
	}
	return buf.String(), nil
}

// Remove deletes the source at key.
func (s *SnapshotStore) Remove(ctx context.Context, key string) error {
	if err := s.storage.RemoveObject(ctx, s.bucket, key); err != nil {
		return appErr.Wrapf(err, appErr.StorageError, "remove source failed")
	}
	return nil
}
