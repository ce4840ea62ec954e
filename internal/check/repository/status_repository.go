package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"structcheck/internal/check/verdict"
	"structcheck/internal/common/cache"
	appErr "structcheck/pkg/errors"
)

const (
	statusKeyPrefix = "structcheck:status:"
	claimKeyPrefix  = "structcheck:claim:"
)

// StatusRepository keeps the latest verdict of every check in Redis. Entries
// expire after TTL.
type StatusRepository struct {
	cache cache.Cache
	TTL   time.Duration
}

// NewStatusRepository creates a new repository.
func NewStatusRepository(cacheClient cache.Cache, ttl time.Duration) *StatusRepository {
	return &StatusRepository{cache: cacheClient, TTL: ttl}
}

// Get returns the latest verdict of a check.
func (r *StatusRepository) Get(ctx context.Context, checkID string) (verdict.Verdict, error) {
	if checkID == "" {
		return verdict.Verdict{}, appErr.ValidationError("check_id", "required")
	}
	if r.cache == nil {
		return verdict.Verdict{}, appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	val, err := r.cache.Get(ctx, statusKeyPrefix+checkID)
	if err != nil {
		return verdict.Verdict{}, appErr.Wrapf(err, appErr.CacheError, "load status failed")
	}
	if val == "" {
		return verdict.Verdict{}, appErr.New(appErr.CheckNotFound).WithMessage("check status not found")
	}
	var v verdict.Verdict
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return verdict.Verdict{}, appErr.Wrapf(err, appErr.CacheError, "decode status failed")
	}
	return v, nil
}

// Save stores v as the latest verdict of its check.
func (r *StatusRepository) Save(ctx context.Context, v verdict.Verdict) error {
	if v.CheckID == "" {
		return appErr.ValidationError("check_id", "required")
	}
	if r.cache == nil {
		return appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal status failed: %w", err)
	}
	if err := r.cache.Set(ctx, statusKeyPrefix+v.CheckID, string(data), r.TTL); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "store status failed")
	}
	return nil
}

// Claim marks a check as taken by this worker. It reports false when another
// delivery of the same check already claimed it.
func (r *StatusRepository) Claim(ctx context.Context, checkID string) (bool, error) {
	if r.cache == nil {
		return false, appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	ok, err := r.cache.SetNX(ctx, claimKeyPrefix+checkID, time.Now().Unix(), r.TTL)
	if err != nil {
		return false, appErr.Wrapf(err, appErr.CacheError, "claim check failed")
	}
	return ok, nil
}

// Release drops the claim on a check so a redelivery can process it.
func (r *StatusRepository) Release(ctx context.Context, checkID string) error {
	if r.cache == nil {
		return appErr.New(appErr.CacheError).WithMessage("cache client is not initialized")
	}
	if err := r.cache.Del(ctx, claimKeyPrefix+checkID); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "release check failed")
	}
	return nil
}
