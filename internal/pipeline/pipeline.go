// Package pipeline runs cacheable computations over uploaded files.
// Every analysis and prediction request flows through one Stage: check
// the file exists, consult the cache, compute once even under
// concurrent duplicates, then persist and cache the success.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"finsight/internal/cache"
	apierrors "finsight/internal/errors"
	"finsight/internal/store"
	"finsight/pkg/contracts/domain"
)

// FileGetter resolves a file id to its metadata record.
type FileGetter interface {
	Get(ctx context.Context, id string) (*domain.FileRecord, error)
}

// Request describes one computation run.
type Request struct {
	FileID string
	Op     domain.OperationKind
	// Force skips the cache read and overwrites the entry on success.
	Force bool
	// Compute produces the result payload. It only runs on cache miss,
	// and concurrent duplicates collapse to a single invocation.
	Compute func(ctx context.Context, file *domain.FileRecord) (json.RawMessage, error)
	// Persist stores the successful result. Optional.
	Persist func(ctx context.Context, payload json.RawMessage, computedAt time.Time) error
}

// StageResult is a computation outcome. Cached is true when the payload
// came from the cache or from another in-flight computation.
type StageResult struct {
	Payload    json.RawMessage
	Cached     bool
	ComputedAt time.Time
}

// cacheEntry is the serialized form stored in the cache.
type cacheEntry struct {
	Payload    json.RawMessage `json:"payload"`
	ComputedAt time.Time       `json:"computed_at"`
}

// Stage coordinates cache, store, and computation for one run.
type Stage struct {
	files  FileGetter
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewStage creates a pipeline stage.
func NewStage(files FileGetter, c cache.Cache, ttl time.Duration, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{files: files, cache: c, ttl: ttl, logger: logger}
}

// Run executes a request. Failed computations are never cached and
// never persisted.
func (s *Stage) Run(ctx context.Context, req Request) (*StageResult, error) {
	file, err := s.files.Get(ctx, req.FileID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierrors.FileNotFoundError(req.FileID)
	}
	if err != nil {
		return nil, fmt.Errorf("look up file %s: %w", req.FileID, err)
	}

	key := req.Op.CacheKey(req.FileID)

	if !req.Force {
		if entry, ok := s.cacheGet(ctx, key); ok {
			return &StageResult{
				Payload:    entry.Payload,
				Cached:     true,
				ComputedAt: entry.ComputedAt,
			}, nil
		}
	}

	// Cached must be false only for the caller whose computation ran;
	// singleflight's shared flag is true for the executor as well.
	executed := false
	v, err, _ := s.group.Do(key, func() (any, error) {
		executed = true
		payload, err := req.Compute(ctx, file)
		if err != nil {
			return nil, err
		}
		entry := cacheEntry{Payload: payload, ComputedAt: time.Now().UTC()}

		if req.Persist != nil {
			if err := req.Persist(ctx, payload, entry.ComputedAt); err != nil {
				return nil, fmt.Errorf("persist %s result: %w", req.Op, err)
			}
		}
		s.cacheSet(ctx, key, entry)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}

	entry := v.(cacheEntry)
	return &StageResult{
		Payload:    entry.Payload,
		Cached:     !executed,
		ComputedAt: entry.ComputedAt,
	}, nil
}

// Invalidate drops every cached result for a file, across all
// operation kinds. Result keys share the file's prefix, so one prefix
// delete covers them.
func (s *Stage) Invalidate(ctx context.Context, fileID string) {
	prefix := domain.FileCachePrefix(fileID)
	if err := s.cache.DeletePrefix(ctx, prefix); err != nil {
		s.logger.Warn("Cache invalidation failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()))
	}
}

func (s *Stage) cacheGet(ctx context.Context, key string) (cacheEntry, bool) {
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed, computing",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return cacheEntry{}, false
	}
	if !found {
		return cacheEntry{}, false
	}
	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("Cache entry corrupt, recomputing",
			slog.String("key", key),
			slog.String("error", err.Error()))
		if err := s.cache.Delete(ctx, key); err != nil {
			s.logger.Warn("Corrupt cache entry not removed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return cacheEntry{}, false
	}
	return entry, true
}

func (s *Stage) cacheSet(ctx context.Context, key string, entry cacheEntry) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.logger.Warn("Cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}
