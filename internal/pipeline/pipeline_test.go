package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/cache"
	apierrors "finsight/internal/errors"
	"finsight/internal/store"
	"finsight/pkg/contracts/domain"
)

type stubFiles struct {
	records map[string]*domain.FileRecord
}

func (s *stubFiles) Get(_ context.Context, id string) (*domain.FileRecord, error) {
	if rec, ok := s.records[id]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

func newTestStage(t *testing.T) (*Stage, *cache.MemoryCache) {
	t.Helper()
	c := cache.NewMemoryCache(100)
	t.Cleanup(func() { c.Close() })

	files := &stubFiles{records: map[string]*domain.FileRecord{
		"file-1": {ID: "file-1", OriginalName: "report.csv", Format: "csv"},
	}}
	return NewStage(files, c, time.Minute, nil), c
}

func descriptiveOp() domain.OperationKind {
	return domain.AnalysisOperation(domain.AnalysisDescriptive)
}

func TestStageRunMissThenHit(t *testing.T) {
	stage, _ := newTestStage(t)
	computes := 0

	req := Request{
		FileID: "file-1",
		Op:     descriptiveOp(),
		Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
			computes++
			return json.RawMessage(`{"rows":3}`), nil
		},
	}

	first, err := stage.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.JSONEq(t, `{"rows":3}`, string(first.Payload))

	second, err := stage.Run(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.JSONEq(t, `{"rows":3}`, string(second.Payload))
	assert.Equal(t, first.ComputedAt, second.ComputedAt)
	assert.Equal(t, 1, computes)
}

func TestStageRunUnknownFile(t *testing.T) {
	stage, _ := newTestStage(t)

	_, err := stage.Run(context.Background(), Request{
		FileID: "nope",
		Op:     descriptiveOp(),
		Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
			t.Fatal("compute must not run for a missing file")
			return nil, nil
		},
	})

	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "FILE_NOT_FOUND", apiErr.ErrorCode)
}

func TestStageRunFailureNotCached(t *testing.T) {
	stage, _ := newTestStage(t)
	computes := 0

	req := Request{
		FileID: "file-1",
		Op:     descriptiveOp(),
		Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
			computes++
			if computes == 1 {
				return nil, errors.New("parse blew up")
			}
			return json.RawMessage(`{"ok":true}`), nil
		},
	}

	_, err := stage.Run(context.Background(), req)
	require.Error(t, err)

	// the failure must not have been cached; the retry recomputes
	result, err := stage.Run(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, 2, computes)
}

func TestStageRunForceOverwrites(t *testing.T) {
	stage, _ := newTestStage(t)
	payloads := []string{`{"v":1}`, `{"v":2}`}
	computes := 0

	makeReq := func(force bool) Request {
		return Request{
			FileID: "file-1",
			Op:     descriptiveOp(),
			Force:  force,
			Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
				p := payloads[computes]
				computes++
				return json.RawMessage(p), nil
			},
		}
	}

	first, err := stage.Run(context.Background(), makeReq(false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(first.Payload))

	forced, err := stage.Run(context.Background(), makeReq(true))
	require.NoError(t, err)
	assert.False(t, forced.Cached)
	assert.JSONEq(t, `{"v":2}`, string(forced.Payload))

	// subsequent reads see the overwritten value
	after, err := stage.Run(context.Background(), makeReq(false))
	require.NoError(t, err)
	assert.True(t, after.Cached)
	assert.JSONEq(t, `{"v":2}`, string(after.Payload))
}

func TestStageRunCollapsesConcurrentDuplicates(t *testing.T) {
	stage, _ := newTestStage(t)
	var computes atomic.Int32
	release := make(chan struct{})

	req := Request{
		FileID: "file-1",
		Op:     descriptiveOp(),
		Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
			computes.Add(1)
			<-release
			return json.RawMessage(`{"shared":true}`), nil
		},
	}

	const workers = 5
	results := make([]*StageResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := stage.Run(context.Background(), req)
			require.NoError(t, err)
			results[i] = r
		}(i)
	}

	// give the goroutines a moment to pile onto the same key
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), computes.Load())
	cachedSeen := 0
	for _, r := range results {
		assert.JSONEq(t, `{"shared":true}`, string(r.Payload))
		if r.Cached {
			cachedSeen++
		}
	}
	assert.Equal(t, workers-1, cachedSeen, "latecomers observe the shared result as cached")
}

func TestStageRunPersistFailureNotCached(t *testing.T) {
	stage, c := newTestStage(t)

	_, err := stage.Run(context.Background(), Request{
		FileID: "file-1",
		Op:     descriptiveOp(),
		Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
			return json.RawMessage(`{"x":1}`), nil
		},
		Persist: func(context.Context, json.RawMessage, time.Time) error {
			return errors.New("database down")
		},
	})
	require.Error(t, err)

	_, found, _ := c.Get(context.Background(), descriptiveOp().CacheKey("file-1"))
	assert.False(t, found)
}

func TestStageRunDropsCorruptCacheEntry(t *testing.T) {
	stage, c := newTestStage(t)
	ctx := context.Background()
	key := descriptiveOp().CacheKey("file-1")
	require.NoError(t, c.Set(ctx, key, []byte("not json"), time.Minute))

	_, err := stage.Run(ctx, Request{
		FileID: "file-1",
		Op:     descriptiveOp(),
		Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
			return nil, errors.New("compute blew up")
		},
	})
	require.Error(t, err)

	_, found, _ := c.Get(ctx, key)
	assert.False(t, found, "unreadable entry is removed rather than served again")
}

func TestStageInvalidate(t *testing.T) {
	stage, c := newTestStage(t)
	ctx := context.Background()

	_, err := stage.Run(ctx, Request{
		FileID: "file-1",
		Op:     descriptiveOp(),
		Compute: func(context.Context, *domain.FileRecord) (json.RawMessage, error) {
			return json.RawMessage(`{"a":1}`), nil
		},
	})
	require.NoError(t, err)

	// another file's cached result must survive the invalidation
	otherKey := descriptiveOp().CacheKey("file-2")
	require.NoError(t, c.Set(ctx, otherKey, []byte(`{"b":2}`), time.Minute))

	stage.Invalidate(ctx, "file-1")

	_, found, _ := c.Get(ctx, descriptiveOp().CacheKey("file-1"))
	assert.False(t, found)

	_, found, _ = c.Get(ctx, otherKey)
	assert.True(t, found)
}
