package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := NewSQLiteCache(":memory:")
	require.NoError(t, err)
	defer cache.Close()

	hit, err := cache.Has(ctx, "fp-1")
	require.NoError(t, err)
	require.False(t, hit, "fresh cache should not have fp-1")

	_, err = cache.ImageTag(ctx, "fp-1")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, cache.MarkSnapshotted(ctx, "fp-1", "flowrun-sandbox:fp-1"))

	hit, err = cache.Has(ctx, "fp-1")
	require.NoError(t, err)
	require.True(t, hit)

	tag, err := cache.ImageTag(ctx, "fp-1")
	require.NoError(t, err)
	require.Equal(t, "flowrun-sandbox:fp-1", tag)

	// Re-marking the same fingerprint with a new tag overwrites rather than
	// erroring, since a Job's fingerprint can legitimately be resnapshotted.
	require.NoError(t, cache.MarkSnapshotted(ctx, "fp-1", "flowrun-sandbox:fp-1-v2"))
	tag, err = cache.ImageTag(ctx, "fp-1")
	require.NoError(t, err)
	require.Equal(t, "flowrun-sandbox:fp-1-v2", tag)
}
