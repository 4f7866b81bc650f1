package intent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tsaristov/boop-final-prototype/internal/tool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func seedStore(t *testing.T) *tool.Store {
	t.Helper()
	store := tool.NewStore(t.TempDir())
	require.NoError(t, store.WriteDoc("calculator", tool.DocSummary, "Basic arithmetic."))
	require.NoError(t, store.WriteDoc("calculator", tool.DocFunctions, "## add\nAdds.\nParameters: a, b\n"))
	return store
}

func TestCacheLoadsSummaries(t *testing.T) {
	cache := NewListCache(seedStore(t), time.Minute)

	tools, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "calculator", tools[0].Name)
	assert.Equal(t, "Basic arithmetic.", tools[0].Summary)
	require.Len(t, tools[0].Functions, 1)
	assert.Equal(t, "add", tools[0].Functions[0].Name)
}

func TestCacheServesWithinTTL(t *testing.T) {
	store := seedStore(t)
	cache := NewListCache(store, time.Minute)

	now := time.Unix(1000, 0)
	cache.now = func() time.Time { return now }

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	// A new tool appears but the cache is still fresh.
	require.NoError(t, store.WriteDoc("greeter", tool.DocSummary, "Greets people."))
	now = now.Add(30 * time.Second)

	tools, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 1)

	// Past the TTL the reload picks it up.
	now = now.Add(time.Minute)
	tools, err = cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 2)
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	store := seedStore(t)
	cache := NewListCache(store, time.Hour)

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.WriteDoc("greeter", tool.DocSummary, "Greets people."))
	cache.Invalidate()

	tools, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Len(t, tools, 2)
}

func TestCacheWatcherInvalidates(t *testing.T) {
	store := seedStore(t)
	cache := NewListCache(store, time.Hour)
	require.NoError(t, cache.Watch())
	defer cache.Close()

	_, err := cache.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, store.WriteDoc("greeter", tool.DocSummary, "Greets people."))

	// The watcher delivers asynchronously.
	assert.Eventually(t, func() bool {
		tools, err := cache.Get(context.Background())
		return err == nil && len(tools) == 2
	}, 2*time.Second, 20*time.Millisecond)
}
