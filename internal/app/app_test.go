package app

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrainPreserve/supplements/internal/cache"
	"github.com/BrainPreserve/supplements/internal/coach"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/search"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.csv")
	require.NoError(t, os.WriteFile(path, []byte("supplement_key,sleep_flag\nmagnesium,yes\nzinc,no\n"), 0o600))

	cfg := config.DefaultConfig()
	cfg.Dataset.Path = path
	return cfg
}

func TestNew(t *testing.T) {
	a, err := New(testConfig(t), Options{LogOutput: io.Discard})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 2, a.Engine.Len())
	assert.Equal(t, uint64(1), a.Engine.FlagCount("sleep_flag"))
	assert.Len(t, a.Engine.Search(search.NewQuery("mag", nil, "", "")), 1)

	resp := a.Coach.Generate(context.Background(), coach.Request{SupplementName: "Magnesium", Fields: &coach.Fields{}})
	assert.Equal(t, coach.ReasonNoAPIKey, resp.Reason)
}

func TestApp_WatchDataset(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, Options{LogOutput: io.Discard})
	require.NoError(t, err)
	defer a.Close()

	stop, err := a.WatchDataset(context.Background())
	require.NoError(t, err)
	stop()

	cfg.Dataset.Watch = true
	stop, err = a.WatchDataset(context.Background())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Dataset.Path, []byte("supplement_key\nglycine\n"), 0o600))
	require.Eventually(t, func() bool { return a.Engine.Len() == 1 }, 5*time.Second, 10*time.Millisecond)
	stop()
}

func TestApp_ReloadPurgesCoachCache(t *testing.T) {
	a, err := New(testConfig(t), Options{LogOutput: io.Discard})
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Cache.Set(ctx, cache.Key("coach", "abc"), []byte(`{"text":"stale"}`), 0))
	require.NoError(t, a.Cache.Set(ctx, "other", []byte("x"), 0))

	require.NoError(t, a.Engine.Reload())

	_, err = a.Cache.Get(ctx, cache.Key("coach", "abc"))
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	_, err = a.Cache.Get(ctx, "other")
	assert.NoError(t, err)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dataset.Path = filepath.Join(t.TempDir(), "missing.csv")
	_, err := New(cfg, Options{LogOutput: io.Discard})
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.Cache.Driver = "memcached"
	_, err = New(cfg, Options{LogOutput: io.Discard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create cache")
}
