package stats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temic137/formforge/internal/router"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLite(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecordAndAggregate(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	attempts := []Attempt{
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "content_analysis", Success: true, LatencyMs: 100},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "content_analysis", Success: true, LatencyMs: 300},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "content_analysis", Success: false, Error: "timeout", LatencyMs: 45000},
		{Provider: "anthropic", Model: "claude-3-5-haiku-20241022", Purpose: "schema_synthesis", Success: true, LatencyMs: 900},
	}
	for i := range attempts {
		require.NoError(t, r.RecordAttempt(ctx, &attempts[i]))
	}

	stats, err := r.ModelStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byModel := make(map[string]ModelStat)
	for _, s := range stats {
		byModel[s.Model] = s
	}

	mini := byModel["gpt-4o-mini"]
	assert.Equal(t, 3, mini.Attempts)
	assert.Equal(t, 1, mini.Failures)
	assert.Equal(t, int64((100+300+45000)/3), mini.AvgLatencyMs)

	haiku := byModel["claude-3-5-haiku-20241022"]
	assert.Equal(t, 1, haiku.Attempts)
	assert.Equal(t, 0, haiku.Failures)
	assert.Equal(t, int64(900), haiku.AvgLatencyMs)
}

func TestSQLiteEmptyStats(t *testing.T) {
	r := newTestRecorder(t)

	stats, err := r.ModelStats(context.Background())
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestRefresherFoldsLatencyIntoRouter(t *testing.T) {
	r := newTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.RecordAttempt(ctx, &Attempt{
		Provider: "openai", Model: "gpt-4o-mini", Success: true, LatencyMs: 640,
	}))

	rt, err := router.New([]router.ModelDescriptor{
		{ID: "gpt-4o-mini", Provider: "openai", Purposes: []string{router.PurposeAnalysis}},
	}, nil)
	require.NoError(t, err)

	refresher := NewRefresher(r, rt, "@every 5m")
	require.NoError(t, refresher.Refresh(ctx))

	d, ok := rt.Descriptor("gpt-4o-mini")
	require.True(t, ok)
	assert.Equal(t, int64(640), d.AvgLatencyMs)
}

func TestNoopRecorder(t *testing.T) {
	n := Noop{}
	assert.NoError(t, n.RecordAttempt(context.Background(), &Attempt{}))
	stats, err := n.ModelStats(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, stats)
	assert.NoError(t, n.Close())
}
