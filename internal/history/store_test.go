// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/biosearch/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.HistoryConfig{DataDir: t.TempDir(), PageSize: 10})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func completedTask(id, query string, createdAt time.Time) types.Task {
	return types.Task{
		ID:        id,
		Query:     query,
		Status:    types.TaskCompleted,
		Progress:  1.0,
		CreatedAt: createdAt,
		Result: map[string]any{
			"query":          query,
			"total_records":  2,
			"sources_failed": 0,
			"sources": map[string]any{
				"pubmed": map[string]any{
					"source_id":    "pubmed",
					"raw_count":    3,
					"record_count": 2,
					"records": []any{
						map[string]any{"external_id": "1", "title": "a"},
						map[string]any{"external_id": "2", "title": "b"},
					},
				},
			},
		},
	}
}

func TestSaveTaskAndDetail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveTask(ctx, completedTask("t1", "asthma", created)))

	entries, total, err := s.History(ctx, 1, 10, "")
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "t1", e.TaskID)
	assert.Equal(t, "asthma", e.Query)
	assert.Equal(t, "completed", e.Status)
	assert.Equal(t, 2, e.Total)
	assert.True(t, e.CreatedAt.Equal(created))
	assert.Empty(t, e.Sources, "listing omits per-source payloads")

	detail, err := s.Detail(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, detail.Sources, 1)
	src := detail.Sources[0]
	assert.Equal(t, "pubmed", src.SourceID)
	assert.Equal(t, 3, src.RawCount)
	assert.Equal(t, 2, src.RecordCount)
	require.Len(t, src.Records, 2)
	assert.Equal(t, "a", src.Records[0]["title"])
}

func TestSaveTaskRejectsLiveTask(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveTask(context.Background(), types.Task{ID: "t", Status: types.TaskProcessing})
	assert.Error(t, err)
}

func TestSaveTaskLastWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	created := time.Now().UTC()

	require.NoError(t, s.SaveTask(ctx, completedTask("t1", "first", created)))
	require.NoError(t, s.SaveTask(ctx, completedTask("t1", "second", created)))

	entries, total, err := s.History(ctx, 1, 10, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total, "re-archiving the same task replaces the row")
	assert.Equal(t, "second", entries[0].Query)
}

func TestSaveFailedTask(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	failed := types.Task{
		ID:        "t2",
		Query:     "copd",
		Status:    types.TaskFailed,
		Error:     "all 7 sources unavailable",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveTask(ctx, failed))

	entries, _, err := s.History(ctx, 1, 10, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "failed", entries[0].Status)
	assert.Equal(t, "all 7 sources unavailable", entries[0].Error)
	assert.Zero(t, entries[0].Total)
}

func TestHistoryPagingAndKeyword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, q := range []string{"asthma adults", "asthma children", "diabetes"} {
		require.NoError(t, s.SaveTask(ctx, completedTask(
			string(rune('a'+i)), q, base.Add(time.Duration(i)*time.Minute))))
	}

	page1, total, err := s.History(ctx, 1, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page1, 2)
	assert.Equal(t, "diabetes", page1[0].Query, "newest first")

	page2, _, err := s.History(ctx, 2, 2, "")
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "asthma adults", page2[0].Query)

	matched, total, err := s.History(ctx, 1, 10, "asthma")
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, matched, 2)
}

func TestDeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTask(ctx, completedTask("t1", "asthma", time.Now().UTC())))
	entries, _, err := s.History(ctx, 1, 10, "")
	require.NoError(t, err)
	id := entries[0].ID

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Detail(ctx, id)
	assert.Error(t, err)
	assert.Error(t, s.Delete(ctx, id), "second delete reports not found")

	var orphans int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM source_results`).Scan(&orphans))
	assert.Zero(t, orphans, "source rows cascade with the search")
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveTask(ctx, completedTask("t1", "asthma", time.Now().UTC())))
	require.NoError(t, s.SaveTask(ctx, types.Task{
		ID: "t2", Query: "copd", Status: types.TaskFailed, Error: "down", CreatedAt: time.Now().UTC(),
	}))

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Searches)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 1, st.Failed)
	assert.Equal(t, 2, st.Records)
	assert.Equal(t, map[string]int{"pubmed": 2}, st.BySource)
}
