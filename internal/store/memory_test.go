package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name   string   `json:"name"`
	Role   string   `json:"role"`
	Rank   int      `json:"rank,omitempty"`
	Tags   []string `json:"tags,omitempty"`
	Status string   `json:"status,omitempty"`
}

func seed(t *testing.T, s *MemoryStore, docs map[string]testDoc, order ...string) {
	t.Helper()
	for _, id := range order {
		require.NoError(t, s.Put(context.Background(), "people", id, docs[id]))
	}
}

func docIDs(docs []Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func TestMemoryStore_GetPut(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	doc, err := s.Get(ctx, "people", "missing")
	require.NoError(t, err)
	assert.Nil(t, doc)

	require.NoError(t, s.Put(ctx, "people", "a", testDoc{Name: "Ada", Role: "teacher"}))
	require.NoError(t, s.Put(ctx, "people", "a", testDoc{Name: "Ada L.", Role: "teacher"}))

	doc, err = s.Get(ctx, "people", "a")
	require.NoError(t, err)
	require.NotNil(t, doc)

	var got testDoc
	require.NoError(t, doc.Decode(&got))
	assert.Equal(t, "Ada L.", got.Name)

	assert.Error(t, s.Put(ctx, "people", "b", []string{"not", "an", "object"}))
}

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, map[string]testDoc{
		"c": {Name: "Carl", Role: "teacher", Rank: 2, Tags: []string{"physics"}},
		"a": {Name: "Ada", Role: "teacher", Rank: 3, Tags: []string{"math", "cs"}},
		"e": {Name: "Emmy", Role: "student", Tags: []string{"math"}},
		"g": {Name: "Grace", Role: "teacher", Rank: 1},
	}, "c", "a", "e", "g")

	t.Run("no filters keeps insertion order", func(t *testing.T) {
		docs, err := s.Query(ctx, "people", nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "e", "g"}, docIDs(docs))
	})

	t.Run("equality", func(t *testing.T) {
		docs, err := s.Query(ctx, "people", []Filter{Eq("role", "teacher")})
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "g"}, docIDs(docs))
	})

	t.Run("numeric equality after json round trip", func(t *testing.T) {
		docs, err := s.Query(ctx, "people", []Filter{Eq("rank", 3)})
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, docIDs(docs))
	})

	t.Run("array contains", func(t *testing.T) {
		docs, err := s.Query(ctx, "people", []Filter{ArrayContains("tags", "math")})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "e"}, docIDs(docs))
	})

	t.Run("filters are combined", func(t *testing.T) {
		docs, err := s.Query(ctx, "people", []Filter{ArrayContains("tags", "math"), Eq("role", "student")})
		require.NoError(t, err)
		assert.Equal(t, []string{"e"}, docIDs(docs))
	})

	t.Run("order by string field", func(t *testing.T) {
		docs, err := s.Query(ctx, "people", nil, OrderBy("name"))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "e", "g"}, docIDs(docs))
	})

	t.Run("order by puts missing field last", func(t *testing.T) {
		docs, err := s.Query(ctx, "people", nil, OrderBy("rank"))
		require.NoError(t, err)
		assert.Equal(t, []string{"g", "c", "a", "e"}, docIDs(docs))
	})

	t.Run("unknown collection is empty", func(t *testing.T) {
		docs, err := s.Query(ctx, "nothing", nil)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("unknown operator", func(t *testing.T) {
		_, err := s.Query(ctx, "people", []Filter{{Field: "rank", Op: ">", Value: 1}})
		assert.Error(t, err)
	})
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "people", "a", testDoc{Name: "Ada", Role: "teacher", Tags: []string{"math"}}))

	require.NoError(t, s.Update(ctx, "people", "a", map[string]any{"status": "rejected"}))

	doc, err := s.Get(ctx, "people", "a")
	require.NoError(t, err)
	var got testDoc
	require.NoError(t, doc.Decode(&got))
	assert.Equal(t, testDoc{Name: "Ada", Role: "teacher", Tags: []string{"math"}, Status: "rejected"}, got)

	docs, err := s.Query(ctx, "people", []Filter{Eq("status", "rejected")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, docIDs(docs))

	err = s.Update(ctx, "people", "missing", map[string]any{"status": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Listen(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "people", "a", testDoc{Name: "Ada", Role: "teacher"}))

	sub, err := s.Listen(ctx, "people", []Filter{Eq("role", "teacher")})
	require.NoError(t, err)

	next := func() []Document {
		select {
		case docs, ok := <-sub.C():
			require.True(t, ok, "subscription closed")
			return docs
		case <-ctx.Done():
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}

	assert.Equal(t, []string{"a"}, docIDs(next()))

	require.NoError(t, s.Put(ctx, "people", "c", testDoc{Name: "Carl", Role: "teacher"}))
	// снимки могут схлопнуться, ждём пока новый документ появится
	for {
		if ids := docIDs(next()); len(ids) == 2 {
			assert.Equal(t, []string{"a", "c"}, ids)
			break
		}
	}

	sub.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)
	assert.NoError(t, sub.Err())

	_, err = s.Listen(ctx, "people", []Filter{{Field: "x", Op: "<", Value: 1}})
	assert.Error(t, err)
}

func TestTimestamp_SortsLexicographically(t *testing.T) {
	base := time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC)
	earlier := Timestamp(base)
	later := Timestamp(base.Add(500 * time.Millisecond))
	assert.Less(t, earlier, later)

	parsed, err := ParseTimestamp(later)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(base.Add(500*time.Millisecond)))

	shifted := Timestamp(time.Date(2024, 3, 6, 12, 0, 0, 0, time.FixedZone("UTC+3", 3*60*60)))
	assert.Equal(t, "2024-03-06T09:00:00.000000000Z", shifted)
}
