package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kowaiquest/internal/config"
	"kowaiquest/internal/database"
	"kowaiquest/migrations"
)

func TestSubCollection(t *testing.T) {
	assert.Equal(t, "trainers/ash_ketchum_10/statsHistory", SubCollection(TrainersCollection, "ash_ketchum_10", StatsHistoryCollection))
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name  string
		doc   Document
		patch Document
		want  string
	}{
		{
			name:  "top level replace",
			doc:   Document{"stats": map[string]any{"bravery": 1.0, "wisdom": 2.0}},
			patch: Document{"stats": map[string]any{"bravery": 3}},
			want:  `{"stats":{"bravery":3}}`,
		},
		{
			name:  "dotted path keeps siblings",
			doc:   Document{"issueProgress": map[string]any{"issue1": map[string]any{"lastCompletedQuest": 1.0, "startedAt": "x"}}},
			patch: Document{"issueProgress.issue1.lastCompletedQuest": 2},
			want:  `{"issueProgress":{"issue1":{"lastCompletedQuest":2,"startedAt":"x"}}}`,
		},
		{
			name:  "dotted path creates intermediates",
			doc:   Document{},
			patch: Document{"issueProgress.issue2.lastCompletedQuest": 0},
			want:  `{"issueProgress":{"issue2":{"lastCompletedQuest":0}}}`,
		},
		{
			name:  "struct values are normalised",
			doc:   Document{},
			patch: Document{"lastLogin": time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
			want:  `{"lastLogin":"2024-03-01T12:00:00Z"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, Merge(tt.doc, tt.patch))
			raw, err := marshalDocument(tt.doc)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
		})
	}
}

func TestMergeRejectsEmptySegment(t *testing.T) {
	assert.Error(t, Merge(Document{}, Document{"issueProgress..x": 1}))
}

func TestEncodeDecode(t *testing.T) {
	type sample struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}
	doc, err := Encode(sample{Name: "Ash", Age: 10})
	require.NoError(t, err)
	assert.Equal(t, "Ash", doc["name"])

	var out sample
	require.NoError(t, Decode(doc, &out))
	assert.Equal(t, sample{Name: "Ash", Age: 10}, out)

	_, err = Encode([]int{1, 2})
	assert.Error(t, err)
}

// runGatewayContract exercises the behaviour every backend must share
func runGatewayContract(t *testing.T, g Gateway, collection string) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := g.Get(ctx, collection, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update missing", func(t *testing.T) {
		err := g.Update(ctx, collection, "nobody", Document{"age": 1})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("set then get", func(t *testing.T) {
		require.NoError(t, g.Set(ctx, collection, "misty_waterflower_12", Document{"firstName": "Misty", "age": 12}))
		doc, err := g.Get(ctx, collection, "misty_waterflower_12")
		require.NoError(t, err)
		assert.Equal(t, "Misty", doc["firstName"])
		assert.EqualValues(t, 12, doc["age"])
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, g.Set(ctx, collection, "misty_waterflower_12", Document{"firstName": "Misty"}))
		doc, err := g.Get(ctx, collection, "misty_waterflower_12")
		require.NoError(t, err)
		_, hasAge := doc["age"]
		assert.False(t, hasAge)
	})

	t.Run("update merges dotted paths", func(t *testing.T) {
		require.NoError(t, g.Set(ctx, collection, "ash_ketchum_10", Document{
			"stats":         map[string]any{"bravery": 0, "wisdom": 0},
			"issueProgress": map[string]any{"issue1": map[string]any{"lastCompletedQuest": 0}},
		}))
		require.NoError(t, g.Update(ctx, collection, "ash_ketchum_10", Document{
			"stats.wisdom":                           3,
			"issueProgress.issue1.lastCompletedQuest": 1,
		}))

		doc, err := g.Get(ctx, collection, "ash_ketchum_10")
		require.NoError(t, err)
		stats := doc["stats"].(map[string]any)
		assert.EqualValues(t, 0, stats["bravery"])
		assert.EqualValues(t, 3, stats["wisdom"])
		progress := doc["issueProgress"].(map[string]any)["issue1"].(map[string]any)
		assert.EqualValues(t, 1, progress["lastCompletedQuest"])
	})

	t.Run("list ordered by id", func(t *testing.T) {
		entries, err := g.List(ctx, collection)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "ash_ketchum_10", entries[0].ID)
		assert.Equal(t, "misty_waterflower_12", entries[1].ID)
	})

	t.Run("sub collections are separate", func(t *testing.T) {
		sub := SubCollection(collection, "ash_ketchum_10", StatsHistoryCollection)
		require.NoError(t, g.Set(ctx, sub, "issue1_1", Document{"answer": "peblaff"}))
		entries, err := g.List(ctx, sub)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "issue1_1", entries[0].ID)

		parent, err := g.List(ctx, collection)
		require.NoError(t, err)
		assert.Len(t, parent, 2)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, g.Delete(ctx, collection, "misty_waterflower_12"))
		require.NoError(t, g.Delete(ctx, collection, "misty_waterflower_12"))
		_, err := g.Get(ctx, collection, "misty_waterflower_12")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryGateway(t *testing.T) {
	runGatewayContract(t, NewMemoryGateway(), TrainersCollection)
}

func TestMemoryGatewayIsolation(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	require.NoError(t, g.Set(ctx, TrainersCollection, "a", Document{"stats": map[string]any{"bravery": 1}}))

	doc, err := g.Get(ctx, TrainersCollection, "a")
	require.NoError(t, err)
	doc["stats"].(map[string]any)["bravery"] = 99

	again, err := g.Get(ctx, TrainersCollection, "a")
	require.NoError(t, err)
	assert.EqualValues(t, 1, again["stats"].(map[string]any)["bravery"])
}

func TestMemoryGatewayHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryGateway().Set(ctx, TrainersCollection, "a", Document{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSQLGateway(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "gateway_test.db"))
	require.NoError(t, err)
	_, err = db.RunMigrations(context.Background(), migrations.FS)
	require.NoError(t, err)

	g := NewSQLGateway(db)
	t.Cleanup(func() { g.Close() })

	runGatewayContract(t, g, TrainersCollection)
}

func TestRedisGateway(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	rdb, err := NewRedisClient(context.Background(), &config.Config{RedisAddr: addr})
	require.NoError(t, err)

	// a fresh prefix keeps runs independent
	g := NewRedisGateway(rdb, "kowaiquest-test-"+uuid.NewString())
	t.Cleanup(func() { g.Close() })

	runGatewayContract(t, g, TrainersCollection)
}
