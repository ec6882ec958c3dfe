package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kowaiquest/internal/gateway"
	"kowaiquest/internal/models"
)

var now = time.Date(2025, 9, 14, 12, 0, 0, 0, time.UTC)

func sampleTrainer() *models.Trainer {
	return &models.Trainer{
		ID:               "ash_ketchum_10",
		FirstName:        "Ash",
		LastName:         "Ketchum",
		Age:              10,
		OwnedKowai:       []string{},
		EncounteredKowai: []string{"lumino", "forcino"},
		CurrentIssue:     "issue1",
		IssueProgress:    map[string]models.IssueProgress{"issue1": {}},
		CreatedAt:        now,
		LastLogin:        now,
		Provider:         models.ProviderLocal,
	}
}

func TestTrainerRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewTrainerRepository(gateway.NewMemoryGateway())

	missing, err := repo.GetTrainer(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	exists, err := repo.Exists(ctx, "ash_ketchum_10")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.SaveTrainer(ctx, sampleTrainer()))

	got, err := repo.GetTrainer(ctx, "ash_ketchum_10")
	require.NoError(t, err)
	assert.Equal(t, sampleTrainer(), got)

	require.NoError(t, repo.UpdateTrainer(ctx, "ash_ketchum_10", map[string]any{
		"stats.wisdom": 3,
		"issueProgress.issue1.lastCompletedQuest": 4,
	}))
	got, err = repo.GetTrainer(ctx, "ash_ketchum_10")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Stats.Wisdom)
	assert.Equal(t, 4, got.Progress("issue1").LastCompletedQuest)

	err = repo.UpdateTrainer(ctx, "nobody", map[string]any{"age": 3})
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	trainers, err := repo.ListTrainers(ctx)
	require.NoError(t, err)
	require.Len(t, trainers, 1)
	assert.Equal(t, "Ash", trainers[0].FirstName)
}

func TestDeleteTrainerRemovesLedger(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewMemoryGateway()
	trainers := NewTrainerRepository(gw)
	history := NewStatsHistoryRepository(gw)

	require.NoError(t, trainers.SaveTrainer(ctx, sampleTrainer()))
	require.NoError(t, history.SaveEntry(ctx, "ash_ketchum_10", models.StatsHistoryEntry{IssueID: "issue1", QuestNumber: 1, Answer: "peblaff"}))

	require.NoError(t, trainers.DeleteTrainer(ctx, "ash_ketchum_10"))

	exists, err := trainers.Exists(ctx, "ash_ketchum_10")
	require.NoError(t, err)
	assert.False(t, exists)
	entries, err := history.ListEntries(ctx, "ash_ketchum_10")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStatsHistoryOverwritesPerQuest(t *testing.T) {
	ctx := context.Background()
	repo := NewStatsHistoryRepository(gateway.NewMemoryGateway())

	first := models.StatsHistoryEntry{IssueID: "issue1", QuestNumber: 2, NewStats: models.Stats{Curiosity: 3}, Answer: "africa", RecordedAt: now}
	second := models.StatsHistoryEntry{IssueID: "issue1", QuestNumber: 2, NewStats: models.Stats{Curiosity: 6}, Answer: "antarctica", RecordedAt: now.Add(time.Minute)}
	require.NoError(t, repo.SaveEntry(ctx, "ash_ketchum_10", first))
	require.NoError(t, repo.SaveEntry(ctx, "ash_ketchum_10", second))
	require.NoError(t, repo.SaveEntry(ctx, "ash_ketchum_10", models.StatsHistoryEntry{IssueID: "issue1", QuestNumber: 3}))

	entries, err := repo.ListEntries(ctx, "ash_ketchum_10")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second, entries[0])
	assert.Equal(t, 3, entries[1].QuestNumber)
}

func TestAttemptsAccumulate(t *testing.T) {
	ctx := context.Background()
	repo := NewAttemptRepository(gateway.NewMemoryGateway())

	base := models.Attempt{TrainerID: "ash_ketchum_10", IssueID: "issue1", QuestNumber: 2, Answer: "africa", SubmittedAt: now}
	retry := base
	retry.Answer = "antarctica"
	retry.IsCorrect = true
	retry.SubmittedAt = now.Add(time.Second)
	other := models.Attempt{TrainerID: "misty_waterflower_12", IssueID: "issue1", QuestNumber: 1, SubmittedAt: now}

	for _, a := range []models.Attempt{base, retry, other} {
		require.NoError(t, repo.SaveAttempt(ctx, a))
	}

	all, err := repo.ListAttempts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	ash, err := repo.ListTrainerAttempts(ctx, "ash_ketchum_10", "issue1")
	require.NoError(t, err)
	require.Len(t, ash, 2)
	assert.Equal(t, "africa", ash[0].Answer)
	assert.False(t, ash[0].IsCorrect)
	assert.Equal(t, models.AttemptID("ash_ketchum_10", "issue1", 2, now), ash[0].ID)
	assert.True(t, ash[1].IsCorrect)

	none, err := repo.ListTrainerAttempts(ctx, "ash_ketchum_10", "issue2")
	require.NoError(t, err)
	assert.Empty(t, none)
}
