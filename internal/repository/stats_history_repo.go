package repository

import (
	"context"
	"fmt"

	"kowaiquest/internal/gateway"
	"kowaiquest/internal/models"
)

// StatsHistoryRepository handles the per-trainer stats ledger
type StatsHistoryRepository struct {
	gw gateway.Gateway
}

// NewStatsHistoryRepository creates a new stats history repository
func NewStatsHistoryRepository(gw gateway.Gateway) *StatsHistoryRepository {
	return &StatsHistoryRepository{gw: gw}
}

func historyCollection(trainerID string) string {
	return gateway.SubCollection(gateway.TrainersCollection, trainerID, gateway.StatsHistoryCollection)
}

// SaveEntry writes the entry keyed by issue and quest, replacing any earlier entry for that quest
func (r *StatsHistoryRepository) SaveEntry(ctx context.Context, trainerID string, entry models.StatsHistoryEntry) error {
	doc, err := gateway.Encode(entry)
	if err != nil {
		return err
	}
	if err := r.gw.Set(ctx, historyCollection(trainerID), entry.Key(), doc); err != nil {
		return fmt.Errorf("failed to save stats history: %w", err)
	}
	return nil
}

// ListEntries retrieves a trainer's ledger ordered by key
func (r *StatsHistoryRepository) ListEntries(ctx context.Context, trainerID string) ([]models.StatsHistoryEntry, error) {
	entries, err := r.gw.List(ctx, historyCollection(trainerID))
	if err != nil {
		return nil, fmt.Errorf("failed to list stats history: %w", err)
	}

	out := make([]models.StatsHistoryEntry, 0, len(entries))
	for _, e := range entries {
		var h models.StatsHistoryEntry
		if err := gateway.Decode(e.Data, &h); err != nil {
			return nil, fmt.Errorf("failed to decode stats history %s: %w", e.ID, err)
		}
		out = append(out, h)
	}
	return out, nil
}
