package repository

import (
	"context"
	"errors"
	"fmt"

	"kowaiquest/internal/gateway"
	"kowaiquest/internal/models"
)

// TrainerRepository handles trainer documents
type TrainerRepository struct {
	gw gateway.Gateway
}

// NewTrainerRepository creates a new trainer repository
func NewTrainerRepository(gw gateway.Gateway) *TrainerRepository {
	return &TrainerRepository{gw: gw}
}

// GetTrainer retrieves a trainer by id. Returns nil, nil when absent.
func (r *TrainerRepository) GetTrainer(ctx context.Context, trainerID string) (*models.Trainer, error) {
	doc, err := r.gw.Get(ctx, gateway.TrainersCollection, trainerID)
	if errors.Is(err, gateway.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trainer: %w", err)
	}

	trainer := &models.Trainer{}
	if err := gateway.Decode(doc, trainer); err != nil {
		return nil, fmt.Errorf("failed to decode trainer %s: %w", trainerID, err)
	}
	if trainer.ID == "" {
		trainer.ID = trainerID
	}
	return trainer, nil
}

// Exists reports whether a trainer document is present
func (r *TrainerRepository) Exists(ctx context.Context, trainerID string) (bool, error) {
	_, err := r.gw.Get(ctx, gateway.TrainersCollection, trainerID)
	if errors.Is(err, gateway.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check trainer: %w", err)
	}
	return true, nil
}

// SaveTrainer writes the full trainer document
func (r *TrainerRepository) SaveTrainer(ctx context.Context, trainer *models.Trainer) error {
	doc, err := gateway.Encode(trainer)
	if err != nil {
		return err
	}
	if err := r.gw.Set(ctx, gateway.TrainersCollection, trainer.ID, doc); err != nil {
		return fmt.Errorf("failed to save trainer: %w", err)
	}
	return nil
}

// UpdateTrainer merges a field patch into the trainer document in one write
func (r *TrainerRepository) UpdateTrainer(ctx context.Context, trainerID string, patch map[string]any) error {
	if err := r.gw.Update(ctx, gateway.TrainersCollection, trainerID, patch); err != nil {
		return fmt.Errorf("failed to update trainer: %w", err)
	}
	return nil
}

// DeleteTrainer removes the trainer document and its stats ledger
func (r *TrainerRepository) DeleteTrainer(ctx context.Context, trainerID string) error {
	history := gateway.SubCollection(gateway.TrainersCollection, trainerID, gateway.StatsHistoryCollection)
	entries, err := r.gw.List(ctx, history)
	if err != nil {
		return fmt.Errorf("failed to list stats history: %w", err)
	}
	for _, e := range entries {
		if err := r.gw.Delete(ctx, history, e.ID); err != nil {
			return fmt.Errorf("failed to delete stats history: %w", err)
		}
	}
	if err := r.gw.Delete(ctx, gateway.TrainersCollection, trainerID); err != nil {
		return fmt.Errorf("failed to delete trainer: %w", err)
	}
	return nil
}

// ListTrainers retrieves every trainer ordered by id
func (r *TrainerRepository) ListTrainers(ctx context.Context) ([]models.Trainer, error) {
	entries, err := r.gw.List(ctx, gateway.TrainersCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainers: %w", err)
	}

	trainers := make([]models.Trainer, 0, len(entries))
	for _, e := range entries {
		var t models.Trainer
		if err := gateway.Decode(e.Data, &t); err != nil {
			return nil, fmt.Errorf("failed to decode trainer %s: %w", e.ID, err)
		}
		trainers = append(trainers, t)
	}
	return trainers, nil
}
