package repository

import (
	"context"
	"fmt"

	"kowaiquest/internal/gateway"
	"kowaiquest/internal/models"
)

// AttemptRepository handles the attempt log
type AttemptRepository struct {
	gw gateway.Gateway
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(gw gateway.Gateway) *AttemptRepository {
	return &AttemptRepository{gw: gw}
}

// SaveAttempt writes one attempt. Ids embed the submission time so retries never overwrite.
func (r *AttemptRepository) SaveAttempt(ctx context.Context, attempt models.Attempt) error {
	if attempt.ID == "" {
		attempt.ID = models.AttemptID(attempt.TrainerID, attempt.IssueID, attempt.QuestNumber, attempt.SubmittedAt)
	}
	doc, err := gateway.Encode(attempt)
	if err != nil {
		return err
	}
	if err := r.gw.Set(ctx, gateway.AttemptsCollection, attempt.ID, doc); err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

// ListAttempts retrieves every attempt ordered by id
func (r *AttemptRepository) ListAttempts(ctx context.Context) ([]models.Attempt, error) {
	entries, err := r.gw.List(ctx, gateway.AttemptsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	attempts := make([]models.Attempt, 0, len(entries))
	for _, e := range entries {
		var a models.Attempt
		if err := gateway.Decode(e.Data, &a); err != nil {
			return nil, fmt.Errorf("failed to decode attempt %s: %w", e.ID, err)
		}
		attempts = append(attempts, a)
	}
	return attempts, nil
}

// ListTrainerAttempts retrieves one trainer's attempts, optionally narrowed to an issue
func (r *AttemptRepository) ListTrainerAttempts(ctx context.Context, trainerID, issueID string) ([]models.Attempt, error) {
	all, err := r.ListAttempts(ctx)
	if err != nil {
		return nil, err
	}
	var out []models.Attempt
	for _, a := range all {
		if a.TrainerID != trainerID {
			continue
		}
		if issueID != "" && a.IssueID != issueID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
