package service

import (
	"sync"

	"kowaiquest/internal/models"
)

// TrainerStore holds the in-memory copy of the active trainer. Reads return
// clones so callers cannot change it behind the services' backs.
type TrainerStore struct {
	mu      sync.RWMutex
	current *models.Trainer
}

// NewTrainerStore creates an empty store
func NewTrainerStore() *TrainerStore {
	return &TrainerStore{}
}

// Current returns the active trainer or ErrNoActiveTrainer
func (s *TrainerStore) Current() (*models.Trainer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoActiveTrainer
	}
	return s.current.Clone(), nil
}

func (s *TrainerStore) set(t *models.Trainer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = t.Clone()
}

func (s *TrainerStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

func (s *TrainerStore) activeID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.ID
}
