package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kowaiquest/internal/catalog"
	"kowaiquest/internal/logger"
	"kowaiquest/internal/models"
	"kowaiquest/internal/progression"
	"kowaiquest/internal/repository"
	"kowaiquest/internal/session"
	"kowaiquest/internal/telemetry"
	"kowaiquest/internal/validation"
)

// TrainerService resolves identities and keeps the active trainer loaded
type TrainerService struct {
	trainers *repository.TrainerRepository
	sessions *SessionService
	catalog  *catalog.Catalog
	store    *TrainerStore
	sink     telemetry.Sink
	log      *logger.Logger
	now      func() time.Time
}

// NewTrainerService creates a new trainer service
func NewTrainerService(
	trainers *repository.TrainerRepository,
	sessions *SessionService,
	cat *catalog.Catalog,
	store *TrainerStore,
	sink telemetry.Sink,
	log *logger.Logger,
) *TrainerService {
	return &TrainerService{
		trainers: trainers,
		sessions: sessions,
		catalog:  cat,
		store:    store,
		sink:     sink,
		log:      log.With("service", "TrainerService"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source
func (s *TrainerService) SetClock(now func() time.Time) {
	s.now = now
}

// Load fetches a trainer record without activating it
func (s *TrainerService) Load(ctx context.Context, trainerID string) (*models.Trainer, error) {
	t, err := s.trainers.GetTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, trainerID)
	}
	return t, nil
}

// CreateNew seeds and saves a new trainer. When the derived id is taken the
// existing record is returned together with ErrAlreadyExists.
func (s *TrainerService) CreateNew(ctx context.Context, firstName, lastName string, age int) (*models.Trainer, error) {
	in := validation.SignupInput{FirstName: firstName, LastName: lastName, Age: age}
	if err := validation.ValidateSignup(&in); err != nil {
		return nil, err
	}

	id := models.TrainerID(in.FirstName, in.LastName, in.Age)
	existing, err := s.trainers.GetTrainer(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, ErrAlreadyExists
	}

	t := progression.NewTrainer(in.FirstName, in.LastName, in.Age, s.catalog.FirstIssue(), s.catalog.Starter(), s.now())
	if err := s.trainers.SaveTrainer(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Signup creates the trainer or, when the identity already exists, logs in
// to it. Either way the trainer becomes active.
func (s *TrainerService) Signup(ctx context.Context, firstName, lastName string, age int) (*models.Trainer, error) {
	t, err := s.CreateNew(ctx, firstName, lastName, age)
	if errors.Is(err, ErrAlreadyExists) {
		s.log.Info("trainer exists, logging in", "trainer_id", t.ID)
		return s.activate(ctx, t, telemetry.TrainerLoggedIn)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("trainer signed up", "trainer_id", t.ID)
	s.store.set(t)
	s.sink.Track(ctx, telemetry.NewEvent(telemetry.TrainerSignedUp, t.ID, map[string]any{"age": t.Age}))
	if err := s.sessions.Activate(t); err != nil {
		return t, err
	}
	return t, nil
}

// Login activates an existing trainer
func (s *TrainerService) Login(ctx context.Context, firstName, lastName string, age int) (*models.Trainer, error) {
	in := validation.SignupInput{FirstName: firstName, LastName: lastName, Age: age}
	if err := validation.ValidateSignup(&in); err != nil {
		return nil, err
	}
	t, err := s.Load(ctx, models.TrainerID(in.FirstName, in.LastName, in.Age))
	if err != nil {
		return nil, err
	}
	return s.activate(ctx, t, telemetry.TrainerLoggedIn)
}

// Switch activates the trainer of a known session. A session whose trainer
// is gone is pruned.
func (s *TrainerService) Switch(ctx context.Context, trainerID string) (*models.Trainer, error) {
	t, err := s.Load(ctx, trainerID)
	if errors.Is(err, ErrNotFound) {
		if pruneErr := s.sessions.Prune(ctx, trainerID); pruneErr != nil {
			s.log.Warn("failed to prune stale session", "trainer_id", trainerID, "error", pruneErr)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return s.activate(ctx, t, telemetry.TrainerSwitched)
}

// Logout clears the active trainer and keeps every session
func (s *TrainerService) Logout(ctx context.Context) error {
	id := s.store.activeID()
	s.store.clear()
	if id != "" {
		s.sink.Track(ctx, telemetry.NewEvent(telemetry.TrainerLoggedOut, id, nil))
	}
	return s.sessions.Logout()
}

// Remove forgets a session on this device. The trainer record is kept.
// Returns the id of the session that became active, if any.
func (s *TrainerService) Remove(ctx context.Context, trainerID string) (string, error) {
	next, err := s.sessions.Remove(trainerID)
	if errors.Is(err, ErrNotFound) {
		return next, err
	}
	if s.store.activeID() == trainerID {
		s.store.clear()
	}
	return next, err
}

// Current returns the active trainer
func (s *TrainerService) Current() (*models.Trainer, error) {
	return s.store.Current()
}

// Resume reconciles the session directory and loads the active trainer.
// It returns nil without error when no trainer is active.
func (s *TrainerService) Resume(ctx context.Context) (*models.Trainer, session.ReconcileReport, error) {
	report, err := s.sessions.Reconcile(ctx)
	if err != nil {
		return nil, report, err
	}

	id := s.sessions.ActiveID()
	if id == "" {
		return nil, report, nil
	}
	t, err := s.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		// deleted between reconcile and load
		if pruneErr := s.sessions.Prune(ctx, id); pruneErr != nil {
			return nil, report, pruneErr
		}
		report.Pruned = append(report.Pruned, id)
		return nil, report, nil
	}
	if err != nil {
		return nil, report, err
	}
	s.store.set(t)
	return t, report, nil
}

// Sessions lists the sessions known on this device
func (s *TrainerService) Sessions() []models.Session {
	return s.sessions.Sessions()
}

// DisplayName formats a session for selection lists
func DisplayName(sess models.Session) string {
	return sess.DisplayName()
}

// activate stamps lastLogin and makes t the active trainer. A failed stamp
// still activates the trainer and is reported as a PersistenceError.
func (s *TrainerService) activate(ctx context.Context, t *models.Trainer, event string) (*models.Trainer, error) {
	change := progression.Touch(t, s.now())
	s.store.set(change.Trainer)
	s.sink.Track(ctx, telemetry.NewEvent(event, t.ID, nil))

	var persistErr error
	if err := s.trainers.UpdateTrainer(ctx, t.ID, change.Patch); err != nil {
		s.sink.Track(ctx, telemetry.NewEvent(telemetry.FailedEvent("Login"), t.ID, map[string]any{"error": err.Error()}))
		s.log.Warn("failed to stamp last login", "trainer_id", t.ID, "error", err)
		persistErr = &PersistenceError{Op: "last login", Err: err}
	}
	if err := s.sessions.Activate(change.Trainer); err != nil {
		return change.Trainer, errors.Join(persistErr, err)
	}
	return change.Trainer, persistErr
}
