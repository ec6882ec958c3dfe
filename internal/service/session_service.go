package service

import (
	"context"
	"errors"
	"fmt"

	"kowaiquest/internal/logger"
	"kowaiquest/internal/models"
	"kowaiquest/internal/session"
	"kowaiquest/internal/telemetry"
)

// SessionService owns the device-local session directory
type SessionService struct {
	store   *session.FileStore
	dir     *session.Directory
	checker session.ExistenceChecker
	sink    telemetry.Sink
	log     *logger.Logger
	notice  error
}

// NewSessionService loads the session file. An unreadable or newer file is
// reported through Notice and an empty directory is used instead.
func NewSessionService(store *session.FileStore, checker session.ExistenceChecker, sink telemetry.Sink, log *logger.Logger) (*SessionService, error) {
	log = log.With("service", "SessionService")
	dir, err := store.Load()
	var notice error
	switch {
	case err == nil:
	case errors.Is(err, session.ErrUnsupportedVersion), errors.Is(err, session.ErrCorrupt):
		log.Warn("ignoring session file", "path", store.Path(), "error", err)
		notice = err
	default:
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	return &SessionService{
		store:   store,
		dir:     dir,
		checker: checker,
		sink:    sink,
		log:     log,
		notice:  notice,
	}, nil
}

// Notice returns the problem found while loading the session file, if any
func (s *SessionService) Notice() error {
	return s.notice
}

// Sessions returns a copy of every known session
func (s *SessionService) Sessions() []models.Session {
	return append([]models.Session(nil), s.dir.Sessions...)
}

// ActiveID returns the active trainer id, empty when none
func (s *SessionService) ActiveID() string {
	return s.dir.ActiveTrainerID
}

// Activate records the trainer's session and makes it active
func (s *SessionService) Activate(t *models.Trainer) error {
	s.dir.AddOrUpdate(models.SessionFromTrainer(t))
	return s.save()
}

// Remove deletes a session and returns the new active id
func (s *SessionService) Remove(trainerID string) (string, error) {
	if !s.dir.Remove(trainerID) {
		return s.dir.ActiveTrainerID, fmt.Errorf("%w: no session for %s", ErrNotFound, trainerID)
	}
	return s.dir.ActiveTrainerID, s.save()
}

// Logout clears the active trainer and keeps every session
func (s *SessionService) Logout() error {
	s.dir.Logout()
	return s.save()
}

// Prune drops a session whose trainer is gone without activating another
func (s *SessionService) Prune(ctx context.Context, trainerID string) error {
	s.dir.Prune(trainerID)
	s.sink.Track(ctx, telemetry.NewEvent(telemetry.SessionPruned, trainerID, nil))
	return s.save()
}

// Reconcile drops sessions whose trainer record no longer exists
func (s *SessionService) Reconcile(ctx context.Context) (session.ReconcileReport, error) {
	report := session.Reconcile(ctx, s.dir, s.checker)
	for id, err := range report.Unchecked {
		s.log.Warn("could not verify session, keeping it", "trainer_id", id, "error", err)
	}
	if len(report.Pruned) == 0 {
		return report, nil
	}
	for _, id := range report.Pruned {
		s.log.Info("pruned stale session", "trainer_id", id)
		s.sink.Track(ctx, telemetry.NewEvent(telemetry.SessionPruned, id, nil))
	}
	return report, s.save()
}

func (s *SessionService) save() error {
	err := s.store.Save(s.dir)
	if errors.Is(err, session.ErrUnsupportedVersion) {
		// a newer release owns the file; keep sessions in memory only
		s.log.Warn("session file not updated", "path", s.store.Path(), "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}
