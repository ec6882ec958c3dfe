// Package session keeps the device-local list of trainers that have signed in
// and which of them is active.
package session

import (
	"context"

	"kowaiquest/internal/models"
)

// Directory is the set of known sessions plus the active trainer id
type Directory struct {
	ActiveTrainerID string
	Sessions        []models.Session
}

// AddOrUpdate upserts a session by trainer id and makes it active
func (d *Directory) AddOrUpdate(s models.Session) {
	d.ActiveTrainerID = s.TrainerID
	for i := range d.Sessions {
		if d.Sessions[i].TrainerID == s.TrainerID {
			d.Sessions[i] = s
			return
		}
	}
	d.Sessions = append(d.Sessions, s)
}

// Remove deletes a session. When it was active, the first remaining session
// becomes active, or none. Reports whether anything was removed.
func (d *Directory) Remove(trainerID string) bool {
	idx := d.index(trainerID)
	if idx < 0 {
		return false
	}
	d.Sessions = append(d.Sessions[:idx], d.Sessions[idx+1:]...)
	if d.ActiveTrainerID == trainerID {
		d.ActiveTrainerID = ""
		if len(d.Sessions) > 0 {
			d.ActiveTrainerID = d.Sessions[0].TrainerID
		}
	}
	return true
}

// Prune drops sessions without choosing a replacement: if the active one is
// dropped, no trainer is active
func (d *Directory) Prune(trainerIDs ...string) {
	for _, id := range trainerIDs {
		if idx := d.index(id); idx >= 0 {
			d.Sessions = append(d.Sessions[:idx], d.Sessions[idx+1:]...)
		}
		if d.ActiveTrainerID == id {
			d.ActiveTrainerID = ""
		}
	}
}

// Logout clears the active trainer and keeps every session
func (d *Directory) Logout() {
	d.ActiveTrainerID = ""
}

// Get finds a session by trainer id
func (d *Directory) Get(trainerID string) (models.Session, bool) {
	if idx := d.index(trainerID); idx >= 0 {
		return d.Sessions[idx], true
	}
	return models.Session{}, false
}

// Active returns the active session, if any
func (d *Directory) Active() (models.Session, bool) {
	if d.ActiveTrainerID == "" {
		return models.Session{}, false
	}
	return d.Get(d.ActiveTrainerID)
}

func (d *Directory) index(trainerID string) int {
	for i := range d.Sessions {
		if d.Sessions[i].TrainerID == trainerID {
			return i
		}
	}
	return -1
}

// ExistenceChecker reports whether a trainer record still exists remotely
type ExistenceChecker interface {
	Exists(ctx context.Context, trainerID string) (bool, error)
}

// ReconcileReport lists what Reconcile did
type ReconcileReport struct {
	Pruned []string
	// Unchecked maps trainer ids whose existence check failed to the error; they are kept
	Unchecked map[string]error
}

// Reconcile drops every session whose trainer no longer exists. A failed
// check keeps the session.
func Reconcile(ctx context.Context, d *Directory, checker ExistenceChecker) ReconcileReport {
	var report ReconcileReport
	ids := make([]string, len(d.Sessions))
	for i, s := range d.Sessions {
		ids[i] = s.TrainerID
	}

	for _, id := range ids {
		exists, err := checker.Exists(ctx, id)
		if err != nil {
			if report.Unchecked == nil {
				report.Unchecked = make(map[string]error)
			}
			report.Unchecked[id] = err
			continue
		}
		if !exists {
			report.Pruned = append(report.Pruned, id)
		}
	}
	d.Prune(report.Pruned...)
	return report
}
