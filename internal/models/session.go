package models

import (
	"strings"
	"time"
)

// Session is a device-local record of a trainer that has signed in here
type Session struct {
	TrainerID string    `json:"trainerId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	LastLogin time.Time `json:"lastLogin"`
}

// SessionFromTrainer builds the session entry for a trainer
func SessionFromTrainer(t *Trainer) Session {
	return Session{
		TrainerID: t.ID,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		LastLogin: t.LastLogin,
	}
}

// DisplayName returns "First Last"
func (s Session) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
