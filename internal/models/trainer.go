package models

import (
	"strconv"
	"strings"
	"time"
)

// ProviderLocal marks trainers created through name-and-age signup
const ProviderLocal = "local"

// Stats is the four-attribute progress vector
type Stats struct {
	Bravery   int `json:"bravery"`
	Wisdom    int `json:"wisdom"`
	Curiosity int `json:"curiosity"`
	Empathy   int `json:"empathy"`
}

// Add returns the component-wise sum
func (s Stats) Add(delta Stats) Stats {
	return Stats{
		Bravery:   s.Bravery + delta.Bravery,
		Wisdom:    s.Wisdom + delta.Wisdom,
		Curiosity: s.Curiosity + delta.Curiosity,
		Empathy:   s.Empathy + delta.Empathy,
	}
}

// HasNegative reports whether any component is below zero
func (s Stats) HasNegative() bool {
	return s.Bravery < 0 || s.Wisdom < 0 || s.Curiosity < 0 || s.Empathy < 0
}

// IsZero reports whether every component is zero
func (s Stats) IsZero() bool {
	return s == Stats{}
}

// Total sums all four attributes
func (s Stats) Total() int {
	return s.Bravery + s.Wisdom + s.Curiosity + s.Empathy
}

// IssueProgress tracks a trainer's position inside one issue
type IssueProgress struct {
	LastCompletedQuest int        `json:"lastCompletedQuest"`
	StartedAt          *time.Time `json:"startedAt"`
	CompletedAt        *time.Time `json:"completedAt"`
}

// Trainer is a player profile and the root of all progression state
type Trainer struct {
	ID               string                   `json:"uid"`
	FirstName        string                   `json:"firstName"`
	LastName         string                   `json:"lastName"`
	Age              int                      `json:"age"`
	Stats            Stats                    `json:"stats"`
	OwnedKowai       []string                 `json:"ownedKowai"`
	EncounteredKowai []string                 `json:"encounteredKowai"`
	CurrentIssue     string                   `json:"currentIssue"`
	IssueProgress    map[string]IssueProgress `json:"issueProgress"`
	CreatedAt        time.Time                `json:"createdAt"`
	LastLogin        time.Time                `json:"lastLogin"`
	Provider         string                   `json:"provider"`
}

// TrainerID derives the stable trainer id from name and age.
// Two children with the same name and age share an id.
func TrainerID(firstName, lastName string, age int) string {
	return strings.ToLower(strings.TrimSpace(firstName)) + "_" +
		strings.ToLower(strings.TrimSpace(lastName)) + "_" +
		strconv.Itoa(age)
}

// DisplayName returns "First Last"
func (t *Trainer) DisplayName() string {
	return strings.TrimSpace(t.FirstName + " " + t.LastName)
}

// Progress returns the progress record for an issue, or the zero record
func (t *Trainer) Progress(issueID string) IssueProgress {
	return t.IssueProgress[issueID]
}

// HasProgress reports whether a progress record exists for the issue
func (t *Trainer) HasProgress(issueID string) bool {
	_, ok := t.IssueProgress[issueID]
	return ok
}

// OwnsKowai reports whether the kowai is in the owned set
func (t *Trainer) OwnsKowai(id string) bool {
	return contains(t.OwnedKowai, id)
}

// HasEncountered reports whether the kowai is in the encountered set
func (t *Trainer) HasEncountered(id string) bool {
	return contains(t.EncounteredKowai, id)
}

// Clone returns a deep copy so transitions never alias the previous state
func (t *Trainer) Clone() *Trainer {
	if t == nil {
		return nil
	}
	c := *t
	c.OwnedKowai = copyStrings(t.OwnedKowai)
	c.EncounteredKowai = copyStrings(t.EncounteredKowai)
	if t.IssueProgress != nil {
		c.IssueProgress = make(map[string]IssueProgress, len(t.IssueProgress))
		for k, v := range t.IssueProgress {
			c.IssueProgress[k] = IssueProgress{
				LastCompletedQuest: v.LastCompletedQuest,
				StartedAt:          copyTime(v.StartedAt),
				CompletedAt:        copyTime(v.CompletedAt),
			}
		}
	}
	return &c
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// copyStrings keeps nil and empty slices distinct so clones serialise identically
func copyStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
