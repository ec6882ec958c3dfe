// Package progression holds the pure state transitions of a trainer.
// Every function returns the next trainer state plus the field patch that
// persists it in one document update; the input trainer is never modified.
package progression

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kowaiquest/internal/models"
)

var (
	ErrInvalidProgression = errors.New("quest completed out of sequence")
	ErrNegativeDelta      = errors.New("stat delta must not be negative")
	ErrInvalidQuest       = errors.New("invalid quest number")
	ErrNoCurrentIssue     = errors.New("trainer has no current issue")
)

// Patch maps top-level or dotted field paths to new values
type Patch map[string]any

// Change is the outcome of a transition. A Change with an empty Patch is a no-op.
type Change struct {
	Trainer *models.Trainer
	Patch   Patch
	// History is set when the transition should write a stats ledger entry
	History *models.StatsHistoryEntry
}

// Changed reports whether anything needs persisting
func (c Change) Changed() bool {
	return len(c.Patch) > 0
}

// Completion describes one accepted quest submission
type Completion struct {
	Delta       models.Stats
	QuestNumber int
	Answer      string
	// QuestCount is the number of quests in the current issue
	QuestCount int
	// Strict requires QuestNumber to be exactly one past the watermark
	Strict bool
}

// NewTrainer seeds a trainer record at the zero state of firstIssue
func NewTrainer(firstName, lastName string, age int, firstIssue string, starter []string, now time.Time) *models.Trainer {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	return &models.Trainer{
		ID:               models.TrainerID(firstName, lastName, age),
		FirstName:        firstName,
		LastName:         lastName,
		Age:              age,
		OwnedKowai:       []string{},
		EncounteredKowai: append([]string{}, starter...),
		CurrentIssue:     firstIssue,
		IssueProgress:    map[string]models.IssueProgress{firstIssue: {}},
		CreatedAt:        now,
		LastLogin:        now,
		Provider:         models.ProviderLocal,
	}
}

// Touch stamps lastLogin
func Touch(t *models.Trainer, now time.Time) Change {
	next := t.Clone()
	next.LastLogin = now
	return Change{Trainer: next, Patch: Patch{"lastLogin": now}}
}

// RecordQuestCompletion adds the stat delta and advances the watermark of the
// current issue. The watermark never moves backwards. Unless c.Strict is set,
// skipping ahead is accepted.
func RecordQuestCompletion(t *models.Trainer, c Completion, now time.Time) (Change, error) {
	issue := t.CurrentIssue
	if issue == "" {
		return Change{}, ErrNoCurrentIssue
	}
	if err := checkQuest(c.QuestNumber, c.QuestCount); err != nil {
		return Change{}, err
	}
	if c.Delta.HasNegative() {
		return Change{}, fmt.Errorf("%w: %+v", ErrNegativeDelta, c.Delta)
	}
	progress := t.Progress(issue)
	if c.Strict {
		if err := checkNext(progress, c.QuestNumber); err != nil {
			return Change{}, err
		}
	}

	next := t.Clone()
	prevStats := t.Stats
	next.Stats = prevStats.Add(c.Delta)
	next.LastLogin = now

	if c.QuestNumber > progress.LastCompletedQuest {
		progress.LastCompletedQuest = c.QuestNumber
	}
	patch := Patch{
		"stats":     next.Stats,
		"lastLogin": now,
	}
	patch[progressField(issue, "lastCompletedQuest")] = progress.LastCompletedQuest
	if c.QuestNumber == c.QuestCount {
		completed := now
		progress.CompletedAt = &completed
		patch[progressField(issue, "completedAt")] = now
	}
	setProgress(next, issue, progress)

	change := Change{Trainer: next, Patch: patch}
	if c.Answer != "" {
		change.History = &models.StatsHistoryEntry{
			IssueID:     issue,
			QuestNumber: c.QuestNumber,
			PrevStats:   prevStats,
			NewStats:    next.Stats,
			Answer:      c.Answer,
			RecordedAt:  now,
		}
	}
	return change, nil
}

// UpdateQuestProgress is the strict watermark step: questNumber must be
// exactly one past the current watermark. Stats are not touched.
func UpdateQuestProgress(t *models.Trainer, questNumber, questCount int, now time.Time) (Change, error) {
	issue := t.CurrentIssue
	if issue == "" {
		return Change{}, ErrNoCurrentIssue
	}
	if err := checkQuest(questNumber, questCount); err != nil {
		return Change{}, err
	}
	progress := t.Progress(issue)
	if err := checkNext(progress, questNumber); err != nil {
		return Change{}, err
	}

	next := t.Clone()
	next.LastLogin = now
	progress.LastCompletedQuest = questNumber
	patch := Patch{"lastLogin": now}
	patch[progressField(issue, "lastCompletedQuest")] = questNumber
	if questNumber == questCount {
		completed := now
		progress.CompletedAt = &completed
		patch[progressField(issue, "completedAt")] = now
	}
	setProgress(next, issue, progress)
	return Change{Trainer: next, Patch: patch}, nil
}

// StartIssue stamps startedAt for the current issue the first time, and only
// while no quest has been completed. Otherwise it is a no-op.
func StartIssue(t *models.Trainer, now time.Time) (Change, error) {
	issue := t.CurrentIssue
	if issue == "" {
		return Change{}, ErrNoCurrentIssue
	}
	progress := t.Progress(issue)
	if progress.StartedAt != nil || progress.LastCompletedQuest != 0 {
		return Change{Trainer: t.Clone()}, nil
	}

	next := t.Clone()
	next.LastLogin = now
	started := now
	progress.StartedAt = &started
	setProgress(next, issue, progress)
	patch := Patch{"lastLogin": now}
	patch[progressField(issue, "startedAt")] = now
	return Change{Trainer: next, Patch: patch}, nil
}

// SwitchToIssue makes issueID current, creating a zero progress record when
// the trainer has none for it
func SwitchToIssue(t *models.Trainer, issueID string, now time.Time) Change {
	next := t.Clone()
	next.CurrentIssue = issueID
	next.LastLogin = now
	patch := Patch{
		"currentIssue": issueID,
		"lastLogin":    now,
	}
	if !t.HasProgress(issueID) {
		setProgress(next, issueID, models.IssueProgress{})
		patch["issueProgress."+issueID] = models.IssueProgress{}
	}
	return Change{Trainer: next, Patch: patch}
}

// AddOwnedKowai appends a kowai to the owned set unless already present
func AddOwnedKowai(t *models.Trainer, kowaiID string, now time.Time) Change {
	if t.OwnsKowai(kowaiID) {
		return Change{Trainer: t.Clone()}
	}
	next := t.Clone()
	next.OwnedKowai = append(next.OwnedKowai, kowaiID)
	next.LastLogin = now
	return Change{Trainer: next, Patch: Patch{
		"ownedKowai": next.OwnedKowai,
		"lastLogin":  now,
	}}
}

// AddEncounteredKowai appends a kowai to the encountered set unless already present
func AddEncounteredKowai(t *models.Trainer, kowaiID string, now time.Time) Change {
	if t.HasEncountered(kowaiID) {
		return Change{Trainer: t.Clone()}
	}
	next := t.Clone()
	next.EncounteredKowai = append(next.EncounteredKowai, kowaiID)
	next.LastLogin = now
	return Change{Trainer: next, Patch: Patch{
		"encounteredKowai": next.EncounteredKowai,
		"lastLogin":        now,
	}}
}

func checkQuest(questNumber, questCount int) error {
	if questNumber < 1 || questNumber > questCount {
		return fmt.Errorf("%w: %d (issue has %d quests)", ErrInvalidQuest, questNumber, questCount)
	}
	return nil
}

func checkNext(progress models.IssueProgress, questNumber int) error {
	if questNumber != progress.LastCompletedQuest+1 {
		return fmt.Errorf("%w: quest %d after %d", ErrInvalidProgression, questNumber, progress.LastCompletedQuest)
	}
	return nil
}

func progressField(issueID, field string) string {
	return "issueProgress." + issueID + "." + field
}

func setProgress(t *models.Trainer, issueID string, p models.IssueProgress) {
	if t.IssueProgress == nil {
		t.IssueProgress = make(map[string]models.IssueProgress)
	}
	t.IssueProgress[issueID] = p
}
