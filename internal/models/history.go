package models

import (
	"strconv"
	"time"
)

// StatsHistoryEntry records the stat change for one (issue, quest) pair.
// It is an audit trail and never used to rebuild Trainer.Stats.
type StatsHistoryEntry struct {
	IssueID     string    `json:"issueId"`
	QuestNumber int       `json:"questNumber"`
	PrevStats   Stats     `json:"prevStats"`
	NewStats    Stats     `json:"newStats"`
	Answer      string    `json:"answer"`
	RecordedAt  time.Time `json:"timestamp"`
}

// StatsHistoryKey is the document id; resubmitting a quest overwrites its entry
func StatsHistoryKey(issueID string, questNumber int) string {
	return issueID + "_" + strconv.Itoa(questNumber)
}

// Key returns the document id for this entry
func (e StatsHistoryEntry) Key() string {
	return StatsHistoryKey(e.IssueID, e.QuestNumber)
}
