package models

import (
	"strconv"
	"time"
)

// Answer types recorded with attempts
const (
	AnswerTypeText           = "text"
	AnswerTypeMultipleChoice = "multiple_choice"
	AnswerTypeKowaiSelection = "kowai_selection"
	AnswerTypeCoordinate     = "coordinate"
	AnswerTypeScenarioChoice = "scenario_choice"
	AnswerTypeRoute          = "route"
)

// Attempt is one quest submission, correct or not
type Attempt struct {
	ID             string    `json:"id"`
	TrainerID      string    `json:"trainerId"`
	IssueID        string    `json:"issueId"`
	QuestNumber    int       `json:"questNumber"`
	Answer         string    `json:"answer"`
	AnswerType     string    `json:"answerType"`
	IsCorrect      bool      `json:"isCorrect"`
	QuestStartTime time.Time `json:"questStartTime"`
	SubmittedAt    time.Time `json:"submittedAt"`
	TimeSpentMs    int64     `json:"timeSpent"`
	StatsBefore    Stats     `json:"statsBefore"`
	StatsAfter     Stats     `json:"statsAfter"`
}

// AttemptID keys an attempt by trainer, issue, quest and submission time in milliseconds
func AttemptID(trainerID, issueID string, questNumber int, submittedAt time.Time) string {
	return trainerID + "_" + issueID + "_" + strconv.Itoa(questNumber) + "_" + strconv.FormatInt(submittedAt.UnixMilli(), 10)
}

// TimeSpent returns the elapsed time between quest start and submission, never negative
func TimeSpent(questStart, submittedAt time.Time) time.Duration {
	if questStart.IsZero() || submittedAt.Before(questStart) {
		return 0
	}
	return submittedAt.Sub(questStart)
}
