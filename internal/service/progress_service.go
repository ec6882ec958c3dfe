package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kowaiquest/internal/catalog"
	"kowaiquest/internal/logger"
	"kowaiquest/internal/models"
	"kowaiquest/internal/progression"
	"kowaiquest/internal/repository"
	"kowaiquest/internal/route"
	"kowaiquest/internal/telemetry"
	"kowaiquest/internal/validation"
)

// RouteSeparator joins route coordinates in stored answers
const RouteSeparator = "->"

// ProgressService applies quest progression to the active trainer.
//
// Every mutation is computed by the progression package, applied to the
// TrainerStore, and then written with a single gateway call. A failed write
// is reported as a *PersistenceError but the in-memory state is kept.
type ProgressService struct {
	trainers *repository.TrainerRepository
	history  *repository.StatsHistoryRepository
	attempts *repository.AttemptRepository
	catalog  *catalog.Catalog
	store    *TrainerStore
	sink     telemetry.Sink
	log      *logger.Logger
	now      func() time.Time
	strict   bool
}

// NewProgressService creates a new progress service. strict applies the
// sequencing check to RecordQuestCompletion as well.
func NewProgressService(
	trainers *repository.TrainerRepository,
	history *repository.StatsHistoryRepository,
	attempts *repository.AttemptRepository,
	cat *catalog.Catalog,
	store *TrainerStore,
	sink telemetry.Sink,
	log *logger.Logger,
	strict bool,
) *ProgressService {
	return &ProgressService{
		trainers: trainers,
		history:  history,
		attempts: attempts,
		catalog:  cat,
		store:    store,
		sink:     sink,
		log:      log.With("service", "ProgressService"),
		now:      func() time.Time { return time.Now().UTC() },
		strict:   strict,
	}
}

// SetClock replaces the time source
func (s *ProgressService) SetClock(now func() time.Time) {
	s.now = now
}

// AttemptInput describes one submission to log
type AttemptInput struct {
	QuestNumber int
	Answer      string
	AnswerType  string
	IsCorrect   bool
	QuestStart  time.Time
	StatsBefore models.Stats
	StatsAfter  models.Stats
}

// Submission is the outcome of SubmitQuest or SubmitRoute
type Submission struct {
	Correct bool
	Reward  models.Stats
	Egg     string
	Trainer *models.Trainer
	Attempt models.Attempt
	// Route is set for route quests
	Route *route.Result
}

// RecordQuestCompletion adds delta to the trainer's stats and advances the
// current issue's watermark. A non-empty answer also writes the stats ledger
// entry for the quest.
func (s *ProgressService) RecordQuestCompletion(ctx context.Context, delta models.Stats, questNumber int, answer string) (*models.Trainer, error) {
	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	change, err := progression.RecordQuestCompletion(t, progression.Completion{
		Delta:       delta,
		QuestNumber: questNumber,
		Answer:      answer,
		QuestCount:  s.catalog.QuestCount(t.CurrentIssue),
		Strict:      s.strict,
	}, s.now())
	if err != nil {
		return nil, err
	}

	props := map[string]any{
		"issueId":     t.CurrentIssue,
		"questNumber": questNumber,
	}
	if err := s.commit(ctx, "Quest Completion", change, props); err != nil {
		return change.Trainer, err
	}
	if change.History != nil {
		if err := s.history.SaveEntry(ctx, t.ID, *change.History); err != nil {
			return change.Trainer, s.persistFailed(ctx, "Stats History", t.ID, err, props)
		}
	}

	s.sink.Track(ctx, telemetry.NewEvent(telemetry.QuestCompleted, t.ID, withStats(props, change.Trainer.Stats)))
	return change.Trainer, nil
}

// UpdateQuestProgress advances the watermark by exactly one without touching
// stats. Any other quest number fails with progression.ErrInvalidProgression.
func (s *ProgressService) UpdateQuestProgress(ctx context.Context, questNumber int) (*models.Trainer, error) {
	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	change, err := progression.UpdateQuestProgress(t, questNumber, s.catalog.QuestCount(t.CurrentIssue), s.now())
	if err != nil {
		return nil, err
	}
	props := map[string]any{"issueId": t.CurrentIssue, "questNumber": questNumber}
	return change.Trainer, s.commit(ctx, "Quest Progress", change, props)
}

// SaveAttempt logs one submission for the active trainer
func (s *ProgressService) SaveAttempt(ctx context.Context, in AttemptInput) (models.Attempt, error) {
	t, err := s.store.Current()
	if err != nil {
		return models.Attempt{}, err
	}

	submitted := s.now()
	attempt := models.Attempt{
		ID:             models.AttemptID(t.ID, t.CurrentIssue, in.QuestNumber, submitted),
		TrainerID:      t.ID,
		IssueID:        t.CurrentIssue,
		QuestNumber:    in.QuestNumber,
		Answer:         in.Answer,
		AnswerType:     in.AnswerType,
		IsCorrect:      in.IsCorrect,
		QuestStartTime: in.QuestStart,
		SubmittedAt:    submitted,
		TimeSpentMs:    models.TimeSpent(in.QuestStart, submitted).Milliseconds(),
		StatsBefore:    in.StatsBefore,
		StatsAfter:     in.StatsAfter,
	}
	if err := s.attempts.SaveAttempt(ctx, attempt); err != nil {
		return attempt, s.persistFailed(ctx, "Attempt", t.ID, err, map[string]any{
			"issueId":     attempt.IssueID,
			"questNumber": attempt.QuestNumber,
		})
	}
	return attempt, nil
}

// SubmitQuest judges an answer to a choice or exact quest of the current
// issue. Route quests accept the path joined with RouteSeparator or commas.
func (s *ProgressService) SubmitQuest(ctx context.Context, questNumber int, answer string, questStart time.Time) (*Submission, error) {
	in := validation.SubmissionInput{QuestNumber: questNumber, Answer: answer}
	if err := validation.ValidateSubmission(&in); err != nil {
		return nil, err
	}
	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	quest, err := s.catalog.Quest(t.CurrentIssue, questNumber)
	if err != nil {
		return nil, err
	}
	if quest.Kind == catalog.KindRoute {
		return s.SubmitRoute(ctx, questNumber, SplitRoute(in.Answer), questStart)
	}

	ev := quest.Evaluate(in.Answer)
	sub := &Submission{Correct: ev.Correct, Reward: ev.Reward, Egg: ev.Egg}
	return s.finish(ctx, t, quest, sub, in.Answer, questStart)
}

// SubmitRoute validates a claimed path for a route quest of the current issue
func (s *ProgressService) SubmitRoute(ctx context.Context, questNumber int, path []string, questStart time.Time) (*Submission, error) {
	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	quest, err := s.catalog.Quest(t.CurrentIssue, questNumber)
	if err != nil {
		return nil, err
	}
	if quest.Kind != catalog.KindRoute {
		return nil, fmt.Errorf("%w: quest %d is not a route quest", ErrWrongQuestKind, questNumber)
	}
	rq, err := quest.RouteQuest()
	if err != nil {
		return nil, fmt.Errorf("failed to build route quest: %w", err)
	}

	result := route.Validate(rq, path)
	sub := &Submission{Correct: result.Valid, Route: &result}
	if result.Valid {
		sub.Reward = quest.RouteReward(len(path))
	}
	return s.finish(ctx, t, quest, sub, strings.Join(path, RouteSeparator), questStart)
}

// finish applies a judged submission: a correct one records the completion
// and any egg, and every submission is logged as an attempt. Persistence
// errors are collected so the remaining writes still run.
func (s *ProgressService) finish(ctx context.Context, t *models.Trainer, quest *catalog.Quest, sub *Submission, answer string, questStart time.Time) (*Submission, error) {
	before := t.Stats
	sub.Trainer = t
	var persistErrs []error

	if sub.Correct {
		updated, err := s.RecordQuestCompletion(ctx, sub.Reward, quest.Number, answer)
		if err != nil && !IsPersistence(err) {
			return nil, err
		}
		persistErrs = append(persistErrs, err)
		sub.Trainer = updated

		if sub.Egg != "" {
			updated, err := s.AddKowaiToTrainer(ctx, sub.Egg)
			if err != nil && !IsPersistence(err) {
				return nil, err
			}
			persistErrs = append(persistErrs, err)
			sub.Trainer = updated
		}
	} else {
		s.sink.Track(ctx, telemetry.NewEvent(telemetry.QuestFailed, t.ID, map[string]any{
			"issueId":     t.CurrentIssue,
			"questNumber": quest.Number,
			"answer":      answer,
		}))
	}

	attempt, err := s.SaveAttempt(ctx, AttemptInput{
		QuestNumber: quest.Number,
		Answer:      answer,
		AnswerType:  answerType(quest),
		IsCorrect:   sub.Correct,
		QuestStart:  questStart,
		StatsBefore: before,
		StatsAfter:  sub.Trainer.Stats,
	})
	sub.Attempt = attempt
	persistErrs = append(persistErrs, err)
	return sub, errors.Join(persistErrs...)
}

// StartIssue stamps the start time of the current issue the first time
func (s *ProgressService) StartIssue(ctx context.Context) (*models.Trainer, error) {
	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	change, err := progression.StartIssue(t, s.now())
	if err != nil {
		return nil, err
	}
	if !change.Changed() {
		return change.Trainer, nil
	}
	if err := s.commit(ctx, "Issue Start", change, map[string]any{"issueId": t.CurrentIssue}); err != nil {
		return change.Trainer, err
	}
	s.sink.Track(ctx, telemetry.NewEvent(telemetry.IssueStarted, t.ID, map[string]any{"issueId": t.CurrentIssue}))
	return change.Trainer, nil
}

// SwitchToIssue makes issueID the current issue
func (s *ProgressService) SwitchToIssue(ctx context.Context, issueID string) (*models.Trainer, error) {
	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}
	if !s.catalog.Exists(issueID) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownIssue, issueID)
	}

	change := progression.SwitchToIssue(t, issueID, s.now())
	props := map[string]any{"from": t.CurrentIssue, "to": issueID}
	if err := s.commit(ctx, "Issue Switch", change, props); err != nil {
		return change.Trainer, err
	}
	s.sink.Track(ctx, telemetry.NewEvent(telemetry.IssueSwitched, t.ID, props))
	return change.Trainer, nil
}

// AddKowaiToTrainer adds a kowai (or egg) to the owned set
func (s *ProgressService) AddKowaiToTrainer(ctx context.Context, kowaiID string) (*models.Trainer, error) {
	return s.addKowai(ctx, kowaiID, "owned", progression.AddOwnedKowai)
}

// AddEncounteredKowai adds a kowai to the encountered set
func (s *ProgressService) AddEncounteredKowai(ctx context.Context, kowaiID string) (*models.Trainer, error) {
	return s.addKowai(ctx, kowaiID, "encountered", progression.AddEncounteredKowai)
}

func (s *ProgressService) addKowai(ctx context.Context, kowaiID, list string, add func(*models.Trainer, string, time.Time) progression.Change) (*models.Trainer, error) {
	kowaiID = strings.TrimSpace(kowaiID)
	if kowaiID == "" {
		return nil, errors.New("kowai id is required")
	}
	t, err := s.store.Current()
	if err != nil {
		return nil, err
	}

	change := add(t, kowaiID, s.now())
	if !change.Changed() {
		return change.Trainer, nil
	}
	props := map[string]any{"kowaiId": kowaiID, "list": list}
	if err := s.commit(ctx, "Kowai Add", change, props); err != nil {
		return change.Trainer, err
	}
	s.sink.Track(ctx, telemetry.NewEvent(telemetry.KowaiAdded, t.ID, props))
	return change.Trainer, nil
}

// commit applies change to the store and writes its patch
func (s *ProgressService) commit(ctx context.Context, op string, change progression.Change, props map[string]any) error {
	s.store.set(change.Trainer)
	if !change.Changed() {
		return nil
	}
	if err := s.trainers.UpdateTrainer(ctx, change.Trainer.ID, change.Patch); err != nil {
		return s.persistFailed(ctx, op, change.Trainer.ID, err, props)
	}
	return nil
}

func (s *ProgressService) persistFailed(ctx context.Context, op, trainerID string, err error, props map[string]any) error {
	p := make(map[string]any, len(props)+1)
	for k, v := range props {
		p[k] = v
	}
	p["error"] = err.Error()
	s.sink.Track(ctx, telemetry.NewEvent(telemetry.FailedEvent(op), trainerID, p))
	s.log.Warn("failed to persist", "op", op, "trainer_id", trainerID, "error", err)
	return &PersistenceError{Op: strings.ToLower(op), Err: err}
}

// SplitRoute parses a path written as "C5->D5" or "C5, D5"
func SplitRoute(answer string) []string {
	answer = strings.ReplaceAll(answer, RouteSeparator, ",")
	var path []string
	for _, tok := range strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == ' ' }) {
		path = append(path, strings.ToUpper(tok))
	}
	return path
}

func answerType(q *catalog.Quest) string {
	if q.AnswerType != "" {
		return q.AnswerType
	}
	switch q.Kind {
	case catalog.KindRoute:
		return models.AnswerTypeRoute
	case catalog.KindChoice:
		return models.AnswerTypeMultipleChoice
	default:
		return models.AnswerTypeText
	}
}

func withStats(props map[string]any, stats models.Stats) map[string]any {
	p := make(map[string]any, len(props)+1)
	for k, v := range props {
		p[k] = v
	}
	p["stats"] = stats
	return p
}
