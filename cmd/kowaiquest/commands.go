package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"kowaiquest/internal/catalog"
	"kowaiquest/internal/models"
	"kowaiquest/internal/route"
	"kowaiquest/internal/service"
	"kowaiquest/internal/telemetry"
)

// command is one subcommand. resume commands reconcile sessions and load the
// active trainer before running.
type command struct {
	resume bool
	run    func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"signup":       {resume: true, run: runSignup},
	"login":        {resume: true, run: runLogin},
	"logout":       {resume: true, run: runLogout},
	"sessions":     {resume: true, run: runSessions},
	"switch":       {resume: true, run: runSwitch},
	"remove":       {resume: true, run: runRemove},
	"show":         {resume: true, run: runShow},
	"start":        {resume: true, run: runStart},
	"switch-issue": {resume: true, run: runSwitchIssue},
	"quest":        {resume: true, run: runQuest},
	"submit":       {resume: true, run: runSubmit},
	"route":        {resume: true, run: runRoute},
	"kowai":        {resume: true, run: runKowai},
	"events":       {run: runEvents},
}

func (a *app) run(ctx context.Context, cmd command, args []string) error {
	if notice := a.sessions.Notice(); notice != nil {
		fmt.Fprintf(a.out, "Note: saved sessions were not loaded (%v)\n", notice)
	}
	if cmd.resume {
		_, report, err := a.trainers.Resume(ctx)
		if err != nil {
			return err
		}
		for _, id := range report.Pruned {
			fmt.Fprintf(a.out, "Removed saved session for %s: the trainer no longer exists\n", id)
		}
	}
	return cmd.run(ctx, a, args)
}

// settle prints a warning for writes that did not reach the backend and
// treats them as success: the trainer keeps their progress for this run.
func (a *app) settle(err error) error {
	if err == nil {
		return nil
	}
	if service.IsPersistence(err) {
		fmt.Fprintf(a.out, "Warning: your progress could not be saved right now (%v)\n", err)
		return nil
	}
	return err
}

func identityFlags(name string) (*flag.FlagSet, *string, *string, *int) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	first := fs.String("first", "", "First name (required)")
	last := fs.String("last", "", "Last name (required)")
	age := fs.Int("age", 0, "Age, 1 to 18 (required)")
	return fs, first, last, age
}

func runSignup(ctx context.Context, a *app, args []string) error {
	fs, first, last, age := identityFlags("signup")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := a.trainers.Signup(ctx, *first, *last, *age)
	if t == nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! Your trainer id is %s\n", t.DisplayName(), t.ID)
	return a.settle(err)
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs, first, last, age := identityFlags("login")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := a.trainers.Login(ctx, *first, *last, *age)
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Errorf("no trainer named %s %s aged %d, use signup to create one", *first, *last, *age)
	}
	if t == nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s!\n", t.DisplayName())
	return a.settle(err)
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.trainers.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged out. %d saved session(s) kept on this device\n", len(a.trainers.Sessions()))
	return nil
}

func runSessions(_ context.Context, a *app, _ []string) error {
	sessions := a.trainers.Sessions()
	if len(sessions) == 0 {
		fmt.Fprintln(a.out, "No saved sessions")
		return nil
	}
	active := a.sessions.ActiveID()
	for _, s := range sessions {
		marker := " "
		if s.TrainerID == active {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %-24s %-20s last login %s\n", marker, s.TrainerID, service.DisplayName(s), s.LastLogin.Local().Format(time.DateTime))
	}
	return nil
}

func idFlag(name, usage string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	id := fs.String("id", "", usage)
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *id == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}
	if *id == "" {
		return "", errors.New("-id is required")
	}
	return *id, nil
}

func runSwitch(ctx context.Context, a *app, args []string) error {
	id, err := idFlag("switch", "Trainer id to switch to", args)
	if err != nil {
		return err
	}
	t, err := a.trainers.Switch(ctx, id)
	if errors.Is(err, service.ErrNotFound) {
		return fmt.Errorf("trainer %s no longer exists, its saved session was removed", id)
	}
	if t == nil {
		return err
	}
	fmt.Fprintf(a.out, "Switched to %s\n", t.DisplayName())
	return a.settle(err)
}

func runRemove(ctx context.Context, a *app, args []string) error {
	id, err := idFlag("remove", "Trainer id to forget on this device", args)
	if err != nil {
		return err
	}
	next, err := a.trainers.Remove(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed saved session %s\n", id)
	if next != "" {
		fmt.Fprintf(a.out, "Active session is now %s\n", next)
	}
	return nil
}

func runShow(_ context.Context, a *app, _ []string) error {
	t, err := a.trainers.Current()
	if err != nil {
		return notLoggedIn(err)
	}
	a.printTrainer(t)
	return nil
}

func runStart(ctx context.Context, a *app, _ []string) error {
	t, err := a.progress.StartIssue(ctx)
	if t == nil {
		return notLoggedIn(err)
	}
	fmt.Fprintf(a.out, "Started %s\n", a.issueTitle(t.CurrentIssue))
	return a.settle(err)
}

func runSwitchIssue(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("switch-issue", flag.ContinueOnError)
	issue := fs.String("issue", "", "Issue id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := a.progress.SwitchToIssue(ctx, *issue)
	if t == nil {
		return notLoggedIn(err)
	}
	fmt.Fprintf(a.out, "Now playing %s\n", a.issueTitle(t.CurrentIssue))
	return a.settle(err)
}

func runQuest(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("quest", flag.ContinueOnError)
	number := fs.Int("number", 0, "Quest number (default: the next quest)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := a.trainers.Current()
	if err != nil {
		return notLoggedIn(err)
	}
	n := *number
	if n == 0 {
		n = t.Progress(t.CurrentIssue).LastCompletedQuest + 1
	}
	if n > a.catalog.QuestCount(t.CurrentIssue) {
		a.printIssueDone(t.CurrentIssue)
		return nil
	}
	q, err := a.catalog.Quest(t.CurrentIssue, n)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Quest %d: %s\n", q.Number, q.Title)
	for _, ch := range q.Choices {
		label := ch.Value
		if ch.Label != "" {
			label = ch.Value + " - " + ch.Label
		}
		fmt.Fprintf(a.out, "  %s\n", label)
	}
	if q.Kind == catalog.KindRoute {
		fmt.Fprintf(a.out, "Find a path from %s to %s, moving one square up, down, left or right\n", q.Route.Start, q.Route.Goal)
	}
	return nil
}

func runSubmit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	quest := fs.Int("quest", 0, "Quest number (required)")
	answer := fs.String("answer", "", "Answer (required)")
	started := fs.String("started", "", "When the quest was shown, RFC 3339 (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	questStart, err := parseStarted(*started)
	if err != nil {
		return err
	}

	sub, err := a.progress.SubmitQuest(ctx, *quest, *answer, questStart)
	if sub == nil {
		return notLoggedIn(err)
	}
	a.printSubmission(sub)
	return a.settle(err)
}

func runRoute(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("route", flag.ContinueOnError)
	quest := fs.Int("quest", 0, "Route quest number (required)")
	path := fs.String("path", "", "Cells to click in order, e.g. C5,D5,D4,E4 (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	t, err := a.trainers.Current()
	if err != nil {
		return notLoggedIn(err)
	}
	q, err := a.catalog.Quest(t.CurrentIssue, *quest)
	if err != nil {
		return err
	}
	if q.Kind != catalog.KindRoute {
		return fmt.Errorf("quest %d is not a route quest, use submit", *quest)
	}
	rq, err := q.RouteQuest()
	if err != nil {
		return err
	}

	b := route.NewBuilder(rq)
	for i, cell := range service.SplitRoute(*path) {
		if i == 0 && strings.EqualFold(cell, rq.Start.String()) {
			continue
		}
		out, err := b.Click(cell)
		if err != nil {
			return err
		}
		if out.Warning != "" {
			fmt.Fprintf(a.out, "! %s\n", out.Warning)
		}
		switch out.Action {
		case route.Ignored:
			if out.Warning == "" {
				fmt.Fprintf(a.out, "  %s skipped: not a step you can take from here\n", cell)
			}
		case route.Removed:
			fmt.Fprintf(a.out, "  %s undone\n", cell)
		}
	}

	sub, err := a.progress.SubmitRoute(ctx, *quest, b.Path(), time.Time{})
	if sub == nil {
		return notLoggedIn(err)
	}
	a.printSubmission(sub)
	return a.settle(err)
}

func runKowai(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("kowai", flag.ContinueOnError)
	id := fs.String("id", "", "Kowai id (required)")
	encountered := fs.Bool("encountered", false, "Mark as encountered instead of owned")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, ok := a.catalog.LookupKowai(*id); !ok {
		return fmt.Errorf("unknown kowai %q", *id)
	}

	var err error
	var t *models.Trainer
	if *encountered {
		t, err = a.progress.AddEncounteredKowai(ctx, *id)
	} else {
		t, err = a.progress.AddKowaiToTrainer(ctx, *id)
	}
	if t == nil {
		return notLoggedIn(err)
	}
	fmt.Fprintf(a.out, "%s now has %d kowai and has met %d\n", t.DisplayName(), len(t.OwnedKowai), len(t.EncounteredKowai))
	return a.settle(err)
}

func runEvents(ctx context.Context, a *app, _ []string) error {
	if a.redis == nil {
		return errors.New("events requires TELEMETRY=redis")
	}
	err := a.redis.Subscribe(ctx, func(e telemetry.Event) {
		fmt.Fprintf(a.out, "%s  %-26s %-20s %v\n", e.Time.Local().Format(time.TimeOnly), e.Name, e.TrainerID, e.Properties)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	fmt.Fprintf(a.out, "Listening on %s, press Ctrl+C to stop\n", a.cfg.TelemetryChannel)
	<-ctx.Done()
	return nil
}

func parseStarted(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -started: %w", err)
	}
	return t, nil
}

func notLoggedIn(err error) error {
	if errors.Is(err, service.ErrNoActiveTrainer) {
		return errors.New("no trainer is logged in, use signup, login or switch")
	}
	return err
}

func (a *app) issueTitle(issueID string) string {
	issue, err := a.catalog.Issue(issueID)
	if err != nil || issue.Title == "" {
		return issueID
	}
	return issue.Title
}

func (a *app) printIssueDone(issueID string) {
	fmt.Fprintf(a.out, "You finished every quest in %s!\n", a.issueTitle(issueID))
	if next, ok := a.catalog.NextIssue(issueID); ok {
		fmt.Fprintf(a.out, "Next up: %s (switch-issue -issue %s)\n", a.issueTitle(next), next)
	}
	if issue, err := a.catalog.Issue(issueID); err == nil {
		if issue.PurchaseLink != "" {
			fmt.Fprintf(a.out, "Get the next issue: %s\n", issue.PurchaseLink)
		}
		if issue.FeedbackLink != "" {
			fmt.Fprintf(a.out, "Tell us what you thought: %s\n", issue.FeedbackLink)
		}
	}
}

func (a *app) printSubmission(sub *service.Submission) {
	if sub.Route != nil && !sub.Route.Valid {
		fmt.Fprintln(a.out, "That route doesn't work:")
		for _, v := range sub.Route.Violations {
			fmt.Fprintf(a.out, "  - %s\n", v.Message)
		}
		fmt.Fprintln(a.out, "Try again from the start")
		return
	}
	if !sub.Correct {
		fmt.Fprintln(a.out, "Not quite, try again!")
		return
	}

	fmt.Fprintf(a.out, "Correct! %s\n", formatReward(sub.Reward))
	if sub.Egg != "" {
		fmt.Fprintf(a.out, "You received a %s\n", sub.Egg)
	}
	if sub.Route != nil && len(sub.Route.Hazards) > 0 {
		fmt.Fprintf(a.out, "You made it past %d dangerous square(s)\n", len(sub.Route.Hazards))
	}
	t := sub.Trainer
	if p := t.Progress(t.CurrentIssue); p.CompletedAt != nil && p.LastCompletedQuest == a.catalog.QuestCount(t.CurrentIssue) {
		a.printIssueDone(t.CurrentIssue)
	}
}

func (a *app) printTrainer(t *models.Trainer) {
	fmt.Fprintf(a.out, "%s (%s), age %d\n", t.DisplayName(), t.ID, t.Age)
	fmt.Fprintf(a.out, "Stats: bravery %d, wisdom %d, curiosity %d, empathy %d\n",
		t.Stats.Bravery, t.Stats.Wisdom, t.Stats.Curiosity, t.Stats.Empathy)

	issues := make([]string, 0, len(t.IssueProgress))
	for id := range t.IssueProgress {
		issues = append(issues, id)
	}
	sort.Strings(issues)
	for _, id := range issues {
		p := t.IssueProgress[id]
		marker := " "
		if id == t.CurrentIssue {
			marker = "*"
		}
		status := fmt.Sprintf("%d/%d quests", p.LastCompletedQuest, a.catalog.QuestCount(id))
		if p.CompletedAt != nil {
			status += ", complete"
		}
		fmt.Fprintf(a.out, "%s %s: %s\n", marker, a.issueTitle(id), status)
	}

	fmt.Fprintf(a.out, "Kowai: %s\n", a.kowaiNames(t.OwnedKowai))
	fmt.Fprintf(a.out, "Met: %s\n", a.kowaiNames(t.EncounteredKowai))
}

func (a *app) kowaiNames(ids []string) string {
	if len(ids) == 0 {
		return "none yet"
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id
		if k, ok := a.catalog.LookupKowai(id); ok && k.DisplayName != "" {
			names[i] = k.DisplayName
			if strings.HasSuffix(id, catalog.EggSuffix) {
				names[i] += catalog.EggSuffix
			}
		}
	}
	return strings.Join(names, ", ")
}

func formatReward(s models.Stats) string {
	var parts []string
	for _, stat := range []struct {
		name  string
		value int
	}{
		{"bravery", s.Bravery},
		{"wisdom", s.Wisdom},
		{"curiosity", s.Curiosity},
		{"empathy", s.Empathy},
	} {
		if stat.value > 0 {
			parts = append(parts, fmt.Sprintf("+%d %s", stat.value, stat.name))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}
