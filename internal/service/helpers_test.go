package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kowaiquest/internal/catalog"
	"kowaiquest/internal/gateway"
	"kowaiquest/internal/logger"
	"kowaiquest/internal/repository"
	"kowaiquest/internal/session"
	"kowaiquest/internal/telemetry"
)

var errRejected = errors.New("backend rejected request")

// flakyGateway is a memory gateway whose reads or writes can be switched off
type flakyGateway struct {
	*gateway.MemoryGateway
	mu         sync.Mutex
	failWrites bool
	failReads  bool
}

func (g *flakyGateway) set(writes, reads bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWrites, g.failReads = writes, reads
}

func (g *flakyGateway) writesFail() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failWrites
}

func (g *flakyGateway) readsFail() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failReads
}

func (g *flakyGateway) Get(ctx context.Context, collection, id string) (gateway.Document, error) {
	if g.readsFail() {
		return nil, errRejected
	}
	return g.MemoryGateway.Get(ctx, collection, id)
}

func (g *flakyGateway) Set(ctx context.Context, collection, id string, data gateway.Document) error {
	if g.writesFail() {
		return errRejected
	}
	return g.MemoryGateway.Set(ctx, collection, id, data)
}

func (g *flakyGateway) Update(ctx context.Context, collection, id string, patch gateway.Document) error {
	if g.writesFail() {
		return errRejected
	}
	return g.MemoryGateway.Update(ctx, collection, id, patch)
}

func (g *flakyGateway) Delete(ctx context.Context, collection, id string) error {
	if g.writesFail() {
		return errRejected
	}
	return g.MemoryGateway.Delete(ctx, collection, id)
}

// tickingClock advances one second per reading so attempt ids never collide
type tickingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	gw          *flakyGateway
	events      *telemetry.Recorder
	catalog     *catalog.Catalog
	trainerRepo *repository.TrainerRepository
	historyRepo *repository.StatsHistoryRepository
	attemptRepo *repository.AttemptRepository
	sessionPath string
	clock       *tickingClock
	sessions    *SessionService
	trainers    *TrainerService
	progress    *ProgressService
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	gw := &flakyGateway{MemoryGateway: gateway.NewMemoryGateway()}
	f := &fixture{
		gw:          gw,
		events:      &telemetry.Recorder{},
		catalog:     cat,
		trainerRepo: repository.NewTrainerRepository(gw),
		historyRepo: repository.NewStatsHistoryRepository(gw),
		attemptRepo: repository.NewAttemptRepository(gw),
		sessionPath: filepath.Join(t.TempDir(), "sessions.json"),
		clock:       &tickingClock{t: time.Date(2025, 9, 14, 12, 0, 0, 0, time.UTC)},
	}
	f.start(t, strict)
	return f
}

// start wires a fresh set of services over the fixture's gateway and
// session file, as a new process would
func (f *fixture) start(t *testing.T, strict bool) {
	t.Helper()
	log := logger.NewNop()
	sessions, err := NewSessionService(session.NewFileStore(f.sessionPath), f.trainerRepo, f.events, log)
	require.NoError(t, err)

	store := NewTrainerStore()
	f.sessions = sessions
	f.trainers = NewTrainerService(f.trainerRepo, sessions, f.catalog, store, f.events, log)
	f.trainers.SetClock(f.clock.Now)
	f.progress = NewProgressService(f.trainerRepo, f.historyRepo, f.attemptRepo, f.catalog, store, f.events, log, strict)
	f.progress.SetClock(f.clock.Now)
}

func (f *fixture) signup(t *testing.T, first, last string, age int) string {
	t.Helper()
	tr, err := f.trainers.Signup(context.Background(), first, last, age)
	require.NoError(t, err)
	return tr.ID
}
