package command

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lorebound/lorebound-backend/internal/domain/leaderboard"
	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type fakeRunRepo struct {
	runs map[uuid.UUID]*run.Run

	created     []*run.Run
	completed   []*run.Score
	abandoned   []uuid.UUID
	completeErr error
}

func newFakeRunRepo() *fakeRunRepo {
	return &fakeRunRepo{runs: make(map[uuid.UUID]*run.Run)}
}

func (f *fakeRunRepo) Create(_ context.Context, r *run.Run) error {
	f.created = append(f.created, r)
	f.runs[r.ID] = r
	return nil
}

func (f *fakeRunRepo) FindByID(_ context.Context, id uuid.UUID) (*run.Run, error) {
	r, ok := f.runs[id]
	if !ok {
		return nil, shared.ErrRunNotFound
	}
	return r, nil
}

func (f *fakeRunRepo) Complete(_ context.Context, c *run.Completion) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	r := f.runs[c.Score.RunID]
	r.Status = run.StatusCompleted
	r.TotalScore = &c.Score.Value
	r.Signature = &c.Signature
	r.Summary = c.Summary
	r.CompletedAt = &c.CompletedAt
	f.completed = append(f.completed, c.Score)
	return nil
}

func (f *fakeRunRepo) Abandon(_ context.Context, id uuid.UUID, completedAt time.Time) error {
	f.runs[id].Status = run.StatusAbandoned
	f.runs[id].CompletedAt = &completedAt
	f.abandoned = append(f.abandoned, id)
	return nil
}

func (f *fakeRunRepo) ExpireStale(_ context.Context, _ time.Time) (int, error) { return 0, nil }

func (f *fakeRunRepo) FindByUser(_ context.Context, _ uuid.UUID, _, _ int) ([]*run.Run, error) {
	return nil, nil
}

func (f *fakeRunRepo) UserStats(_ context.Context, _ uuid.UUID) (*run.UserStats, error) {
	return &run.UserStats{}, nil
}

type fakeProgression struct {
	awarded map[uuid.UUID]int
	err     error
}

func (f *fakeProgression) AddExperience(_ context.Context, userID uuid.UUID, xp int) error {
	if f.err != nil {
		return f.err
	}
	if f.awarded == nil {
		f.awarded = make(map[uuid.UUID]int)
	}
	f.awarded[userID] += xp
	return nil
}

type fakeCache struct {
	invalidated []uuid.UUID
}

func (f *fakeCache) GetPage(context.Context, leaderboard.Scope, string, int, int) (*leaderboard.Page, bool) {
	return nil, false
}
func (f *fakeCache) SetPage(context.Context, *leaderboard.Page, int, int) {}
func (f *fakeCache) GetUserRank(context.Context, uuid.UUID, leaderboard.Scope, string) (*leaderboard.UserRank, bool) {
	return nil, false
}
func (f *fakeCache) SetUserRank(context.Context, *leaderboard.UserRank) {}
func (f *fakeCache) GetStats(context.Context, leaderboard.Scope, string) (*leaderboard.Stats, bool) {
	return nil, false
}
func (f *fakeCache) SetStats(context.Context, *leaderboard.Stats) {}

func (f *fakeCache) Invalidate(_ context.Context, userID uuid.UUID, _ leaderboard.Scope, _ time.Time) {
	f.invalidated = append(f.invalidated, userID)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedRun(repo *fakeRunRepo, userID uuid.UUID) *run.Run {
	issuer, _ := run.NewTokenIssuer("test-secret")
	dungeonID := uuid.New()
	token := issuer.Issue(userID, dungeonID, testStart)
	r := run.NewRun(userID, dungeonID, 1, 42, token, testStart)
	repo.runs[r.ID] = r
	return r
}

func validScores(n int) []run.TurnScore {
	scores := make([]run.TurnScore, n)
	for i := range scores {
		scores[i] = run.TurnScore{Points: 100, AnswerTime: 2.5, IsCorrect: true}
	}
	return scores
}

func validTurns(n int) []run.TurnRecord {
	turns := make([]run.TurnRecord, n)
	for i := range turns {
		turns[i] = run.TurnRecord{Index: i, QuestionID: uuid.New().String(), Correct: true, TimeMs: 2500}
	}
	return turns
}

func newSubmitHandler(repo *fakeRunRepo, prog *fakeProgression, cache *fakeCache) *SubmitRunHandler {
	h := NewSubmitRunHandler(repo, run.NewValidator(), run.NewCalculator(), prog, cache, logger.Default())
	h.now = func() time.Time { return testStart.Add(2 * time.Minute) }
	return h
}

// ══════════════════════════════════════════════════════════════════════════════
// TESTS
// ══════════════════════════════════════════════════════════════════════════════

func TestSubmitRun_Success(t *testing.T) {
	repo := newFakeRunRepo()
	prog := &fakeProgression{}
	cache := &fakeCache{}
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := newSubmitHandler(repo, prog, cache)
	result, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(5),
		Scores:          validScores(5),
		ClientSignature: "deadbeef",
	})

	assert.NoError(t, err)
	assert.Equal(t, 500, result.TotalScore)
	assert.Equal(t, 5, result.CorrectCount)
	assert.Equal(t, 5, result.TurnCount)
	assert.Equal(t, 50, result.XPAwarded)

	assert.Len(t, repo.completed, 1)
	assert.Equal(t, run.StatusCompleted, repo.runs[r.ID].Status)
	if assert.NotNil(t, repo.runs[r.ID].Signature) {
		assert.Equal(t, "deadbeef", *repo.runs[r.ID].Signature)
	}
	assert.JSONEq(t, `{"turn_count":5,"correct_count":5,"streak_max":0,"total_time_ms":12500}`,
		string(repo.runs[r.ID].Summary))
	assert.Equal(t, 50, prog.awarded[userID])
	assert.Equal(t, []uuid.UUID{userID}, cache.invalidated)
}

func TestSubmitRun_WrongUser(t *testing.T) {
	repo := newFakeRunRepo()
	r := seedRun(repo, uuid.New())

	h := newSubmitHandler(repo, &fakeProgression{}, &fakeCache{})
	_, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          uuid.New(),
		Turns:           validTurns(1),
		Scores:          validScores(1),
		ClientSignature: "deadbeef",
	})

	assert.Error(t, err)
	assert.Equal(t, run.StatusInProgress, r.Status)
	assert.Empty(t, repo.completed)
}

func TestSubmitRun_MissingSignature_KeepsRunInProgress(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := newSubmitHandler(repo, &fakeProgression{}, &fakeCache{})
	_, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:  r.ID,
		UserID: userID,
		Turns:  validTurns(1),
		Scores: validScores(1),
	})

	assert.ErrorIs(t, err, shared.ErrMissingSignature)
	assert.Equal(t, run.StatusInProgress, r.Status)
	assert.Empty(t, repo.completed)
}

func TestSubmitRun_TooFast_KeepsRunInProgress(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := newSubmitHandler(repo, &fakeProgression{}, &fakeCache{})
	h.now = func() time.Time { return testStart.Add(10 * time.Second) }

	_, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(1),
		Scores:          validScores(1),
		ClientSignature: "deadbeef",
	})

	assert.ErrorIs(t, err, shared.ErrRunTooFast)
	assert.True(t, shared.IsAntiCheat(err))
	assert.Equal(t, run.StatusInProgress, r.Status)
}

func TestSubmitRun_BadScores_KeepsRunInProgress(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)

	scores := validScores(3)
	scores[1].Points = 5000

	h := newSubmitHandler(repo, &fakeProgression{}, &fakeCache{})
	_, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(3),
		Scores:          scores,
		ClientSignature: "deadbeef",
	})

	assert.ErrorIs(t, err, shared.ErrTurnPointsRange)
	assert.Equal(t, run.StatusInProgress, r.Status)
	assert.Empty(t, repo.completed)
}

func TestSubmitRun_RejectedThenCorrectedSubmission(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := newSubmitHandler(repo, &fakeProgression{}, &fakeCache{})

	_, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:  r.ID,
		UserID: userID,
		Turns:  validTurns(2),
		Scores: validScores(2),
	})
	assert.ErrorIs(t, err, shared.ErrMissingSignature)

	result, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(2),
		Scores:          validScores(2),
		ClientSignature: "deadbeef",
	})
	assert.NoError(t, err)
	assert.Equal(t, 200, result.TotalScore)
	assert.Equal(t, run.StatusCompleted, r.Status)
}

func TestSubmitRun_DoubleSubmission(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)

	cmd := SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(2),
		Scores:          validScores(2),
		ClientSignature: "deadbeef",
	}

	h := newSubmitHandler(repo, &fakeProgression{}, &fakeCache{})
	_, err := h.Handle(context.Background(), cmd)
	assert.NoError(t, err)

	_, err = h.Handle(context.Background(), cmd)
	assert.ErrorIs(t, err, shared.ErrRunNotInProgress)
	assert.Len(t, repo.completed, 1)
}

// Параллельный сабмит может проиграть гонку уже после проверки статуса в
// памяти: условный UPDATE в репозитории возвращает конфликт, и проигравший
// не должен начислять опыт и сбрасывать кэш.
func TestSubmitRun_CompleteConflict(t *testing.T) {
	repo := newFakeRunRepo()
	repo.completeErr = shared.ErrRunNotInProgress
	prog := &fakeProgression{}
	cache := &fakeCache{}
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := newSubmitHandler(repo, prog, cache)
	_, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(2),
		Scores:          validScores(2),
		ClientSignature: "deadbeef",
	})

	assert.ErrorIs(t, err, shared.ErrRunNotInProgress)
	assert.True(t, shared.IsConflict(err))
	assert.Empty(t, prog.awarded)
	assert.Empty(t, cache.invalidated)
}

func TestSubmitRun_ProgressionFailureDoesNotFailSubmit(t *testing.T) {
	repo := newFakeRunRepo()
	prog := &fakeProgression{err: shared.ErrProfileNotFound}
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := newSubmitHandler(repo, prog, &fakeCache{})
	result, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(2),
		Scores:          validScores(2),
		ClientSignature: "deadbeef",
	})

	assert.NoError(t, err)
	assert.Equal(t, 200, result.TotalScore)
	assert.Equal(t, run.StatusCompleted, r.Status)
}

func TestSubmitRun_NilProgressionAndCache(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := NewSubmitRunHandler(repo, run.NewValidator(), run.NewCalculator(), nil, nil, logger.Default())
	h.now = func() time.Time { return testStart.Add(2 * time.Minute) }

	result, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           r.ID,
		UserID:          userID,
		Turns:           validTurns(2),
		Scores:          validScores(2),
		ClientSignature: "deadbeef",
	})

	assert.NoError(t, err)
	assert.Equal(t, 200, result.TotalScore)
}

func TestSubmitRun_EmptySubmission(t *testing.T) {
	repo := newFakeRunRepo()
	h := newSubmitHandler(repo, &fakeProgression{}, &fakeCache{})

	_, err := h.Handle(context.Background(), SubmitRunCommand{
		RunID:           uuid.New(),
		UserID:          uuid.New(),
		ClientSignature: "deadbeef",
	})

	assert.ErrorIs(t, err, shared.ErrEmptyValue)
}
