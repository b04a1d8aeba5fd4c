package command

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lorebound/lorebound-backend/internal/domain/run"
	"github.com/lorebound/lorebound-backend/internal/domain/shared"
	"github.com/lorebound/lorebound-backend/pkg/logger"
)

func newStartHandler(t *testing.T, repo *fakeRunRepo) *StartRunHandler {
	t.Helper()
	issuer, err := run.NewTokenIssuer("test-secret")
	assert.NoError(t, err)
	h := NewStartRunHandler(repo, issuer, logger.Default())
	h.now = func() time.Time { return testStart }
	return h
}

func TestStartRun_Success(t *testing.T) {
	repo := newFakeRunRepo()
	h := newStartHandler(t, repo)

	userID := uuid.New()
	dungeonID := uuid.New()

	result, err := h.Handle(context.Background(), StartRunCommand{
		UserID:    userID,
		DungeonID: dungeonID,
	})

	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, result.RunID)
	assert.Equal(t, dungeonID, result.DungeonID)
	assert.Equal(t, 1, result.Floor)
	assert.Equal(t, testStart, result.StartedAt)
	assert.NotEmpty(t, result.SessionToken)

	assert.Len(t, repo.created, 1)
	created := repo.created[0]
	assert.Equal(t, run.StatusInProgress, created.Status)
	assert.Equal(t, userID, created.UserID)

	issuer, err := run.NewTokenIssuer("test-secret")
	assert.NoError(t, err)
	assert.True(t, issuer.Verify(result.SessionToken, userID, dungeonID))
}

func TestStartRun_ExplicitFloor(t *testing.T) {
	repo := newFakeRunRepo()
	h := newStartHandler(t, repo)

	result, err := h.Handle(context.Background(), StartRunCommand{
		UserID:    uuid.New(),
		DungeonID: uuid.New(),
		Floor:     7,
	})

	assert.NoError(t, err)
	assert.Equal(t, 7, result.Floor)
}

func TestStartRun_Validation(t *testing.T) {
	tests := []struct {
		name string
		cmd  StartRunCommand
	}{
		{"missing user", StartRunCommand{DungeonID: uuid.New()}},
		{"missing dungeon", StartRunCommand{UserID: uuid.New()}},
		{"negative floor", StartRunCommand{UserID: uuid.New(), DungeonID: uuid.New(), Floor: -1}},
		{"floor too high", StartRunCommand{UserID: uuid.New(), DungeonID: uuid.New(), Floor: 101}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRunRepo()
			h := newStartHandler(t, repo)

			_, err := h.Handle(context.Background(), tt.cmd)
			assert.Error(t, err)
			assert.True(t, shared.IsValidation(err))
			assert.Empty(t, repo.created)
		})
	}
}

func TestAbandonRun_Success(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)

	h := NewAbandonRunHandler(repo, logger.Default())
	h.now = func() time.Time { return testStart.Add(time.Minute) }

	result, err := h.Handle(context.Background(), AbandonRunCommand{RunID: r.ID, UserID: userID})

	assert.NoError(t, err)
	assert.Equal(t, string(run.StatusAbandoned), result.Status)
	assert.Equal(t, run.StatusAbandoned, r.Status)
	assert.Equal(t, []uuid.UUID{r.ID}, repo.abandoned)
}

func TestAbandonRun_AlreadySettled(t *testing.T) {
	repo := newFakeRunRepo()
	userID := uuid.New()
	r := seedRun(repo, userID)
	r.Status = run.StatusCompleted

	h := NewAbandonRunHandler(repo, logger.Default())
	_, err := h.Handle(context.Background(), AbandonRunCommand{RunID: r.ID, UserID: userID})

	assert.ErrorIs(t, err, shared.ErrRunNotInProgress)
	assert.Empty(t, repo.abandoned)
}

func TestAbandonRun_WrongUser(t *testing.T) {
	repo := newFakeRunRepo()
	r := seedRun(repo, uuid.New())

	h := NewAbandonRunHandler(repo, logger.Default())
	_, err := h.Handle(context.Background(), AbandonRunCommand{RunID: r.ID, UserID: uuid.New()})

	assert.Error(t, err)
	assert.Equal(t, run.StatusInProgress, r.Status)
}
