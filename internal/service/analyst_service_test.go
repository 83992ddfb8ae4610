package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bi-ops-be/internal/constant"
	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/repository/contract"
	"bi-ops-be/internal/repository/memory"
	"bi-ops-be/internal/repository/specification"
	"bi-ops-be/internal/repository/unitofwork"
	"bi-ops-be/pkg/analyst"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fakes ---

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

type fakeMessageRepo struct {
	messages  []*entity.Message
	createErr error
}

func (r *fakeMessageRepo) Create(_ context.Context, msg *entity.Message) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.messages = append(r.messages, msg)
	return nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Message, error) {
	return r.messages, nil
}

func (r *fakeMessageRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.messages)), nil
}

type fakeSnippetRepo struct {
	snippets []*entity.FileSnippet
}

func (r *fakeSnippetRepo) Upsert(_ context.Context, s *entity.FileSnippet) error {
	r.snippets = append(r.snippets, s)
	return nil
}

func (r *fakeSnippetRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.FileSnippet, error) {
	return nil, nil
}

func (r *fakeSnippetRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.FileSnippet, error) {
	return r.snippets, nil
}

func (r *fakeSnippetRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	return int64(len(r.snippets)), nil
}

func (r *fakeSnippetRepo) Delete(_ context.Context, _ uuid.UUID, name string) error {
	kept := r.snippets[:0]
	for _, s := range r.snippets {
		if s.Name != name {
			kept = append(kept, s)
		}
	}
	r.snippets = kept
	return nil
}

func (r *fakeSnippetRepo) DeleteAllByUser(_ context.Context, _ uuid.UUID) error {
	r.snippets = nil
	return nil
}

type fakeUow struct {
	userRepo    *fakeUserRepo
	messageRepo *fakeMessageRepo
	snippetRepo *fakeSnippetRepo
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository { return u.userRepo }
func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return u.messageRepo
}
func (u *fakeUow) FileSnippetRepository() contract.FileSnippetRepository {
	return u.snippetRepo
}

type fakeFactory struct {
	uow *fakeUow
}

func (f *fakeFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return f.uow
}

type fakeCollaborator struct {
	analyzeFn func(ctx context.Context, req analyst.Request) (*analyst.BusinessState, error)
}

func (c *fakeCollaborator) Analyze(ctx context.Context, req analyst.Request) (*analyst.BusinessState, error) {
	return c.analyzeFn(ctx, req)
}

func newTestService(collab analyst.Collaborator) (IAnalystService, *fakeUow, *memory.StateRepository) {
	uow := &fakeUow{
		messageRepo: &fakeMessageRepo{},
		snippetRepo: &fakeSnippetRepo{},
	}
	stateRepo := memory.NewStateRepository()
	svc := NewAnalystService(&fakeFactory{uow: uow}, collab, stateRepo, nil, nil, noopLogger{})
	return svc, uow, stateRepo
}

// --- Tests ---

func TestHandleCommandPersistsBothSides(t *testing.T) {
	collab := &fakeCollaborator{
		analyzeFn: func(_ context.Context, _ analyst.Request) (*analyst.BusinessState, error) {
			return &analyst.BusinessState{
				Status:          analyst.StatusAnalyzing,
				InsightType:     analyst.InsightGeneral,
				ConfidenceScore: 70,
				RecordsLoaded:   0,
				Message:         "Here is your answer.",
			}, nil
		},
	}
	svc, uow, _ := newTestService(collab)
	userID := uuid.New()

	res, err := svc.HandleCommand(context.Background(), userID, "hello")
	require.NoError(t, err)

	require.Len(t, uow.messageRepo.messages, 2)
	assert.Equal(t, entity.SenderUser, uow.messageRepo.messages[0].Sender)
	assert.Equal(t, "hello", uow.messageRepo.messages[0].Text)
	assert.Equal(t, entity.SenderSystem, uow.messageRepo.messages[1].Sender)
	assert.Equal(t, "Here is your answer.", res.Message.Text)
	assert.False(t, res.Celebrate)
}

func TestHandleCommandCollaboratorFailure(t *testing.T) {
	collab := &fakeCollaborator{
		analyzeFn: func(_ context.Context, _ analyst.Request) (*analyst.BusinessState, error) {
			return nil, errors.New("upstream exploded")
		},
	}
	svc, uow, stateRepo := newTestService(collab)
	userID := uuid.New()

	prev := analyst.BusinessState{
		Status:          analyst.StatusVisualizing,
		InsightType:     analyst.InsightFinancial,
		ConfidenceScore: 88,
		RecordsLoaded:   500,
		Message:         "old insight",
	}
	stateRepo.Save(userID, prev)

	res, err := svc.HandleCommand(context.Background(), userID, "analyze this")

	// The failure is absorbed, not surfaced.
	require.NoError(t, err)
	assert.Equal(t, analyst.StatusIdle, res.State.Status)
	assert.Equal(t, analyst.InsightAlert, res.State.InsightType)
	assert.Equal(t, 500, res.State.RecordsLoaded)
	assert.NotEmpty(t, res.Message.Text)

	// Only the user message hit the transcript.
	require.Len(t, uow.messageRepo.messages, 1)
	assert.Equal(t, entity.SenderUser, uow.messageRepo.messages[0].Sender)

	// The live state reflects the fallback.
	assert.Equal(t, analyst.InsightAlert, stateRepo.Get(userID).InsightType)
}

func TestHandleCommandReconciliation(t *testing.T) {
	tests := []struct {
		name         string
		filesLoaded  int
		previous     int
		reported     int
		wantRecords  int
	}{
		{
			name:        "zero report with files carries forward",
			filesLoaded: 1,
			previous:    500,
			reported:    0,
			wantRecords: 500,
		},
		{
			name:        "no files forces zero",
			filesLoaded: 0,
			previous:    500,
			reported:    321,
			wantRecords: 0,
		},
		{
			name:        "positive report accepted",
			filesLoaded: 1,
			previous:    500,
			reported:    123,
			wantRecords: 123,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collab := &fakeCollaborator{
				analyzeFn: func(_ context.Context, _ analyst.Request) (*analyst.BusinessState, error) {
					return &analyst.BusinessState{
						Status:          analyst.StatusAnalyzing,
						InsightType:     analyst.InsightGeneral,
						ConfidenceScore: 60,
						RecordsLoaded:   tt.reported,
						Message:         "done",
					}, nil
				},
			}
			svc, uow, stateRepo := newTestService(collab)
			userID := uuid.New()

			for i := 0; i < tt.filesLoaded; i++ {
				uow.snippetRepo.snippets = append(uow.snippetRepo.snippets, &entity.FileSnippet{
					Id:     uuid.New(),
					UserId: userID,
					Name:   "data.csv",
				})
			}
			prev := analyst.InitialState()
			prev.RecordsLoaded = tt.previous
			stateRepo.Save(userID, prev)

			res, err := svc.HandleCommand(context.Background(), userID, "how many rows?")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRecords, res.State.RecordsLoaded)
			assert.Equal(t, tt.wantRecords, stateRepo.Get(userID).RecordsLoaded)
		})
	}
}

func TestHandleCommandCelebrate(t *testing.T) {
	collab := &fakeCollaborator{
		analyzeFn: func(_ context.Context, _ analyst.Request) (*analyst.BusinessState, error) {
			return &analyst.BusinessState{
				Status:          analyst.StatusVisualizing,
				InsightType:     analyst.InsightFinancial,
				ConfidenceScore: 95,
				RecordsLoaded:   10,
				Message:         "Record quarter!",
			}, nil
		},
	}
	svc, uow, _ := newTestService(collab)
	userID := uuid.New()
	uow.snippetRepo.snippets = append(uow.snippetRepo.snippets, &entity.FileSnippet{
		Id: uuid.New(), UserId: userID, Name: "q.csv",
	})

	res, err := svc.HandleCommand(context.Background(), userID, "how did we do?")
	require.NoError(t, err)
	assert.True(t, res.Celebrate)
}

func TestHandleCommandRejectsConcurrentTurn(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	var enteredOnce sync.Once
	collab := &fakeCollaborator{
		analyzeFn: func(_ context.Context, _ analyst.Request) (*analyst.BusinessState, error) {
			enteredOnce.Do(func() { close(entered) })
			<-proceed
			return &analyst.BusinessState{
				Status:          analyst.StatusIdle,
				InsightType:     analyst.InsightGeneral,
				ConfidenceScore: 10,
				Message:         "slow answer",
			}, nil
		},
	}
	svc, _, _ := newTestService(collab)
	userID := uuid.New()

	done := make(chan error, 1)
	go func() {
		_, err := svc.HandleCommand(context.Background(), userID, "slow one")
		done <- err
	}()

	<-entered
	_, err := svc.HandleCommand(context.Background(), userID, "impatient")
	assert.ErrorIs(t, err, ErrCommandInFlight)

	close(proceed)
	require.NoError(t, <-done)

	// The guard is released once the first turn completes.
	_, err = svc.HandleCommand(context.Background(), userID, "try again")
	assert.NoError(t, err)
}

func TestHistoryWelcomeMessage(t *testing.T) {
	collab := &fakeCollaborator{}
	svc, uow, _ := newTestService(collab)
	userID := uuid.New()

	t.Run("empty transcript greets without persisting", func(t *testing.T) {
		history, err := svc.History(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, string(entity.SenderSystem), history[0].Sender)
		assert.Equal(t, constant.WelcomeMessage, history[0].Text)
		assert.Empty(t, uow.messageRepo.messages)
	})

	t.Run("existing transcript returned as is", func(t *testing.T) {
		uow.messageRepo.messages = []*entity.Message{
			{Id: uuid.New(), UserId: userID, Sender: entity.SenderUser, Text: "hi", CreatedAt: time.Now()},
		}
		history, err := svc.History(context.Background(), userID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, "hi", history[0].Text)
	})
}

func TestSnapshotFrameOrder(t *testing.T) {
	collab := &fakeCollaborator{}
	svc, uow, _ := newTestService(collab)
	userID := uuid.New()
	uow.snippetRepo.snippets = append(uow.snippetRepo.snippets, &entity.FileSnippet{
		Id: uuid.New(), UserId: userID, Name: "sales.csv", TrueRowCount: 10, Content: "a,b\n1,2",
	})

	updates := svc.Snapshot(context.Background(), userID)

	require.Len(t, updates, 3)
	assert.Equal(t, "history", updates[0].Type)
	assert.Equal(t, "files", updates[1].Type)
	assert.Equal(t, "state", updates[2].Type)
}
