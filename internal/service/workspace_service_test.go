package service

import (
	"context"
	"testing"

	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/repository/memory"
	"bi-ops-be/pkg/analyst"
	"bi-ops-be/pkg/ingest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspaceTestService() (IWorkspaceService, *fakeUow, *memory.StateRepository) {
	uow := &fakeUow{
		messageRepo: &fakeMessageRepo{},
		snippetRepo: &fakeSnippetRepo{},
	}
	stateRepo := memory.NewStateRepository()
	svc := NewWorkspaceService(&fakeFactory{uow: uow}, ingest.NewNormalizer(nil), stateRepo, nil, nil, noopLogger{})
	return svc, uow, stateRepo
}

func TestUpload(t *testing.T) {
	t.Run("valid batch stores snippets and one summary", func(t *testing.T) {
		svc, uow, _ := newWorkspaceTestService()
		userID := uuid.New()

		res, err := svc.Upload(context.Background(), userID, []ingest.File{
			{Name: "sales.csv", Content: []byte("name,amount\na,1\nb,2\n")},
			{Name: "stock.csv", Content: []byte("sku,qty\nx,9\n")},
		})
		require.NoError(t, err)

		require.Len(t, res.Accepted, 2)
		assert.Equal(t, "sales.csv", res.Accepted[0].Name)
		assert.Equal(t, 2, res.Accepted[0].Rows)
		assert.Contains(t, res.Summary, "2 items collected")

		assert.Len(t, uow.snippetRepo.snippets, 2)
		require.Len(t, uow.messageRepo.messages, 1)
		assert.Equal(t, entity.SenderSystem, uow.messageRepo.messages[0].Sender)
		assert.Equal(t, res.Summary, uow.messageRepo.messages[0].Text)
	})

	t.Run("unusable batch still records a summary", func(t *testing.T) {
		svc, uow, _ := newWorkspaceTestService()
		userID := uuid.New()

		res, err := svc.Upload(context.Background(), userID, []ingest.File{
			{Name: "empty.csv", Content: []byte("header,only\n")},
		})
		require.NoError(t, err)

		assert.Empty(t, res.Accepted)
		assert.Equal(t, "No valid data was found in the upload.", res.Summary)
		assert.Empty(t, uow.snippetRepo.snippets)
		require.Len(t, uow.messageRepo.messages, 1)
	})
}

func TestDeleteResetsRecordsWhenWorkspaceEmpties(t *testing.T) {
	svc, uow, stateRepo := newWorkspaceTestService()
	userID := uuid.New()

	uow.snippetRepo.snippets = []*entity.FileSnippet{
		{Id: uuid.New(), UserId: userID, Name: "sales.csv", TrueRowCount: 5},
		{Id: uuid.New(), UserId: userID, Name: "stock.csv", TrueRowCount: 3},
	}
	state := analyst.InitialState()
	state.RecordsLoaded = 8
	stateRepo.Save(userID, state)

	// Removing one of two leaves the count alone.
	require.NoError(t, svc.Delete(context.Background(), userID, "sales.csv"))
	assert.Equal(t, 8, stateRepo.Get(userID).RecordsLoaded)

	// Removing the last one zeroes it.
	require.NoError(t, svc.Delete(context.Background(), userID, "stock.csv"))
	assert.Equal(t, 0, stateRepo.Get(userID).RecordsLoaded)

	require.Len(t, uow.messageRepo.messages, 2)
	assert.Equal(t, "Data source removed: sales", uow.messageRepo.messages[0].Text)
	assert.Equal(t, "Data source removed: stock", uow.messageRepo.messages[1].Text)
}

func TestClear(t *testing.T) {
	svc, uow, stateRepo := newWorkspaceTestService()
	userID := uuid.New()

	uow.snippetRepo.snippets = []*entity.FileSnippet{
		{Id: uuid.New(), UserId: userID, Name: "sales.csv"},
	}
	state := analyst.InitialState()
	state.RecordsLoaded = 100
	stateRepo.Save(userID, state)

	require.NoError(t, svc.Clear(context.Background(), userID))

	assert.Empty(t, uow.snippetRepo.snippets)
	assert.Equal(t, 0, stateRepo.Get(userID).RecordsLoaded)
	require.Len(t, uow.messageRepo.messages, 1)
	assert.Equal(t, "Workspace cleared. All data sources removed.", uow.messageRepo.messages[0].Text)
}

func TestList(t *testing.T) {
	svc, uow, _ := newWorkspaceTestService()
	userID := uuid.New()

	uow.snippetRepo.snippets = []*entity.FileSnippet{
		{Id: uuid.New(), UserId: userID, Name: "sales.csv", TrueRowCount: 42, Content: "a,b\n1,2"},
	}

	infos, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "sales.csv", infos[0].Name)
	assert.Equal(t, 42, infos[0].Rows)
	assert.Equal(t, len("a,b\n1,2"), infos[0].Bytes)
}
