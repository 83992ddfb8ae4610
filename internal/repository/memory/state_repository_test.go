package memory

import (
	"testing"

	"bi-ops-be/pkg/analyst"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStateRepository(t *testing.T) {
	repo := NewStateRepository()
	userID := uuid.New()

	t.Run("absent user gets initial state", func(t *testing.T) {
		assert.Equal(t, analyst.InitialState(), repo.Get(userID))
	})

	t.Run("save then get round trips", func(t *testing.T) {
		state := analyst.BusinessState{
			Status:          analyst.StatusAnalyzing,
			InsightType:     analyst.InsightFinancial,
			ConfidenceScore: 90,
			RecordsLoaded:   500,
			Message:         "ok",
		}
		repo.Save(userID, state)
		assert.Equal(t, state, repo.Get(userID))
	})

	t.Run("states are scoped per user", func(t *testing.T) {
		other := uuid.New()
		assert.Equal(t, analyst.InitialState(), repo.Get(other))
	})

	t.Run("delete resets to initial state", func(t *testing.T) {
		repo.Delete(userID)
		assert.Equal(t, analyst.InitialState(), repo.Get(userID))
	})
}
