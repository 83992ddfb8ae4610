package memory

import (
	"time"

	"bi-ops-be/pkg/analyst"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// StateRepository holds the live BusinessState per user. The state is a
// working snapshot, not a record: it expires after an hour of inactivity and
// callers fall back to the initial state when absent.
type StateRepository struct {
	cache *cache.Cache
}

func NewStateRepository() *StateRepository {
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &StateRepository{
		cache: c,
	}
}

func (r *StateRepository) Save(userID uuid.UUID, state analyst.BusinessState) {
	r.cache.Set(userID.String(), state, cache.DefaultExpiration)
}

// Get returns the stored state, or the initial state when none exists.
func (r *StateRepository) Get(userID uuid.UUID) analyst.BusinessState {
	if x, found := r.cache.Get(userID.String()); found {
		return x.(analyst.BusinessState)
	}
	return analyst.InitialState()
}

func (r *StateRepository) Delete(userID uuid.UUID) {
	r.cache.Delete(userID.String())
}
