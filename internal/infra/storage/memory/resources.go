package memory

import (
	"context"
	"sync"

	domainresource "reservd/internal/domain/resource"
)

// ResourceRepository is an in-memory catalog view used in dev mode and tests.
type ResourceRepository struct {
	mu    sync.RWMutex
	items map[domainresource.ID]*domainresource.Resource
}

func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{items: make(map[domainresource.ID]*domainresource.Resource)}
}

func (r *ResourceRepository) ByID(ctx context.Context, id domainresource.ID) (*domainresource.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainresource.ErrNotFound
	}
	clone := *res
	return &clone, nil
}

// Save seeds or updates a catalog entry. The engine itself never writes
// resources; this exists for fixtures.
func (r *ResourceRepository) Save(ctx context.Context, res *domainresource.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *res
	r.items[res.ID] = &clone
	return nil
}

var _ domainresource.Repository = (*ResourceRepository)(nil)
